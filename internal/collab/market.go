package collab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/autoval/autoval/pkg/valuation"
)

// MarketClient fetches live regional demand from the listings service.
type MarketClient struct {
	c *client
}

var _ valuation.DemandSource = (*MarketClient)(nil)

// NewMarketClient creates a client for the service at baseURL.
func NewMarketClient(baseURL string, opts Options) (*MarketClient, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &MarketClient{c: c}, nil
}

type demandResponse struct {
	Zip        string  `json:"zip"`
	Multiplier float64 `json:"multiplier"`
	Listings   int     `json:"listings"`
}

// RegionalDemand returns the demand multiplier for zip. ok is false when the
// service has no figure for it.
func (m *MarketClient) RegionalDemand(ctx context.Context, zip string) (float64, bool, error) {
	var resp demandResponse
	err := m.c.do(ctx, http.MethodGet, "/v1/demand", url.Values{"zip": {zip}}, nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("market demand: %w", err)
	}
	if resp.Multiplier <= 0 {
		return 0, false, nil
	}
	return resp.Multiplier, true, nil
}
