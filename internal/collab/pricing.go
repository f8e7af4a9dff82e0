package collab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/autoval/autoval/pkg/valuation"
)

// PricingClient derives base prices from the pricing-reference service.
type PricingClient struct {
	c *client
}

var _ valuation.PriceReference = (*PricingClient)(nil)

// NewPricingClient creates a client for the service at baseURL.
func NewPricingClient(baseURL string, opts Options) (*PricingClient, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &PricingClient{c: c}, nil
}

type basePriceResponse struct {
	BasePrice float64 `json:"base_price"`
	Currency  string  `json:"currency"`
}

// BasePrice returns the reference price for the vehicle.
func (p *PricingClient) BasePrice(ctx context.Context, v valuation.Vehicle) (float64, error) {
	q := url.Values{
		"make":  {v.Make},
		"model": {v.Model},
		"year":  {strconv.Itoa(v.Year)},
	}
	if v.Trim != "" {
		q.Set("trim", v.Trim)
	}

	var resp basePriceResponse
	if err := p.c.do(ctx, http.MethodGet, "/v1/base-price", q, nil, &resp); err != nil {
		return 0, fmt.Errorf("pricing reference for %d %s %s: %w", v.Year, v.Make, v.Model, err)
	}
	if resp.Currency != "" && resp.Currency != "USD" {
		return 0, fmt.Errorf("pricing reference: unsupported currency %q", resp.Currency)
	}
	if resp.BasePrice <= 0 {
		return 0, fmt.Errorf("pricing reference: non-positive price %v", resp.BasePrice)
	}
	return resp.BasePrice, nil
}
