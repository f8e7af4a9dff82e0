package collab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autoval/autoval/pkg/valuation"
)

// PhotoClient calls the photo-analysis service.
type PhotoClient struct {
	c *client
}

var _ valuation.PhotoScorer = (*PhotoClient)(nil)

// NewPhotoClient creates a client for the service at baseURL.
func NewPhotoClient(baseURL string, opts Options) (*PhotoClient, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &PhotoClient{c: c}, nil
}

type scoreRequest struct {
	PhotoURLs []string `json:"photo_urls"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
}

// Score returns the visual-condition score in [0,1] for the photos.
func (p *PhotoClient) Score(ctx context.Context, photoURLs []string) (float64, error) {
	var resp scoreResponse
	if err := p.c.do(ctx, http.MethodPost, "/v1/score", nil, scoreRequest{PhotoURLs: photoURLs}, &resp); err != nil {
		return 0, fmt.Errorf("photo analysis: %w", err)
	}
	if resp.Score == nil {
		return 0, fmt.Errorf("photo analysis: response has no score")
	}
	if s := *resp.Score; s < 0 || s > 1 {
		return 0, fmt.Errorf("photo analysis: score %v outside [0,1]", s)
	}
	return *resp.Score, nil
}
