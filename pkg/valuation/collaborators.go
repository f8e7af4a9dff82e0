package valuation

import "context"

// PhotoScorer returns a visual-condition score in [0,1] for a set of photos.
type PhotoScorer interface {
	Score(ctx context.Context, photoURLs []string) (float64, error)
}

// DemandSource supplies a live regional demand multiplier. ok is false when
// the source has no opinion for the zip code.
type DemandSource interface {
	RegionalDemand(ctx context.Context, zip string) (multiplier float64, ok bool, err error)
}

// PriceReference derives a base price when the request carries none.
type PriceReference interface {
	BasePrice(ctx context.Context, v Vehicle) (float64, error)
}
