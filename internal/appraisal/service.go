// Package appraisal runs valuations end to end: compute the breakdown,
// archive it under a fresh ID, index it in history and announce it.
package appraisal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autoval/autoval/internal/archive"
	"github.com/autoval/autoval/internal/history"
	"github.com/autoval/autoval/internal/notify"
	"github.com/autoval/autoval/pkg/valuation"
)

// ErrNotFound is returned when no valuation has the requested ID.
var ErrNotFound = errors.New("valuation not found")

// Record is an archived valuation. It is written once and never updated;
// re-valuing the same vehicle produces a new record.
type Record struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	Request    *valuation.Request   `json:"request"`
	Breakdown  *valuation.Breakdown `json:"breakdown"`
	StorageRef string               `json:"storage_ref,omitempty"`
}

// Valuer computes breakdowns. *valuation.Engine satisfies it.
type Valuer interface {
	Value(ctx context.Context, req *valuation.Request) (*valuation.Breakdown, error)
}

// Archive stores records as immutable blobs. *archive.Archive satisfies it.
type Archive interface {
	Put(ctx context.Context, id string, v any) (string, error)
	Get(ctx context.Context, id string, out any) error
}

// Index is the searchable history. *history.Service satisfies it.
type Index interface {
	Record(ctx context.Context, e history.Entry) error
	List(ctx context.Context, f history.Filter) ([]history.Entry, error)
}

// Service orchestrates a valuation and its bookkeeping.
type Service struct {
	engine    Valuer
	archive   Archive
	index     Index
	publisher notify.Publisher
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a Service. A nil publisher disables notifications.
func NewService(engine Valuer, arch Archive, index Index, publisher notify.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:    engine,
		archive:   arch,
		index:     index,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Appraise values req and persists the result. Invalid input is returned
// unchanged (a *valuation.InvalidInputError) before anything is stored.
// A failed notification is logged and does not fail the call.
func (s *Service) Appraise(ctx context.Context, req *valuation.Request) (*Record, error) {
	b, err := s.engine.Value(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:        s.newID(),
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		Request:   req,
		Breakdown: b,
	}

	ref, err := s.archive.Put(ctx, rec.ID, rec)
	if err != nil {
		return nil, fmt.Errorf("archive valuation %s: %w", rec.ID, err)
	}
	rec.StorageRef = ref

	if err := s.index.Record(ctx, entryFor(rec)); err != nil {
		return nil, fmt.Errorf("index valuation %s: %w", rec.ID, err)
	}

	if err := s.publisher.Publish(ctx, eventFor(rec)); err != nil {
		s.logger.Warn("valuation notification failed",
			zap.String("valuation_id", rec.ID), zap.Error(err))
	}

	s.logger.Info("valuation completed",
		zap.String("valuation_id", rec.ID),
		zap.String("vehicle", fmt.Sprintf("%d %s %s", b.Vehicle.Year, b.Vehicle.Make, b.Vehicle.Model)),
		zap.Float64("predicted_price", b.PredictedPrice),
		zap.Int("confidence", b.Confidence),
	)
	return rec, nil
}

// Get loads an archived record.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	if err := s.archive.Get(ctx, id, &rec); err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load valuation %s: %w", id, err)
	}
	if rec.StorageRef == "" {
		rec.StorageRef = archive.Key(id)
	}
	return &rec, nil
}

// List returns recent valuations from history.
func (s *Service) List(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	return s.index.List(ctx, f)
}

func entryFor(rec *Record) history.Entry {
	b := rec.Breakdown
	return history.Entry{
		ID:             rec.ID,
		Make:           b.Vehicle.Make,
		Model:          b.Vehicle.Model,
		Year:           b.Vehicle.Year,
		ZipCode:        rec.Request.ZipCode,
		BasePrice:      b.BasePrice,
		PredictedPrice: b.PredictedPrice,
		Confidence:     b.Confidence,
		RangeLow:       b.PriceRange.Low,
		RangeHigh:      b.PriceRange.High,
		StorageRef:     rec.StorageRef,
		CreatedAt:      rec.CreatedAt,
	}
}

func eventFor(rec *Record) notify.Event {
	b := rec.Breakdown
	return notify.Event{
		ID:              rec.ID,
		Vehicle:         b.Vehicle,
		PredictedPrice:  b.PredictedPrice,
		Confidence:      b.Confidence,
		ConfidenceLevel: b.ConfidenceLevel,
		PriceRange:      b.PriceRange,
		StorageRef:      rec.StorageRef,
		CreatedAt:       rec.CreatedAt,
	}
}
