package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/autoval/autoval/pkg/reftable"
)

// Resolution is the outcome of a reference lookup. A failed lookup is not an
// error: it carries the fallback value, unavailable-default provenance, and
// the cause in Err.
type Resolution struct {
	Value      float64
	Provenance Provenance
	Err        *LookupUnavailableError
}

// Ok reports whether the value came from the reference table.
func (r Resolution) Ok() bool { return r.Err == nil }

// Resolver fetches factor multipliers from reference tables with a bounded
// timeout per lookup.
type Resolver struct {
	source  reftable.Source
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver creates a Resolver. A nil source makes every lookup fall back.
func NewResolver(source reftable.Source, timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultOptions().LookupTimeout
	}
	return &Resolver{source: source, timeout: timeout, logger: logger}
}

// Timeout returns the per-lookup bound.
func (r *Resolver) Timeout() time.Duration { return r.timeout }

// Resolve looks up key in table, returning fallback on any failure.
func (r *Resolver) Resolve(ctx context.Context, table reftable.Table, key string, fallback float64) Resolution {
	return r.resolve(ctx, table, key, fallback, func(ctx context.Context) (float64, error) {
		return r.source.Lookup(ctx, table, key)
	})
}

// ResolveAverage returns the mean multiplier of keys sharing prefix.
func (r *Resolver) ResolveAverage(ctx context.Context, table reftable.Table, prefix string, fallback float64) Resolution {
	return r.resolve(ctx, table, prefix+"*", fallback, func(ctx context.Context) (float64, error) {
		return r.source.PrefixAverage(ctx, table, prefix)
	})
}

type lookupResult struct {
	value float64
	err   error
}

func (r *Resolver) resolve(ctx context.Context, table reftable.Table, key string, fallback float64, fetch func(context.Context) (float64, error)) Resolution {
	if r.source == nil {
		return r.fallback(table, key, fallback, errors.New("no reference source configured"))
	}

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Buffered so a source that ignores ctx can still finish and exit.
	done := make(chan lookupResult, 1)
	go func() {
		v, err := fetch(lctx)
		done <- lookupResult{value: v, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-lctx.Done():
		res.err = lctx.Err()
	}

	if res.err != nil {
		return r.fallback(table, key, fallback, res.err)
	}
	if math.IsNaN(res.value) || math.IsInf(res.value, 0) || res.value <= 0 {
		return r.fallback(table, key, fallback, fmt.Errorf("invalid stored multiplier %v", res.value))
	}
	return Resolution{Value: res.value, Provenance: ProvenanceLookup}
}

func (r *Resolver) fallback(table reftable.Table, key string, fallback float64, cause error) Resolution {
	lerr := &LookupUnavailableError{Table: table, Key: key, Err: cause}
	if lerr.NotFound() {
		r.logger.Debug("reference entry not found",
			zap.String("table", string(table)), zap.String("key", key))
	} else {
		r.logger.Warn("reference lookup unavailable, using default",
			zap.String("table", string(table)), zap.String("key", key),
			zap.Float64("default", fallback), zap.Error(cause))
	}
	return Resolution{Value: fallback, Provenance: ProvenanceUnavailable, Err: lerr}
}
