package valuation

import (
	"errors"
	"fmt"

	"github.com/autoval/autoval/pkg/reftable"
)

// InvalidInputError is the only error that fails a valuation. It is returned
// before any factor is computed.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// LookupUnavailableError describes a reference lookup that fell back to a
// default. It never reaches the caller of Engine.Value.
type LookupUnavailableError struct {
	Table reftable.Table
	Key   string
	Err   error
}

func (e *LookupUnavailableError) Error() string {
	return fmt.Sprintf("lookup %s/%s unavailable: %v", e.Table, e.Key, e.Err)
}

func (e *LookupUnavailableError) Unwrap() error { return e.Err }

// NotFound reports whether the lookup failed only because the key is absent.
func (e *LookupUnavailableError) NotFound() bool {
	return errors.Is(e.Err, reftable.ErrNotFound)
}

// UnrecognizedValueError records an attribute outside its expected enum.
type UnrecognizedValueError struct {
	Factor FactorKind
	Value  string
}

func (e *UnrecognizedValueError) Error() string {
	return fmt.Sprintf("%s: unrecognized value %q", e.Factor, e.Value)
}

// ErrCollaboratorUnavailable marks a failed call to an external collaborator
// (photo analysis, market demand, pricing reference).
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
