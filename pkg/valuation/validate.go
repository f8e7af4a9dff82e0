package valuation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// attrs checks optional attribute formats. A malformed optional attribute is
// ignored by its consumer rather than failing the request.
var attrs = validator.New()

func validVIN(vin string) bool { return attrs.Var(vin, "len=17,alphanum") == nil }

func validURL(u string) bool { return attrs.Var(u, "url") == nil }

// requestValidator checks the struct tags on Request and reports fields by
// their JSON names.
type requestValidator struct {
	v             *validator.Validate
	minYear       int
	maxYearsAhead int
	now           func() time.Time
}

func newRequestValidator(opts Options) *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{
		v:             v,
		minYear:       opts.MinYear,
		maxYearsAhead: opts.MaxYearsAhead,
		now:           time.Now,
	}
}

// check returns nil or an *InvalidInputError for the first problem found.
func (rv *requestValidator) check(req *Request) error {
	if req == nil {
		return &InvalidInputError{Reason: "request is required"}
	}
	if err := rv.v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return &InvalidInputError{Reason: err.Error()}
	}
	if strings.TrimSpace(req.Make) == "" {
		return &InvalidInputError{Field: "make", Reason: "is required"}
	}
	if strings.TrimSpace(req.Model) == "" {
		return &InvalidInputError{Field: "model", Reason: "is required"}
	}
	maxYear := rv.now().Year() + rv.maxYearsAhead
	if req.Year < rv.minYear || req.Year > maxYear {
		return &InvalidInputError{Field: "year", Reason: fmt.Sprintf("must be between %d and %d", rv.minYear, maxYear)}
	}
	if math.IsNaN(req.BasePrice) || math.IsInf(req.BasePrice, 0) {
		return &InvalidInputError{Field: "base_price", Reason: "must be a finite number"}
	}
	if req.PhotoScore != nil && (math.IsNaN(*req.PhotoScore) || math.IsInf(*req.PhotoScore, 0)) {
		return &InvalidInputError{Field: "photo_score", Reason: "must be a finite number"}
	}
	return nil
}

func fieldError(fe validator.FieldError) *InvalidInputError {
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, ".") {
		// Drop the struct name; keep any nested path and element index.
		field = ns[strings.Index(ns, ".")+1:]
	}
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "gte":
		reason = "must be at least " + fe.Param()
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &InvalidInputError{Field: field, Reason: reason}
}
