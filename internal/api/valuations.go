package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/autoval/autoval/internal/appraisal"
	"github.com/autoval/autoval/internal/history"
	"github.com/autoval/autoval/pkg/valuation"
)

// maxBodyBytes bounds a (decompressed) request body.
const maxBodyBytes = 1 << 20

// valuationResponse is the body of POST and GET /api/v1/valuations/{id}.
type valuationResponse struct {
	ID              string               `json:"id"`
	CreatedAt       time.Time            `json:"created_at"`
	PredictedPrice  float64              `json:"predicted_price"`
	Confidence      int                  `json:"confidence_score"`
	ConfidenceLevel string               `json:"confidence_level"`
	PriceRange      valuation.PriceRange `json:"price_range"`
	Breakdown       *valuation.Breakdown `json:"breakdown"`
	Request         *valuation.Request   `json:"request,omitempty"`
	StorageRef      string               `json:"storage_ref,omitempty"`
}

func responseFor(rec *appraisal.Record, withRequest bool) valuationResponse {
	resp := valuationResponse{
		ID:              rec.ID,
		CreatedAt:       rec.CreatedAt,
		PredictedPrice:  rec.Breakdown.PredictedPrice,
		Confidence:      rec.Breakdown.Confidence,
		ConfidenceLevel: rec.Breakdown.ConfidenceLevel,
		PriceRange:      rec.Breakdown.PriceRange,
		Breakdown:       rec.Breakdown,
		StorageRef:      rec.StorageRef,
	}
	if withRequest {
		resp.Request = rec.Request
	}
	return resp
}

type listResponse struct {
	Valuations []history.Entry `json:"valuations"`
}

func (h *Handler) handleCreateValuation(w http.ResponseWriter, r *http.Request) {
	// Support gzip-compressed request bodies
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gzip body: "+err.Error())
			return
		}
		defer gz.Close()
		body = gz
	}
	body = io.LimitReader(body, maxBodyBytes+1)

	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if len(data) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	// Optional attributes that fail to parse are left unset by the decoder.
	var req valuation.Request
	if err := json.Unmarshal(data, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	rec, err := h.appraiser.Appraise(r.Context(), &req)
	if err != nil {
		var invalid *valuation.InvalidInputError
		if errors.As(err, &invalid) {
			writeFieldError(w, http.StatusBadRequest, invalid.Field, invalid.Error())
			return
		}
		h.logger.Error("valuation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "valuation failed")
		return
	}

	writeJSON(w, http.StatusCreated, responseFor(rec, false))
}

// writeBodyError reports malformed JSON, naming the offending field when the
// decoder knows it.
func writeBodyError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		writeFieldError(w, http.StatusBadRequest, typeErr.Field,
			fmt.Sprintf("invalid request body: %s must be %s", typeErr.Field, typeErr.Type))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

func (h *Handler) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.appraiser.Get(r.Context(), id)
	if errors.Is(err, appraisal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "valuation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load valuation", zap.String("valuation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load valuation")
		return
	}

	writeJSON(w, http.StatusOK, responseFor(rec, true))
}

func (h *Handler) handleListValuations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := history.Filter{Make: q.Get("make"), Model: q.Get("model")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > history.MaxListLimit {
			writeFieldError(w, http.StatusBadRequest, "limit",
				fmt.Sprintf("limit must be an integer in [1,%d]", history.MaxListLimit))
			return
		}
		f.Limit = n
	}

	entries, err := h.appraiser.List(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list valuations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list valuations")
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Valuations: entries})
}
