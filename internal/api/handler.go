// Package api implements the autoval REST API.
// It accepts valuation requests and serves archived valuations and history.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/autoval/autoval/internal/appraisal"
	"github.com/autoval/autoval/internal/history"
	"github.com/autoval/autoval/pkg/valuation"
)

// Appraiser runs and retrieves valuations. *appraisal.Service satisfies it.
type Appraiser interface {
	Appraise(ctx context.Context, req *valuation.Request) (*appraisal.Record, error)
	Get(ctx context.Context, id string) (*appraisal.Record, error)
	List(ctx context.Context, f history.Filter) ([]history.Entry, error)
}

// Pinger reports backing-store health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler is the top-level API handler for the valuation service.
type Handler struct {
	appraiser Appraiser
	db        Pinger
	logger    *zap.Logger
}

// NewHandler creates a new API handler. db may be nil, in which case the
// health check only reports that the process is up.
func NewHandler(appraiser Appraiser, db Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{appraiser: appraiser, db: db, logger: logger}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/valuations", h.handleCreateValuation)
	mux.HandleFunc("GET /api/v1/valuations", h.handleListValuations)
	mux.HandleFunc("GET /api/v1/valuations/{id}", h.handleGetValuation)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFieldError(w http.ResponseWriter, status int, field, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Field: field})
}
