// Package history keeps an insert-only index of completed valuations. The
// full breakdown lives in the archive; history rows hold the headline
// numbers and the archive key so valuations can be listed and looked up.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no valuation has the given ID.
var ErrNotFound = errors.New("history: valuation not found")

// DefaultListLimit caps List when the filter carries no limit.
const DefaultListLimit = 50

// MaxListLimit is the largest page List will return.
const MaxListLimit = 500

// Entry is one completed valuation.
type Entry struct {
	ID             string    `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	ZipCode        string    `json:"zip_code,omitempty"`
	BasePrice      float64   `json:"base_price"`
	PredictedPrice float64   `json:"predicted_price"`
	Confidence     int       `json:"confidence_score"`
	RangeLow       float64   `json:"range_low"`
	RangeHigh      float64   `json:"range_high"`
	StorageRef     string    `json:"storage_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// Filter narrows List. Make and model match case-insensitively.
type Filter struct {
	Make  string
	Model string
	Limit int
}

// Service reads and writes the valuations table.
type Service struct {
	db *sql.DB
}

// NewService creates a history Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record inserts an entry. IDs are unique; recording the same ID twice fails.
func (s *Service) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO valuations (id, make, model, year, zip_code, base_price,
		   predicted_price, confidence, range_low, range_high, storage_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Make, e.Model, e.Year, e.ZipCode, e.BasePrice,
		e.PredictedPrice, e.Confidence, e.RangeLow, e.RangeHigh, e.StorageRef, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record valuation %s: %w", e.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, make, model, year, zip_code, base_price, predicted_price,
	confidence, range_low, range_high, storage_ref, created_at FROM valuations`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Make, &e.Model, &e.Year, &e.ZipCode, &e.BasePrice,
		&e.PredictedPrice, &e.Confidence, &e.RangeLow, &e.RangeHigh, &e.StorageRef, &e.CreatedAt)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, err
}

// Get returns the entry with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get valuation %s: %w", id, err)
	}
	return &e, nil
}

// List returns the most recent entries matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Make != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(f.Make)))
		where = append(where, fmt.Sprintf("LOWER(make) = $%d", len(args)))
	}
	if f.Model != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(f.Model)))
		where = append(where, fmt.Sprintf("LOWER(model) = $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
