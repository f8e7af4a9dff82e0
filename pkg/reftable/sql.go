package reftable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLSource reads reference tables from the reference_values table created
// by the platform migrations. Queries use $N placeholders, which both
// lib/pq and modernc.org/sqlite accept.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates a SQLSource over db.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// Lookup implements Source.
func (s *SQLSource) Lookup(ctx context.Context, table Table, key string) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT multiplier FROM reference_values
		 WHERE table_name = $1 AND lookup_key = $2`,
		string(table), NormalizeKey(key),
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s/%s: %w", table, key, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup %s/%s: %w", table, key, err)
	}
	return v, nil
}

// PrefixAverage implements Source.
func (s *SQLSource) PrefixAverage(ctx context.Context, table Table, prefix string) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(multiplier) FROM reference_values
		 WHERE table_name = $1 AND lookup_key LIKE $2`,
		string(table), escapeLike(NormalizeKey(prefix))+"%",
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("prefix average %s/%s*: %w", table, prefix, err)
	}
	if !avg.Valid {
		return 0, fmt.Errorf("%s/%s*: %w", table, prefix, ErrNotFound)
	}
	return avg.Float64, nil
}

// Upsert writes entries in a single transaction. Existing rows for the same
// (table, key) are replaced.
func (s *SQLSource) Upsert(ctx context.Context, entries []Entry) (int, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reference_values (table_name, lookup_key, multiplier, version)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (table_name, lookup_key) DO UPDATE
			   SET multiplier = EXCLUDED.multiplier,
			       version = EXCLUDED.version`,
			string(e.Table), NormalizeKey(e.Key), e.Multiplier, e.Version,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert %s/%s: %w", e.Table, e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return len(entries), nil
}

// List returns every row of table ordered by key.
func (s *SQLSource) List(ctx context.Context, table Table) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lookup_key, multiplier, version FROM reference_values
		 WHERE table_name = $1 ORDER BY lookup_key`,
		string(table),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{Table: table}
		if err := rows.Scan(&e.Key, &e.Multiplier, &e.Version); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// escapeLike drops LIKE wildcards from a literal prefix. Prefixes are zip
// digits in practice; stripping keeps the query portable across dialects
// that disagree on ESCAPE syntax.
func escapeLike(s string) string {
	r := strings.NewReplacer(`%`, ``, `_`, ``)
	return r.Replace(s)
}
