// Package archive keeps an immutable copy of every completed valuation in
// blob storage. Records are JSON, gzip-compressed, one object per ID; an ID
// is written once and never overwritten.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/klauspost/compress/gzip"
)

var (
	// ErrNotFound is returned when no object exists for an ID.
	ErrNotFound = errors.New("archive: not found")
	// ErrExists is returned when writing an ID that is already archived.
	ErrExists = errors.New("archive: already exists")
)

// Store abstracts blob storage. Implementations must refuse to overwrite an
// existing key with ErrExists and report missing keys with ErrNotFound.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,127}$`)

// Archive encodes records into a Store.
type Archive struct {
	store Store
}

// New creates an Archive over store.
func New(store Store) *Archive {
	return &Archive{store: store}
}

// Key returns the object key for id.
func Key(id string) string {
	return "valuations/" + id + ".json.gz"
}

// Put archives v under id.
func (a *Archive) Put(ctx context.Context, id string, v any) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("archive: invalid id %q", id)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("archive: encode %s: %w", id, err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("archive: compress %s: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("archive: compress %s: %w", id, err)
	}

	key := Key(id)
	if err := a.store.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}
	return key, nil
}

// Get decodes the record archived under id into out.
func (a *Archive) Get(ctx context.Context, id string, out any) error {
	if !validID.MatchString(id) {
		return ErrNotFound
	}
	data, err := a.store.Get(ctx, Key(id))
	if err != nil {
		return err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("archive: decompress %s: %w", id, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("archive: decompress %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("archive: decode %s: %w", id, err)
	}
	return nil
}
