package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/googleapi"
)

// fakeS3 serves conditional PUTs and GETs for a single bucket the way S3
// does: a second write to a key fails with 412 PreconditionFailed.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/archive/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if _, ok := f.objects[key]; ok && r.Header.Get("If-None-Match") == "*" {
			s3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			s3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func s3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><RequestId>req-1</RequestId></Error>`, code, code)
}

func newFakeS3Store(t *testing.T) *S3Store {
	t.Helper()
	srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}})
	t.Cleanup(srv.Close)
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "archive",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	return store
}

func TestS3StoreConditionalPut(t *testing.T) {
	store := newFakeS3Store(t)
	ctx := context.Background()
	key := "valuations/3f1c2a9e-5b7d-4e2a-9c1f-0d8e7b6a5c4d.json.gz"

	if err := store.Put(ctx, key, []byte("first")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	err := store.Put(ctx, key, []byte("second"))
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists on overwrite, got %v", err)
	}
	if !strings.Contains(err.Error(), key) {
		t.Errorf("expected key in error, got %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(got), "first") || strings.Contains(string(got), "second") {
		t.Errorf("stored object changed: %q", got)
	}
}

func TestS3StoreGetMissing(t *testing.T) {
	store := newFakeS3Store(t)
	_, err := store.Get(context.Background(), "valuations/missing.json.gz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGCSCloseError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		exists bool
	}{
		{"precondition failed", &googleapi.Error{Code: http.StatusPreconditionFailed, Message: "conditionNotMet"}, true},
		{"wrapped precondition", fmt.Errorf("upload: %w", &googleapi.Error{Code: http.StatusPreconditionFailed}), true},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := closeError("valuations/a.json.gz", tt.err)
			if got := errors.Is(err, ErrExists); got != tt.exists {
				t.Errorf("errors.Is(ErrExists) = %v, want %v (%v)", got, tt.exists, err)
			}
			if !tt.exists && !errors.Is(err, tt.err) {
				t.Errorf("expected cause to be wrapped, got %v", err)
			}
		})
	}
}
