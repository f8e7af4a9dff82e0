package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/autoval/autoval/internal/appraisal"
	"github.com/autoval/autoval/internal/history"
	"github.com/autoval/autoval/pkg/valuation"
)

type fakeAppraiser struct {
	records  map[string]*appraisal.Record
	entries  []history.Entry
	filter   history.Filter
	got      *valuation.Request
	fail     error
	listFail error
}

func (f *fakeAppraiser) Appraise(_ context.Context, req *valuation.Request) (*appraisal.Record, error) {
	f.got = req
	if f.fail != nil {
		return nil, f.fail
	}
	return &appraisal.Record{
		ID:        "val-1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Request:   req,
		Breakdown: &valuation.Breakdown{
			Vehicle:         valuation.Vehicle{Make: req.Make, Model: req.Model, Year: req.Year},
			BasePrice:       req.BasePrice,
			PredictedPrice:  23760,
			Confidence:      81,
			ConfidenceLevel: valuation.ConfidenceHigh,
			PriceRange:      valuation.PriceRange{Low: 23210, High: 24310},
		},
		StorageRef: "valuations/val-1.json.gz",
	}, nil
}

func (f *fakeAppraiser) Get(_ context.Context, id string) (*appraisal.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, appraisal.ErrNotFound
	}
	return rec, nil
}

func (f *fakeAppraiser) List(_ context.Context, filter history.Filter) ([]history.Entry, error) {
	f.filter = filter
	return f.entries, f.listFail
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newServer(t *testing.T, a Appraiser, db Pinger) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(a, db, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const camryBody = `{"make":"Toyota","model":"Camry","year":2020,"mileage":35000,"condition":"Good","title_status":"Clean","zip_code":"90210","base_price":22000}`

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateValuation(t *testing.T) {
	a := &fakeAppraiser{}
	srv := newServer(t, a, nil)

	resp, err := http.Post(srv.URL+"/api/v1/valuations", "application/json", strings.NewReader(camryBody))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	for _, key := range []string{"id", "created_at", "predicted_price", "confidence_score", "price_range", "breakdown"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %v", key, body)
		}
	}
	if body["predicted_price"] != 23760.0 {
		t.Errorf("predicted_price = %v", body["predicted_price"])
	}
	if a.got == nil || a.got.Make != "Toyota" || a.got.Mileage == nil || *a.got.Mileage != 35000 {
		t.Errorf("request not decoded: %+v", a.got)
	}
}

func TestCreateValuationGzip(t *testing.T) {
	a := &fakeAppraiser{}
	srv := newServer(t, a, nil)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(camryBody))
	zw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/valuations", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if a.got == nil || a.got.ZipCode != "90210" {
		t.Errorf("gzip body not decoded: %+v", a.got)
	}
}

func TestCreateValuationUnparseableOptionals(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(*valuation.Request) bool
	}{
		{
			name:  "mileage",
			body:  `{"make":"Toyota","model":"Camry","year":2020,"mileage":"unknown","base_price":22000}`,
			check: func(r *valuation.Request) bool { return r.Mileage == nil },
		},
		{
			name:  "open recall",
			body:  `{"make":"Toyota","model":"Camry","year":2020,"mileage":"unknown","has_open_recall":"yes","base_price":22000}`,
			check: func(r *valuation.Request) bool { return r.Mileage == nil && r.HasOpenRecall == nil },
		},
		{
			name:  "accident count",
			body:  `{"make":"Toyota","model":"Camry","year":2020,"accident_count":"two","zip_code":"90210","base_price":22000}`,
			check: func(r *valuation.Request) bool { return r.AccidentCount == 0 && r.ZipCode == "90210" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAppraiser{}
			srv := newServer(t, a, nil)

			resp, err := http.Post(srv.URL+"/api/v1/valuations", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("status = %d, want 201", resp.StatusCode)
			}
			if a.got == nil || a.got.Make != "Toyota" || a.got.BasePrice != 22000 || !tt.check(a.got) {
				t.Errorf("unexpected decoded request: %+v", a.got)
			}
		})
	}
}

func TestCreateValuationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		encoding  string
		fail      error
		wantCode  int
		wantField string
	}{
		{name: "malformed json", body: `{"make":`, wantCode: http.StatusBadRequest},
		{name: "wrong type", body: `{"make":"Toyota","year":"2020"}`, wantCode: http.StatusBadRequest, wantField: "year"},
		{name: "base price wrong type", body: `{"make":"Toyota","model":"Camry","year":2020,"base_price":"n/a"}`, wantCode: http.StatusBadRequest, wantField: "base_price"},
		{name: "bad gzip", body: "not gzip", encoding: "gzip", wantCode: http.StatusBadRequest},
		{
			name:      "invalid input",
			body:      camryBody,
			fail:      &valuation.InvalidInputError{Field: "base_price", Reason: "required"},
			wantCode:  http.StatusBadRequest,
			wantField: "base_price",
		},
		{name: "internal", body: camryBody, fail: errors.New("disk full"), wantCode: http.StatusInternalServerError},
		{name: "too large", body: `{"make":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantCode: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewHandler(&fakeAppraiser{fail: tt.fail}, nil, nil).RegisterRoutes(mux)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations", strings.NewReader(tt.body))
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			resp := rec.Result()
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			body := decode[errorResponse](t, resp)
			if body.Error == "" {
				t.Error("expected error message")
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
		})
	}
}

func TestGetValuation(t *testing.T) {
	rec := &appraisal.Record{
		ID:        "val-9",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Request:   &valuation.Request{Make: "Honda", Model: "Civic", Year: 2019, BasePrice: 18000},
		Breakdown: &valuation.Breakdown{PredictedPrice: 18500, Confidence: 75, PriceRange: valuation.PriceRange{Low: 17800, High: 19200}},
	}
	srv := newServer(t, &fakeAppraiser{records: map[string]*appraisal.Record{"val-9": rec}}, nil)

	resp, err := http.Get(srv.URL + "/api/v1/valuations/val-9")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[valuationResponse](t, resp)
	if diff := cmp.Diff(responseFor(rec, true), got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	resp, err = http.Get(srv.URL + "/api/v1/valuations/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want 404", resp.StatusCode)
	}
}

func TestListValuations(t *testing.T) {
	a := &fakeAppraiser{entries: []history.Entry{{ID: "val-1", Make: "Toyota", Model: "Camry", Year: 2020}}}
	srv := newServer(t, a, nil)

	resp, err := http.Get(srv.URL + "/api/v1/valuations?make=Toyota&model=Camry&limit=5")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[listResponse](t, resp)
	if len(got.Valuations) != 1 || got.Valuations[0].ID != "val-1" {
		t.Errorf("unexpected list: %+v", got)
	}
	if diff := cmp.Diff(history.Filter{Make: "Toyota", Model: "Camry", Limit: 5}, a.filter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	for _, limit := range []string{"0", "abc", "10000"} {
		resp, err := http.Get(srv.URL + "/api/v1/valuations?limit=" + limit)
		if err != nil {
			t.Fatal(err)
		}
		body := decode[errorResponse](t, resp)
		if resp.StatusCode != http.StatusBadRequest || body.Field != "limit" {
			t.Errorf("limit=%s: status %d field %q", limit, resp.StatusCode, body.Field)
		}
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		want int
	}{
		{"no db", nil, http.StatusOK},
		{"db up", fakePinger{}, http.StatusOK},
		{"db down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, &fakeAppraiser{}, tt.db)
			resp, err := http.Get(srv.URL + "/healthz")
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("api key", func(t *testing.T) {
		h := APIKeyAuth("secret")(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("without key: %d", rec.Code)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "secret")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("with key: %d", rec.Code)
		}
	})

	t.Run("empty api key is a no-op", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKeyAuth("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
		if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("preflight: %d %v", rec.Code, rec.Header())
		}
	})

	t.Run("rate limit", func(t *testing.T) {
		h := RateLimit(rate.NewLimiter(rate.Every(time.Hour), 2))(ok)
		codes := []int{}
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, rec.Code)
		}
		want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
		if diff := cmp.Diff(want, codes); diff != "" {
			t.Errorf("codes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("chain order", func(t *testing.T) {
		var order []string
		mark := func(name string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		Chain(ok, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if diff := cmp.Diff([]string{"outer", "inner"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})
}
