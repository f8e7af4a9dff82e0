package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/autoval/autoval/pkg/valuation"
)

type fakeConn struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func testEvent() Event {
	return Event{
		ID:              "v-1",
		Vehicle:         valuation.Vehicle{Make: "Toyota", Model: "Camry", Year: 2020},
		PredictedPrice:  23760,
		Confidence:      81,
		ConfidenceLevel: valuation.ConfidenceHigh,
		PriceRange:      valuation.PriceRange{Low: 23210, High: 24310},
		StorageRef:      "valuations/v-1.json.gz",
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNATSPublisherEncodesEvent(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "")

	want := testEvent()
	if err := p.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(conn.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(conn.msgs))
	}
	msg := conn.msgs[0]
	if msg.Subject != DefaultSubject {
		t.Errorf("subject = %q, want %q", msg.Subject, DefaultSubject)
	}
	var got Event
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestNATSPublisherInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	conn := &fakeConn{}
	if err := NewNATSPublisher(conn, "valuations.test").Publish(ctx, testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got := conn.msgs[0].Header.Get("traceparent")
	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}
	if conn.msgs[0].Subject != "valuations.test" {
		t.Errorf("unexpected subject %q", conn.msgs[0].Subject)
	}
}

func TestNATSPublisherError(t *testing.T) {
	conn := &fakeConn{err: nats.ErrConnectionClosed}
	err := NewNATSPublisher(conn, "").Publish(context.Background(), testEvent())
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("expected wrapped connection error, got %v", err)
	}
}

func TestHeaderCarrierNilHeader(t *testing.T) {
	c := (*headerCarrier)(&nats.Msg{})
	if got := c.Get("missing"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if keys := c.Keys(); keys != nil {
		t.Errorf("expected nil keys, got %v", keys)
	}
	c.Set("k", "v")
	if c.Get("k") != "v" || len(c.Keys()) != 1 {
		t.Errorf("set did not stick: %v", c.Header)
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Nop.Publish: %v", err)
	}
}
