package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hyperjump/lexilaw/internal/models"
)

type memorySink struct {
	records []*models.InteractionRecord
	err     error
}

func (m *memorySink) Append(_ context.Context, rec *models.InteractionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memorySink) Close() error { return nil }

// settlement records how a delivery was acknowledged.
type settlement struct {
	acked, nacked, requeued bool
}

func (s *settlement) Ack(uint64, bool) error { s.acked = true; return nil }

func (s *settlement) Nack(_ uint64, _ bool, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}

func (s *settlement) Reject(_ uint64, requeue bool) error {
	s.nacked, s.requeued = true, requeue
	return nil
}

func TestEncodeDecode_preservesNullCase(t *testing.T) {
	rec := &models.InteractionRecord{
		Timestamp:         time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Question:          "What is a winding up petition?",
		Answer:            "A petition to dissolve a company.",
		SourceDocumentIDs: []string{"companies_act.pdf"},
		SessionID:         "abc",
	}
	body, err := encode(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"used_case":null`) {
		t.Errorf("encoded body lacks null used_case: %s", body)
	}

	got, err := decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedCase != nil {
		t.Errorf("UsedCase = %v, want nil", *got.UsedCase)
	}
	if got.Question != rec.Question || !rec.Timestamp.Equal(got.Timestamp) {
		t.Errorf("decoded record = %+v", got)
	}
}

func TestPersistWorker_handle(t *testing.T) {
	sink := &memorySink{}
	w := NewPersistWorker(nil, sink, "q")

	body, err := encode(&models.InteractionRecord{Question: "q", Answer: "a", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].Question != "q" {
		t.Fatalf("records = %+v", sink.records)
	}

	if err := w.handle(context.Background(), []byte("{not json")); !errors.Is(err, errMalformed) {
		t.Errorf("malformed body: got %v, want errMalformed", err)
	}

	sink.err = errors.New("disk full")
	err = w.handle(context.Background(), body)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("sink failure: got %v", err)
	}
	if errors.Is(err, errMalformed) {
		t.Error("sink failure classified as malformed")
	}
}

func TestPersistWorker_process(t *testing.T) {
	body, err := encode(&models.InteractionRecord{Question: "q", Answer: "a", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		body    []byte
		sinkErr error
		want    settlement
	}{
		{"persisted", body, nil, settlement{acked: true}},
		{"malformed dropped", []byte("{not json"), nil, settlement{nacked: true}},
		{"sink failure requeued", body, errors.New("connection refused"), settlement{nacked: true, requeued: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{err: tt.sinkErr}
			w := NewPersistWorker(nil, sink, "q", WithRetryDelay(time.Millisecond))
			got := &settlement{}
			w.process(context.Background(), amqp.Delivery{Acknowledger: got, Body: tt.body})
			if *got != tt.want {
				t.Errorf("settlement = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestPersistWorker_processRequeuesOnShutdown(t *testing.T) {
	body, err := encode(&models.InteractionRecord{Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	w := NewPersistWorker(nil, &memorySink{err: errors.New("down")}, "q", WithRetryDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := &settlement{}
	done := make(chan struct{})
	go func() {
		w.process(ctx, amqp.Delivery{Acknowledger: got, Body: body})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not return after cancellation")
	}
	if !got.requeued {
		t.Errorf("settlement = %+v, want requeue", *got)
	}
}
