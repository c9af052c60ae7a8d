package usecase

import (
	"context"
	"testing"

	"WikiSeer/internal/domain/models"
	"WikiSeer/pkg/util"
)

func TestKafkaHandlerUpsertsValidMessage(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{}}
	h := NewKafkaPageViewsHandler(store, nopMetrics{}, "wikiseer.pageviews")

	msg := []byte(`{"title":"Go_(programming_language)","date":"2024-06-14","page_views":1234}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.upserts) != 1 || len(store.upserts[0]) != 1 {
		t.Fatalf("expected one upserted point, got %v", store.upserts)
	}
	p := store.upserts[0][0]
	if p.Title != "Go_(programming_language)" || p.Views != 1234 {
		t.Fatalf("unexpected point %+v", p)
	}
	if util.FormatDate(p.Date) != "2024-06-14" {
		t.Fatalf("unexpected date %v", p.Date)
	}
}

func TestKafkaHandlerDropsMalformedMessage(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{}}
	h := NewKafkaPageViewsHandler(store, nopMetrics{}, "wikiseer.pageviews")

	if err := h.Handle(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payloads must not be retried: %v", err)
	}
	if len(store.upserts) != 0 {
		t.Fatalf("expected no upserts")
	}
}

func TestKafkaHandlerDropsInvalidFields(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{}}
	h := NewKafkaPageViewsHandler(store, nopMetrics{}, "wikiseer.pageviews")

	cases := []string{
		`{"title":"","date":"2024-06-14","page_views":10}`,
		`{"title":"Go","date":"06/14/2024","page_views":10}`,
		`{"title":"Go","date":"2024-06-14","page_views":-1}`,
	}
	for _, raw := range cases {
		if err := h.Handle(context.Background(), []byte(raw)); err != nil {
			t.Fatalf("invalid message must be dropped, not retried: %v", err)
		}
	}
	if len(store.upserts) != 0 {
		t.Fatalf("expected no upserts for invalid messages")
	}
}

func TestProcessBatchRoutesToStore(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{}}
	proc := NewPageViewProcessor(nil, store, nopMetrics{}, "clickhouse")

	pts := seedSeries("Go", "2024-06-14", 3).Points
	if err := proc.ProcessBatch(context.Background(), pts); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected clickhouse upsert, got %v", store.upserts)
	}
}

func TestProcessBatchUnknownBackend(t *testing.T) {
	proc := NewPageViewProcessor(nil, nil, nopMetrics{}, "postgres")
	pts := seedSeries("Go", "2024-06-14", 1).Points
	if err := proc.ProcessBatch(context.Background(), pts); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
