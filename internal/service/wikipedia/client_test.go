package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"WikiSeer/pkg/util"
)

const actionAPIBody = `{
	"query": {
		"pages": {
			"12345": {
				"title": "Go (programming language)",
				"pageviews": {
					"2024-06-12": 1500,
					"2024-06-10": 1200,
					"2024-06-11": null,
					"2024-06-13": 1800
				}
			}
		}
	}
}`

func TestFetchSkipsNullsAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("prop") != "pageviews" {
			t.Errorf("missing prop param: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(actionAPIBody))
	}))
	defer srv.Close()

	c := New(WithAPIURL(srv.URL), WithCacheTTL(0))
	points, err := c.Fetch(context.Background(), "Go (programming language)")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("null days must be skipped, got %d points", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Fatalf("points not sorted ascending: %v", points)
		}
	}
	if util.FormatDate(points[0].Date) != "2024-06-10" || points[0].Views != 1200 {
		t.Fatalf("unexpected first point %+v", points[0])
	}
}

func TestFetchCachesResults(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(actionAPIBody))
	}))
	defer srv.Close()

	c := New(WithAPIURL(srv.URL), WithCacheTTL(time.Minute))
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "Go"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Fatalf("expected single upstream hit, got %d", hits)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(WithAPIURL(srv.URL), WithCacheTTL(0))
	if _, err := c.Fetch(context.Background(), "Go"); err == nil {
		t.Fatalf("expected error")
	}
}
