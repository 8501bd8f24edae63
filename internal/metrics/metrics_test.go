package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest("GET", "/painter", 200, time.Millisecond)
	m.ObserveRender("map-marker", nil, time.Millisecond)
	m.ObserveStore(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest("GET", "/painter", 200, 3*time.Millisecond)
	m.ObserveRender("map-marker", nil, time.Millisecond)
	m.ObserveRender("map-marker-shadow", errors.New("boom"), time.Millisecond)
	m.ObserveStore(false)
	m.ObserveStore(true)
	m.ObserveStore(true)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{
		`geoplot_http_requests_total{method="GET",path="/painter",status="200"} 1`,
		`geoplot_renders_total{outcome="ok",renderer="map-marker"} 1`,
		`geoplot_renders_total{outcome="error",renderer="map-marker-shadow"} 1`,
		`geoplot_store_lookups_total{result="hit"} 2`,
		`geoplot_store_lookups_total{result="miss"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}
