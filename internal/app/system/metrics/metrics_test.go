package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/activities/{activityID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/activities/abc123", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	if !strings.Contains(body, "goalpeer_http_requests_total") {
		t.Fatal("request counter missing from scrape output")
	}
	if !strings.Contains(body, `path="/activities/{activityID}"`) {
		t.Errorf("expected the route pattern label, got:\n%s", body)
	}
	if strings.Contains(body, `path="/activities/abc123"`) {
		t.Error("raw URL leaked into the path label")
	}
}

func TestCounters_Registered(t *testing.T) {
	m := New()
	m.ProofsSubmitted.Inc()
	m.ProofLikes.Inc()

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	for _, want := range []string{
		"goalpeer_proofs_submitted_total 1",
		"goalpeer_proof_likes_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}
