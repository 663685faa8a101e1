package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	appmw "github.com/s1natex/todos-api-GO/internal/middleware"
)

func TestRateLimit(t *testing.T) {
	lim := rate.NewLimiter(1, 1) // 1 rps, burst 1
	r := chi.NewRouter()
	r.Use(appmw.RateLimitMiddleware(lim))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// first allowed
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// second immediately should be 429
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestRateLimit_EnvelopeAndRetryAfter(t *testing.T) {
	lim := rate.NewLimiter(0.5, 1) // one token every 2s
	r := chi.NewRouter()
	r.Use(appmw.RateLimitMiddleware(lim))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
	want := `{"success":false,"message":"Error: too many requests"}` + "\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestNewLimiter_DisabledWhenRPSNotPositive(t *testing.T) {
	if l := appmw.NewLimiter(0, 10); l != nil {
		t.Fatalf("expected nil limiter for rps=0")
	}

	r := chi.NewRouter()
	r.Use(appmw.RateLimitMiddleware(appmw.NewLimiter(0, 0)))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}
