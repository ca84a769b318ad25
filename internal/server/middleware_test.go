package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/auxd/internal/shared"
	"golang.org/x/time/rate"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	calls := 0
	handler := LoggingMiddleware(shared.NewLogger(nil))(okHandler(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/playback", nil))

	if calls != 1 {
		t.Errorf("inner handler called %d times, want 1", calls)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want the inner handler's 204", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("enforces the burst per address", func(t *testing.T) {
		calls := 0
		handler := RateLimitMiddleware(rate.Limit(0.001), 2)(okHandler(&calls))

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("request %d status = %d, want 204", i, rec.Code)
			}
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429 after the burst", rec.Code)
		}
		if calls != 2 {
			t.Errorf("inner handler called %d times, want 2", calls)
		}
	})

	t.Run("addresses are limited independently", func(t *testing.T) {
		calls := 0
		handler := RateLimitMiddleware(rate.Limit(0.001), 1)(okHandler(&calls))

		first := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
		first.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(httptest.NewRecorder(), first)

		rec := httptest.NewRecorder()
		second := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
		second.RemoteAddr = "10.0.0.2:5000"
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, a second address should not be limited", rec.Code)
		}
		if calls != 2 {
			t.Errorf("inner handler called %d times, want 2", calls)
		}
	})

	t.Run("ports do not split the limit", func(t *testing.T) {
		handler := RateLimitMiddleware(rate.Limit(0.001), 1)(okHandler(new(int)))

		first := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
		first.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(httptest.NewRecorder(), first)

		rec := httptest.NewRecorder()
		second := httptest.NewRequest(http.MethodPost, "/api/session/queue", nil)
		second.RemoteAddr = "10.0.0.1:6000"
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, the same host on another port should share the limit", rec.Code)
		}
	})
}
