package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithCORSAllowsAnyOriginByDefault(t *testing.T) {
	h := WithCORS(nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestWithCORSRestrictsToAllowList(t *testing.T) {
	h := WithCORS([]string{"https://dreams.example"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Origin", "https://dreams.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dreams.example" {
		t.Fatalf("allowed origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestWithCORSAnswersPreflight(t *testing.T) {
	called := false
	h := WithCORS(nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/videos/cave-crystals", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight status=%d called=%v", rec.Code, called)
	}
}
