package util

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	if LoggerFromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), custom)
	if LoggerFromContext(ctx) != custom {
		t.Fatalf("expected context logger")
	}
}

func TestRequestLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := WithRequestID(WithRequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("dream"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/dreams/current", nil)
	req.Header.Set("X-Request-Id", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "http_request" || line["request_id"] != "req-42" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["status"] != float64(http.StatusTeapot) || line["bytes"] != float64(5) {
		t.Fatalf("unexpected status/bytes in %v", line)
	}
}
