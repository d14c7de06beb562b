package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

func TestCorrelationIDMiddleware_UsesExistingHeader(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := observability.CorrelationIDFromContext(r.Context())
		if cid != "test-correlation-123" {
			t.Errorf("expected correlation ID test-correlation-123, got %s", cid)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Correlation-ID", "test-correlation-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Correlation-ID") != "test-correlation-123" {
		t.Errorf("expected X-Correlation-ID header to be set")
	}
}

func TestCorrelationIDMiddleware_GeneratesIfMissing(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := observability.CorrelationIDFromContext(r.Context())
		if cid == "" {
			t.Error("expected non-empty correlation ID")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header to be set")
	}
}

func TestCorrelationIDMiddleware_PropagatesRequestID(t *testing.T) {
	var requestID string
	handler := middleware.RequestID(correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = observability.RequestIDFromContext(r.Context())
	})))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-Id", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if requestID != "req-42" {
		t.Errorf("expected request ID req-42, got %q", requestID)
	}
}

func TestRequestLoggerMiddleware_LogsWithRequestContext(t *testing.T) {
	var buf strings.Builder
	base := zerolog.New(&buf)

	var ctxLogger *zerolog.Logger
	handler := correlationIDMiddleware(requestLoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = zerolog.Ctx(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest("GET", "/brew", nil)
	req.Header.Set("X-Correlation-ID", "corr-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ctxLogger == nil || ctxLogger.GetLevel() == zerolog.Disabled {
		t.Fatal("expected a logger in the request context")
	}
	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr-7"`, `"status":418`, `"path":"/brew"`, `"message":"http request"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %s, got %s", want, out)
		}
	}
}

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	metrics := observability.NewMetrics("test_http_middleware")

	r := chi.NewRouter()
	r.Use(metricsMiddleware(metrics))
	r.Get("/api/papers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/papers/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/elsewhere", nil))

	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/api/papers/{id}", "404")); got != 3 {
		t.Errorf("expected 3 requests for the route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}

func TestMetricsMiddleware_NilMetricsPassesThrough(t *testing.T) {
	called := false
	handler := metricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("expected the next handler to be called")
	}
}

func TestRecoverer_ReturnsInternalServerError(t *testing.T) {
	srv := newTestHTTPServer(nil, panickingSummaries{&mockSummaries{}}, newTestStore(t))

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/papers/1/summary", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 after panic, got %d", rr.Code)
	}
}

type panickingSummaries struct{ *mockSummaries }

func (panickingSummaries) Get(_ context.Context, _ int64) (*domain.Summary, error) {
	panic("summary store exploded")
}
