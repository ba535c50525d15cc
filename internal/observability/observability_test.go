package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ambient-assistant/internal/observability/metrics"
)

func TestHandler_Readiness(t *testing.T) {
	ready := errors.New("memory warming")
	h := Handler(func() error { return ready })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while not ready, got %d", rec.Code)
	}

	ready = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 when ready, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected metrics 200, got %d", rec.Code)
	}
}

func TestUnaryServerInterceptor_PassesThrough(t *testing.T) {
	interceptor := UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/ambient.assistant.v1.Assistant/Ask"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "resp", nil
	})
	if err != nil || resp != "resp" {
		t.Errorf("expected resp, nil; got %v, %v", resp, err)
	}

	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

type fakeStream struct {
	grpc.ServerStream
}

func (fakeStream) Context() context.Context { return context.Background() }

func TestStreamServerInterceptor_WrapsContext(t *testing.T) {
	interceptor := StreamServerInterceptor(metrics.DefaultMetrics)
	info := &grpc.StreamServerInfo{FullMethod: "/ambient.assistant.v1.Assistant/Watch", IsServerStream: true}

	called := false
	err := interceptor(nil, fakeStream{}, info, func(srv any, ss grpc.ServerStream) error {
		called = true
		if ss.Context() == nil {
			t.Error("expected a context")
		}
		return nil
	})
	if err != nil || !called {
		t.Errorf("expected handler call without error, got called=%v err=%v", called, err)
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}
