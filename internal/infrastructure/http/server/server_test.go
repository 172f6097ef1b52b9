package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_consulta_ibge/internal/infrastructure/config"
	ctxutil "3tcapital/ms_consulta_ibge/internal/infrastructure/context"
	"3tcapital/ms_consulta_ibge/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNew_NilLogger(t *testing.T) {
	_, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        nil,
		HealthHandler: okHandler(),
	})

	if err == nil {
		t.Fatal("expected error for nil logger")
	}

	if err.Error() != "logger is required" {
		t.Errorf("expected error 'logger is required', got %q", err.Error())
	}
}

func TestNew_NilHealthHandler(t *testing.T) {
	_, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        testutil.NewNullLogger(),
		HealthHandler: nil,
	})

	if err == nil {
		t.Fatal("expected error for nil health handler")
	}

	if err.Error() != "health handler is required" {
		t.Errorf("expected error 'health handler is required', got %q", err.Error())
	}
}

func TestNew_ValidOptions(t *testing.T) {
	cfg := config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}

	server, err := New(Options{
		Config:        cfg,
		Logger:        testutil.NewNullLogger(),
		HealthHandler: okHandler(),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", server.httpServer.Addr)
	}

	if server.httpServer.WriteTimeout != 30*time.Second {
		t.Errorf("expected write timeout 30s, got %v", server.httpServer.WriteTimeout)
	}

	if server.shutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s, got %v", server.shutdownTimeout)
	}
}

func TestNew_DefaultShutdownTimeout(t *testing.T) {
	server, err := New(Options{Logger: testutil.NewNullLogger(), HealthHandler: okHandler()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.shutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout, got %v", server.shutdownTimeout)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	healthHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	server, err := New(Options{
		Logger:        testutil.NewNullLogger(),
		HealthHandler: healthHandler,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "healthy" {
		t.Errorf("expected body 'healthy', got %q", w.Body.String())
	}

	if w.Header().Get(ctxutil.CorrelationIDHeader) == "" {
		t.Error("expected a correlation id header on the response")
	}
}

func TestServer_APIRoutes(t *testing.T) {
	var deadlineSet bool
	var correlationID string

	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{QueryTimeout: time.Minute}},
		Logger:        testutil.NewNullLogger(),
		HealthHandler: okHandler(),
		APIRoutes: func(r chi.Router) {
			r.Post("/consultas", func(w http.ResponseWriter, r *http.Request) {
				_, deadlineSet = r.Context().Deadline()
				correlationID = ctxutil.GetCorrelationID(r.Context())
				w.WriteHeader(http.StatusAccepted)
			})
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultas", nil)
	req.Header.Set(ctxutil.CorrelationIDHeader, "corr-42")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", w.Code)
	}
	if !deadlineSet {
		t.Error("expected API requests to carry a deadline")
	}
	if correlationID != "corr-42" {
		t.Errorf("expected inbound correlation id, got %q", correlationID)
	}
}

func TestServer_WithoutAPIRoutes(t *testing.T) {
	server, err := New(Options{Logger: testutil.NewNullLogger(), HealthHandler: okHandler()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/consultas", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestServer_Serve_ContextCancel(t *testing.T) {
	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{ShutdownTimeout: time.Second}},
		Logger:        testutil.NewNullLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestServer_Run_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: port}},
		Logger:        testutil.NewNullLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := server.Run(context.Background()); err == nil {
		t.Fatal("expected error when the port is already in use")
	}
}
