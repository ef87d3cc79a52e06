package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-relay/config"
	"chat-relay/internal/handler"
	"chat-relay/internal/metrics"
	"chat-relay/internal/relay"
	"chat-relay/internal/transport/httpdto"
	"chat-relay/internal/websocket"
	"chat-relay/pkg/logger"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{AppPort: "0", AppMode: TestMode, Environment: "test"}
	l := logger.Nop()
	m := metrics.New()

	wsLogger := websocket.NewConnectionLogger(zap.NewNop())
	hub := websocket.NewHub(nil, m, wsLogger)
	r := relay.New(relay.Config{}, nil, l, m)

	s := New(cfg, l)
	s.SetupRoutes(&Handlers{
		Index:     handler.NewIndexHandler(cfg.Environment, hub, nil),
		WebSocket: websocket.NewHandler(hub, r, m, wsLogger),
		Metrics:   m,
	})
	return s
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRoutes_SocketHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/socketio", "/socketio/"} {
		rec := serve(s, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		var body httpdto.MessageResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != handler.SocketRouteActive {
			t.Errorf("%s: unexpected message %q", path, body.Message)
		}
	}
}

func TestRoutes_IndexAndUsers(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info httpdto.InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Title != handler.AppTitle || info.Environment != "test" || info.Connections != 0 {
		t.Errorf("unexpected info %+v", info)
	}

	rec = serve(s, http.MethodGet, "/users")
	if rec.Code != http.StatusOK || rec.Body.String() != "respond with a resource" {
		t.Errorf("unexpected users response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRoutes_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Errorf("expected NOT_FOUND code, got %s", rec.Body.String())
	}
}

func TestRoutes_WebSocketRequiresClientID(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, WebSocketPath)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	s := newTestServer(t)
	serve(s, http.MethodGet, WebSocketPath)

	rec := serve(s, http.MethodGet, MetricsPath)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chat_relay_connections_rejected_total 1") {
		t.Errorf("expected rejected connection counter, got:\n%s", rec.Body.String())
	}
}

func TestServer_ShutdownRunsHooksFirst(t *testing.T) {
	s := newTestServer(t)

	var order []string
	s.OnShutdown(func(ctx context.Context) error {
		order = append(order, "first")
		return errors.New("hook failed")
	})
	s.OnShutdown(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected both hooks in order, got %v", order)
	}
}
