package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/config"
	"chat-relay/internal/handler"
	"chat-relay/internal/metrics"
	"chat-relay/internal/middleware"
	"chat-relay/internal/websocket"
	"chat-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer    *http.Server
	engine        *gin.Engine
	config        *config.Config
	logger        *logger.Logger
	shutdownHooks []ShutdownFunc
}

// ShutdownFunc runs before the HTTP server stops accepting connections.
type ShutdownFunc func(ctx context.Context) error

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

const (
	WebSocketPath    = "/socket.io"
	SocketHealthPath = "/socketio"
	MetricsPath      = "/metrics"
)

type Handlers struct {
	Index     *handler.IndexHandler
	WebSocket *websocket.Handler
	Metrics   *metrics.Metrics
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/", handlers.Index.Index)
	s.engine.GET("/users", handlers.Index.Users)

	s.engine.GET(SocketHealthPath, handler.SocketHealth)
	s.engine.GET(SocketHealthPath+"/", handler.SocketHealth)

	s.engine.GET(WebSocketPath, handlers.WebSocket.Connect)
	s.engine.GET(WebSocketPath+"/", handlers.WebSocket.Connect)

	if handlers.Metrics != nil {
		s.engine.GET(MetricsPath, gin.WrapH(handlers.Metrics.Handler()))
	}

	s.engine.NoRoute(middleware.NotFound)
}

// OnShutdown registers f to run, in order, before the HTTP server shuts
// down. Hijacked connections are not closed by http.Server, so their owners
// must close them here.
func (s *Server) OnShutdown(f ShutdownFunc) {
	s.shutdownHooks = append(s.shutdownHooks, f)
}

// Shutdown runs the shutdown hooks, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, hook := range s.shutdownHooks {
		if err := hook(ctx); err != nil {
			s.logger.Errorf("Shutdown hook failed: %s", err)
		}
	}
	return s.httpServer.Shutdown(ctx)
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
