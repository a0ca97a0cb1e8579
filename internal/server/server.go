// Package server exposes the chronicle over a JSON HTTP API and a WebSocket
// play channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lawnchairsociety/chronicle/internal/actions"
	"github.com/lawnchairsociety/chronicle/internal/config"
	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/dice"
	"github.com/lawnchairsociety/chronicle/internal/logger"
	"github.com/lawnchairsociety/chronicle/internal/play"
	"github.com/lawnchairsociety/chronicle/internal/telemetry"
)

var tracer = telemetry.Tracer("server")

// Server serves one database to any number of HTTP and WebSocket clients.
type Server struct {
	cfg        *config.ServerConfig
	db         *database.Database
	controller *play.Controller
	resolver   *actions.Resolver
	executor   *actions.Executor

	connLimiter *ConnLimiter
	httpServer  *http.Server

	clients      map[string]*WebSocketClient
	mu           sync.Mutex
	shutdownOnce sync.Once
}

// NewServer wires the play engine over db. A nil roller rolls real dice.
func NewServer(cfg *config.ServerConfig, db *database.Database, roller dice.Roller) *Server {
	var fallback actions.Matcher
	if cfg.Game.FallbackEnabled {
		fallback = actions.NewTextMatcher()
	}

	s := &Server{
		cfg:         cfg,
		db:          db,
		controller:  play.NewController(db, roller, play.Options{RequireSetup: cfg.Game.RequireSetup}),
		resolver:    actions.NewResolver(db, fallback),
		executor:    actions.NewExecutor(db),
		connLimiter: NewConnLimiter(cfg.Connections),
		clients:     make(map[string]*WebSocketClient),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ErrorLog(),
	}
	return s
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return withRequestLogging(mux)
}

// Start listens on the configured address and blocks until the server is
// shut down.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("Server listening", "address", listener.Addr().String())

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and closes every WebSocket connection.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)

		s.mu.Lock()
		for id, client := range s.clients {
			client.Close()
			delete(s.clients, id)
		}
		s.mu.Unlock()

		logger.Info("Server shutdown complete")
	})
	return err
}

func (s *Server) addClient(c *WebSocketClient) {
	s.mu.Lock()
	s.clients[c.ID()] = c
	s.mu.Unlock()
}

func (s *Server) removeClient(c *WebSocketClient) {
	s.mu.Lock()
	delete(s.clients, c.ID())
	s.mu.Unlock()
}

// ClientCount returns the number of open WebSocket connections.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
