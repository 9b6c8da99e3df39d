package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/roomdrop/internal/hub"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
)

// upgrader accepts any origin; rooms carry no authorization.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Config configures a Server.
type Config struct {
	Addr   string
	Hub    *hub.Hub
	Logger *slog.Logger
}

// Server exposes the hub over HTTP: /ws upgrades to the signaling
// websocket and /health reports liveness.
type Server struct {
	hub    *hub.Hub
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server. It does not start listening.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		hub:    cfg.Hub,
		logger: cfg.Logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// RegisterRoutes mounts the server's handlers on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/ws", s.ServeWs)
}

// ServeWs upgrades the request and hands the socket to the hub.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	if _, err := s.hub.Serve(ws); err != nil {
		s.logger.Warn("rejected connection", "remote", r.RemoteAddr, "error", err)
	}
}

type healthResponse struct {
	Status string `json:"status"`
	hub.Stats
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{Status: "ok", Stats: s.hub.Stats()})
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("signaling server listening", "addr", ln.Addr().String())

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight
// requests. Upgraded websockets are owned by the hub and closed by hub.Stop.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
