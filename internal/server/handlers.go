// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, relay statistics, and the built-in test page.
package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/walkietalkie/internal/relay"
)

//go:embed testpage.html
var testPage []byte

// Server turns HTTP requests into relay connections. One Server may back any
// number of listeners; they all share the same Lifecycle.
type Server struct {
	cfg       Config
	lifecycle Lifecycle
	registry  *relay.Registry
	origins   *originPolicy
	upgrader  websocket.Upgrader
	log       *slog.Logger
}

// New creates a Server that hands upgraded connections to supervisor.
func New(cfg Config, supervisor *relay.Supervisor, log *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		lifecycle: supervisor,
		registry:  supervisor.Registry(),
		origins:   newOriginPolicy(cfg.Origins(), log),
		log:       log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	return s
}

// WebSocketHandler upgrades GET requests and starts a Client tagged with the
// listener name.
func (s *Server) WebSocketHandler(listener string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("WebSocket upgrade failed", "listener", listener, "err", err)
			return
		}

		NewClient(conn, s.lifecycle, s.cfg, r.RemoteAddr, listener, s.log).Start()
	}
}

// RootHandler upgrades WebSocket requests made to the root path, which is
// where walkie-talkie clients connect, and serves the test page otherwise.
func (s *Server) RootHandler(listener string) http.HandlerFunc {
	upgrade := s.WebSocketHandler(listener)
	return func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			upgrade(w, r)
			return
		}
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		s.TestPageHandler(w, r)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Walkie-talkie relay is running!")
}

type statsResponse struct {
	relay.Stats
	RSSBytes uint64 `json:"rssBytes,omitempty"`
}

// StatsHandler reports registry counts and the process resident set size.
func (s *Server) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{Stats: s.registry.Stats()}
	if rss, err := processRSS(); err != nil {
		s.log.Debug("Process stats unavailable", "err", err)
	} else {
		resp.RSSBytes = rss
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("Error writing stats response", "err", err)
	}
}

// TestPageHandler serves an HTML page that joins the relay, shows every event
// it receives and can send chat and talking events.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write(testPage); err != nil {
		s.log.Warn("Error writing HTML response", "err", err)
	}
}

// withCORS adds permissive CORS headers and answers pre-flight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
