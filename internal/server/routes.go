// Package server wires HTTP handlers into a ServeMux via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes
// for one listener.
func (s *Server) SetupRoutes(listener string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.RootHandler(listener))
	mux.HandleFunc("/ws", s.WebSocketHandler(listener))
	mux.HandleFunc("/health", s.HealthHandler)
	mux.HandleFunc("/stats", s.StatsHandler)
	mux.HandleFunc("/test", s.TestPageHandler)
	return mux
}

// Handler returns the full handler chain for one listener.
func (s *Server) Handler(listener string) http.Handler {
	return withCORS(s.SetupRoutes(listener))
}
