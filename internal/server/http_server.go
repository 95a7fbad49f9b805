// Package server constructs and starts the relay's HTTP listeners with
// helpers that apply sensible production defaults.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Listener is one HTTP or HTTPS endpoint feeding the shared relay.
type Listener struct {
	Name     string
	Addr     string
	CertFile string
	KeyFile  string
	server   *http.Server
}

// TLS reports whether the listener serves HTTPS.
func (l *Listener) TLS() bool {
	return l.CertFile != ""
}

// Scheme returns the WebSocket scheme clients use for this listener.
func (l *Listener) Scheme() string {
	if l.TLS() {
		return "wss"
	}
	return "ws"
}

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Listeners returns the plain listener and, when certificates are
// configured, the TLS listener. Both route into the same relay.
func (s *Server) Listeners() []*Listener {
	listeners := []*Listener{{
		Name:   "http",
		Addr:   s.cfg.HTTPAddr(),
		server: CreateServer(s.cfg.HTTPAddr(), s.Handler("http")),
	}}

	if s.cfg.TLSEnabled() {
		listeners = append(listeners, &Listener{
			Name:     "https",
			Addr:     s.cfg.HTTPSAddr(),
			CertFile: s.cfg.TLSCertFile,
			KeyFile:  s.cfg.TLSKeyFile,
			server:   CreateServer(s.cfg.HTTPSAddr(), s.Handler("https")),
		})
	}
	return listeners
}

// Serve blocks until the listener stops. A graceful shutdown returns nil.
func (l *Listener) Serve() error {
	var err error
	if l.TLS() {
		err = l.server.ListenAndServeTLS(l.CertFile, l.KeyFile)
	} else {
		err = l.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s listener on %s: %w", l.Name, l.Addr, err)
	}
	return nil
}

// Shutdown gracefully stops accepting requests. Hijacked WebSocket
// connections are not affected; the relay supervisor closes those.
func (l *Listener) Shutdown(ctx context.Context) error {
	if err := l.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s listener shutdown: %w", l.Name, err)
	}
	return nil
}
