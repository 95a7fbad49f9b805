package relay

import (
	"context"
	"log/slog"
	"sync"
)

// Supervisor receives transport lifecycle notifications and keeps the
// registry consistent with them. Every attached connection is cleaned up
// exactly once, whichever of Closed or Failed arrives first.
type Supervisor struct {
	registry *Registry
	router   *Router
	log      *slog.Logger
	active   sync.WaitGroup
}

// NewSupervisor wires a Supervisor to registry and router.
func NewSupervisor(registry *Registry, router *Router, log *slog.Logger) *Supervisor {
	return &Supervisor{registry: registry, router: router, log: log}
}

// Registry returns the registry the supervisor maintains.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Opened attaches a newly established connection in the unjoined state.
func (s *Supervisor) Opened(conn Connection) {
	if !s.registry.Attach(conn) {
		s.log.Warn("Connection already attached", "conn", conn.ID())
		return
	}
	s.active.Add(1)
	s.log.Info("Connection opened", "conn", conn.ID(), "connections", s.registry.Stats().Connections)
}

// Message routes one inbound payload from conn.
func (s *Supervisor) Message(conn Connection, raw []byte) {
	s.router.Route(conn, raw)
}

// Closed handles a graceful close of conn.
func (s *Supervisor) Closed(conn Connection) {
	s.cleanup(conn)
}

// Failed handles a transport error on conn. The error never propagates past
// this call.
func (s *Supervisor) Failed(conn Connection, err error) {
	s.log.Warn("Connection failed", "conn", conn.ID(), "err", err)
	s.cleanup(conn)
}

func (s *Supervisor) cleanup(conn Connection) {
	p, attached := s.registry.Unregister(conn.ID())
	if !attached {
		return
	}
	defer s.active.Done()

	if p == nil {
		s.log.Info("Connection closed before joining", "conn", conn.ID())
		return
	}
	s.router.Broadcast(conn.ID(), LeaveEvent{Username: p.DisplayName})
	s.log.Info("Participant disconnected", "conn", conn.ID(), "username", p.DisplayName,
		"participants", s.registry.Len())
}

// Shutdown closes every attached connection and waits until the transport has
// reported each of them closed, or ctx is done.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	conns := s.registry.Connections("")
	s.log.Info("Shutting down all connections", "connections", len(conns))
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			s.log.Debug("Error closing connection", "conn", conn.ID(), "err", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("All connections closed")
		return nil
	case <-ctx.Done():
		s.log.Warn("Shutdown deadline reached with connections still open",
			"connections", s.registry.Stats().Connections)
		return ctx.Err()
	}
}
