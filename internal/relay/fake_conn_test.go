package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errConnGone = errors.New("connection gone")

type fakeConn struct {
	id      string
	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	failing bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing || c.closed {
		return errConnGone
	}
	c.frames = append(c.frames, payload)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = true
}

// received decodes every frame sent to the connection as a generic object.
func (c *fakeConn) received(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// panicConn panics on send, as a transport with a closed queue might.
type panicConn struct{ id string }

func (c panicConn) ID() string          { return c.id }
func (c panicConn) Send(_ []byte) error { panic("send on closed channel") }
func (c panicConn) Close() error        { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	registry   *Registry
	router     *Router
	supervisor *Supervisor
}

func newFixture() *fixture {
	log := discardLogger()
	registry := NewRegistry()
	router := NewRouter(registry, log)
	return &fixture{
		registry:   registry,
		router:     router,
		supervisor: NewSupervisor(registry, router, log),
	}
}

func (f *fixture) open(ids ...string) []*fakeConn {
	conns := make([]*fakeConn, 0, len(ids))
	for _, id := range ids {
		c := newFakeConn(id)
		f.supervisor.Opened(c)
		conns = append(conns, c)
	}
	return conns
}

func (f *fixture) send(conn Connection, raw string) {
	f.supervisor.Message(conn, []byte(raw))
}
