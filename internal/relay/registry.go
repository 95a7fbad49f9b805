package relay

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

// Participant is a snapshot of a joined connection.
type Participant struct {
	DisplayName string
	Talking     bool
	Conn        Connection
}

// Stats summarises the registry at one point in time.
type Stats struct {
	Connections  int `json:"connections"`
	Participants int `json:"participants"`
	Talking      int `json:"talking"`
}

type member struct {
	name    string
	talking atomic.Bool
	seq     uint64
}

type entry struct {
	conn   Connection
	seq    uint64
	member *member
}

func (e *entry) participant() Participant {
	return Participant{
		DisplayName: e.member.name,
		Talking:     e.member.talking.Load(),
		Conn:        e.conn,
	}
}

// Registry is the in-memory set of attached connections keyed by connection
// ID. An attached connection becomes a participant once it joins.
//
// Structural changes take the write lock. The talking flag is atomic because
// only the owning connection writes it while enumerations read it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// Attach adds conn in the unjoined state. It returns false if a connection
// with the same ID is already attached.
func (r *Registry) Attach(conn Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[conn.ID()]; exists {
		return false
	}
	r.entries[conn.ID()] = &entry{conn: conn, seq: r.nextSeq()}
	return true
}

// Unregister removes the connection together with its participant entry. It
// returns the removed participant, or nil if the connection never joined, and
// reports whether the connection was attached. Only the first call for a
// given ID reports true.
func (r *Registry) Unregister(id string) (*Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return nil, false
	}
	delete(r.entries, id)
	if e.member == nil {
		return nil, true
	}
	p := e.participant()
	return &p, true
}

// Register turns an attached connection into a participant.
func (r *Registry) Register(id, displayName string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return Participant{}, ErrUnknownConnection
	}
	if e.member != nil {
		return e.participant(), ErrAlreadyJoined
	}
	e.member = &member{name: displayName, seq: r.nextSeq()}
	return e.participant(), nil
}

// Rename replaces the display name of a joined connection and clears its
// talking flag. The participant keeps its roster position.
func (r *Registry) Rename(id, displayName string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists || e.member == nil {
		return Participant{}, ErrUnknownConnection
	}
	e.member.name = displayName
	e.member.talking.Store(false)
	return e.participant(), nil
}

// Get returns the participant for id, if the connection has joined.
func (r *Registry) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	if !exists || e.member == nil {
		return Participant{}, false
	}
	return e.participant(), true
}

// State reports where the connection is in its lifecycle. Unknown IDs are
// reported as closed.
func (r *Registry) State(id string) ConnState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	switch {
	case !exists:
		return StateClosed
	case e.member == nil:
		return StateOpen
	default:
		return StateJoined
	}
}

// SetTalking updates the talking flag. It reports false when the connection
// has not joined.
func (r *Registry) SetTalking(id string, talking bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	if !exists || e.member == nil {
		return false
	}
	e.member.talking.Store(talking)
	return true
}

// ListNames returns the display names of all participants in join order.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := lo.Filter(lo.Values(r.entries), func(e *entry, _ int) bool {
		return e.member != nil
	})
	slices.SortFunc(joined, func(a, b *entry) int {
		return cmp.Compare(a.member.seq, b.member.seq)
	})
	return lo.Map(joined, func(e *entry, _ int) string {
		return e.member.name
	})
}

// Connections returns a snapshot of every attached connection except the one
// with the given ID, in attach order. Pass an empty ID to include all.
func (r *Registry) Connections(exclude string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := lo.Filter(lo.Values(r.entries), func(e *entry, _ int) bool {
		return e.conn.ID() != exclude
	})
	slices.SortFunc(targets, func(a, b *entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return lo.Map(targets, func(e *entry, _ int) Connection {
		return e.conn
	})
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.CountBy(lo.Values(r.entries), func(e *entry) bool {
		return e.member != nil
	})
}

// Stats returns connection, participant and talking counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Connections: len(r.entries)}
	for _, e := range r.entries {
		if e.member == nil {
			continue
		}
		stats.Participants++
		if e.member.talking.Load() {
			stats.Talking++
		}
	}
	return stats
}
