package relay

import (
	"errors"
	"fmt"
	"log/slog"
)

// Router classifies inbound events, applies their registry side effects and
// fans them out to every connection except the sender.
type Router struct {
	registry *Registry
	log      *slog.Logger
}

// NewRouter creates a Router over registry.
func NewRouter(registry *Registry, log *slog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// Route decodes raw and dispatches it. Payloads that fail to decode are
// logged and dropped; the connection is left untouched.
func (r *Router) Route(conn Connection, raw []byte) {
	evt, err := Decode(raw)
	if err != nil {
		if errors.Is(err, ErrUnknownEventType) {
			r.log.Warn("Dropping event of unknown type", "conn", conn.ID(), "err", err)
		} else {
			r.log.Warn("Dropping malformed event", "conn", conn.ID(), "err", err)
		}
		return
	}
	r.Dispatch(conn, evt)
}

// Dispatch handles an already decoded event sent by conn.
func (r *Router) Dispatch(conn Connection, evt Event) {
	switch e := evt.(type) {
	case JoinEvent:
		r.join(conn, e)
	case LeaveEvent:
		r.leave(conn)
	case AudioEvent, ChatEvent:
		r.Broadcast(conn.ID(), e)
	case TalkingEvent:
		r.talking(conn, true, e)
	case StoppedEvent:
		r.talking(conn, false, e)
	default:
		r.log.Warn("Dropping event not accepted from clients", "conn", conn.ID(), "type", evt.Type())
	}
}

func (r *Router) join(conn Connection, e JoinEvent) {
	id := conn.ID()
	_, err := r.registry.Register(id, e.Username)
	if errors.Is(err, ErrAlreadyJoined) {
		r.log.Debug("Repeated join, updating display name", "conn", id, "username", e.Username)
		_, err = r.registry.Rename(id, e.Username)
	}
	if err != nil {
		r.log.Warn("Join from detached connection ignored", "conn", id, "err", err)
		return
	}

	if err := r.Unicast(conn, ParticipantsEvent{Participants: r.registry.ListNames()}); err != nil {
		r.log.Debug("Participants reply not delivered", "conn", id, "err", err)
	}
	r.Broadcast(id, JoinEvent{Username: e.Username})
	r.log.Info("Participant joined", "conn", id, "username", e.Username)
}

// leave announces the sender's departure but keeps it registered; only the
// transport closing the connection removes it.
func (r *Router) leave(conn Connection) {
	p, ok := r.registry.Get(conn.ID())
	if !ok {
		return
	}
	r.Broadcast(conn.ID(), LeaveEvent{Username: p.DisplayName})
	r.log.Info("Participant left", "conn", conn.ID(), "username", p.DisplayName)
}

func (r *Router) talking(conn Connection, talking bool, evt Event) {
	if !r.registry.SetTalking(conn.ID(), talking) {
		r.log.Debug("Ignoring talk state from unjoined connection", "conn", conn.ID(), "type", evt.Type())
		return
	}
	r.Broadcast(conn.ID(), evt)
}

// Unicast encodes evt and sends it to conn alone.
func (r *Router) Unicast(conn Connection, evt Event) error {
	payload, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type(), err)
	}
	return deliver(conn, payload)
}

// Broadcast sends evt to every attached connection except the one with ID
// exclude and returns how many sends succeeded. Targets are snapshotted before
// sending; a failed send is logged and skipped.
func (r *Router) Broadcast(exclude string, evt Event) int {
	payload, err := Encode(evt)
	if err != nil {
		r.log.Error("Failed to encode broadcast", "type", evt.Type(), "err", err)
		return 0
	}

	targets := r.registry.Connections(exclude)
	delivered := 0
	for _, target := range targets {
		if err := deliver(target, payload); err != nil {
			r.log.Debug("Broadcast send failed", "conn", target.ID(), "type", evt.Type(), "err", err)
			continue
		}
		delivered++
	}

	r.log.Debug("Broadcast", "type", evt.Type(), "from", exclude, "targets", len(targets), "delivered", delivered)
	return delivered
}

func deliver(conn Connection, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrSendFailure, rec)
		}
	}()

	if err := conn.Send(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailure, err)
	}
	return nil
}
