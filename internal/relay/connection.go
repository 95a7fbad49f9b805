package relay

// Connection is one bidirectional transport session as seen by the relay.
// Send must not block: the transport queues or rejects the payload.
type Connection interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// ConnState is the lifecycle state of a connection inside the registry.
type ConnState int

const (
	StateOpen ConnState = iota
	StateJoined
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
