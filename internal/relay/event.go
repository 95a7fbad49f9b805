package relay

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// EventType is the "type" discriminator carried by every wire event.
type EventType string

const (
	TypeJoin         EventType = "join"
	TypeParticipants EventType = "participants"
	TypeLeave        EventType = "leave"
	TypeAudio        EventType = "audio"
	TypeChat         EventType = "chat"
	TypeTalking      EventType = "talking"
	TypeStopped      EventType = "stopped"
)

// Event is one of the concrete event structs below.
type Event interface {
	Type() EventType
	frame() frame
}

type JoinEvent struct {
	Username string `validate:"required"`
}

// ParticipantsEvent is sent only by the server, in reply to a join.
type ParticipantsEvent struct {
	Participants []string
}

// LeaveEvent is always built by the server from the registry name.
type LeaveEvent struct {
	Username string
}

// Forwarded events keep optional fields as pointers: a field the client left
// out stays absent and an empty string stays empty.

// AudioEvent carries an opaque, typically base64 encoded, audio chunk.
type AudioEvent struct {
	Username  *string
	AudioData *string
}

type ChatEvent struct {
	Username *string
	Message  *string
}

type TalkingEvent struct {
	Username *string
}

type StoppedEvent struct {
	Username *string
}

func (JoinEvent) Type() EventType         { return TypeJoin }
func (ParticipantsEvent) Type() EventType { return TypeParticipants }
func (LeaveEvent) Type() EventType        { return TypeLeave }
func (AudioEvent) Type() EventType        { return TypeAudio }
func (ChatEvent) Type() EventType         { return TypeChat }
func (TalkingEvent) Type() EventType      { return TypeTalking }
func (StoppedEvent) Type() EventType      { return TypeStopped }

// Control reports whether events of this type change participant state
// rather than stream content.
func (t EventType) Control() bool {
	switch t {
	case TypeJoin, TypeLeave, TypeTalking, TypeStopped:
		return true
	default:
		return false
	}
}

// frame is the JSON object shape shared by all events. Nil fields are
// omitted on encode.
type frame struct {
	Type         EventType `json:"type"`
	Username     *string   `json:"username,omitempty"`
	Message      *string   `json:"message,omitempty"`
	AudioData    *string   `json:"audioData,omitempty"`
	Participants *[]string `json:"participants,omitempty"`
}

func (e JoinEvent) frame() frame {
	return frame{Type: TypeJoin, Username: lo.ToPtr(e.Username)}
}

func (e ParticipantsEvent) frame() frame {
	names := e.Participants
	if names == nil {
		names = []string{}
	}
	return frame{Type: TypeParticipants, Participants: &names}
}

func (e LeaveEvent) frame() frame {
	return frame{Type: TypeLeave, Username: lo.ToPtr(e.Username)}
}

func (e AudioEvent) frame() frame {
	return frame{Type: TypeAudio, Username: e.Username, AudioData: e.AudioData}
}

func (e ChatEvent) frame() frame {
	return frame{Type: TypeChat, Username: e.Username, Message: e.Message}
}

func (e TalkingEvent) frame() frame {
	return frame{Type: TypeTalking, Username: e.Username}
}

func (e StoppedEvent) frame() frame {
	return frame{Type: TypeStopped, Username: e.Username}
}

var validate = validator.New()

// Decode parses one inbound event. Errors wrap ErrMalformedPayload or
// ErrUnknownEventType. Unknown fields are ignored.
func Decode(raw []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var evt Event
	switch f.Type {
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedPayload)
	case TypeJoin:
		evt = JoinEvent{Username: lo.FromPtr(f.Username)}
	case TypeLeave:
		evt = LeaveEvent{Username: lo.FromPtr(f.Username)}
	case TypeAudio:
		evt = AudioEvent{Username: f.Username, AudioData: f.AudioData}
	case TypeChat:
		evt = ChatEvent{Username: f.Username, Message: f.Message}
	case TypeTalking:
		evt = TalkingEvent{Username: f.Username}
	case TypeStopped:
		evt = StoppedEvent{Username: f.Username}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
	}

	if err := validate.Struct(evt); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, f.Type, err)
	}
	return evt, nil
}

// PeekType reads only the type discriminator of raw. It returns an empty
// EventType when raw is not a JSON object.
func PeekType(raw []byte) EventType {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.Type
}

// Encode renders evt as a JSON object with its "type" discriminator.
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(evt.frame())
}
