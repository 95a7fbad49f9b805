package relay

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Event
		wantErr error
	}{
		{
			name: "join",
			raw:  `{"type":"join","username":"Alice"}`,
			want: JoinEvent{Username: "Alice"},
		},
		{
			name: "chat ignores unknown fields",
			raw:  `{"type":"chat","username":"Alice","message":"hi","colour":"red"}`,
			want: ChatEvent{Username: lo.ToPtr("Alice"), Message: lo.ToPtr("hi")},
		},
		{
			name: "audio",
			raw:  `{"type":"audio","username":"Bob","audioData":"UklGRg=="}`,
			want: AudioEvent{Username: lo.ToPtr("Bob"), AudioData: lo.ToPtr("UklGRg==")},
		},
		{
			name: "leave without username",
			raw:  `{"type":"leave"}`,
			want: LeaveEvent{},
		},
		{
			name: "talking",
			raw:  `{"type":"talking","username":"Carol"}`,
			want: TalkingEvent{Username: lo.ToPtr("Carol")},
		},
		{
			name: "stopped",
			raw:  `{"type":"stopped","username":"Carol"}`,
			want: StoppedEvent{Username: lo.ToPtr("Carol")},
		},
		{
			name: "chat keeps empty message",
			raw:  `{"type":"chat","username":"","message":""}`,
			want: ChatEvent{Username: lo.ToPtr(""), Message: lo.ToPtr("")},
		},
		{
			name: "audio without fields",
			raw:  `{"type":"audio"}`,
			want: AudioEvent{},
		},
		{
			name:    "not json",
			raw:     `hello there`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "json array",
			raw:     `["join"]`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "missing type",
			raw:     `{"username":"Alice"}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "wrong field type",
			raw:     `{"type":"chat","username":42}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "join without username",
			raw:     `{"type":"join"}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "unknown type",
			raw:     `{"type":"wave","username":"Alice"}`,
			wantErr: ErrUnknownEventType,
		},
		{
			name:    "server only type",
			raw:     `{"type":"participants","participants":["x"]}`,
			wantErr: ErrUnknownEventType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		evt  Event
		want string
	}{
		{"participants", ParticipantsEvent{Participants: []string{"Alice", "Bob"}}, `{"type":"participants","participants":["Alice","Bob"]}`},
		{"join", JoinEvent{Username: "Alice"}, `{"type":"join","username":"Alice"}`},
		{"leave", LeaveEvent{Username: "Bob"}, `{"type":"leave","username":"Bob"}`},
		{"empty participants", ParticipantsEvent{}, `{"type":"participants","participants":[]}`},
		{"chat", ChatEvent{Username: lo.ToPtr("Alice"), Message: lo.ToPtr("hi")}, `{"type":"chat","username":"Alice","message":"hi"}`},
		{"audio", AudioEvent{Username: lo.ToPtr("Bob"), AudioData: lo.ToPtr("AAAA")}, `{"type":"audio","username":"Bob","audioData":"AAAA"}`},
		{"chat without username", ChatEvent{Message: lo.ToPtr("anon")}, `{"type":"chat","message":"anon"}`},
		{"chat with empty message", ChatEvent{Username: lo.ToPtr("Alice"), Message: lo.ToPtr("")}, `{"type":"chat","username":"Alice","message":""}`},
		{"audio with empty fields", AudioEvent{Username: lo.ToPtr(""), AudioData: lo.ToPtr("")}, `{"type":"audio","username":"","audioData":""}`},
		{"stopped", StoppedEvent{Username: lo.ToPtr("Carol")}, `{"type":"stopped","username":"Carol"}`},
		{"talking without username", TalkingEvent{}, `{"type":"talking"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.evt)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestPeekType(t *testing.T) {
	assert.Equal(t, TypeStopped, PeekType([]byte(`{"type":"stopped","username":"Carol"}`)))
	assert.Equal(t, EventType("dance"), PeekType([]byte(`{"type":"dance"}`)))
	assert.Equal(t, EventType(""), PeekType([]byte(`not json`)))

	for _, typ := range []EventType{TypeJoin, TypeLeave, TypeTalking, TypeStopped} {
		assert.True(t, typ.Control(), typ)
	}
	for _, typ := range []EventType{TypeAudio, TypeChat, TypeParticipants, "dance", ""} {
		assert.False(t, typ.Control(), typ)
	}
}
