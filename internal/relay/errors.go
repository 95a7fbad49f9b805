package relay

import "errors"

var (
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrAlreadyJoined     = errors.New("connection already joined")
	ErrUnknownConnection = errors.New("connection not attached")
	ErrSendFailure       = errors.New("send failed")
)
