package relay

import (
	"encoding/json"

	"github.com/pkg/errors"

	"relaygate/tools/decode"
)

// Wire event vocabulary. The same names are used in both directions:
// clients emit join/message/leave, the relay emits message only.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventLeave   = "leave"
)

// Frame is the wire envelope: {"event": "...", "data": {...}}.
// Data stays raw so forwarded and echoed payloads are byte-verbatim.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	raw []byte
}

// JoinPayload registers the session under UserID. TargetUserID is
// accepted for wire compatibility but carries no server behavior.
type JoinPayload struct {
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId,omitempty"`
}

// LeavePayload deregisters the session under UserID.
type LeavePayload struct {
	UserID string `json:"userId"`
}

// MessagePayload extracts the one field the relay routes on. All other
// payload fields are opaque and passed through untouched.
type MessagePayload struct {
	ReceiverID string `json:"receiverId"`
}

// ParseFrame decodes a received envelope and keeps the original bytes
// for verbatim forwarding.
func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame")
	}
	if f.Event == "" {
		return nil, errors.New("frame has no event")
	}
	f.raw = raw
	return f, nil
}

// Raw returns the bytes the frame was parsed from, or a fresh encoding
// for frames built server-side.
func (f *Frame) Raw() []byte {
	if f.raw != nil {
		return f.raw
	}
	b, _ := json.Marshal(f)
	return b
}

func (f *Frame) DecodeJoin() (*JoinPayload, error) {
	return decode.DecodeRaw[JoinPayload](f.Data)
}

func (f *Frame) DecodeLeave() (*LeavePayload, error) {
	return decode.DecodeRaw[LeavePayload](f.Data)
}

func (f *Frame) DecodeMessage() (*MessagePayload, error) {
	return decode.DecodeRaw[MessagePayload](f.Data)
}

// BuildFrame assembles an outbound envelope around an arbitrary payload.
func BuildFrame(event string, payload any) (*Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	return &Frame{Event: event, Data: data}, nil
}
