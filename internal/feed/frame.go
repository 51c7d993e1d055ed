package feed

import (
	"bytes"
	"encoding/json"
)

// RawEvent is one decoded hub invocation. The client attaches no business
// meaning to it; Args stay raw for the classifier.
type RawEvent struct {
	Hub    string
	Method string
	Args   []json.RawMessage
	Raw    []byte
}

// wireFrame is the hub envelope the upgraded channel carries. An empty
// object is a keepalive; E is an explicit protocol error.
type wireFrame struct {
	Cursor      string          `json:"C,omitempty"`
	Invocations []hubInvocation `json:"M,omitempty"`
	Error       string          `json:"E,omitempty"`
	Init        int             `json:"S,omitempty"`
}

type hubInvocation struct {
	Hub    string            `json:"H"`
	Method string            `json:"M"`
	Args   []json.RawMessage `json:"A"`
}

// decodeFrame splits one wire frame into its hub invocations. It returns
// (nil, nil, nil) for keepalive/empty frames, an *UpstreamError for explicit
// error frames, and a plain error for payloads that do not parse.
func decodeFrame(raw []byte) ([]RawEvent, *UpstreamError, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil, nil
	}
	var frame wireFrame
	if err := json.Unmarshal(trimmed, &frame); err != nil {
		return nil, nil, err
	}
	if frame.Error != "" {
		return nil, &UpstreamError{Message: frame.Error}, nil
	}
	if len(frame.Invocations) == 0 {
		// Init acks and cursor-only frames carry no payload.
		return nil, nil, nil
	}
	events := make([]RawEvent, 0, len(frame.Invocations))
	for _, inv := range frame.Invocations {
		events = append(events, RawEvent{
			Hub:    inv.Hub,
			Method: inv.Method,
			Args:   inv.Args,
			Raw:    trimmed,
		})
	}
	return events, nil, nil
}
