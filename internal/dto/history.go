package dto

import (
	"encoding/json"
	"strings"
)

// WireMessage is a prior turn as clients submit it, in the OpenAI chat
// message shape.
type WireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type WireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type,omitempty"`
	Function WireFunctionCall `json:"function"`
}

// WireFunctionCall carries arguments as a JSON-encoded string, although some
// clients send a raw object.
type WireFunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (m WireMessage) ChatMessage() ChatMessage {
	msg := ChatMessage{
		Role:       ChatRole(strings.ToLower(strings.TrimSpace(m.Role))),
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}
	if m.Content != nil {
		msg.Content = *m.Content
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolInvocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: unquoteArguments(tc.Function.Arguments),
		})
	}
	return msg
}

func unquoteArguments(raw json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return json.RawMessage(s)
	}
	return raw
}
