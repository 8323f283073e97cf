package dto

import (
	"encoding/json"
	"strings"
	"time"
)

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleTool      ChatRole = "tool"
)

// ChatMessage is one conversation turn. Assistant turns may carry tool
// invocations; tool turns answer exactly one of them through ToolCallID.
type ChatMessage struct {
	Role       ChatRole
	Content    string
	ToolCalls  []ToolInvocation
	ToolCallID string
	Name       string
}

type ToolInvocation struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  *ToolSchema
}

// ToolSchema is the JSON Schema subset shared by every language provider.
type ToolSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Properties  map[string]*ToolSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *ToolSchema            `json:"items,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
}

type ChatRequest struct {
	Model    string
	Messages []ChatMessage
	// Tools is advertised with automatic tool choice. Leave it empty to force
	// a plain text reply.
	Tools []ToolDescriptor
}

type ChatResponse struct {
	Text      string
	ToolCalls []ToolInvocation
}

type ToolResult struct {
	Content string
	Failed  bool
}

type ToolExecution struct {
	Invocation ToolInvocation
	Result     ToolResult
	Duration   time.Duration
}

type ClientContext struct {
	City     string
	Region   string
	Country  string
	TimeZone string
}

// Location joins the known parts of the caller's location, or returns "".
func (c ClientContext) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.City, c.Region, c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type ConversationInput struct {
	Utterance string
	History   []ChatMessage
	Client    ClientContext
}

type ConversationResult struct {
	Reply         string
	Executions    []ToolExecution
	ProviderCalls int
}
