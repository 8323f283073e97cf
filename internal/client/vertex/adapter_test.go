package vertexclient

import (
	"strings"
	"testing"

	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

func toolConversation() []dto.ChatMessage {
	return []dto.ChatMessage{
		{Role: dto.RoleSystem, Content: "You are Swift Sage."},
		{Role: dto.RoleUser, Content: "create a task to buy milk"},
		{Role: dto.RoleAssistant, ToolCalls: []dto.ToolInvocation{
			{ID: "call_1", Name: "createTask", Arguments: []byte(`{"content":"buy milk"}`)},
		}},
		{Role: dto.RoleTool, ToolCallID: "call_1", Content: `Created task "buy milk".`},
	}
}

func TestToContentsWithTools(t *testing.T) {
	system, contents := toContents(toolConversation(), true)

	if system != "You are Swift Sage." {
		t.Fatalf("system mismatch: %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	if contents[1].Role != "model" {
		t.Fatalf("assistant turn should map to model, got %q", contents[1].Role)
	}
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	if !ok || call.Name != "createTask" || call.Args["content"] != "buy milk" {
		t.Fatalf("unexpected function call part: %#v", contents[1].Parts[0])
	}
	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	if !ok || resp.Name != "createTask" {
		t.Fatalf("tool name should be recovered from call id: %#v", contents[2].Parts[0])
	}
}

func TestToContentsWithoutToolsRendersText(t *testing.T) {
	_, contents := toContents(toolConversation(), false)

	for _, c := range contents {
		for _, p := range c.Parts {
			if _, ok := p.(genai.Text); !ok {
				t.Fatalf("expected only text parts, got %T", p)
			}
		}
	}
	last := contents[len(contents)-1]
	if last.Role != "user" || !strings.Contains(string(last.Parts[0].(genai.Text)), "Result of createTask") {
		t.Fatalf("unexpected final content: %#v", last)
	}
}

func TestToContentsMergesConsecutiveRoles(t *testing.T) {
	_, contents := toContents([]dto.ChatMessage{
		{Role: dto.RoleUser, Content: "one"},
		{Role: dto.RoleUser, Content: "two"},
	}, false)

	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("expected one merged user content, got %#v", contents)
	}
}

func TestParseContentResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []genai.Part{
					genai.Text("Sure. "),
					&genai.FunctionCall{Name: "listTasks", Args: map[string]any{"filter": "today"}},
					genai.FunctionCall{Name: "listProjects"},
				},
			},
		}},
	}

	text, calls := parseContentResponse(resp)

	if text != "Sure. " {
		t.Fatalf("text mismatch: %q", text)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "listTasks" || string(calls[0].Arguments) != `{"filter":"today"}` {
		t.Fatalf("unexpected first call: %+v", calls[0])
	}
	if string(calls[1].Arguments) != "{}" {
		t.Fatalf("nil args should encode as {}, got %s", calls[1].Arguments)
	}
	if calls[0].ID == "" || calls[0].ID == calls[1].ID {
		t.Fatalf("calls need distinct ids: %q %q", calls[0].ID, calls[1].ID)
	}
}

func TestToGenaiSchema(t *testing.T) {
	schema := toGenaiSchema(&dto.ToolSchema{
		Type:     "object",
		Required: []string{"labels"},
		Properties: map[string]*dto.ToolSchema{
			"labels": {Type: "array", Items: &dto.ToolSchema{Type: "string"}},
		},
	})

	if schema.Type != genai.TypeObject || schema.Properties["labels"].Items.Type != genai.TypeString {
		t.Fatalf("unexpected schema: %#v", schema)
	}
}
