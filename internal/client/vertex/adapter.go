package vertexclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

// Complete runs one Gemini turn over the whole conversation. Tool turns are
// sent as function call parts when tools are advertised and as plain text
// otherwise, since Gemini rejects function parts without declarations.
func (a *Adapter) Complete(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error) {
	out := dto.ChatResponse{}

	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return out, fmt.Errorf("vertex model is required")
	}

	withTools := len(req.Tools) > 0
	system, contents := toContents(req.Messages, withTools)
	if len(contents) == 0 {
		return out, fmt.Errorf("vertex generate request has no content")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return out, fmt.Errorf("vertex conversation must end with a user turn, got %q", last.Role)
	}

	model := a.client.GenerativeModel(modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if withTools {
		model.Tools = toGenaiTools(req.Tools)
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingAuto,
			},
		}
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return out, err
	}

	out.Text, out.ToolCalls = parseContentResponse(resp)
	return out, nil
}

func toContents(msgs []dto.ChatMessage, withTools bool) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	callNames := make(map[string]string)

	add := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range msgs {
		switch msg.Role {
		case dto.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}

		case dto.RoleUser:
			add("user", genai.Text(msg.Content))

		case dto.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Name
				if withTools {
					parts = append(parts, genai.FunctionCall{Name: call.Name, Args: argsToMap(call.Arguments)})
				} else {
					parts = append(parts, genai.Text(fmt.Sprintf("(called %s with %s)", call.Name, compactArgs(call.Arguments))))
				}
			}
			add("model", parts...)

		case dto.RoleTool:
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			if withTools {
				add("user", genai.FunctionResponse{Name: name, Response: map[string]any{"content": msg.Content}})
			} else {
				add("user", genai.Text(fmt.Sprintf("Result of %s: %s", name, msg.Content)))
			}
		}
	}

	return strings.Join(system, "\n\n"), contents
}

func argsToMap(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func compactArgs(raw json.RawMessage) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "{}"
	}
	return string(raw)
}

func parseContentResponse(resp *genai.GenerateContentResponse) (string, []dto.ToolInvocation) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	var text string
	var calls []dto.ToolInvocation
	addCall := func(name string, args map[string]any) {
		raw, err := json.Marshal(args)
		if err != nil || args == nil {
			raw = []byte("{}")
		}
		calls = append(calls, dto.ToolInvocation{
			ID:        "call_" + uuid.NewString(),
			Name:      name,
			Arguments: raw,
		})
	}

	// Only the first candidate is used; the rest are alternatives.
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", nil
	}
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text += string(p)
		case genai.FunctionCall:
			addCall(p.Name, p.Args)
		case *genai.FunctionCall:
			addCall(p.Name, p.Args)
		}
	}

	return text, calls
}

func toGenaiTools(tools []dto.ToolDescriptor) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

func toGenaiSchema(schema *dto.ToolSchema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(schema.Type),
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for key, value := range schema.Properties {
			out.Properties[key] = toGenaiSchema(value)
		}
	}

	return out
}

func toGenaiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
