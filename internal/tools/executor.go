package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

type Executor struct {
	registry *Registry
	timeout  time.Duration
}

func NewExecutor(registry *Registry, timeout time.Duration) *Executor {
	return &Executor{registry: registry, timeout: timeout}
}

// Execute runs one invocation. It never returns an error: unknown tools, bad
// arguments, backend faults, panics and timeouts all become a failed result
// whose content is a JSON object with an "error" field.
func (e *Executor) Execute(ctx context.Context, inv dto.ToolInvocation) dto.ToolResult {
	log := logger.FromContext(ctx).With("tool", inv.Name, "call_id", inv.ID)
	start := time.Now()

	result := e.execute(ctx, inv)
	if result.Failed {
		log.Warn("tool failed", "result", result.Content, "duration", time.Since(start))
	} else {
		log.Info("tool executed", "duration", time.Since(start))
	}
	return result
}

func (e *Executor) execute(ctx context.Context, inv dto.ToolInvocation) dto.ToolResult {
	ent, ok := e.registry.lookup(inv.Name)
	if !ok {
		return failure(fmt.Sprintf("Unknown tool %q.", inv.Name))
	}

	args := normalizeArgs(inv.Arguments)
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return failure(fmt.Sprintf("Invalid arguments for %s: %v", inv.Name, err))
	}
	if err := ent.schema.Validate(decoded); err != nil {
		return failure(fmt.Sprintf("Invalid arguments for %s: %s", inv.Name, describeViolation(err)))
	}

	text, err := e.invoke(ctx, ent.handler, args)
	if errors.Is(err, context.DeadlineExceeded) {
		return failure(fmt.Sprintf("Tool %s timed out.", inv.Name))
	}
	if err != nil {
		return failure(fmt.Sprintf("Tool execution failed: %v", err))
	}
	return dto.ToolResult{Content: text}
}

func (e *Executor) invoke(ctx context.Context, handler Handler, args json.RawMessage) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		text, err := handler(ctx, args)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func normalizeArgs(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}

func failure(message string) dto.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		payload = []byte(`{"error":"Tool execution failed."}`)
	}
	return dto.ToolResult{Content: string(payload), Failed: true}
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// typed adapts a handler taking a concrete argument struct.
func typed[T any](fn func(ctx context.Context, args T) (string, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		args, err := decodeArgs[T](raw)
		if err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, args)
	}
}
