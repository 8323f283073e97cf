package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
)

// Handler runs one tool against already validated JSON arguments and returns
// a human-readable summary for the language model.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

type entry struct {
	descriptor dto.ToolDescriptor
	schema     *jsonschema.Schema
	handler    Handler
}

type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool. Names are unique; registering one twice is an error
// the caller should treat as fatal at startup.
func (r *Registry) Register(desc dto.ToolDescriptor, handler Handler) error {
	desc.Name = strings.TrimSpace(desc.Name)
	if desc.Name == "" {
		return errors.New("tools: descriptor name is required")
	}
	if handler == nil {
		return fmt.Errorf("tools: handler for %q is nil", desc.Name)
	}

	schema, err := compileSchema(desc)
	if err != nil {
		return fmt.Errorf("tools: compile schema for %q: %w", desc.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[desc.Name]; ok {
		return fmt.Errorf("tools: duplicate registration for %q", desc.Name)
	}
	r.entries[desc.Name] = &entry{descriptor: desc, schema: schema, handler: handler}
	r.order = append(r.order, desc.Name)
	return nil
}

// DescribeAll returns descriptors in registration order.
func (r *Registry) DescribeAll() []dto.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dto.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

func (r *Registry) Resolve(name string) (Handler, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, errs.NewNotFoundError(fmt.Sprintf("unknown tool %q", name))
	}
	return e.handler, nil
}

func (r *Registry) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

func compileSchema(desc dto.ToolDescriptor) (*jsonschema.Schema, error) {
	params := desc.Parameters
	if params == nil {
		params = &dto.ToolSchema{Type: "object"}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("tools/"+desc.Name+".json", string(raw))
}

// describeViolation reduces a schema validation error to its first leaf cause.
func describeViolation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s", location, ve.Message)
}
