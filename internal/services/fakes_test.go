package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

type fakeChatClient struct {
	responses []dto.ChatResponse
	errs      []error
	requests  []dto.ChatRequest
}

func (f *fakeChatClient) Complete(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error) {
	f.requests = append(f.requests, req)
	call := len(f.requests) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return dto.ChatResponse{}, f.errs[call]
	}
	if len(f.responses) == 0 {
		return dto.ChatResponse{}, errors.New("no responses configured")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type recordingExecutor struct {
	calls   []dto.ToolInvocation
	results map[string]dto.ToolResult
}

func (r *recordingExecutor) Execute(ctx context.Context, inv dto.ToolInvocation) dto.ToolResult {
	r.calls = append(r.calls, inv)
	if res, ok := r.results[inv.Name]; ok {
		return res
	}
	return dto.ToolResult{Content: "ok " + inv.ID}
}

type staticCatalog []dto.ToolDescriptor

func (c staticCatalog) DescribeAll() []dto.ToolDescriptor { return c }

type recordingUsage struct {
	mu      sync.Mutex
	records []string
}

func (u *recordingUsage) Record(ctx context.Context, provider string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, provider)
}

type fakeSTT struct {
	text  string
	err   error
	calls int
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio  string
	err    error
	calls  int
	ctxErr func() error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) (io.ReadCloser, dto.AudioFormat, error) {
	f.calls++
	f.ctxErr = ctx.Err
	if f.err != nil {
		return nil, dto.AudioFormat{}, f.err
	}
	return io.NopCloser(strings.NewReader(f.audio)), dto.AudioFormat{Encoding: "pcm_f32le", SampleRate: 24000}, nil
}

// blockingProvider stands in for an upstream that never answers: every call
// waits for its context to end.
type blockingProvider struct {
	mu       sync.Mutex
	deadline bool
}

func (b *blockingProvider) wait(ctx context.Context) error {
	_, ok := ctx.Deadline()
	b.mu.Lock()
	b.deadline = ok
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingProvider) hadDeadline() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deadline
}

func (b *blockingProvider) Complete(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error) {
	return dto.ChatResponse{}, b.wait(ctx)
}

func (b *blockingProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return "", b.wait(ctx)
}

func (b *blockingProvider) Synthesize(ctx context.Context, text string) (io.ReadCloser, dto.AudioFormat, error) {
	return nil, dto.AudioFormat{}, b.wait(ctx)
}

// within runs fn and fails the test if it has not returned after limit.
func within(t *testing.T, limit time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		t.Fatalf("call did not return within %v", limit)
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string       { return fmt.Sprintf("unexpected status %d", e.code) }
func (e *statusError) HTTPStatusCode() int { return e.code }

// memoryTasks is a minimal task backend for end-to-end conversations.
type memoryTasks struct {
	tasks []dto.Task
}

func (m *memoryTasks) ListTasks(ctx context.Context, filter string) ([]dto.Task, error) {
	return append([]dto.Task(nil), m.tasks...), nil
}

func (m *memoryTasks) CreateTask(ctx context.Context, in dto.TaskCreate) (dto.Task, error) {
	task := dto.Task{ID: fmt.Sprint(len(m.tasks) + 1), Content: in.Content}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *memoryTasks) UpdateTask(ctx context.Context, id string, in dto.TaskUpdate) (dto.Task, error) {
	return dto.Task{}, errors.New("not implemented")
}

func (m *memoryTasks) CloseTask(ctx context.Context, id string) error  { return nil }
func (m *memoryTasks) DeleteTask(ctx context.Context, id string) error { return nil }

func (m *memoryTasks) ListProjects(ctx context.Context) ([]dto.Project, error) {
	return nil, nil
}

func (m *memoryTasks) GetProject(ctx context.Context, id string) (dto.Project, error) {
	return dto.Project{}, errors.New("not found")
}
