package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/pkg/helpers"
)

type fakeTaskBackend struct {
	tasks    []dto.Task
	projects map[string]dto.Project
	nextID   int

	listErr    error
	createErr  error
	projectErr error

	filters []string
	closed  []string
	deleted []string
	updates map[string]dto.TaskUpdate
}

func newFakeTaskBackend(tasks ...dto.Task) *fakeTaskBackend {
	return &fakeTaskBackend{
		tasks:    tasks,
		projects: map[string]dto.Project{"inbox": {ID: "inbox", Name: "Inbox"}},
		updates:  map[string]dto.TaskUpdate{},
	}
}

func (f *fakeTaskBackend) ListTasks(ctx context.Context, filter string) ([]dto.Task, error) {
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]dto.Task(nil), f.tasks...), nil
}

func (f *fakeTaskBackend) CreateTask(ctx context.Context, in dto.TaskCreate) (dto.Task, error) {
	if f.createErr != nil {
		return dto.Task{}, f.createErr
	}
	f.nextID++
	task := dto.Task{ID: fmt.Sprintf("new-%d", f.nextID), Content: in.Content, ProjectID: "inbox", Labels: in.Labels}
	if in.DueString != "" {
		task.Due = &dto.TaskDue{String: in.DueString}
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeTaskBackend) UpdateTask(ctx context.Context, id string, in dto.TaskUpdate) (dto.Task, error) {
	f.updates[id] = in
	for i, task := range f.tasks {
		if task.ID != id {
			continue
		}
		if in.Content != "" {
			task.Content = in.Content
		}
		if in.DueString != "" {
			task.Due = &dto.TaskDue{String: in.DueString}
		}
		if in.Labels != nil {
			task.Labels = *in.Labels
		}
		f.tasks[i] = task
		return task, nil
	}
	return dto.Task{}, errors.New("task not found")
}

func (f *fakeTaskBackend) CloseTask(ctx context.Context, id string) error {
	f.closed = append(f.closed, id)
	return f.remove(id)
}

func (f *fakeTaskBackend) DeleteTask(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.remove(id)
}

func (f *fakeTaskBackend) remove(id string) error {
	for i, task := range f.tasks {
		if task.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("task not found")
}

func (f *fakeTaskBackend) ListProjects(ctx context.Context) ([]dto.Project, error) {
	return []dto.Project{{ID: "inbox", Name: "Inbox"}, {ID: "work", Name: "Work"}}, nil
}

func (f *fakeTaskBackend) GetProject(ctx context.Context, id string) (dto.Project, error) {
	if f.projectErr != nil {
		return dto.Project{}, f.projectErr
	}
	p, ok := f.projects[id]
	if !ok {
		return dto.Project{}, errors.New("project not found")
	}
	return p, nil
}

func newTodoistExecutor(t *testing.T, backend *fakeTaskBackend) *Executor {
	t.Helper()
	reg := NewRegistry()
	if err := RegisterTodoist(reg, backend); err != nil {
		t.Fatalf("RegisterTodoist error: %v", err)
	}
	return NewExecutor(reg, 0)
}

func call(name, args string) dto.ToolInvocation {
	return dto.ToolInvocation{ID: "call-" + name, Name: name, Arguments: []byte(args)}
}

func TestCreateTaskNamesTaskAndProject(t *testing.T) {
	backend := newFakeTaskBackend()
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("createTask", `{"content":"buy milk","dueString":"tomorrow"}`))

	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	want := `Created task "buy milk" in project "Inbox" (due tomorrow).`
	if res.Content != want {
		t.Fatalf("content mismatch:\n got %q\nwant %q", res.Content, want)
	}
	if len(backend.tasks) != 1 {
		t.Fatalf("expected one task created, got %d", len(backend.tasks))
	}
}

func TestCreateTaskProjectLookupIsBestEffort(t *testing.T) {
	backend := newFakeTaskBackend()
	backend.projectErr = errors.New("boom")
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("createTask", `{"content":"buy milk"}`))

	if res.Failed || res.Content != `Created task "buy milk".` {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateTaskBackendErrorBecomesResult(t *testing.T) {
	backend := newFakeTaskBackend()
	backend.createErr = errors.New("todoist unavailable")
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("createTask", `{"content":"buy milk"}`))

	if !res.Failed {
		t.Fatalf("expected failure result")
	}
	if !strings.Contains(res.Content, "todoist unavailable") || !strings.HasPrefix(res.Content, `{"error":`) {
		t.Fatalf("unexpected failure content: %s", res.Content)
	}
}

func TestListTasksEmpty(t *testing.T) {
	exec := newTodoistExecutor(t, newFakeTaskBackend())

	res := exec.Execute(helpers.TestCtx(), call("listTasks", `{}`))

	if res.Failed || res.Content != "You have no tasks in your Todoist." {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestListTasksPreviewsFive(t *testing.T) {
	var tasks []dto.Task
	for i := 1; i <= 7; i++ {
		tasks = append(tasks, dto.Task{ID: fmt.Sprint(i), Content: fmt.Sprintf("task %d", i)})
	}
	tasks[0].Due = &dto.TaskDue{String: "today", Date: "2025-03-01"}
	backend := newFakeTaskBackend(tasks...)
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("listTasks", `{"filter":" today "}`))

	want := "You have 7 task(s):\n- task 1 (due today)\n- task 2\n- task 3\n- task 4\n- task 5\n...and 2 more."
	if res.Content != want {
		t.Fatalf("content mismatch:\n got %q\nwant %q", res.Content, want)
	}
	if backend.filters[0] != "today" {
		t.Fatalf("filter not trimmed: %q", backend.filters[0])
	}
}

func TestListTasksExactlyFiveHasNoRemainder(t *testing.T) {
	var tasks []dto.Task
	for i := 1; i <= 5; i++ {
		tasks = append(tasks, dto.Task{ID: fmt.Sprint(i), Content: fmt.Sprintf("task %d", i)})
	}
	exec := newTodoistExecutor(t, newFakeTaskBackend(tasks...))

	res := exec.Execute(helpers.TestCtx(), call("listTasks", `{}`))

	if strings.Contains(res.Content, "more") {
		t.Fatalf("unexpected remainder line: %q", res.Content)
	}
}

func TestCompleteTaskFirstMatchWins(t *testing.T) {
	backend := newFakeTaskBackend(
		dto.Task{ID: "1", Content: "Buy MILK"},
		dto.Task{ID: "2", Content: "milk the cow"},
		dto.Task{ID: "3", Content: "walk dog"},
	)
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("completeTask", `{"taskName":"milk"}`))

	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	if len(backend.closed) != 1 || backend.closed[0] != "1" {
		t.Fatalf("expected task 1 closed, got %v", backend.closed)
	}
	if !strings.HasPrefix(res.Content, `Completed task "Buy MILK".`) || !strings.Contains(res.Content, "1 other task(s)") {
		t.Fatalf("unexpected content: %q", res.Content)
	}
}

func TestDeleteTaskTwiceReportsNoMatch(t *testing.T) {
	backend := newFakeTaskBackend(dto.Task{ID: "1", Content: "buy milk"})
	exec := newTodoistExecutor(t, backend)
	inv := call("deleteTask", `{"taskName":"buy milk"}`)

	first := exec.Execute(helpers.TestCtx(), inv)
	second := exec.Execute(helpers.TestCtx(), inv)

	if first.Failed || first.Content != `Deleted task "buy milk".` {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if second.Failed {
		t.Fatalf("second delete should not fail: %s", second.Content)
	}
	if second.Content != `No task found matching "buy milk".` {
		t.Fatalf("unexpected second result: %q", second.Content)
	}
	if len(backend.deleted) != 1 {
		t.Fatalf("backend delete called %d times", len(backend.deleted))
	}
}

func TestUpdateTaskChangesFields(t *testing.T) {
	backend := newFakeTaskBackend(dto.Task{ID: "9", Content: "call mom"})
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("updateTask", `{"taskName":"mom","content":"call mom and dad","dueString":"friday","priority":4}`))

	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	want := `Updated task "call mom" (now "call mom and dad"), due friday.`
	if res.Content != want {
		t.Fatalf("content mismatch:\n got %q\nwant %q", res.Content, want)
	}
	if p := helpers.Value(backend.updates["9"].Priority); p != 4 {
		t.Fatalf("priority not forwarded: %d", p)
	}
}

func TestUpdateTaskRejectsPriorityOutOfRange(t *testing.T) {
	backend := newFakeTaskBackend(dto.Task{ID: "9", Content: "call mom"})
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("updateTask", `{"taskName":"mom","priority":9}`))

	if !res.Failed || !strings.Contains(res.Content, "Invalid arguments for updateTask") {
		t.Fatalf("expected schema failure, got %+v", res)
	}
	if len(backend.updates) != 0 {
		t.Fatalf("backend should not be called")
	}
}

func TestUpdateTaskClearsLabels(t *testing.T) {
	backend := newFakeTaskBackend(dto.Task{ID: "9", Content: "call mom", Labels: []string{"family"}})
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("updateTask", `{"taskName":"mom","labels":[]}`))

	if res.Failed || res.Content != `Updated task "call mom", labels cleared.` {
		t.Fatalf("unexpected result: %+v", res)
	}
	labels := backend.updates["9"].Labels
	if labels == nil || len(*labels) != 0 {
		t.Fatalf("expected an explicit empty label list, got %v", labels)
	}
}

func TestUpdateTaskWithoutChanges(t *testing.T) {
	backend := newFakeTaskBackend(dto.Task{ID: "9", Content: "call mom"})
	exec := newTodoistExecutor(t, backend)

	res := exec.Execute(helpers.TestCtx(), call("updateTask", `{"taskName":"mom"}`))

	if res.Failed || res.Content != `No changes were requested for task "call mom".` {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestListProjects(t *testing.T) {
	exec := newTodoistExecutor(t, newFakeTaskBackend())

	res := exec.Execute(helpers.TestCtx(), call("listProjects", ``))

	if res.Failed || res.Content != "You have 2 project(s): Inbox, Work." {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRegisterTodoistOrder(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterTodoist(reg, newFakeTaskBackend()); err != nil {
		t.Fatalf("RegisterTodoist error: %v", err)
	}

	var names []string
	for _, d := range reg.DescribeAll() {
		names = append(names, d.Name)
	}
	want := "createTask,listTasks,completeTask,updateTask,deleteTask,listProjects"
	if strings.Join(names, ",") != want {
		t.Fatalf("unexpected tool order: %v", names)
	}
	if err := RegisterTodoist(reg, newFakeTaskBackend()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
