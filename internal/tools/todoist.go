package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/helpers"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

const listPreviewSize = 5

type taskBackend interface {
	ListTasks(ctx context.Context, filter string) ([]dto.Task, error)
	CreateTask(ctx context.Context, in dto.TaskCreate) (dto.Task, error)
	UpdateTask(ctx context.Context, id string, in dto.TaskUpdate) (dto.Task, error)
	CloseTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]dto.Project, error)
	GetProject(ctx context.Context, id string) (dto.Project, error)
}

type todoistTools struct {
	backend taskBackend
}

// RegisterTodoist adds the task management tools to r.
func RegisterTodoist(r *Registry, backend taskBackend) error {
	t := &todoistTools{backend: backend}

	for _, tool := range []struct {
		desc    dto.ToolDescriptor
		handler Handler
	}{
		{createTaskDescriptor(), typed(t.createTask)},
		{listTasksDescriptor(), typed(t.listTasks)},
		{completeTaskDescriptor(), typed(t.completeTask)},
		{updateTaskDescriptor(), typed(t.updateTask)},
		{deleteTaskDescriptor(), typed(t.deleteTask)},
		{listProjectsDescriptor(), typed(t.listProjects)},
	} {
		if err := r.Register(tool.desc, tool.handler); err != nil {
			return err
		}
	}
	return nil
}

func (t *todoistTools) createTask(ctx context.Context, args dto.CreateTaskArgs) (string, error) {
	content := strings.TrimSpace(args.Content)
	if content == "" {
		return "", errs.NewValidationError("content is required")
	}

	task, err := t.backend.CreateTask(ctx, dto.TaskCreate{
		Content:   content,
		DueString: strings.TrimSpace(args.DueString),
		Labels:    args.Labels,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created task %q", helpers.FirstNonBlank(task.Content, content))
	if project := t.projectName(ctx, task.ProjectID); project != "" {
		fmt.Fprintf(&b, " in project %q", project)
	}
	if when := task.Due.When(); when != "" {
		fmt.Fprintf(&b, " (due %s)", when)
	}
	b.WriteString(".")
	return b.String(), nil
}

// projectName is best effort; the task already exists when it runs.
func (t *todoistTools) projectName(ctx context.Context, projectID string) string {
	if projectID == "" {
		return ""
	}
	project, err := t.backend.GetProject(ctx, projectID)
	if err != nil {
		logger.FromContext(ctx).Debug("project lookup failed", "project_id", projectID, "error", err)
		return ""
	}
	return project.Name
}

func (t *todoistTools) listTasks(ctx context.Context, args dto.ListTasksArgs) (string, error) {
	tasks, err := t.backend.ListTasks(ctx, strings.TrimSpace(args.Filter))
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "You have no tasks in your Todoist.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task(s):", len(tasks))
	for i, task := range tasks {
		if i == listPreviewSize {
			fmt.Fprintf(&b, "\n...and %d more.", len(tasks)-listPreviewSize)
			break
		}
		fmt.Fprintf(&b, "\n- %s", task.Content)
		if when := task.Due.When(); when != "" {
			fmt.Fprintf(&b, " (due %s)", when)
		}
	}
	return b.String(), nil
}

func (t *todoistTools) completeTask(ctx context.Context, args dto.TaskRefArgs) (string, error) {
	task, others, found, err := t.findTask(ctx, args.TaskName)
	if err != nil || !found {
		return noMatch(args.TaskName), err
	}
	if err := t.backend.CloseTask(ctx, task.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Completed task %q.%s", task.Content, othersNote(others, args.TaskName)), nil
}

func (t *todoistTools) deleteTask(ctx context.Context, args dto.TaskRefArgs) (string, error) {
	task, others, found, err := t.findTask(ctx, args.TaskName)
	if err != nil || !found {
		return noMatch(args.TaskName), err
	}
	if err := t.backend.DeleteTask(ctx, task.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted task %q.%s", task.Content, othersNote(others, args.TaskName)), nil
}

func (t *todoistTools) updateTask(ctx context.Context, args dto.UpdateTaskArgs) (string, error) {
	task, others, found, err := t.findTask(ctx, args.TaskName)
	if err != nil || !found {
		return noMatch(args.TaskName), err
	}

	update := dto.TaskUpdate{
		Content:   strings.TrimSpace(args.Content),
		DueString: strings.TrimSpace(args.DueString),
		Priority:  args.Priority,
	}
	if args.Labels != nil {
		labels := append([]string{}, args.Labels...)
		update.Labels = &labels
	}
	if update.Content == "" && update.DueString == "" && update.Labels == nil && update.Priority == nil {
		return fmt.Sprintf("No changes were requested for task %q.", task.Content), nil
	}

	updated, err := t.backend.UpdateTask(ctx, task.ID, update)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Updated task %q", task.Content)
	if update.Content != "" && update.Content != task.Content {
		fmt.Fprintf(&b, " (now %q)", helpers.FirstNonBlank(updated.Content, update.Content))
	}
	if when := updated.Due.When(); update.DueString != "" && when != "" {
		fmt.Fprintf(&b, ", due %s", when)
	}
	if update.Labels != nil && len(*update.Labels) == 0 {
		b.WriteString(", labels cleared")
	}
	b.WriteString(".")
	b.WriteString(othersNote(others, args.TaskName))
	return b.String(), nil
}

func (t *todoistTools) listProjects(ctx context.Context, _ struct{}) (string, error) {
	projects, err := t.backend.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "You have no projects in your Todoist.", nil
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("You have %d project(s): %s.", len(projects), strings.Join(names, ", ")), nil
}

// findTask returns the first open task whose content contains name, ignoring
// case, plus how many later tasks matched too. Ties are not disambiguated.
func (t *todoistTools) findTask(ctx context.Context, name string) (dto.Task, int, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return dto.Task{}, 0, false, errs.NewValidationError("taskName is required")
	}

	tasks, err := t.backend.ListTasks(ctx, "")
	if err != nil {
		return dto.Task{}, 0, false, err
	}

	var (
		match dto.Task
		found bool
		count int
	)
	for _, task := range tasks {
		if !strings.Contains(strings.ToLower(task.Content), needle) {
			continue
		}
		if !found {
			match, found = task, true
		}
		count++
	}
	if !found {
		return dto.Task{}, 0, false, nil
	}
	return match, count - 1, true, nil
}

func noMatch(name string) string {
	return fmt.Sprintf("No task found matching %q.", strings.TrimSpace(name))
}

func othersNote(others int, name string) string {
	if others == 0 {
		return ""
	}
	return fmt.Sprintf(" Note: %d other task(s) also matched %q; the first match was used.", others, strings.TrimSpace(name))
}

func createTaskDescriptor() dto.ToolDescriptor {
	return dto.ToolDescriptor{
		Name:        "createTask",
		Description: "Create a new task in Todoist. Use for any request to create, add, or make a task.",
		Parameters: &dto.ToolSchema{
			Type: "object",
			Properties: map[string]*dto.ToolSchema{
				"content":   {Type: "string", Description: "The task text, e.g. \"Buy groceries\"."},
				"dueString": {Type: "string", Description: "Natural language due date, e.g. \"tomorrow at 10am\" or \"every day\"."},
				"labels":    {Type: "array", Items: &dto.ToolSchema{Type: "string"}, Description: "Label names to attach."},
			},
			Required: []string{"content"},
		},
	}
}

func listTasksDescriptor() dto.ToolDescriptor {
	return dto.ToolDescriptor{
		Name:        "listTasks",
		Description: "Get open tasks from Todoist. Use for any request to show, list, find, or get tasks.",
		Parameters: &dto.ToolSchema{
			Type: "object",
			Properties: map[string]*dto.ToolSchema{
				"filter": {Type: "string", Description: "A Todoist filter query, e.g. \"today\", \"overdue\", \"p1 & next 7 days\"."},
			},
		},
	}
}

func completeTaskDescriptor() dto.ToolDescriptor {
	return dto.ToolDescriptor{
		Name:        "completeTask",
		Description: "Mark a task as done. The first open task whose text contains taskName is completed.",
		Parameters:  taskRefSchema(),
	}
}

func deleteTaskDescriptor() dto.ToolDescriptor {
	return dto.ToolDescriptor{
		Name:        "deleteTask",
		Description: "Delete a task permanently. The first open task whose text contains taskName is deleted.",
		Parameters:  taskRefSchema(),
	}
}

func updateTaskDescriptor() dto.ToolDescriptor {
	schema := taskRefSchema()
	schema.Properties["content"] = &dto.ToolSchema{Type: "string", Description: "New task text."}
	schema.Properties["dueString"] = &dto.ToolSchema{Type: "string", Description: "New natural language due date."}
	schema.Properties["labels"] = &dto.ToolSchema{Type: "array", Items: &dto.ToolSchema{Type: "string"}, Description: "Replacement label names. An empty list removes all labels."}
	schema.Properties["priority"] = &dto.ToolSchema{
		Type:        "integer",
		Description: "Priority from 1 (normal) to 4 (urgent).",
		Minimum:     helpers.Ptr(1.0),
		Maximum:     helpers.Ptr(4.0),
	}
	return dto.ToolDescriptor{
		Name:        "updateTask",
		Description: "Change the text, due date, labels, or priority of the first open task whose text contains taskName.",
		Parameters:  schema,
	}
}

func listProjectsDescriptor() dto.ToolDescriptor {
	return dto.ToolDescriptor{
		Name:        "listProjects",
		Description: "List the user's Todoist projects.",
		Parameters:  &dto.ToolSchema{Type: "object"},
	}
}

func taskRefSchema() *dto.ToolSchema {
	return &dto.ToolSchema{
		Type: "object",
		Properties: map[string]*dto.ToolSchema{
			"taskName": {Type: "string", Description: "Part of the task text used to find it."},
		},
		Required: []string{"taskName"},
	}
}
