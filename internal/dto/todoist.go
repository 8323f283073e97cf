package dto

type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Due         *TaskDue `json:"due,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type TaskDue struct {
	String      string `json:"string"`
	Date        string `json:"date"`
	Datetime    string `json:"datetime,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

// When returns the human form of the due date, or "" when the task has none.
func (d *TaskDue) When() string {
	if d == nil {
		return ""
	}
	if d.String != "" {
		return d.String
	}
	return d.Date
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskCreate struct {
	Content   string   `json:"content"`
	DueString string   `json:"due_string,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// TaskUpdate sends only the fields that are set. Labels pointing at an empty
// slice clears every label.
type TaskUpdate struct {
	Content   string    `json:"content,omitempty"`
	DueString string    `json:"due_string,omitempty"`
	Labels    *[]string `json:"labels,omitempty"`
	Priority  *int      `json:"priority,omitempty"`
}

type CreateTaskArgs struct {
	Content   string   `json:"content"`
	DueString string   `json:"dueString"`
	Labels    []string `json:"labels"`
}

type ListTasksArgs struct {
	Filter string `json:"filter"`
}

type TaskRefArgs struct {
	TaskName string `json:"taskName"`
}

type UpdateTaskArgs struct {
	TaskName  string   `json:"taskName"`
	Content   string   `json:"content"`
	DueString string   `json:"dueString"`
	Labels    []string `json:"labels"`
	Priority  *int     `json:"priority"`
}
