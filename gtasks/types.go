package gtasks

// Task status values used by the remote store.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// TaskList is a remote task list ("column").
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Task is a remote task ("card") in its wire shape.
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
	Due    string `json:"due,omitempty"`
}

// NewTask is the payload for task creation.
type NewTask struct {
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
	Due    string `json:"due,omitempty"`
}

// TaskPatch is a partial task update. Nil fields are left untouched by the
// remote store. ClearDue requests an explicit removal of the due date,
// distinct from "due not mentioned".
type TaskPatch struct {
	Title    *string
	Notes    *string
	Status   *string
	Due      *string
	ClearDue bool
}

// Merge overlays p2 onto p, field by field, newest value winning.
func (p TaskPatch) Merge(p2 TaskPatch) TaskPatch {
	if p2.Title != nil {
		p.Title = p2.Title
	}
	if p2.Notes != nil {
		p.Notes = p2.Notes
	}
	if p2.Status != nil {
		p.Status = p2.Status
	}
	if p2.Due != nil {
		p.Due = p2.Due
		p.ClearDue = false
	}
	if p2.ClearDue {
		p.Due = nil
		p.ClearDue = true
	}
	return p
}

// Empty reports whether the patch carries no changes at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Notes == nil && p.Status == nil && p.Due == nil && !p.ClearDue
}

func (p TaskPatch) payload() map[string]any {
	m := make(map[string]any, 4)
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Notes != nil {
		m["notes"] = *p.Notes
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.Due != nil {
		m["due"] = *p.Due
	} else if p.ClearDue {
		m["due"] = nil
	}
	return m
}

// MoveOptions positions a task within its list. Previous is the sibling the
// task lands after; Parent nests it under another task. The remote store
// cannot move a task across lists.
type MoveOptions struct {
	Previous string
	Parent   string
}
