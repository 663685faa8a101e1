package todos

import "time"

// Todo is the persisted record. All times are UTC.
type Todo struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	IsDue       bool       `json:"isDue" bson:"isDue"`
	DueDate     *time.Time `json:"dueDate" bson:"dueDate"`
	IsDone      bool       `json:"isDone" bson:"isDone"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	IsDone      *bool
	DueDate     *time.Time
	IsDue       *bool
	UpdatedAt   *time.Time
}

func (p Patch) apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	if p.DueDate != nil {
		d := p.DueDate.UTC()
		t.DueDate = &d
	}
	if p.IsDue != nil {
		t.IsDue = *p.IsDue
	}
	if p.UpdatedAt != nil {
		t.UpdatedAt = p.UpdatedAt.UTC()
	}
}

// normalize forces every timestamp onto the UTC timeline. Backends call it on
// everything they decode.
func (t Todo) normalize() Todo {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate = &d
	}
	return t
}

// IsDueAt reports whether a todo with the given due date is due at now.
// A nil due date is never due.
func IsDueAt(dueDate *time.Time, now time.Time) bool {
	if dueDate == nil {
		return false
	}
	return !now.UTC().Before(dueDate.UTC())
}
