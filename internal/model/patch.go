package model

import "strings"

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Deadline    *string   `json:"deadline,omitempty"`
	Progress    *int      `json:"progress,omitempty"`
	Status      *Status   `json:"status,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Deadline == nil && p.Progress == nil && p.Status == nil
}

func (p TaskPatch) Validate() []FieldError {
	var errs []FieldError
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Reason: "must not be empty"})
	}
	if p.Priority != nil && !p.Priority.Valid() {
		errs = append(errs, FieldError{Field: "priority", Reason: "must be High, Medium or Low"})
	}
	if p.Deadline != nil {
		if err := validateDeadline(*p.Deadline); err != nil {
			errs = append(errs, *err)
		}
	}
	if p.Progress != nil {
		if err := validateProgress(*p.Progress); err != nil {
			errs = append(errs, *err)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Reason: "must be complete or incomplete"})
	}
	return errs
}

// Normalize trims the text fields the same way Diff compares them.
func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		p.Title = Ptr(strings.TrimSpace(*p.Title))
	}
	if p.Deadline != nil {
		p.Deadline = Ptr(strings.TrimSpace(*p.Deadline))
	}
	return p
}

// Diff drops the fields whose values already match t, so that only real
// changes travel to the store.
func (p TaskPatch) Diff(t Task) TaskPatch {
	var out TaskPatch
	if p.Title != nil && strings.TrimSpace(*p.Title) != t.Title {
		v := strings.TrimSpace(*p.Title)
		out.Title = &v
	}
	if p.Description != nil && *p.Description != t.Description {
		out.Description = p.Description
	}
	if p.Priority != nil && *p.Priority != t.Priority {
		out.Priority = p.Priority
	}
	if p.Deadline != nil && strings.TrimSpace(*p.Deadline) != t.Deadline {
		v := strings.TrimSpace(*p.Deadline)
		out.Deadline = &v
	}
	if p.Progress != nil && *p.Progress != t.Progress {
		out.Progress = p.Progress
	}
	if p.Status != nil && *p.Status != t.EffectiveStatus() {
		out.Status = p.Status
	}
	return out
}

// Apply returns t with the patch applied. The store performs the same merge.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = strings.TrimSpace(*p.Deadline)
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// Fields lists the JSON names of the fields set on p.
func (p TaskPatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.Deadline != nil {
		fields = append(fields, "deadline")
	}
	if p.Progress != nil {
		fields = append(fields, "progress")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
