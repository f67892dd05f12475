package model

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts the canonical names case-insensitively; "" yields Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

func (s Status) Valid() bool {
	return s == StatusIncomplete || s == StatusComplete
}

// DateLayout is the calendar-date format of Task.Deadline.
const DateLayout = "2006-01-02"

const (
	MinProgress = 0
	MaxProgress = 100
)

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Deadline    string    `json:"deadline,omitempty"`
	Progress    int       `json:"progress"`
	Status      Status    `json:"status,omitempty"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// EffectiveStatus returns the stored status, or derives one from progress
// when the store never set it.
func (t Task) EffectiveStatus() Status {
	if t.Status.Valid() {
		return t.Status
	}
	if t.Progress >= MaxProgress {
		return StatusComplete
	}
	return StatusIncomplete
}

// TaskDraft is the user-submitted input for a new task.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	Progress    int      `json:"progress"`
}

// Normalize trims text fields and applies defaults.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Deadline = strings.TrimSpace(d.Deadline)
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

// Validate reports every problem with the draft; field names match the JSON keys.
func (d TaskDraft) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Reason: "must not be empty"})
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, FieldError{Field: "description", Reason: "must not be empty"})
	}
	if d.Priority != "" && !d.Priority.Valid() {
		errs = append(errs, FieldError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", d.Priority)})
	}
	if err := validateDeadline(d.Deadline); err != nil {
		errs = append(errs, *err)
	}
	if err := validateProgress(d.Progress); err != nil {
		errs = append(errs, *err)
	}
	return errs
}

// Task builds the record to submit for owner.
func (d TaskDraft) Task(owner string) Task {
	d = d.Normalize()
	return Task{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Deadline:    d.Deadline,
		Progress:    d.Progress,
		Status:      StatusIncomplete,
		AssignedTo:  owner,
	}
}

// FieldError describes one invalid field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Reason
}

func validateDeadline(deadline string) *FieldError {
	deadline = strings.TrimSpace(deadline)
	if deadline == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, deadline); err != nil {
		return &FieldError{Field: "deadline", Reason: "must be a YYYY-MM-DD date"}
	}
	return nil
}

func validateProgress(progress int) *FieldError {
	if progress < MinProgress || progress > MaxProgress {
		return &FieldError{Field: "progress", Reason: fmt.Sprintf("must be within [%d,%d]", MinProgress, MaxProgress)}
	}
	return nil
}
