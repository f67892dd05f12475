package model

import "fmt"

type Severity string

const (
	SeverityUrgent  Severity = "urgent"
	SeverityWarning Severity = "warning"
)

// NotificationEvent is an ephemeral deadline alert; it is never persisted.
type NotificationEvent struct {
	TaskID   string   `json:"taskId"`
	Title    string   `json:"title"`
	Deadline string   `json:"deadline"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func DueTodayEvent(t Task) NotificationEvent {
	return NotificationEvent{
		TaskID:   t.ID,
		Title:    t.Title,
		Deadline: t.Deadline,
		Message:  fmt.Sprintf("Task Due Today: %q", t.Title),
		Severity: SeverityUrgent,
	}
}

func DueTomorrowEvent(t Task) NotificationEvent {
	return NotificationEvent{
		TaskID:   t.ID,
		Title:    t.Title,
		Deadline: t.Deadline,
		Message:  fmt.Sprintf("Task Due Tomorrow: %q", t.Title),
		Severity: SeverityWarning,
	}
}
