package mq

import "time"

const (
	RoutingKeyTaskDueToday    = "task.deadline.today"
	RoutingKeyTaskDueTomorrow = "task.deadline.tomorrow"
)

// TaskDeadlinePayload is published once per deadline alert raised by a board.
type TaskDeadlinePayload struct {
	TaskID   string    `json:"task_id"`
	OwnerID  string    `json:"owner_id"`
	Title    string    `json:"title"`
	Deadline string    `json:"deadline"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}
