package board

import (
	"context"

	"taskboard/internal/model"
)

// TaskStore is the remote persistence for task records.
type TaskStore interface {
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// NoteStore is the remote persistence for the single note of each owner.
type NoteStore interface {
	GetNote(ctx context.Context, ownerID string) (model.Note, error)
	UpsertNote(ctx context.Context, ownerID, content string) (model.Note, error)
}
