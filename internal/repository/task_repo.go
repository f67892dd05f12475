package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/metrics"
)

var ErrNotFound = errors.New("record not found")

const taskColumns = `id, title, description, priority, deadline, progress, status, assigned_to, created_at, updated_at`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for owner", zap.String("owner_id", ownerID))
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "tasks", time.Since(start)) }()

	query := `SELECT ` + taskColumns + `
        FROM tasks
        WHERE assigned_to = $1
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.String("owner_id", ownerID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.String("owner_id", ownerID),
			)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("Tasks listed successfully",
		zap.String("owner_id", ownerID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// Insert stores t under a fresh id and returns the stored record.
func (r *TaskRepository) Insert(ctx context.Context, t model.Task) (model.Task, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "tasks", time.Since(start)) }()

	id := uuid.NewString()
	query := `
        INSERT INTO tasks (id, title, description, priority, deadline, progress, status, assigned_to)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + taskColumns
	created, err := scanTask(r.db.QueryRow(ctx, query,
		id,
		t.Title,
		t.Description,
		string(t.Priority),
		t.Deadline,
		t.Progress,
		string(t.EffectiveStatus()),
		t.AssignedTo,
	))
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("owner_id", t.AssignedTo),
		)
		return model.Task{}, err
	}
	r.logger.Info("Task inserted successfully",
		zap.String("task_id", created.ID),
		zap.String("owner_id", created.AssignedTo),
	)
	return created, nil
}

// Update applies the set fields of patch. ownerID, when not empty, scopes the
// update to tasks assigned to that owner.
func (r *TaskRepository) Update(ctx context.Context, id, ownerID string, patch model.TaskPatch) (model.Task, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "tasks", time.Since(start)) }()

	query, args := buildTaskUpdate(id, ownerID, patch)
	updated, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.String("task_id", id),
			zap.Strings("fields", patch.Fields()),
		)
		return model.Task{}, err
	}
	r.logger.Info("Task updated",
		zap.String("task_id", id),
		zap.Strings("fields", patch.Fields()),
	)
	return updated, nil
}

// Delete is idempotent; deleting a missing task is not an error.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("delete", "tasks", time.Since(start)) }()

	query := `DELETE FROM tasks WHERE id = $1`
	args := []any{id}
	if ownerID != "" {
		query += ` AND assigned_to = $2`
		args = append(args, ownerID)
	}
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return err
	}
	r.logger.Info("Task deleted",
		zap.String("task_id", id),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// buildTaskUpdate renders the UPDATE for the set fields of patch. An empty
// patch still touches updated_at so the statement returns the row.
func buildTaskUpdate(id, ownerID string, patch model.TaskPatch) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Deadline != nil {
		add("deadline", strings.TrimSpace(*patch.Deadline))
	}
	if patch.Progress != nil {
		add("progress", *patch.Progress)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	if ownerID != "" {
		args = append(args, ownerID)
		where += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE " + where + " RETURNING " + taskColumns
	return query, args
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var id uuid.UUID
	var priority, status string
	if err := row.Scan(
		&id,
		&t.Title,
		&t.Description,
		&priority,
		&t.Deadline,
		&t.Progress,
		&status,
		&t.AssignedTo,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return model.Task{}, err
	}
	t.ID = id.String()
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	return t, nil
}
