package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// OwnerKey is the gin context key set by the auth middleware.
const OwnerKey = "owner_id"

type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error)
	Insert(ctx context.Context, t model.Task) (model.Task, error)
	Update(ctx context.Context, id, ownerID string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type TaskHandler struct {
	repo   TaskRepository
	logger *zap.Logger
}

func NewTaskHandler(repo TaskRepository, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{repo: repo, logger: logger}
}

type createTaskRequest struct {
	model.TaskDraft
	Status     model.Status `json:"status,omitempty"`
	AssignedTo string       `json:"assignedTo"`
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if !checkOwner(c, ownerID) {
		return
	}

	tasks, err := h.repo.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("ListTasks: failed to fetch tasks",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.AssignedTo = strings.TrimSpace(req.AssignedTo)
	if req.AssignedTo == "" {
		req.AssignedTo = c.GetString(OwnerKey)
	}

	draft := req.TaskDraft.Normalize()
	fields := draft.Validate()
	if req.AssignedTo == "" {
		fields = append(fields, model.FieldError{Field: "assignedTo", Reason: "must not be empty"})
	}
	if req.Status != "" && !req.Status.Valid() {
		fields = append(fields, model.FieldError{Field: "status", Reason: "must be complete or incomplete"})
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	if !checkOwner(c, req.AssignedTo) {
		return
	}

	task := draft.Task(req.AssignedTo)
	if req.Status != "" {
		task.Status = req.Status
	}
	created, err := h.repo.Insert(c.Request.Context(), task)
	if err != nil {
		h.logger.Error("CreateTask: failed to insert task",
			zap.String("owner_id", req.AssignedTo),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}
	h.logger.Info("CreateTask: success",
		zap.String("task_id", created.ID),
		zap.String("owner_id", created.AssignedTo),
	)
	c.JSON(http.StatusCreated, created)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if fields := patch.Validate(); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), id, c.GetString(OwnerKey), patch)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		h.logger.Error("UpdateTask: failed to update task",
			zap.String("task_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTask acknowledges unknown ids too.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, c.GetString(OwnerKey)); err != nil {
		h.logger.Error("DeleteTask: failed to delete task",
			zap.String("task_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// checkOwner rejects requests for another owner when the caller is
// authenticated. Without auth every owner is reachable.
func checkOwner(c *gin.Context, ownerID string) bool {
	caller := c.GetString(OwnerKey)
	if caller != "" && caller != ownerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		c.Abort()
		return false
	}
	return true
}
