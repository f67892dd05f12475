package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/model"
)

type NoteRepository interface {
	GetOrCreate(ctx context.Context, ownerID string) (model.Note, error)
	Upsert(ctx context.Context, ownerID, content string) (model.Note, error)
}

type NoteHandler struct {
	repo   NoteRepository
	logger *zap.Logger
}

func NewNoteHandler(repo NoteRepository, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{repo: repo, logger: logger}
}

type noteBody struct {
	Content string `json:"content"`
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if !checkOwner(c, ownerID) {
		return
	}
	note, err := h.repo.GetOrCreate(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("GetNote: failed to load note", zap.String("owner_id", ownerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load note"})
		return
	}
	c.JSON(http.StatusOK, noteBody{Content: note.Content})
}

func (h *NoteHandler) PutNote(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if !checkOwner(c, ownerID) {
		return
	}
	var body noteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	note, err := h.repo.Upsert(c.Request.Context(), ownerID, body.Content)
	if err != nil {
		h.logger.Error("PutNote: failed to save note", zap.String("owner_id", ownerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save note"})
		return
	}
	c.JSON(http.StatusOK, noteBody{Content: note.Content})
}
