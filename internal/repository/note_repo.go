package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/metrics"
)

type NoteRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNoteRepository(db *pgxpool.Pool, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{db: db, logger: logger}
}

// GetOrCreate returns the owner's note, creating an empty one on first access.
func (r *NoteRepository) GetOrCreate(ctx context.Context, ownerID string) (model.Note, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("get_or_create", "notes", time.Since(start)) }()

	query := `
        INSERT INTO notes (owner_id) VALUES ($1)
        ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
        RETURNING owner_id, content`
	var n model.Note
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&n.OwnerID, &n.Content); err != nil {
		r.logger.Error("Failed to load note", zap.Error(err), zap.String("owner_id", ownerID))
		return model.Note{}, err
	}
	return n, nil
}

func (r *NoteRepository) Upsert(ctx context.Context, ownerID, content string) (model.Note, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "notes", time.Since(start)) }()

	query := `
        INSERT INTO notes (owner_id, content, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (owner_id) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
        RETURNING owner_id, content`
	var n model.Note
	if err := r.db.QueryRow(ctx, query, ownerID, content).Scan(&n.OwnerID, &n.Content); err != nil {
		r.logger.Error("Failed to save note",
			zap.Error(err),
			zap.String("owner_id", ownerID),
			zap.Int("content_length", len(content)),
		)
		return model.Note{}, err
	}
	r.logger.Debug("Note saved", zap.String("owner_id", ownerID), zap.Int("content_length", len(content)))
	return n, nil
}
