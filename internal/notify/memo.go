package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskboard/internal/board"
	"taskboard/pkg/util"
)

// RedisMemo keeps the alert session in redis, so a restarted board does not
// repeat alerts it already raised for the same session id.
type RedisMemo struct {
	deduper *util.Deduper
	prefix  string
	logger  *zap.Logger
}

func NewRedisMemo(deduper *util.Deduper, session string, logger *zap.Logger) *RedisMemo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMemo{
		deduper: deduper,
		prefix:  fmt.Sprintf("alerts:%s:", session),
		logger:  logger,
	}
}

func (m *RedisMemo) FirstSeen(ctx context.Context, key board.AlertKey) bool {
	return m.deduper.AcquireOnce(ctx, m.key(key))
}

func (m *RedisMemo) Forget(ctx context.Context, taskID string) {
	if err := m.deduper.ForgetPrefix(ctx, m.prefix+taskID+":"); err != nil {
		m.logger.Warn("Failed to forget alerts", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (m *RedisMemo) Reset(ctx context.Context) {
	if err := m.deduper.ForgetPrefix(ctx, m.prefix); err != nil {
		m.logger.Warn("Failed to reset alert session", zap.String("prefix", m.prefix), zap.Error(err))
	}
}

func (m *RedisMemo) key(k board.AlertKey) string {
	return fmt.Sprintf("%s%s:%s:%s", m.prefix, k.TaskID, k.Deadline, k.Severity)
}
