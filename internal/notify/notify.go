package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	contractmq "taskboard/contracts/mq"
	"taskboard/internal/board"
	"taskboard/internal/model"
)

// LogNotifier writes every alert to the log; it is the default surface.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e model.NotificationEvent) error {
	level := zap.WarnLevel
	if e.Severity == model.SeverityUrgent {
		level = zap.ErrorLevel
	}
	n.logger.Log(level, e.Message,
		zap.String("task_id", e.TaskID),
		zap.String("deadline", e.Deadline),
		zap.String("severity", string(e.Severity)),
	)
	return nil
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AMQPNotifier publishes alerts to the events exchange so other services can
// fan them out (mail, push).
type AMQPNotifier struct {
	publisher Publisher
	ownerID   func() string
	now       func() time.Time
}

// NewAMQPNotifier takes ownerID as a func since the board owner can change.
func NewAMQPNotifier(publisher Publisher, ownerID func() string) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher, ownerID: ownerID, now: time.Now}
}

func (n *AMQPNotifier) Notify(ctx context.Context, e model.NotificationEvent) error {
	routingKey := contractmq.RoutingKeyTaskDueTomorrow
	if e.Severity == model.SeverityUrgent {
		routingKey = contractmq.RoutingKeyTaskDueToday
	}
	payload := contractmq.TaskDeadlinePayload{
		TaskID:   e.TaskID,
		Title:    e.Title,
		Deadline: e.Deadline,
		Severity: string(e.Severity),
		Message:  e.Message,
		RaisedAt: n.now().UTC(),
	}
	if n.ownerID != nil {
		payload.OwnerID = n.ownerID()
	}
	if err := n.publisher.Publish(ctx, routingKey, payload); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []board.Notifier

func (m Multi) Notify(ctx context.Context, e model.NotificationEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BellCue rings the terminal bell.
type BellCue struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBellCue(w io.Writer) *BellCue {
	return &BellCue{w: w}
}

func (c *BellCue) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, "\a")
}
