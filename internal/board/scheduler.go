package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/metrics"
)

// Notifier delivers a deadline alert to the presentation layer.
type Notifier interface {
	Notify(ctx context.Context, event model.NotificationEvent) error
}

// Cue is the audible signal accompanying each alert.
type Cue interface {
	Play()
}

// AlertKey identifies one alert for deduplication.
type AlertKey struct {
	TaskID   string
	Deadline string
	Severity model.Severity
}

// AlertMemo remembers which alerts were already raised this session.
type AlertMemo interface {
	// FirstSeen records key and reports whether it was new.
	FirstSeen(ctx context.Context, key AlertKey) bool
	// Forget drops every key of taskID.
	Forget(ctx context.Context, taskID string)
	// Reset drops every key.
	Reset(ctx context.Context)
}

type SchedulerOptions struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Location used to compute today/tomorrow; defaults to time.Local.
	Location *time.Location
	Notifier Notifier
	Cue      Cue
	// Memo suppresses repeated alerts; nil re-alerts on every scan.
	Memo   AlertMemo
	Logger *zap.Logger
}

// DeadlineScheduler scans the collection for tasks due today or tomorrow.
type DeadlineScheduler struct {
	clock    func() time.Time
	loc      *time.Location
	notifier Notifier
	cue      Cue
	memo     AlertMemo
	logger   *zap.Logger
}

func NewDeadlineScheduler(opts SchedulerOptions) *DeadlineScheduler {
	s := &DeadlineScheduler{
		clock:    opts.Clock,
		loc:      opts.Location,
		notifier: opts.Notifier,
		cue:      opts.Cue,
		memo:     opts.Memo,
		logger:   opts.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Days returns today's and tomorrow's calendar dates.
func (s *DeadlineScheduler) Days() (string, string) {
	now := s.clock().In(s.loc)
	return now.Format(model.DateLayout), now.AddDate(0, 0, 1).Format(model.DateLayout)
}

// Scan emits one event per task due today (urgent) or tomorrow (warning) and
// returns the events it emitted.
func (s *DeadlineScheduler) Scan(ctx context.Context, tasks []model.Task) []model.NotificationEvent {
	if len(tasks) == 0 {
		return nil
	}
	today, tomorrow := s.Days()

	var emitted []model.NotificationEvent
	for _, t := range tasks {
		var event model.NotificationEvent
		switch t.Deadline {
		case today:
			event = model.DueTodayEvent(t)
		case tomorrow:
			event = model.DueTomorrowEvent(t)
		default:
			continue
		}

		if s.memo != nil && !s.memo.FirstSeen(ctx, AlertKey{TaskID: t.ID, Deadline: t.Deadline, Severity: event.Severity}) {
			metrics.IncrementNotification(string(event.Severity), "suppressed")
			continue
		}
		s.emit(ctx, event)
		emitted = append(emitted, event)
	}
	return emitted
}

func (s *DeadlineScheduler) emit(ctx context.Context, event model.NotificationEvent) {
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("Failed to deliver deadline notification",
				zap.String("task_id", event.TaskID),
				zap.String("severity", string(event.Severity)),
				zap.Error(err),
			)
		}
	}
	if s.cue != nil {
		s.cue.Play()
	}
	metrics.IncrementNotification(string(event.Severity), "emitted")
}

// Dismiss lets the alerts of taskID fire again on a later scan.
func (s *DeadlineScheduler) Dismiss(ctx context.Context, taskID string) {
	if s.memo != nil {
		s.memo.Forget(ctx, taskID)
	}
}

// Reset ends the alert session.
func (s *DeadlineScheduler) Reset(ctx context.Context) {
	if s.memo != nil {
		s.memo.Reset(ctx)
	}
}

// SessionMemo is an in-process AlertMemo living as long as the board.
type SessionMemo struct {
	mu   sync.Mutex
	seen map[AlertKey]struct{}
}

func NewSessionMemo() *SessionMemo {
	return &SessionMemo{seen: map[AlertKey]struct{}{}}
}

func (m *SessionMemo) FirstSeen(_ context.Context, key AlertKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[key]; ok {
		return false
	}
	m.seen[key] = struct{}{}
	return true
}

func (m *SessionMemo) Forget(_ context.Context, taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.seen {
		if key.TaskID == taskID {
			delete(m.seen, key)
		}
	}
}

func (m *SessionMemo) Reset(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = map[AlertKey]struct{}{}
}
