package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/model"
)

const defaultScanTimeout = 5 * time.Second

type Options struct {
	Policy    OverridePolicy
	Scheduler SchedulerOptions
	// ScanTimeout bounds notifier delivery for one snapshot.
	ScanTimeout time.Duration
	Logger      *zap.Logger
}

// Board connects the task collection to the column view and the deadline
// scanner. Every published snapshot refreshes the view, then scans.
type Board struct {
	sync      *TaskSync
	drag      *DragController
	scheduler *DeadlineScheduler
	logger    *zap.Logger

	scanTimeout time.Duration
	unsubscribe func()

	applyMu sync.Mutex // serializes snapshot application
	lastSeq uint64

	mu     sync.Mutex
	alerts []model.NotificationEvent
}

func New(store TaskStore, opts Options) *Board {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Scheduler.Logger == nil {
		opts.Scheduler.Logger = logger.Named("deadlines")
	}
	b := &Board{
		sync:        NewTaskSync(store, logger.Named("sync")),
		drag:        NewDragController(opts.Policy, logger.Named("drag")),
		scheduler:   NewDeadlineScheduler(opts.Scheduler),
		logger:      logger,
		scanTimeout: opts.ScanTimeout,
	}
	if b.scanTimeout <= 0 {
		b.scanTimeout = defaultScanTimeout
	}
	b.unsubscribe = b.sync.Subscribe(b.onSnapshot)
	return b
}

func (b *Board) onSnapshot(snap Snapshot) {
	b.applyMu.Lock()
	defer b.applyMu.Unlock()
	if snap.Seq <= b.lastSeq {
		b.logger.Debug("Skipping superseded snapshot",
			zap.Uint64("seq", snap.Seq),
			zap.Uint64("last_seq", b.lastSeq),
		)
		return
	}
	b.lastSeq = snap.Seq

	b.drag.Refresh(snap.Tasks)

	ctx, cancel := context.WithTimeout(context.Background(), b.scanTimeout)
	defer cancel()
	events := b.scheduler.Scan(ctx, snap.Tasks)

	b.mu.Lock()
	b.alerts = events
	b.mu.Unlock()

	if len(events) > 0 {
		b.logger.Info("Deadline alerts raised",
			zap.String("owner_id", snap.OwnerID),
			zap.Int("count", len(events)),
		)
	}
}

func (b *Board) Sync() *TaskSync { return b.sync }

func (b *Board) Drag() *DragController { return b.drag }

func (b *Board) Scheduler() *DeadlineScheduler { return b.scheduler }

// Columns returns the current column view, including local drag moves.
func (b *Board) Columns() Partition {
	return b.drag.View()
}

func (b *Board) Counts() map[Column]int {
	return b.drag.View().Counts()
}

// Alerts returns the events raised by the latest scan.
func (b *Board) Alerts() []model.NotificationEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.NotificationEvent(nil), b.alerts...)
}

// Close detaches the board from the collection.
func (b *Board) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}
