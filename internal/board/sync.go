package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/metrics"
)

// Snapshot is what subscribers receive after every change to the collection.
type Snapshot struct {
	// Seq increases with every publish. Snapshots may reach a subscriber out
	// of order when operations overlap; a lower Seq than one already seen is
	// stale.
	Seq     uint64
	OwnerID string
	Tasks   []model.Task
	// Err is the last load failure, nil after a successful load.
	Err error
}

// TaskSync owns the task collection and is the only component that mutates
// it. Remote calls run without holding the lock; responses are checked
// against the owner epoch and per-task versions before they are applied.
type TaskSync struct {
	store  TaskStore
	logger *zap.Logger

	mu      sync.Mutex
	coll    *Collection
	err     error
	epoch   uint64 // bumped when the owner changes
	loadSeq uint64 // bumped on every load
	pubSeq  uint64
	issued  map[string]uint64
	applied map[string]uint64
	pending map[string]int // patches awaiting a response

	subs    map[int]func(Snapshot)
	nextSub int
}

func NewTaskSync(store TaskStore, logger *zap.Logger) *TaskSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskSync{
		store:   store,
		logger:  logger,
		coll:    NewCollection("", nil),
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
		pending: make(map[string]int),
		subs:    make(map[int]func(Snapshot)),
	}
}

// Load replaces the collection with the remote list for ownerID. On failure
// the collection is emptied rather than left stale.
func (s *TaskSync) Load(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	if s.coll.Owner() != ownerID {
		s.epoch++
		s.coll.Replace(ownerID, nil)
		s.issued = make(map[string]uint64)
		s.applied = make(map[string]uint64)
		s.pending = make(map[string]int)
	}
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	start := time.Now()
	tasks, err := s.store.ListTasks(ctx, ownerID)

	s.mu.Lock()
	if seq != s.loadSeq || ownerID != s.coll.Owner() {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("load", "stale")
		s.logger.Info("Discarding stale task list",
			zap.String("owner_id", ownerID),
			zap.Uint64("load_seq", seq),
		)
		return nil
	}
	if err != nil {
		s.coll.Replace(ownerID, nil)
		s.err = &FetchError{Op: "list tasks", OwnerID: ownerID, Err: err}
		loadErr := s.err
		snap, subs := s.snapshotLocked()
		s.mu.Unlock()

		metrics.IncrementSyncOperation("load", "failed")
		s.logger.Error("Failed to load tasks",
			zap.String("owner_id", ownerID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		deliver(snap, subs)
		return loadErr
	}
	s.coll.Replace(ownerID, tasks)
	s.err = nil
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	metrics.IncrementSyncOperation("load", "success")
	s.logger.Debug("Tasks loaded",
		zap.String("owner_id", ownerID),
		zap.Int("count", len(snap.Tasks)),
		zap.Duration("elapsed", time.Since(start)),
	)
	deliver(snap, subs)
	return nil
}

// Create validates the draft locally, then stores it and puts the returned
// record at the front of the collection.
func (s *TaskSync) Create(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	draft = draft.Normalize()

	s.mu.Lock()
	owner, epoch := s.coll.Owner(), s.epoch
	s.mu.Unlock()

	fields := draft.Validate()
	if owner == "" {
		fields = append(fields, model.FieldError{Field: "assignedTo", Reason: "no owner loaded"})
	}
	if len(fields) > 0 {
		metrics.IncrementSyncOperation("create", "invalid")
		return model.Task{}, &ValidationError{Op: "create task", Fields: fields}
	}

	created, err := s.store.CreateTask(ctx, draft.Task(owner))
	if err != nil {
		metrics.IncrementSyncOperation("create", "failed")
		s.logger.Error("Failed to create task",
			zap.String("owner_id", owner),
			zap.String("title", draft.Title),
			zap.Error(err),
		)
		return model.Task{}, &SyncError{Op: "create", Err: err}
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("create", "stale")
		s.logger.Info("Created task belongs to a previous owner, not inserting",
			zap.String("task_id", created.ID),
			zap.String("owner_id", owner),
		)
		return created, nil
	}
	s.coll.Prepend(created)
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	metrics.IncrementSyncOperation("create", "success")
	s.logger.Info("Task created", zap.String("task_id", created.ID), zap.String("owner_id", owner))
	deliver(snap, subs)
	return created, nil
}

// Patch sends the fields of patch that differ from the stored record and
// replaces the record with the store's response. While an earlier patch of
// the same task is unanswered the stored record may be outdated, so every
// field of patch is sent. Nothing changes locally on failure.
func (s *TaskSync) Patch(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	s.mu.Lock()
	current, ok := s.coll.Get(id)
	if !ok {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "not_found")
		return model.Task{}, &NotFoundError{Op: "patch", TaskID: id}
	}
	if fields := patch.Validate(); len(fields) > 0 {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "invalid")
		return model.Task{}, &ValidationError{Op: "patch task", Fields: fields}
	}
	diff := patch.Diff(current)
	if s.pending[id] > 0 {
		diff = patch.Normalize()
	}
	if diff.IsEmpty() {
		s.mu.Unlock()
		return current, nil
	}
	s.issued[id]++
	s.pending[id]++
	version, epoch := s.issued[id], s.epoch
	s.mu.Unlock()

	updated, err := s.store.UpdateTask(ctx, id, diff)

	s.mu.Lock()
	if epoch == s.epoch && s.pending[id] > 0 {
		s.pending[id]--
		if s.pending[id] == 0 {
			delete(s.pending, id)
		}
	}
	if err != nil {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "failed")
		s.logger.Error("Failed to update task",
			zap.String("task_id", id),
			zap.Strings("fields", diff.Fields()),
			zap.Error(err),
		)
		return model.Task{}, &SyncError{Op: "update", TaskID: id, Err: err}
	}
	if updated.ID == "" {
		updated.ID = id
	}

	switch {
	case epoch != s.epoch:
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "stale")
		s.logger.Info("Discarding update for a previous owner", zap.String("task_id", id))
		return updated, nil
	case version < s.applied[id]:
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "stale")
		s.logger.Info("Discarding out-of-order update",
			zap.String("task_id", id),
			zap.Uint64("version", version),
			zap.Uint64("applied", s.applied[id]),
		)
		return updated, nil
	}
	if !s.coll.Set(updated) {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("patch", "stale")
		s.logger.Info("Discarding update for a removed task", zap.String("task_id", id))
		return updated, nil
	}
	s.applied[id] = version
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	metrics.IncrementSyncOperation("patch", "success")
	s.logger.Debug("Task updated", zap.String("task_id", id), zap.Strings("fields", diff.Fields()))
	deliver(snap, subs)
	return updated, nil
}

// Remove drops the task locally and publishes before the remote delete is
// attempted. A failed delete is reported but the local removal stands.
func (s *TaskSync) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.coll.Remove(id) {
		s.mu.Unlock()
		metrics.IncrementSyncOperation("remove", "not_found")
		return &NotFoundError{Op: "remove", TaskID: id}
	}
	delete(s.issued, id)
	delete(s.applied, id)
	delete(s.pending, id)
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	deliver(snap, subs)

	if err := s.store.DeleteTask(ctx, id); err != nil {
		metrics.IncrementSyncOperation("remove", "failed")
		s.logger.Warn("Remote delete failed, local removal kept",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return &SyncError{Op: "delete", TaskID: id, Err: err}
	}
	metrics.IncrementSyncOperation("remove", "success")
	s.logger.Info("Task removed", zap.String("task_id", id))
	return nil
}

func (s *TaskSync) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Tasks()
}

func (s *TaskSync) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Get(id)
}

func (s *TaskSync) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Owner()
}

// Err returns the last load failure.
func (s *TaskSync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe registers fn for every published snapshot and returns a function
// that removes it.
func (s *TaskSync) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *TaskSync) snapshotLocked() (Snapshot, []func(Snapshot)) {
	s.pubSeq++
	snap := Snapshot{Seq: s.pubSeq, OwnerID: s.coll.Owner(), Tasks: s.coll.Tasks(), Err: s.err}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return snap, subs
}

func deliver(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		// each subscriber gets its own slice
		own := snap
		own.Tasks = append([]model.Task(nil), snap.Tasks...)
		fn(own)
	}
}

// ToggleStatus flips a task between complete and incomplete.
func ToggleStatus(ctx context.Context, s *TaskSync, id string) (model.Task, error) {
	t, ok := s.Get(id)
	if !ok {
		return model.Task{}, &NotFoundError{Op: "toggle status", TaskID: id}
	}
	next := model.StatusComplete
	if t.EffectiveStatus() == model.StatusComplete {
		next = model.StatusIncomplete
	}
	return s.Patch(ctx, id, model.TaskPatch{Status: &next})
}
