package board

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskboard/internal/model"
)

type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

type DropOutcome int

const (
	DropCancelled DropOutcome = iota
	DropMoved
)

func (o DropOutcome) String() string {
	if o == DropMoved {
		return "dropped"
	}
	return "cancelled"
}

// OverridePolicy decides how long a drag reassignment outlives authoritative
// refreshes of the collection.
type OverridePolicy int

const (
	// ResetOnRefresh discards every drag override whenever the collection
	// is republished.
	ResetOnRefresh OverridePolicy = iota
	// KeepUntilProgressChanges keeps an override until the task's progress
	// differs from the value it had when dropped, or the task disappears.
	KeepUntilProgressChanges
)

// ParseOverridePolicy reads the config spelling of a policy; "" is ResetOnRefresh.
func ParseOverridePolicy(s string) (OverridePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reset_on_refresh":
		return ResetOnRefresh, nil
	case "keep_until_progress_changes":
		return KeepUntilProgressChanges, nil
	}
	return ResetOnRefresh, fmt.Errorf("unknown drag policy %q", s)
}

type override struct {
	column   Column
	progress int
}

type activeDrag struct {
	taskID string
	source Column
}

// DragController holds the board's column view and the drag gesture state
// machine: Idle -> Dragging(source, task) -> Dropped|Cancelled -> Idle.
// Moves only touch the local view; nothing is sent to the task store.
type DragController struct {
	mu        sync.Mutex
	policy    OverridePolicy
	logger    *zap.Logger
	view      Partition
	overrides map[string]override
	active    *activeDrag
}

func NewDragController(policy OverridePolicy, logger *zap.Logger) *DragController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DragController{
		policy:    policy,
		logger:    logger,
		view:      Categorize(nil),
		overrides: map[string]override{},
	}
}

// Refresh recomputes the view from the authoritative tasks.
func (d *DragController) Refresh(tasks []model.Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.policy == ResetOnRefresh {
		if len(d.overrides) > 0 {
			d.logger.Debug("Discarding drag overrides on refresh", zap.Int("count", len(d.overrides)))
		}
		d.overrides = map[string]override{}
	}

	present := make(map[string]int, len(tasks))
	for _, t := range tasks {
		present[t.ID] = t.Progress
	}
	for id, ov := range d.overrides {
		if progress, ok := present[id]; !ok || progress != ov.progress {
			delete(d.overrides, id)
		}
	}

	view := Categorize(nil)
	for _, t := range tasks {
		col := ColumnFor(t.Progress)
		if ov, ok := d.overrides[t.ID]; ok {
			col = ov.column
		}
		view[col] = append(view[col], t)
	}
	d.view = view

	if d.active != nil {
		col, _, ok := view.Find(d.active.taskID)
		if !ok {
			d.logger.Debug("Cancelling drag of task that left the board", zap.String("task_id", d.active.taskID))
			d.active = nil
		} else {
			d.active.source = col
		}
	}
}

// Start begins dragging taskID from its current column. A drag already in
// progress is cancelled first.
func (d *DragController) Start(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		d.logger.Debug("New drag cancels previous one",
			zap.String("previous_task_id", d.active.taskID),
			zap.String("task_id", taskID),
		)
		d.active = nil
	}

	col, _, ok := d.view.Find(taskID)
	if !ok {
		return &NotFoundError{Op: "drag", TaskID: taskID}
	}
	d.active = &activeDrag{taskID: taskID, source: col}
	return nil
}

// Drop ends the gesture over target. Dropping on the source column, on an
// unknown column, or without an active drag cancels.
func (d *DragController) Drop(target Column) DropOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	active := d.active
	d.active = nil
	if active == nil || !target.Valid() || target == active.source {
		return DropCancelled
	}

	src := d.view[active.source]
	var moved model.Task
	found := false
	kept := make([]model.Task, 0, len(src))
	for _, t := range src {
		if t.ID == active.taskID && !found {
			moved = t
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return DropCancelled
	}
	d.view[active.source] = kept
	d.view[target] = append(d.view[target], moved)
	d.overrides[moved.ID] = override{column: target, progress: moved.Progress}

	d.logger.Debug("Task moved on board",
		zap.String("task_id", moved.ID),
		zap.String("from", string(active.source)),
		zap.String("to", string(target)),
	)
	return DropMoved
}

func (d *DragController) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = nil
}

func (d *DragController) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return DragDragging
	}
	return DragIdle
}

// Active returns the task being dragged and its source column.
func (d *DragController) Active() (string, Column, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return "", "", false
	}
	return d.active.taskID, d.active.source, true
}

// View returns a copy of the current column view.
func (d *DragController) View() Partition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view.Clone()
}

// Overrides reports the tasks whose view column diverges from Categorize.
func (d *DragController) Overrides() map[string]Column {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Column, len(d.overrides))
	for id, ov := range d.overrides {
		out[id] = ov.column
	}
	return out
}
