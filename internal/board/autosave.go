package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/pkg/metrics"
)

const (
	DefaultAutosaveDelay        = 500 * time.Millisecond
	defaultAutosaveWriteTimeout = 10 * time.Second
)

type AutosaveOptions struct {
	// Delay is the quiet period before the buffer is written back.
	Delay time.Duration
	// WriteTimeout bounds a single upsert.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// NotesAutosave keeps the note buffer of the current owner and writes it back
// with a trailing-edge debounce. The controller owns at most one timer; every
// exit path (owner switch, Close) stops it. At most one upsert is in flight;
// a timer that fires meanwhile marks the buffer dirty and the latest content
// is written once the running upsert returns.
type NotesAutosave struct {
	store        NoteStore
	delay        time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	owner   string
	content string
	timer   *time.Timer
	gen     uint64
	closed  bool

	inFlight bool
	dirty    bool
}

func NewNotesAutosave(store NoteStore, opts AutosaveOptions) *NotesAutosave {
	n := &NotesAutosave{
		store:        store,
		delay:        opts.Delay,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
	}
	if n.delay <= 0 {
		n.delay = DefaultAutosaveDelay
	}
	if n.writeTimeout <= 0 {
		n.writeTimeout = defaultAutosaveWriteTimeout
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// Open switches the controller to ownerID and loads its note. A pending
// write for the previous owner is dropped, never flushed under the new key.
func (n *NotesAutosave) Open(ctx context.Context, ownerID string) error {
	n.mu.Lock()
	n.stopTimerLocked()
	n.closed = false
	n.dirty = false
	n.owner = ownerID
	n.content = ""
	n.gen++
	gen := n.gen
	n.mu.Unlock()

	note, err := n.store.GetNote(ctx, ownerID)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen || n.owner != ownerID {
		// The user typed or switched owner while the note was loading.
		n.logger.Debug("Discarding stale note load", zap.String("owner_id", ownerID))
		return nil
	}
	if err != nil {
		n.logger.Error("Failed to load note", zap.String("owner_id", ownerID), zap.Error(err))
		return &FetchError{Op: "get note", OwnerID: ownerID, Err: err}
	}
	n.content = note.Content
	return nil
}

// SetContent replaces the buffer immediately and re-arms the write-back timer.
func (n *NotesAutosave) SetContent(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || n.owner == "" {
		n.logger.Debug("Ignoring note edit without an open owner")
		return
	}
	n.content = text
	n.stopTimerLocked()
	n.gen++
	gen, owner := n.gen, n.owner
	n.timer = time.AfterFunc(n.delay, func() { n.fire(gen, owner) })
}

func (n *NotesAutosave) fire(gen uint64, owner string) {
	n.mu.Lock()
	if n.closed || gen != n.gen || owner != n.owner {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	if n.inFlight {
		n.dirty = true
		n.mu.Unlock()
		return
	}
	n.inFlight = true
	content := n.content
	n.mu.Unlock()

	for {
		n.write(owner, content)

		n.mu.Lock()
		if !n.dirty || n.closed || n.owner == "" {
			n.inFlight = false
			n.dirty = false
			n.mu.Unlock()
			return
		}
		n.dirty = false
		owner, content = n.owner, n.content
		n.mu.Unlock()
	}
}

func (n *NotesAutosave) write(owner, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.writeTimeout)
	defer cancel()

	if _, err := n.store.UpsertNote(ctx, owner, content); err != nil {
		// The buffer is kept; the next edit arms another write.
		metrics.IncrementNoteAutosave("failed")
		n.logger.Error("Failed to save note",
			zap.String("owner_id", owner),
			zap.Int("content_length", len(content)),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementNoteAutosave("success")
	n.logger.Debug("Note saved", zap.String("owner_id", owner), zap.Int("content_length", len(content)))
}

// Close tears the controller down, cancelling any pending write.
func (n *NotesAutosave) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopTimerLocked()
	n.closed = true
	n.dirty = false
	n.gen++
}

func (n *NotesAutosave) Content() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content
}

func (n *NotesAutosave) Owner() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owner
}

// Pending reports whether a write-back timer is armed.
func (n *NotesAutosave) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timer != nil
}

// Saving reports whether an upsert is running.
func (n *NotesAutosave) Saving() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inFlight
}

func (n *NotesAutosave) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
