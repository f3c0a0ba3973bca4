// Package engine executes task commands against a book under one lock,
// keeps the undo/redo log and runs the periodic overdue scan.
package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"simply/internal/book"
	"simply/internal/task"
)

// Engine is the single writer of a book. All exported methods are safe
// for concurrent use.
type Engine struct {
	mu      sync.Mutex
	book    *book.Book
	config  []byte
	undo    []SaveState
	redo    []SaveState
	history []string
	view    view

	now       func() time.Time
	logger    *log.Logger
	listeners []Listener

	// pending holds events in mutation order until delivered. It is
	// guarded by mu; delivery itself is serialized by dispatchMu.
	pending    []Event
	dispatchMu sync.Mutex
}

type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithListener registers a change listener. Listeners run after the lock
// is released, one event at a time and in mutation order. An event may be
// delivered by whichever goroutine is already delivering, so listeners
// must not assume they run on the caller's goroutine.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// New takes ownership of b (nil starts empty) and an opaque config value.
func New(b *book.Book, config []byte, opts ...Option) *Engine {
	if b == nil {
		b = book.New()
	}
	e := &Engine{
		book:   b,
		config: cloneBytes(config),
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the human-readable outcome of a command.
type Result struct {
	Message string
}

// Execute runs one command to completion. Errors leave the store, the
// config and both stacks as they were.
func (e *Engine) Execute(cmd Command) (Result, error) {
	e.mu.Lock()
	res, events, err := e.execute(cmd)
	e.pending = append(e.pending, events...)
	undo, redo := len(e.undo), len(e.redo)
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("command failed", "command", cmd.Name(), "err", err)
		return Result{}, err
	}
	e.logger.Debug("command done", "command", cmd.Name(), "undo", undo, "redo", redo)
	e.flush()
	return res, nil
}

// Visible returns the tasks of c shown by the current view, in order.
func (e *Engine) Visible(c task.Category) []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible(c)
}

// Snapshot returns a deep copy of the live book.
func (e *Engine) Snapshot() *book.Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot()
}

func (e *Engine) Config() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneBytes(e.config)
}

// History returns the names of the commands recorded so far.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.history...)
}

func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo)
}

func (e *Engine) RedoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redo)
}

func (e *Engine) visible(c task.Category) []task.Task {
	all := e.book.List(c)
	out := all[:0]
	for _, t := range all {
		if e.view.includes(t) {
			out = append(out, t)
		}
	}
	return out
}

// resolve maps 1-based view references onto stored tasks, dropping
// repeated references.
func (e *Engine) resolve(refs []Ref) ([]task.Task, error) {
	seen := make(map[Ref]struct{}, len(refs))
	out := make([]task.Task, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		list := e.visible(r.Category)
		if r.Index < 1 || r.Index > len(list) {
			return nil, fmt.Errorf("task index %s is invalid: %w", r, book.ErrTaskNotFound)
		}
		out = append(out, list[r.Index-1])
	}
	return out, nil
}

// moved reports where t now sits in the current view.
func (e *Engine) moved(t task.Task) TaskMoved {
	idx := -1
	for i, v := range e.visible(t.Category) {
		if v.Equal(t) {
			idx = i
			break
		}
	}
	return TaskMoved{Category: t.Category, Index: idx, Task: t}
}

func (e *Engine) storeChanged() StoreChanged {
	return StoreChanged{Book: e.book.Snapshot(), Config: cloneBytes(e.config)}
}

// flush delivers pending events. Only one goroutine delivers at a time;
// a caller that finds delivery in progress leaves its events to that
// goroutine, which drains the queue before letting go.
func (e *Engine) flush() {
	for {
		if !e.dispatchMu.TryLock() {
			return
		}
		for {
			e.mu.Lock()
			batch := e.pending
			e.pending = nil
			e.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, ev := range batch {
				for _, l := range e.listeners {
					l(ev)
				}
			}
		}
		e.dispatchMu.Unlock()

		e.mu.Lock()
		more := len(e.pending) > 0
		e.mu.Unlock()
		if !more {
			return
		}
	}
}
