package engine

import (
	"errors"
	"fmt"

	"simply/internal/book"
	"simply/internal/task"
)

const (
	historyUndo = "undo"
	historyRedo = "redo"
)

// InsufficientHistoryError reports an undo or redo deeper than its stack.
type InsufficientHistoryError struct {
	Op        string
	Requested int
	Available int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("there are not so many tasks available to be %s: requested %d, available %d",
		pastTense(e.Op), e.Requested, e.Available)
}

func pastTense(op string) string {
	if op == historyRedo {
		return "redone"
	}
	return "undone"
}

// SaveState is an undo/redo checkpoint. It never aliases the live store.
type SaveState struct {
	book   *book.Book
	config []byte
}

func (e *Engine) saveState() SaveState {
	return SaveState{book: e.book.Snapshot(), config: cloneBytes(e.config)}
}

func (e *Engine) restore(s SaveState) {
	e.book.RestoreFrom(s.book)
	e.config = cloneBytes(s.config)
}

// recordBeforeMutation pushes the current state onto the undo stack.
func (e *Engine) recordBeforeMutation() {
	e.undo = append(e.undo, e.saveState())
}

// rollback restores and drops the checkpoint pushed for a failed command.
func (e *Engine) rollback() {
	n := len(e.undo)
	if n == 0 {
		return
	}
	e.restore(e.undo[n-1])
	e.undo = e.undo[:n-1]
}

// commit finishes a forward command: the redo stack is dropped only when
// the command directly follows an undo.
func (e *Engine) commit(name string) {
	if n := len(e.history); n > 0 && e.history[n-1] == historyUndo {
		e.redo = nil
	}
	e.history = append(e.history, name)
}

func (e *Engine) undoSteps(n int) ([]task.Task, error) {
	return e.travel(historyUndo, n, &e.undo, &e.redo)
}

func (e *Engine) redoSteps(n int) ([]task.Task, error) {
	return e.travel(historyRedo, n, &e.redo, &e.undo)
}

// travel pops n states from src, pushing the current state onto dst
// before each restore. Restored tasks carry the overdue status cached when
// they were checkpointed, so it is recomputed afterwards. The returned
// tasks are those whose status differs from what the book held before
// travelling.
func (e *Engine) travel(op string, n int, src, dst *[]SaveState) ([]task.Task, error) {
	if n < 1 {
		return nil, &task.ValidationError{Field: "count", Err: errors.New("must be a positive number")}
	}
	if n > len(*src) {
		return nil, &InsufficientHistoryError{Op: op, Requested: n, Available: len(*src)}
	}
	for i := 0; i < n; i++ {
		last := len(*src) - 1
		s := (*src)[last]
		*src = (*src)[:last]
		*dst = append(*dst, e.saveState())
		e.restore(s)
		e.history = append(e.history, op)
	}

	before := (*dst)[len(*dst)-n].book
	var fresh []task.Task
	for _, t := range e.book.RefreshOverdue(e.now()) {
		if status, ok := before.OverdueOf(t); !ok || status != t.Overdue {
			fresh = append(fresh, t)
		}
	}
	return fresh, nil
}

func (e *Engine) travelled(fresh []task.Task) []Event {
	var events []Event
	if len(fresh) > 0 {
		events = append(events, OverdueChanged{Tasks: fresh})
	}
	return append(events, e.storeChanged())
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
