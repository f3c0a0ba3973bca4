package engine

import (
	"simply/internal/book"
	"simply/internal/task"
)

// Event is a change notification delivered to listeners.
type Event interface {
	event()
}

// StoreChanged carries a private copy of the store and config after a
// successful mutation, for a collaborator to persist.
type StoreChanged struct {
	Book   *book.Book
	Config []byte
}

// TaskMoved points at the visible position of an added, edited or
// reclassified task. Index is -1 when the current view hides it.
type TaskMoved struct {
	Category task.Category
	Index    int
	Task     task.Task
}

// OverdueChanged lists tasks whose overdue status changed in a scan or
// after an undo or redo.
type OverdueChanged struct {
	Tasks []task.Task
}

func (StoreChanged) event()   {}
func (TaskMoved) event()      {}
func (OverdueChanged) event() {}

// Listener receives events outside the engine lock.
type Listener func(Event)
