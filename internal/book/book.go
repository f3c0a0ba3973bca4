// Package book holds tasks in three uniqueness-checked category lists
// sharing one tag registry.
package book

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"simply/internal/task"
)

var (
	ErrDuplicateTask = errors.New("this task already exists")
	ErrTaskNotFound  = errors.New("task not found")
)

// Book is the category store. It is not safe for concurrent use; the
// engine serializes access.
type Book struct {
	lists map[task.Category][]*task.Task
	tags  *task.Registry
}

// Move records a task that now lives at Index in Category.
type Move struct {
	Task     task.Task
	Category task.Category
	Index    int
}

func New() *Book {
	return &Book{
		lists: map[task.Category][]*task.Task{
			task.Event:    nil,
			task.Deadline: nil,
			task.Todo:     nil,
		},
		tags: task.NewRegistry(),
	}
}

// Add inserts t into its category list, interning its tags.
func (b *Book) Add(t task.Task) error {
	implied, err := t.ImpliedCategory()
	if err != nil {
		return err
	}
	if implied != t.Category {
		return &task.ValidationError{Field: "category", Err: fmt.Errorf("fields describe a %s, not a %s", implied, t.Category)}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if b.find(t.Category, t) >= 0 {
		return ErrDuplicateTask
	}
	stored := t
	stored.Tags = b.tags.InternAll(t.Tags)
	b.insert(&stored)
	return nil
}

// Remove deletes the stored task equal to t.
func (b *Book) Remove(t task.Task) error {
	i := b.find(t.Category, t)
	if i < 0 {
		return ErrTaskNotFound
	}
	list := b.lists[t.Category]
	b.lists[t.Category] = append(list[:i:i], list[i+1:]...)
	return nil
}

// Complete marks the stored task equal to t as done.
func (b *Book) Complete(t task.Task) error {
	i := b.find(t.Category, t)
	if i < 0 {
		return ErrTaskNotFound
	}
	b.lists[t.Category][i].Completed = true
	b.sort(t.Category)
	return nil
}

func (b *Book) Contains(t task.Task) bool {
	return b.find(t.Category, t) >= 0
}

// OverdueOf returns the overdue status stored for t.
func (b *Book) OverdueOf(t task.Task) (task.Overdue, bool) {
	i := b.find(t.Category, t)
	if i < 0 {
		return task.OverdueNone, false
	}
	return b.lists[t.Category][i].Overdue, true
}

// List returns detached copies of the tasks in c, in order.
func (b *Book) List(c task.Category) []task.Task {
	list := b.lists[c]
	out := make([]task.Task, len(list))
	for i, t := range list {
		out[i] = t.Detach()
	}
	return out
}

func (b *Book) Len(c task.Category) int { return len(b.lists[c]) }

// Count is the number of tasks across all categories.
func (b *Book) Count() int {
	n := 0
	for _, c := range task.Categories {
		n += len(b.lists[c])
	}
	return n
}

// Tags returns the registry's tag names.
func (b *Book) Tags() []string { return b.tags.Names() }

// Reclassify moves every task whose fields imply a different category
// into the matching list. Tasks that would duplicate an entry in their
// destination stay where they are and ErrDuplicateTask is returned.
func (b *Book) Reclassify() ([]Move, error) {
	var moves []Move
	var errs []error
	for _, from := range task.Categories {
		kept := b.lists[from][:0:0]
		for _, t := range b.lists[from] {
			to, err := t.ImpliedCategory()
			if err != nil || to == from {
				kept = append(kept, t)
				continue
			}
			moved := *t
			moved.Category = to
			if b.find(to, moved) >= 0 {
				kept = append(kept, t)
				errs = append(errs, fmt.Errorf("move %q to %ss: %w", t.Name, to, ErrDuplicateTask))
				continue
			}
			t.Category = to
			b.lists[to] = append(b.lists[to], t)
			moves = append(moves, Move{Task: *t})
		}
		b.lists[from] = kept
	}
	for _, c := range task.Categories {
		b.sort(c)
	}
	for i := range moves {
		m := &moves[i]
		m.Category = m.Task.Category
		m.Index = b.find(m.Category, m.Task)
		m.Task = m.Task.Detach()
	}
	return moves, errors.Join(errs...)
}

// RefreshOverdue recomputes the overdue status of every dated task and
// returns detached copies of those that changed.
func (b *Book) RefreshOverdue(now time.Time) []task.Task {
	var changed []task.Task
	for _, c := range []task.Category{task.Event, task.Deadline} {
		for _, t := range b.lists[c] {
			status := t.OverdueAt(now)
			if status == t.Overdue {
				continue
			}
			t.Overdue = status
			changed = append(changed, t.Detach())
		}
	}
	return changed
}

// Snapshot returns a deep copy that shares nothing with b.
func (b *Book) Snapshot() *Book {
	tags, remap := b.tags.Clone()
	cp := &Book{lists: make(map[task.Category][]*task.Task, len(b.lists)), tags: tags}
	for _, c := range task.Categories {
		list := make([]*task.Task, len(b.lists[c]))
		for i, t := range b.lists[c] {
			dup := t.Remap(remap)
			list[i] = &dup
		}
		cp.lists[c] = list
	}
	return cp
}

// RestoreFrom replaces the whole contents of b with a copy of src.
func (b *Book) RestoreFrom(src *Book) {
	cp := src.Snapshot()
	b.lists = cp.lists
	b.tags = cp.tags
}

// Equal compares two books by value, tag names included.
func (b *Book) Equal(o *Book) bool {
	for _, c := range task.Categories {
		x, y := b.lists[c], o.lists[c]
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].Equal(*y[i]) || !equalStrings(x[i].TagNames(), y[i].TagNames()) {
				return false
			}
		}
	}
	return equalStrings(b.tags.Names(), o.tags.Names())
}

func (b *Book) find(c task.Category, t task.Task) int {
	for i, stored := range b.lists[c] {
		if stored.Equal(t) {
			return i
		}
	}
	return -1
}

func (b *Book) insert(t *task.Task) {
	b.lists[t.Category] = append(b.lists[t.Category], t)
	b.sort(t.Category)
}

func (b *Book) sort(c task.Category) {
	list := b.lists[c]
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Compare(*list[j]) < 0
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
