// Package task defines tasks, their temporal fields and interned tags.
package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category determines which temporal fields a task carries.
type Category int

const (
	Event Category = iota + 1
	Deadline
	Todo
)

// Categories lists every category in display order.
var Categories = []Category{Event, Deadline, Todo}

func (c Category) String() string {
	switch c {
	case Event:
		return "event"
	case Deadline:
		return "deadline"
	case Todo:
		return "todo"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Letter is the one-letter prefix used in task references (E1, D2, T3).
func (c Category) Letter() string {
	switch c {
	case Event:
		return "E"
	case Deadline:
		return "D"
	case Todo:
		return "T"
	default:
		return "?"
	}
}

// ParseCategory accepts a reference letter or a category name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "event", "events":
		return Event, nil
	case "d", "deadline", "deadlines":
		return Deadline, nil
	case "t", "todo", "todos":
		return Todo, nil
	}
	return 0, &ValidationError{Field: "category", Err: fmt.Errorf("unknown category %q", s)}
}

// Overdue is the derived time status of a task.
type Overdue int

const (
	OverdueNone Overdue = iota
	OverdueImminent
	OverdueLate
)

func (o Overdue) String() string {
	switch o {
	case OverdueImminent:
		return "imminent"
	case OverdueLate:
		return "late"
	default:
		return "none"
	}
}

// Task is a single tracked item.
type Task struct {
	Name      string
	Category  Category
	Date      Date
	Start     Start
	End       End
	Completed bool
	Overdue   Overdue
	Tags      []*Tag
}

// NewEvent builds an event; the start must be before the end.
func NewEvent(name string, date Date, start Start, end End, tags []*Tag) (Task, error) {
	t := Task{Name: name, Category: Event, Date: date, Start: start, End: end, Tags: tags}
	return t, t.Validate()
}

func NewDeadline(name string, date Date, end End, tags []*Tag) (Task, error) {
	t := Task{Name: name, Category: Deadline, Date: date, End: end, Tags: tags}
	return t, t.Validate()
}

func NewTodo(name string, tags []*Tag) (Task, error) {
	t := Task{Name: name, Category: Todo, Tags: tags}
	return t, t.Validate()
}

// ImpliedCategory derives the category from the structural fields.
func (t Task) ImpliedCategory() (Category, error) {
	switch {
	case t.Date.IsSet() && t.Start.IsSet() && t.End.IsSet():
		return Event, nil
	case t.Date.IsSet() && !t.Start.IsSet() && t.End.IsSet():
		return Deadline, nil
	case !t.Date.IsSet() && !t.Start.IsSet() && !t.End.IsSet():
		return Todo, nil
	case !t.Date.IsSet():
		return 0, &ValidationError{Field: "date", Err: errors.New("a task with a start or end time needs a date")}
	default:
		return 0, &ValidationError{Field: "end", Err: errors.New("a dated task needs an end time")}
	}
}

// Validate checks the name, the structure and start/end ordering. The
// stored category may lag the implied one until the book reclassifies.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Err: errors.New("task name cannot be empty")}
	}
	if _, err := t.ImpliedCategory(); err != nil {
		return err
	}
	if !t.Start.Before(t.End) {
		return &ValidationError{Field: "end", Err: errors.New("the end time cannot be earlier or equal to the start time")}
	}
	return nil
}

// OverdueAt computes the overdue status against now.
func (t Task) OverdueAt(now time.Time) Overdue {
	if !t.Date.IsSet() {
		return OverdueNone
	}
	switch rel := t.Date.DayRelation(now); {
	case rel < 0:
		return OverdueLate
	case rel > 0:
		return OverdueNone
	case t.End.PassedAt(now):
		return OverdueLate
	default:
		return OverdueImminent
	}
}

// Equal compares every field except tags and the derived overdue status.
func (t Task) Equal(o Task) bool {
	return t.Name == o.Name &&
		t.Category == o.Category &&
		t.Date == o.Date &&
		t.Start == o.Start &&
		t.End == o.End &&
		t.Completed == o.Completed
}

// Compare orders uncompleted tasks first, then by date, start and end.
func (t Task) Compare(o Task) int {
	if t.Completed != o.Completed {
		if t.Completed {
			return 1
		}
		return -1
	}
	if c := t.Date.Compare(o.Date); c != 0 {
		return c
	}
	if c := t.Start.Compare(o.Start); c != 0 {
		return c
	}
	return t.End.Compare(o.End)
}

// TagNames returns the sorted tag names.
func (t Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return names
}

// HasTag reports whether the task holds a tag with the given name.
func (t Task) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// Detach returns a copy whose tags are fresh handles, safe to hand out.
func (t Task) Detach() Task {
	cp := t
	cp.Tags = make([]*Tag, len(t.Tags))
	for i, tag := range t.Tags {
		cp.Tags[i] = &Tag{Name: tag.Name}
	}
	return cp
}

// Remap returns a copy whose tags are looked up in remap.
func (t Task) Remap(remap map[*Tag]*Tag) Task {
	cp := t
	cp.Tags = make([]*Tag, len(t.Tags))
	for i, tag := range t.Tags {
		if r, ok := remap[tag]; ok {
			cp.Tags[i] = r
		} else {
			cp.Tags[i] = &Tag{Name: tag.Name}
		}
	}
	return cp
}

// MatchesAny reports whether the task is uncompleted and any keyword
// occurs, case-insensitively, in its name, concrete temporal fields or tags.
func (t Task) MatchesAny(keywords []string) bool {
	if t.Completed {
		return false
	}
	fields := []string{strings.ToLower(t.Name)}
	if t.Date.IsSet() {
		fields = append(fields, t.Date.String())
	}
	if t.Start.IsSet() {
		fields = append(fields, t.Start.String())
	}
	if t.End.IsSet() {
		fields = append(fields, t.End.String())
	}
	for _, n := range t.TagNames() {
		fields = append(fields, strings.ToLower(n))
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(f, kw) {
				return true
			}
		}
	}
	return false
}

func (t Task) String() string {
	var b strings.Builder
	b.WriteString(t.Name)
	switch t.Category {
	case Event:
		fmt.Fprintf(&b, " [%s %s-%s]", t.Date, t.Start, t.End)
	case Deadline:
		fmt.Fprintf(&b, " [%s by %s]", t.Date, t.End)
	}
	for _, n := range t.TagNames() {
		b.WriteString(" #" + n)
	}
	return b.String()
}
