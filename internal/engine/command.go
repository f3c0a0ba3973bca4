package engine

import (
	"fmt"
	"strings"

	"simply/internal/book"
	"simply/internal/task"
)

// Command is one of the typed commands below.
type Command interface {
	Name() string
}

// Ref addresses a task by its 1-based position in the visible list of
// a category.
type Ref struct {
	Category task.Category
	Index    int
}

func (r Ref) String() string { return fmt.Sprintf("%s%d", r.Category.Letter(), r.Index) }

type (
	Add struct {
		Task task.Task
	}
	Delete struct {
		Targets []Ref
	}
	Edit struct {
		Target  Ref
		Changes []book.Change
	}
	MarkDone struct {
		Targets []Ref
	}
	// Find shows uncompleted tasks matching any keyword.
	Find struct {
		Keywords []string
	}
	// List shows tasks by completion and clears any find.
	List struct {
		Show Show
	}
	Undo struct {
		N int
	}
	Redo struct {
		N int
	}
	// Configure replaces the opaque config value. It is undoable.
	Configure struct {
		Config []byte
	}
)

func (Add) Name() string       { return "add" }
func (Delete) Name() string    { return "delete" }
func (Edit) Name() string      { return "edit" }
func (MarkDone) Name() string  { return "done" }
func (Find) Name() string      { return "find" }
func (List) Name() string      { return "list" }
func (Undo) Name() string      { return historyUndo }
func (Redo) Name() string      { return historyRedo }
func (Configure) Name() string { return "storage" }

// Show selects which tasks a List command displays.
type Show int

const (
	ShowUncompleted Show = iota
	ShowCompleted
	ShowAll
)

type view struct {
	show     Show
	keywords []string
}

func (v view) includes(t task.Task) bool {
	if len(v.keywords) > 0 {
		return t.MatchesAny(v.keywords)
	}
	switch v.show {
	case ShowCompleted:
		return t.Completed
	case ShowAll:
		return true
	default:
		return !t.Completed
	}
}

func (e *Engine) execute(cmd Command) (Result, []Event, error) {
	switch c := cmd.(type) {
	case Add:
		return e.add(c)
	case Delete:
		return e.delete(c)
	case Edit:
		return e.edit(c)
	case MarkDone:
		return e.markDone(c)
	case Find:
		e.view = view{keywords: append([]string(nil), c.Keywords...)}
		return Result{Message: e.listedSummary()}, nil, nil
	case List:
		e.view = view{show: c.Show}
		return Result{Message: e.listedSummary()}, nil, nil
	case Undo:
		fresh, err := e.undoSteps(c.N)
		if err != nil {
			return Result{}, nil, err
		}
		e.view = view{}
		return Result{Message: "Undo successful."}, e.travelled(fresh), nil
	case Redo:
		fresh, err := e.redoSteps(c.N)
		if err != nil {
			return Result{}, nil, err
		}
		e.view = view{}
		return Result{Message: "Redo successful."}, e.travelled(fresh), nil
	case Configure:
		err := e.mutate(c.Name(), func() error {
			e.config = cloneBytes(c.Config)
			return nil
		})
		if err != nil {
			return Result{}, nil, err
		}
		return Result{Message: "Config updated."}, []Event{e.storeChanged()}, nil
	default:
		return Result{}, nil, fmt.Errorf("unknown command %T", cmd)
	}
}

// mutate wraps a forward command: checkpoint, run, then commit or roll
// back.
func (e *Engine) mutate(name string, fn func() error) error {
	e.recordBeforeMutation()
	if err := fn(); err != nil {
		e.rollback()
		return err
	}
	e.commit(name)
	return nil
}

func (e *Engine) add(c Add) (Result, []Event, error) {
	if err := e.mutate(c.Name(), func() error { return e.book.Add(c.Task) }); err != nil {
		return Result{}, nil, err
	}
	e.view = view{}
	t := c.Task.Detach()
	msg := fmt.Sprintf("New %s added: %s", t.Category, t)
	return Result{Message: msg}, []Event{e.storeChanged(), e.moved(t)}, nil
}

func (e *Engine) delete(c Delete) (Result, []Event, error) {
	var removed []string
	err := e.mutate(c.Name(), func() error {
		targets, err := e.resolve(c.Targets)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := e.book.Remove(t); err != nil {
				return fmt.Errorf("delete %q: %w", t.Name, err)
			}
			removed = append(removed, t.Name)
		}
		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}
	msg := fmt.Sprintf("Deleted task: %s", strings.Join(removed, ", "))
	return Result{Message: msg}, []Event{e.storeChanged()}, nil
}

func (e *Engine) markDone(c MarkDone) (Result, []Event, error) {
	var done []string
	err := e.mutate(c.Name(), func() error {
		targets, err := e.resolve(c.Targets)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := e.book.Complete(t); err != nil {
				return fmt.Errorf("mark %q done: %w", t.Name, err)
			}
			done = append(done, t.Name)
		}
		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}
	e.view = view{}
	msg := fmt.Sprintf("Marked task as done: %s", strings.Join(done, ", "))
	return Result{Message: msg}, []Event{e.storeChanged()}, nil
}

func (e *Engine) edit(c Edit) (Result, []Event, error) {
	var (
		edited task.Task
		moves  []book.Move
	)
	err := e.mutate(c.Name(), func() error {
		targets, err := e.resolve([]Ref{c.Target})
		if err != nil {
			return err
		}
		edited, err = e.book.Edit(targets[0], c.Target.Category, c.Changes...)
		if err != nil {
			return err
		}
		moves, err = e.book.Reclassify()
		return err
	})
	if err != nil {
		return Result{}, nil, err
	}
	e.view = view{}

	events := []Event{e.storeChanged()}
	for _, m := range moves {
		events = append(events, e.moved(m.Task))
		if m.Task.Equal(withCategory(edited, m.Category)) {
			edited.Category = m.Category
		}
	}
	if len(moves) == 0 {
		events = append(events, e.moved(edited))
	}

	changes := make([]string, len(c.Changes))
	for i, ch := range c.Changes {
		changes[i] = ch.String()
	}
	msg := fmt.Sprintf("Edited task %s: %s (%s)", c.Target, edited, strings.Join(changes, "; "))
	return Result{Message: msg}, events, nil
}

func withCategory(t task.Task, c task.Category) task.Task {
	t.Category = c
	return t
}

func (e *Engine) listedSummary() string {
	return fmt.Sprintf("%d events, %d deadlines and %d todos listed!",
		len(e.visible(task.Event)), len(e.visible(task.Deadline)), len(e.visible(task.Todo)))
}
