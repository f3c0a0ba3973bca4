package book

import (
	"fmt"

	"simply/internal/task"
)

// Field identifies what an edit Change touches.
type Field int

const (
	FieldName Field = iota
	FieldDate
	FieldStart
	FieldEnd
	FieldTags
	FieldAddTags
	FieldRenameTag
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "des"
	case FieldDate:
		return "date"
	case FieldStart:
		return "start"
	case FieldEnd:
		return "end"
	case FieldTags:
		return "tag"
	case FieldAddTags:
		return "add"
	case FieldRenameTag:
		return "rename tag"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Change is one field mutation applied by Edit.
type Change struct {
	Field  Field
	Value  string
	Values []string
	From   string
}

func Rename(name string) Change          { return Change{Field: FieldName, Value: name} }
func SetDate(raw string) Change          { return Change{Field: FieldDate, Value: raw} }
func SetStart(raw string) Change         { return Change{Field: FieldStart, Value: raw} }
func SetEnd(raw string) Change           { return Change{Field: FieldEnd, Value: raw} }
func ReplaceTags(names ...string) Change { return Change{Field: FieldTags, Values: names} }
func AddTags(names ...string) Change     { return Change{Field: FieldAddTags, Values: names} }

// RenameTag renames the tag from, held by the edited task, to to. The
// rename is visible on every task holding the tag.
func RenameTag(from, to string) Change {
	return Change{Field: FieldRenameTag, From: from, Value: to}
}

func (c Change) String() string {
	switch c.Field {
	case FieldTags, FieldAddTags:
		return fmt.Sprintf("%s %v", c.Field, c.Values)
	case FieldRenameTag:
		return fmt.Sprintf("tag %s>%s", c.From, c.Value)
	default:
		return fmt.Sprintf("%s %s", c.Field, c.Value)
	}
}

type tagRename struct{ from, to string }

// Edit applies changes to the stored task equal to target in category and
// returns the edited task. Nothing is modified unless every change is
// valid. The stored category is left alone; call Reclassify afterwards.
func (b *Book) Edit(target task.Task, category task.Category, changes ...Change) (task.Task, error) {
	target.Category = category
	i := b.find(category, target)
	if i < 0 {
		return task.Task{}, ErrTaskNotFound
	}
	stored := b.lists[category][i]

	work := *stored
	work.Tags = append([]*task.Tag(nil), stored.Tags...)
	var renames []tagRename
	for _, ch := range changes {
		rn, err := applyChange(&work, ch)
		if err != nil {
			return task.Task{}, err
		}
		if rn != nil {
			renames = append(renames, *rn)
		}
	}
	if err := work.Validate(); err != nil {
		return task.Task{}, err
	}

	dest, _ := work.ImpliedCategory()
	probe := work
	probe.Category = dest
	for _, other := range b.lists[dest] {
		if other != stored && other.Equal(probe) {
			return task.Task{}, fmt.Errorf("edit %q: %w", stored.Name, ErrDuplicateTask)
		}
	}

	work.Tags = b.tags.InternAll(work.Tags)
	*stored = work
	for _, rn := range renames {
		b.renameTag(rn.from, rn.to)
	}
	b.sort(category)
	return stored.Detach(), nil
}

func applyChange(t *task.Task, ch Change) (*tagRename, error) {
	switch ch.Field {
	case FieldName:
		t.Name = ch.Value
	case FieldDate:
		d, err := task.ParseDate(ch.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case !d.IsSet():
			t.Start, t.End = task.Start{}, task.End{}
		case !t.End.IsSet():
			t.End, _ = task.ParseEnd("")
		}
		t.Date = d
	case FieldStart:
		s, err := task.ParseStart(ch.Value)
		if err != nil {
			return nil, err
		}
		t.Start = s
	case FieldEnd:
		e, err := task.ParseEnd(ch.Value)
		if err != nil {
			return nil, err
		}
		t.End = e
	case FieldTags:
		tags, err := task.NewTags(ch.Values...)
		if err != nil {
			return nil, err
		}
		t.Tags = tags
	case FieldAddTags:
		tags, err := task.NewTags(ch.Values...)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			if !t.HasTag(tag.Name) {
				t.Tags = append(t.Tags, tag)
			}
		}
	case FieldRenameTag:
		if !t.HasTag(ch.From) {
			return nil, &task.ValidationError{Field: "tag", Err: fmt.Errorf("task has no tag %q", ch.From)}
		}
		to, err := task.NewTag(ch.Value)
		if err != nil {
			return nil, err
		}
		return &tagRename{from: ch.From, to: to.Name}, nil
	default:
		return nil, &task.ValidationError{Field: "field", Err: fmt.Errorf("unknown edit %s", ch.Field)}
	}
	return nil, nil
}

// renameTag renames a registry tag and repoints every task when the new
// name was already interned.
func (b *Book) renameTag(from, to string) {
	old, survivor, ok := b.tags.Rename(from, to)
	if !ok || old == survivor {
		return
	}
	for _, c := range task.Categories {
		for _, t := range b.lists[c] {
			t.Tags = replaceTag(t.Tags, old, survivor)
		}
	}
}

func replaceTag(tags []*task.Tag, old, survivor *task.Tag) []*task.Tag {
	out := tags[:0]
	hasSurvivor := false
	for _, tag := range tags {
		if tag == survivor {
			hasSurvivor = true
		}
	}
	for _, tag := range tags {
		if tag == old {
			if hasSurvivor {
				continue
			}
			tag = survivor
			hasSurvivor = true
		}
		out = append(out, tag)
	}
	return out
}
