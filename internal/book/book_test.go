package book

import (
	"errors"
	"testing"
	"time"

	"simply/internal/task"
)

func event(t *testing.T, name, date, start, end string, tags ...string) task.Task {
	t.Helper()
	d, err := task.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	s, err := task.ParseStart(start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := task.ParseEnd(end)
	if err != nil {
		t.Fatal(err)
	}
	tt, err := task.NewTags(tags...)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := task.NewEvent(name, d, s, e, tt)
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func deadline(t *testing.T, name, date, end string, tags ...string) task.Task {
	t.Helper()
	d, err := task.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	e, err := task.ParseEnd(end)
	if err != nil {
		t.Fatal(err)
	}
	tt, err := task.NewTags(tags...)
	if err != nil {
		t.Fatal(err)
	}
	dl, err := task.NewDeadline(name, d, e, tt)
	if err != nil {
		t.Fatal(err)
	}
	return dl
}

func todo(t *testing.T, name string, tags ...string) task.Task {
	t.Helper()
	tt, err := task.NewTags(tags...)
	if err != nil {
		t.Fatal(err)
	}
	td, err := task.NewTodo(name, tt)
	if err != nil {
		t.Fatal(err)
	}
	return td
}

func TestAddAndDuplicate(t *testing.T) {
	b := New()
	party := event(t, "beach party", "120716", "1600", "2200", "party")

	if err := b.Add(party); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if !b.Contains(party) {
		t.Fatal("book should contain the added task")
	}
	before := b.Snapshot()

	err := b.Add(party)
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("second Add() error = %v, want ErrDuplicateTask", err)
	}
	if !b.Equal(before) {
		t.Error("failed Add should leave the book unchanged")
	}
	if b.Count() != 1 {
		t.Errorf("Count() = %d, want 1", b.Count())
	}
}

func TestAddRejectsMismatchedCategory(t *testing.T) {
	b := New()
	wrong := todo(t, "swim")
	wrong.Category = task.Deadline
	var ve *task.ValidationError
	if err := b.Add(wrong); !errors.As(err, &ve) {
		t.Fatalf("Add() error = %v, want ValidationError", err)
	}
}

func TestAddInternsTags(t *testing.T) {
	b := New()
	if err := b.Add(todo(t, "a", "work")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(todo(t, "b", "work", "home")); err != nil {
		t.Fatal(err)
	}
	a := b.lists[task.Todo][0]
	c := b.lists[task.Todo][1]
	if a.Tags[0] != c.Tags[0] && a.Tags[0] != c.Tags[1] {
		t.Error("equal tags on different tasks should share one handle")
	}
	if got := b.Tags(); len(got) != 2 {
		t.Errorf("Tags() = %v, want 2 names", got)
	}
}

func TestRemoveAndComplete(t *testing.T) {
	b := New()
	report := deadline(t, "report", "120516", "1200")
	if err := b.Add(report); err != nil {
		t.Fatal(err)
	}

	if err := b.Complete(todo(t, "ghost")); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Complete(missing) = %v, want ErrTaskNotFound", err)
	}
	if err := b.Complete(report); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got := b.List(task.Deadline)[0]; !got.Completed {
		t.Error("task should be completed in place")
	}
	if err := b.Remove(report); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Remove(stale uncompleted copy) = %v, want ErrTaskNotFound", err)
	}
	report.Completed = true
	if err := b.Remove(report); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if b.Count() != 0 {
		t.Errorf("Count() = %d, want 0", b.Count())
	}
}

func TestListIsSorted(t *testing.T) {
	b := New()
	for _, dl := range []task.Task{
		deadline(t, "late", "030116", "1200"),
		deadline(t, "early", "010116", "1200"),
		deadline(t, "middle", "020116", "0900"),
	} {
		if err := b.Add(dl); err != nil {
			t.Fatal(err)
		}
	}
	var names []string
	for _, dl := range b.List(task.Deadline) {
		names = append(names, dl.Name)
	}
	want := []string{"early", "middle", "late"}
	if !equalStrings(names, want) {
		t.Errorf("List() order = %v, want %v", names, want)
	}
}

func TestEditFields(t *testing.T) {
	b := New()
	party := event(t, "party", "120716", "1600", "2200", "tag1")
	if err := b.Add(party); err != nil {
		t.Fatal(err)
	}

	edited, err := b.Edit(party, task.Event, Rename("BEACH parTy"), SetEnd("11pm"))
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if edited.Name != "BEACH parTy" || edited.End.String() != "2300" {
		t.Errorf("Edit() = %v", edited)
	}
	if !b.Contains(edited) || b.Contains(party) {
		t.Error("stored task should be replaced by the edited one")
	}
}

func TestEditValidationLeavesBookUnchanged(t *testing.T) {
	b := New()
	party := event(t, "party", "120716", "1600", "2200")
	if err := b.Add(party); err != nil {
		t.Fatal(err)
	}
	before := b.Snapshot()

	tests := []struct {
		name    string
		changes []Change
	}{
		{name: "end before start", changes: []Change{SetEnd("1500")}},
		{name: "bad date", changes: []Change{SetDate("310216")}},
		{name: "bad tag", changes: []Change{ReplaceTags("no spaces")}},
		{name: "rename missing tag", changes: []Change{RenameTag("ghost", "x")}},
		{name: "drop end", changes: []Change{Rename("ok"), SetEnd("no end")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Edit(party, task.Event, tt.changes...)
			var ve *task.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Edit() error = %v, want ValidationError", err)
			}
			if !b.Equal(before) {
				t.Error("book changed after failed edit")
			}
		})
	}

	if _, err := b.Edit(todo(t, "ghost"), task.Todo, Rename("x")); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Edit(missing) = %v, want ErrTaskNotFound", err)
	}
}

func TestEditRejectsDuplicate(t *testing.T) {
	b := New()
	if err := b.Add(todo(t, "a")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(todo(t, "b")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Edit(todo(t, "b"), task.Todo, Rename("a")); !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("Edit() error = %v, want ErrDuplicateTask", err)
	}
}

func TestEditTags(t *testing.T) {
	b := New()
	one := todo(t, "one", "work")
	two := todo(t, "two", "work", "home")
	for _, td := range []task.Task{one, two} {
		if err := b.Add(td); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := b.Edit(one, task.Todo, RenameTag("work", "job")); err != nil {
		t.Fatalf("RenameTag: %v", err)
	}
	for _, td := range b.List(task.Todo) {
		if td.HasTag("work") || !td.HasTag("job") {
			t.Errorf("%s tags = %v, want job instead of work", td.Name, td.TagNames())
		}
	}

	// Renaming onto an existing tag merges the handles.
	if _, err := b.Edit(two, task.Todo, RenameTag("job", "home")); err != nil {
		t.Fatalf("RenameTag merge: %v", err)
	}
	got := b.List(task.Todo)
	if names := got[1].TagNames(); !equalStrings(names, []string{"home"}) {
		t.Errorf("merged tags = %v, want [home]", names)
	}
	if !equalStrings(b.Tags(), []string{"home"}) {
		t.Errorf("registry = %v, want [home]", b.Tags())
	}

	edited, err := b.Edit(one, task.Todo, AddTags("urgent", "home"))
	if err != nil {
		t.Fatal(err)
	}
	if names := edited.TagNames(); !equalStrings(names, []string{"home", "urgent"}) {
		t.Errorf("AddTags result = %v", names)
	}
	edited, err = b.Edit(one, task.Todo, ReplaceTags("solo"))
	if err != nil {
		t.Fatal(err)
	}
	if names := edited.TagNames(); !equalStrings(names, []string{"solo"}) {
		t.Errorf("ReplaceTags result = %v", names)
	}
}

func TestReclassifyNoop(t *testing.T) {
	b := New()
	for _, tk := range []task.Task{
		event(t, "e", "120716", "1600", "2200"),
		deadline(t, "d", "120716", "2200"),
		todo(t, "t"),
	} {
		if err := b.Add(tk); err != nil {
			t.Fatal(err)
		}
	}
	moves, err := b.Reclassify()
	if err != nil || len(moves) != 0 {
		t.Fatalf("Reclassify() = %v, %v; want no moves", moves, err)
	}
	for _, c := range task.Categories {
		if b.Len(c) != 1 {
			t.Errorf("Len(%s) = %d, want 1", c, b.Len(c))
		}
	}
}

func TestReclassifyEventWithoutStart(t *testing.T) {
	b := New()
	party := event(t, "party", "120716", "1600", "2200")
	if err := b.Add(party); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(todo(t, "swim")); err != nil {
		t.Fatal(err)
	}
	total := b.Count()

	if _, err := b.Edit(party, task.Event, SetStart("no start")); err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	moves, err := b.Reclassify()
	if err != nil {
		t.Fatalf("Reclassify() error: %v", err)
	}
	if len(moves) != 1 || moves[0].Category != task.Deadline || moves[0].Index != 0 {
		t.Fatalf("moves = %+v, want one move to deadline index 0", moves)
	}
	if b.Len(task.Event) != 0 || b.Len(task.Deadline) != 1 {
		t.Errorf("events=%d deadlines=%d, want 0 and 1", b.Len(task.Event), b.Len(task.Deadline))
	}
	if b.Count() != total {
		t.Errorf("Count() = %d, want %d", b.Count(), total)
	}
}

func TestReclassifyDateChanges(t *testing.T) {
	b := New()
	swim := todo(t, "swim")
	report := deadline(t, "report", "120516", "1200")
	for _, tk := range []task.Task{swim, report} {
		if err := b.Add(tk); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := b.Edit(swim, task.Todo, SetDate("010116")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Edit(report, task.Deadline, SetDate("no date")); err != nil {
		t.Fatal(err)
	}
	moves, err := b.Reclassify()
	if err != nil || len(moves) != 2 {
		t.Fatalf("Reclassify() = %v, %v; want two moves", moves, err)
	}
	dl := b.List(task.Deadline)
	if len(dl) != 1 || dl[0].Name != "swim" || dl[0].End.String() != task.DefaultEnd {
		t.Errorf("deadlines = %v, want swim ending %s", dl, task.DefaultEnd)
	}
	td := b.List(task.Todo)
	if len(td) != 1 || td[0].Name != "report" {
		t.Errorf("todos = %v, want report", td)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	b := New()
	one := todo(t, "one", "work")
	if err := b.Add(one); err != nil {
		t.Fatal(err)
	}
	snap := b.Snapshot()

	if _, err := b.Edit(one, task.Todo, RenameTag("work", "job")); err != nil {
		t.Fatal(err)
	}
	if got := snap.List(task.Todo)[0].TagNames(); !equalStrings(got, []string{"work"}) {
		t.Errorf("snapshot tags = %v, want [work]", got)
	}

	b.RestoreFrom(snap)
	if !b.Equal(snap) {
		t.Error("RestoreFrom should make the books equal")
	}
	if err := b.Add(todo(t, "two")); err != nil {
		t.Fatal(err)
	}
	if snap.Count() != 1 {
		t.Error("restored book must not alias the snapshot")
	}
}

func TestRefreshOverdue(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)
	b := New()
	if changed := b.RefreshOverdue(now); len(changed) != 0 {
		t.Fatalf("empty book reported %d changes", len(changed))
	}

	late := deadline(t, "late", task.DateOf(now.AddDate(0, 0, -1)).String(), "1200")
	soon := deadline(t, "soon", task.DateOf(now).String(), "2359")
	future := event(t, "future", task.DateOf(now.AddDate(0, 0, 1)).String(), "0900", "1000")
	for _, tk := range []task.Task{late, soon, future, todo(t, "todo")} {
		if err := b.Add(tk); err != nil {
			t.Fatal(err)
		}
	}

	changed := b.RefreshOverdue(now)
	if len(changed) != 2 {
		t.Fatalf("RefreshOverdue() changed %d tasks, want 2", len(changed))
	}
	if again := b.RefreshOverdue(now); len(again) != 0 {
		t.Errorf("second pass changed %d tasks, want 0", len(again))
	}
	got := b.List(task.Deadline)
	if got[0].Overdue != task.OverdueLate || got[1].Overdue != task.OverdueImminent {
		t.Errorf("overdue = %v, %v; want late, imminent", got[0].Overdue, got[1].Overdue)
	}
	if got[0].Completed || got[1].Completed {
		t.Error("RefreshOverdue must not touch completion")
	}
	if status, ok := b.OverdueOf(late); !ok || status != task.OverdueLate {
		t.Errorf("OverdueOf(late) = %v, %v; want late, true", status, ok)
	}
	if _, ok := b.OverdueOf(todo(t, "missing")); ok {
		t.Error("OverdueOf should miss an absent task")
	}
}
