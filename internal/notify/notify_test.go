package notify

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"simply/internal/config"
	"simply/internal/engine"
	"simply/internal/task"
)

type recorder struct {
	messages []string
	err      error
}

func (r *recorder) send(_, message string) error {
	r.messages = append(r.messages, message)
	return r.err
}

func deadline(t *testing.T, name string, overdue task.Overdue, completed bool) task.Task {
	t.Helper()
	d, _ := task.ParseDate("181026")
	e, _ := task.ParseEnd("1800")
	dl, err := task.NewDeadline(name, d, e, nil)
	if err != nil {
		t.Fatal(err)
	}
	dl.Overdue = overdue
	dl.Completed = completed
	return dl
}

func TestHandleOverdueChanged(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want string
	}{
		{name: "imminent", task: deadline(t, "report", task.OverdueImminent, false), want: "Due today: report (by 1800)"},
		{name: "late", task: deadline(t, "report", task.OverdueLate, false), want: "Overdue: report"},
		{name: "cleared", task: deadline(t, "report", task.OverdueNone, false)},
		{name: "completed", task: deadline(t, "report", task.OverdueLate, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			n := New(true, log.New(io.Discard), WithSender(rec.send))
			n.Handle(engine.OverdueChanged{Tasks: []task.Task{tt.task}})

			if tt.want == "" {
				if len(rec.messages) != 0 {
					t.Errorf("sent %v, want nothing", rec.messages)
				}
				return
			}
			if len(rec.messages) != 1 || rec.messages[0] != tt.want {
				t.Errorf("sent %v, want %q", rec.messages, tt.want)
			}
		})
	}
}

func TestConfigSwitchesNotifications(t *testing.T) {
	rec := &recorder{}
	n := New(true, log.New(io.Discard), WithSender(rec.send))
	late := engine.OverdueChanged{Tasks: []task.Task{deadline(t, "x", task.OverdueLate, false)}}

	cfg := config.Default()
	cfg.Notify = false
	data, _ := config.Encode(cfg)
	n.Handle(engine.StoreChanged{Config: data})
	n.Handle(late)
	if len(rec.messages) != 0 {
		t.Fatalf("notified while disabled: %v", rec.messages)
	}

	cfg.Notify = true
	data, _ = config.Encode(cfg)
	n.Handle(engine.StoreChanged{Config: data})
	n.Handle(late)
	if len(rec.messages) != 1 {
		t.Errorf("sent %d notifications, want 1", len(rec.messages))
	}
}

func TestSendFailureIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("no notification daemon")}
	n := New(true, log.New(io.Discard), WithSender(rec.send))
	n.Handle(engine.OverdueChanged{Tasks: []task.Task{
		deadline(t, "a", task.OverdueLate, false),
		deadline(t, "b", task.OverdueImminent, false),
	}})
	if len(rec.messages) != 2 {
		t.Errorf("sent %d notifications, want 2", len(rec.messages))
	}
}
