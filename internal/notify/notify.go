// Package notify raises desktop notifications when tasks turn imminent or
// late.
package notify

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"

	"simply/internal/config"
	"simply/internal/engine"
	"simply/internal/task"
)

const title = "simply"

// SendFunc delivers one notification.
type SendFunc func(title, message string) error

func desktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

type Notifier struct {
	mu      sync.Mutex
	enabled bool
	send    SendFunc
	logger  *log.Logger
}

type Option func(*Notifier)

// WithSender replaces the desktop notifier.
func WithSender(send SendFunc) Option {
	return func(n *Notifier) { n.send = send }
}

func New(enabled bool, logger *log.Logger, opts ...Option) *Notifier {
	n := &Notifier{enabled: enabled, send: desktop, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle is an engine.Listener. StoreChanged refreshes the notify switch
// from the config; OverdueChanged raises one notification per
// uncompleted task that became imminent or late.
func (n *Notifier) Handle(ev engine.Event) {
	switch ev := ev.(type) {
	case engine.StoreChanged:
		cfg, err := config.Decode(ev.Config)
		if err != nil {
			return
		}
		n.mu.Lock()
		n.enabled = cfg.Notify
		n.mu.Unlock()
	case engine.OverdueChanged:
		n.mu.Lock()
		enabled := n.enabled
		n.mu.Unlock()
		if !enabled {
			return
		}
		for _, t := range ev.Tasks {
			msg, ok := message(t)
			if !ok {
				continue
			}
			if err := n.send(title, msg); err != nil {
				n.logger.Warn("notification failed", "task", t.Name, "err", err)
			}
		}
	}
}

func message(t task.Task) (string, bool) {
	if t.Completed {
		return "", false
	}
	switch t.Overdue {
	case task.OverdueImminent:
		return fmt.Sprintf("Due today: %s (by %s)", t.Name, t.End), true
	case task.OverdueLate:
		return fmt.Sprintf("Overdue: %s", t.Name), true
	default:
		return "", false
	}
}
