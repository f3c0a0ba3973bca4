package engine

import (
	"context"
	"sync"
	"time"
)

// DefaultScanInterval is how often the overdue scan runs.
const DefaultScanInterval = time.Second

// ScanOverdue recomputes the overdue status of dated tasks. When anything
// changed it emits one OverdueChanged and one StoreChanged and reports
// true. No other field is touched.
func (e *Engine) ScanOverdue() bool {
	e.mu.Lock()
	changed := e.book.RefreshOverdue(e.now())
	if len(changed) > 0 {
		e.pending = append(e.pending, OverdueChanged{Tasks: changed}, e.storeChanged())
	}
	e.mu.Unlock()

	if len(changed) == 0 {
		return false
	}
	e.logger.Debug("overdue set changed", "tasks", len(changed))
	e.flush()
	return true
}

// Scanner runs ScanOverdue on a ticker until stopped.
type Scanner struct {
	engine   *Engine
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScanner(e *Engine, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &Scanner{engine: e, interval: interval}
}

// Start scans once immediately and then on every tick. It returns at once;
// a second Start while running is a no-op.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

func (s *Scanner) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.engine.ScanOverdue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.ScanOverdue()
		}
	}
}

// Stop cancels the scan loop and waits for it to exit.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
