package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"simply/internal/config"
	"simply/internal/engine"
)

// Persister writes every StoreChanged event to SQLite and to the config
// file. When db_path changes the new database is opened and the old one
// closed. Failures are logged and the next event tries again.
type Persister struct {
	mu         sync.Mutex
	store      *Store
	configPath string
	logger     *log.Logger
}

// NewPersister takes ownership of store.
func NewPersister(store *Store, configPath string, logger *log.Logger) *Persister {
	return &Persister{store: store, configPath: configPath, logger: logger}
}

// Handle is an engine.Listener.
func (p *Persister) Handle(ev engine.Event) {
	sc, ok := ev.(engine.StoreChanged)
	if !ok {
		return
	}
	if err := p.persist(sc); err != nil {
		p.logger.Error("persist failed", "err", err)
	}
}

func (p *Persister) persist(sc engine.StoreChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := config.Decode(sc.Config)
	if err != nil {
		return err
	}
	if err := p.writeConfig(sc.Config); err != nil {
		return err
	}

	dbPath := config.ResolvePath(p.configPath, cfg.DBPath)
	if p.store == nil || p.store.Path() != dbPath {
		next, err := Open(dbPath)
		if err != nil {
			return fmt.Errorf("switch database to %s: %w", dbPath, err)
		}
		if p.store != nil {
			p.logger.Info("storage moved", "from", p.store.Path(), "to", dbPath)
			p.store.Close()
		}
		p.store = next
	}
	if err := p.store.SaveBook(sc.Book); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	p.logger.Debug("tasks saved", "db", dbPath, "tasks", sc.Book.Count())
	return nil
}

func (p *Persister) writeConfig(data []byte) error {
	if p.configPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.configPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p.configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (p *Persister) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
