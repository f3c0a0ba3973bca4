package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"simply/internal/book"
	"simply/internal/task"
)

type Store struct {
	db   *sql.DB
	path string
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}
	return s, nil
}

// Path is the db path the store was opened with.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category INTEGER NOT NULL,
	name TEXT NOT NULL,
	date TEXT NOT NULL DEFAULT '',
	start_at TEXT NOT NULL DEFAULT '',
	end_at TEXT NOT NULL DEFAULT '',
	done INTEGER NOT NULL DEFAULT 0
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"tags":     "ALTER TABLE tasks ADD COLUMN tags TEXT NOT NULL DEFAULT '';",
		"position": "ALTER TABLE tasks ADD COLUMN position INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// LoadBook reads every stored task into a fresh book. A row the book
// rejects fails the whole load.
func (s *Store) LoadBook() (*book.Book, error) {
	rows, err := s.db.Query(`SELECT id, category, name, date, start_at, end_at, done, tags FROM tasks ORDER BY category, position, id;`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	b := book.New()
	for rows.Next() {
		var (
			id, category, doneInt int
			name, date, start     string
			end, tags             string
		)
		if err := rows.Scan(&id, &category, &name, &date, &start, &end, &doneInt, &tags); err != nil {
			return nil, err
		}
		t, err := decodeTask(task.Category(category), name, date, start, end, tags)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", id, err)
		}
		t.Completed = doneInt == 1
		if err := b.Add(t); err != nil {
			return nil, fmt.Errorf("task %d: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// SaveBook replaces the stored tasks with the contents of b in one
// transaction.
func (s *Store) SaveBook(b *book.Book) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks;`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (category, name, date, start_at, end_at, done, tags, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range task.Categories {
		for i, t := range b.List(c) {
			done := 0
			if t.Completed {
				done = 1
			}
			_, err := stmt.Exec(int(c), t.Name, dateText(t.Date), startText(t.Start), endText(t.End),
				done, strings.Join(t.TagNames(), " "), i)
			if err != nil {
				return fmt.Errorf("save %q: %w", t.Name, err)
			}
		}
	}
	return tx.Commit()
}

func decodeTask(c task.Category, name, date, start, end, tags string) (task.Task, error) {
	t := task.Task{Name: name, Category: c}
	var err error
	if date != "" {
		if t.Date, err = task.ParseDate(date); err != nil {
			return t, err
		}
	}
	if start != "" {
		if t.Start, err = task.ParseStart(start); err != nil {
			return t, err
		}
	}
	if end != "" {
		if t.End, err = task.ParseEnd(end); err != nil {
			return t, err
		}
	}
	if t.Tags, err = task.NewTags(strings.Fields(tags)...); err != nil {
		return t, err
	}
	return t, nil
}

func dateText(d task.Date) string {
	if !d.IsSet() {
		return ""
	}
	return d.String()
}

func startText(s task.Start) string {
	if !s.IsSet() {
		return ""
	}
	return s.String()
}

func endText(e task.End) string {
	if !e.IsSet() {
		return ""
	}
	return e.String()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
