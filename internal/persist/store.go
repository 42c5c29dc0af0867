package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the agent roster and the alert history in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id               TEXT PRIMARY KEY,
			position         INTEGER NOT NULL,
			name             TEXT NOT NULL,
			role             TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL DEFAULT 'idle',
			tasks_completed  INTEGER NOT NULL DEFAULT 0,
			avg_time_ms      INTEGER NOT NULL DEFAULT 0,
			errors           INTEGER NOT NULL DEFAULT 0,
			progress         REAL NOT NULL DEFAULT 0,
			current_task     TEXT NOT NULL DEFAULT '',
			updated_at       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			message     TEXT NOT NULL,
			severity    TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_agents_position ON agents(position);
		CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
	`)
	return err
}

// UpsertAgent inserts or updates the agent. New agents are appended to the
// end of the roster; existing ones keep their position.
func (s *Store) UpsertAgent(a Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO agents (id, position, name, role, status, tasks_completed, avg_time_ms, errors, progress, current_task, updated_at)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM agents), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			status = excluded.status,
			tasks_completed = excluded.tasks_completed,
			avg_time_ms = excluded.avg_time_ms,
			errors = excluded.errors,
			progress = excluded.progress,
			current_task = excluded.current_task,
			updated_at = excluded.updated_at
	`, a.ID, a.Name, a.Role, a.Status, a.TasksCompleted, a.AvgTimeMs, a.Errors, a.Progress, a.CurrentTask,
		a.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert agent %s: %w", a.ID, err)
	}
	return nil
}

// DeleteAgent removes the agent; a missing id is not an error.
func (s *Store) DeleteAgent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete agent %s: %w", id, err)
	}
	return nil
}

// ListAgents returns the roster ordered by position.
func (s *Store) ListAgents() ([]Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, position, name, role, status, tasks_completed, avg_time_ms, errors, progress, current_task, updated_at
		FROM agents ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		var updated string
		if err := rows.Scan(&a.ID, &a.Position, &a.Name, &a.Role, &a.Status, &a.TasksCompleted,
			&a.AvgTimeMs, &a.Errors, &a.Progress, &a.CurrentTask, &updated); err != nil {
			return nil, err
		}
		a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// AddAlert records an alert.
func (s *Store) AddAlert(message, severity string) (*AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO alerts (message, severity, created_at) VALUES (?, ?, ?)`,
		message, severity, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("add alert: %w", err)
	}
	id, _ := res.LastInsertId()
	return &AlertRecord{ID: id, Message: message, Severity: severity, CreatedAt: now}, nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Store) RecentAlerts(limit int) ([]AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, message, severity, created_at FROM alerts
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var a AlertRecord
		var created string
		if err := rows.Scan(&a.ID, &a.Message, &a.Severity, &created); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
