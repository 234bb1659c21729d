// Package sqlite provides SQLite-backed schedule storage for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hearthside/keeper/core"
)

// Store persists daily schedules in a local SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	createSQL := `CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		plan_date TEXT NOT NULL,
		task_name TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		task_type TEXT NOT NULL DEFAULT 'common',
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		scheduled_at TEXT NOT NULL,
		grace_minutes INTEGER NOT NULL DEFAULT 30
	)`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) AddTask(ctx context.Context, ownerID string, date time.Time, task core.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt any
	if task.CompletedAt != nil {
		completedAt = task.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_tasks (id, owner_id, plan_date, task_name, time_of_day, task_type, completed, completed_at, scheduled_at, grace_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, ownerID, date.Format("2006-01-02"),
		task.TaskName, task.Time, task.Type,
		task.Completed, completedAt,
		task.ScheduledAt.UTC().Format(time.RFC3339),
		task.GraceMinutes,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) CountRemaining(ctx context.Context, ownerID string, date time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scheduled_tasks WHERE owner_id = ? AND plan_date = ? AND completed = 0`,
		ownerID, date.Format("2006-01-02"),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// TasksFor returns the owner's tasks for the date ordered by time of day.
func (s *Store) TasksFor(ctx context.Context, ownerID string, date time.Time) ([]core.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_name, time_of_day, task_type, completed, completed_at, scheduled_at, grace_minutes
		 FROM scheduled_tasks WHERE owner_id = ? AND plan_date = ? ORDER BY time_of_day ASC`,
		ownerID, date.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []core.ScheduledTask
	for rows.Next() {
		var t core.ScheduledTask
		var completedAt sql.NullString
		var scheduledAt string
		if err := rows.Scan(&t.ID, &t.TaskName, &t.Time, &t.Type, &t.Completed, &completedAt, &scheduledAt, &t.GraceMinutes); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			ts, err := time.Parse(time.RFC3339, completedAt.String)
			if err == nil {
				t.CompletedAt = &ts
			}
		}
		if ts, err := time.Parse(time.RFC3339, scheduledAt); err == nil {
			t.ScheduledAt = ts
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
