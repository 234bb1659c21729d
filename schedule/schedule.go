// Package schedule persists confirmed tasks to a per-user daily plan.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/hearthside/keeper/core"
)

// Store is the persistence surface for daily schedules. Implementations
// group tasks by owner and calendar date.
type Store interface {
	// AddTask appends a task to the owner's plan for the given date,
	// creating the plan if it does not exist yet.
	AddTask(ctx context.Context, ownerID string, date time.Time, task core.ScheduledTask) error
	// CountRemaining returns how many of the owner's tasks for the date
	// are not yet completed.
	CountRemaining(ctx context.Context, ownerID string, date time.Time) (int, error)
	Close() error
}

// DocID builds the canonical document key for an owner's daily plan.
func DocID(ownerID string, date time.Time) string {
	return ownerID + "_" + date.Format("02.01.2006")
}

// Memory is an in-process Store for tests and single-node development.
type Memory struct {
	mu    sync.Mutex
	plans map[string][]core.ScheduledTask
}

func NewMemory() *Memory {
	return &Memory{plans: make(map[string][]core.ScheduledTask)}
}

func (m *Memory) AddTask(ctx context.Context, ownerID string, date time.Time, task core.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := DocID(ownerID, date)
	m.plans[key] = append(m.plans[key], task)
	return nil
}

func (m *Memory) CountRemaining(ctx context.Context, ownerID string, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.plans[DocID(ownerID, date)] {
		if !t.Completed {
			n++
		}
	}
	return n, nil
}

// Tasks returns a copy of the owner's plan for the date.
func (m *Memory) Tasks(ownerID string, date time.Time) []core.ScheduledTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.plans[DocID(ownerID, date)]
	out := make([]core.ScheduledTask, len(src))
	copy(out, src)
	return out
}

func (m *Memory) Close() error { return nil }
