package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/hearthside/keeper/core"
	"github.com/hearthside/keeper/schedule"
)

func TestDocID(t *testing.T) {
	date := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if got := schedule.DocID("user-7", date); got != "user-7_05.03.2024" {
		t.Errorf("DocID = %q, want %q", got, "user-7_05.03.2024")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := schedule.NewMemory()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	done := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	tasks := []core.ScheduledTask{
		{ID: "a", TaskName: "Take pills", Time: "08:00"},
		{ID: "b", TaskName: "Walk", Time: "10:00", Completed: true, CompletedAt: &done},
		{ID: "c", TaskName: "Call daughter", Time: "17:00"},
	}
	for _, task := range tasks {
		if err := store.AddTask(ctx, "u", date, task); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}

	n, err := store.CountRemaining(ctx, "u", date)
	if err != nil {
		t.Fatalf("CountRemaining: %v", err)
	}
	if n != 2 {
		t.Errorf("remaining = %d, want 2", n)
	}

	if n, _ := store.CountRemaining(ctx, "someone-else", date); n != 0 {
		t.Errorf("other owner remaining = %d, want 0", n)
	}
	if n, _ := store.CountRemaining(ctx, "u", date.AddDate(0, 0, 1)); n != 0 {
		t.Errorf("other day remaining = %d, want 0", n)
	}
}
