// Package firestore stores daily schedules as Firestore documents, one
// document per owner per day.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/hearthside/keeper/core"
	"github.com/hearthside/keeper/schedule"
)

const collection = "schedules"

type planDoc struct {
	UserID    string               `firestore:"userId"`
	Date      string               `firestore:"date"`
	Status    string               `firestore:"status"`
	Tasks     []core.ScheduledTask `firestore:"tasks"`
	CreatedAt string               `firestore:"created_at"`
}

// Store implements schedule.Store on top of Cloud Firestore.
type Store struct {
	client *firestore.Client
	clock  core.Clock
}

func New(client *firestore.Client) *Store {
	return &Store{client: client, clock: core.UTCNow}
}

func (s *Store) AddTask(ctx context.Context, ownerID string, date time.Time, task core.ScheduledTask) error {
	doc := s.client.Collection(collection).Doc(schedule.DocID(ownerID, date))

	snap, err := doc.Get(ctx)
	if snap != nil && !snap.Exists() {
		_, err := doc.Set(ctx, planDoc{
			UserID:    ownerID,
			Date:      date.Format("2006-01-02"),
			Status:    "active",
			Tasks:     []core.ScheduledTask{task},
			CreatedAt: s.clock().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	_, err = doc.Update(ctx, []firestore.Update{
		{Path: "tasks", Value: firestore.ArrayUnion(task)},
	})
	if err != nil {
		return fmt.Errorf("append task: %w", err)
	}
	return nil
}

func (s *Store) CountRemaining(ctx context.Context, ownerID string, date time.Time) (int, error) {
	snap, err := s.client.Collection(collection).Doc(schedule.DocID(ownerID, date)).Get(ctx)
	if snap != nil && !snap.Exists() {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load plan: %w", err)
	}

	var plan planDoc
	if err := snap.DataTo(&plan); err != nil {
		return 0, fmt.Errorf("decode plan: %w", err)
	}
	n := 0
	for _, t := range plan.Tasks {
		if !t.Completed {
			n++
		}
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
