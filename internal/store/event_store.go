package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"tiketons/internal/status"
	"tiketons/models"
)

// EventStore is a read-only view over the events collection, used to
// resolve snapshot data at ticket issuance.
type EventStore struct {
	app core.App
}

func NewEventStore(app core.App) *EventStore {
	return &EventStore{app: app}
}

func (s *EventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrEventNotFound, id)
	}

	return &models.Event{
		ID:       record.Id,
		Name:     record.GetString("name"),
		Date:     record.GetDateTime("date").Time(),
		Location: record.GetString("location"),
	}, nil
}
