package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"tiketons/internal/status"
	"tiketons/models"
)

type TicketStore struct {
	app core.App
}

func NewTicketStore(app core.App) *TicketStore {
	return &TicketStore{app: app}
}

// Insert creates one ticket row. The unique index on transaction_id is the
// issuance arbiter: a violation comes back as status.ErrTicketExists, which
// callers treat as "already issued", not as a failure.
func (s *TicketStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return fmt.Errorf("find tickets collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("transaction_id", ticket.TransactionID)
	record.Set("user_id", ticket.UserID)
	record.Set("event_name", ticket.EventName)
	record.Set("event_date", ticket.EventDate)
	record.Set("location", ticket.Location)
	record.Set("tribune", ticket.Tribune)
	record.Set("qr_code", ticket.QRCode)
	record.Set("is_used", ticket.IsUsed)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", status.ErrTicketExists, ticket.TransactionID)
		}
		return fmt.Errorf("save ticket for %s: %w", ticket.TransactionID, err)
	}

	return nil
}
