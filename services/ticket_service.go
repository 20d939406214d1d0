package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tiketons/internal/status"
	"tiketons/models"
	"tiketons/utils"
)

const (
	fallbackEventName = "Event Tiketons"
	fallbackLocation  = "-"
)

// TicketStore persists issued tickets.
type TicketStore interface {
	Insert(ctx context.Context, ticket *models.Ticket) error
}

// EventStore is the read-only events reference.
type EventStore interface {
	Get(ctx context.Context, id string) (*models.Event, error)
}

type TicketService struct {
	transactions TransactionStore
	tickets      TicketStore
	events       EventStore
}

func NewTicketService(transactions TransactionStore, tickets TicketStore, events EventStore) *TicketService {
	return &TicketService{
		transactions: transactions,
		tickets:      tickets,
		events:       events,
	}
}

// IssueIfAbsent creates the ticket for a paid transaction, at most once.
// A check-then-insert would race under concurrent callbacks, so the unique
// constraint on tickets.transaction_id is the only arbiter: a violation
// means another delivery already issued the ticket and is treated as
// success. Returns whether this call created the ticket.
func (s *TicketService) IssueIfAbsent(ctx context.Context, orderID string) (bool, error) {
	tx, err := s.transactions.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, status.ErrTransactionNotFound) {
			// The callback outran the best-effort transaction write.
			// Skip quietly; a redelivery after the row exists will
			// issue the ticket.
			slog.Warn("no transaction for ticket issuance", "order_id", orderID)
			return false, nil
		}
		return false, err
	}

	eventName, eventDate, location := s.resolveEventSnapshot(ctx, tx)

	code, err := utils.GenerateCode(4)
	if err != nil {
		return false, err
	}

	ticket := &models.Ticket{
		TransactionID: orderID,
		UserID:        tx.UserID,
		EventName:     eventName,
		EventDate:     eventDate,
		Location:      location,
		Tribune:       tx.Tribune,
		QRCode:        fmt.Sprintf("QR-%s-%s", orderID, code),
		IsUsed:        false,
	}

	if err := s.tickets.Insert(ctx, ticket); err != nil {
		if errors.Is(err, status.ErrTicketExists) {
			slog.Info("ticket already issued", "order_id", orderID)
			return false, nil
		}
		return false, err
	}

	slog.Info("ticket issued", "order_id", orderID, "event_name", eventName)
	return true, nil
}

// resolveEventSnapshot prefers the data already denormalized onto the
// transaction and falls back to the events collection, then to fixed
// defaults, so issuance still works when the event record is gone.
func (s *TicketService) resolveEventSnapshot(ctx context.Context, tx *models.Transaction) (string, time.Time, string) {
	eventName := tx.EventName
	eventDate := time.Now()
	location := fallbackLocation

	event, err := s.events.Get(ctx, tx.EventID)
	if err == nil {
		if eventName == "" || eventName == fallbackEventName {
			eventName = event.Name
		}
		if !event.Date.IsZero() {
			eventDate = event.Date
		}
		if event.Location != "" {
			location = event.Location
		}
	} else {
		slog.Warn("event lookup failed, issuing with fallback snapshot",
			"order_id", tx.OrderID, "event_id", tx.EventID, "error", err)
	}

	if eventName == "" {
		eventName = fallbackEventName
	}

	return eventName, eventDate, location
}
