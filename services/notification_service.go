package services

import (
	"context"
	"log/slog"

	"tiketons/models"
	"tiketons/monitoring"
)

// TicketIssuer creates the downstream ticket for a paid transaction at
// most once.
type TicketIssuer interface {
	IssueIfAbsent(ctx context.Context, orderID string) (bool, error)
}

// RealtimePublisher pushes payment events to the paying user's channel.
type RealtimePublisher interface {
	PublishPaymentSuccess(userID, orderID string)
}

// NotificationService consumes processor status callbacks and drives the
// transaction state machine.
type NotificationService struct {
	gateway  Gateway
	store    TransactionStore
	tickets  TicketIssuer
	realtime RealtimePublisher
	metrics  *monitoring.Monitor
}

func NewNotificationService(gateway Gateway, store TransactionStore, tickets TicketIssuer, realtime RealtimePublisher, metrics *monitoring.Monitor) *NotificationService {
	return &NotificationService{
		gateway:  gateway,
		store:    store,
		tickets:  tickets,
		realtime: realtime,
		metrics:  metrics,
	}
}

// HandleNotification consumes one callback body. Delivery is at-least-once
// and unordered, so every step must tolerate repeats: the status update is
// guarded at the row level and issuance relies on the unique constraint on
// tickets.transaction_id. A returned error means the callback itself was
// unacceptable and the sender should redeliver; persistence problems after
// a valid callback are logged and acknowledged instead, so a data issue
// cannot turn into an endless retry storm.
func (s *NotificationService) HandleNotification(ctx context.Context, body []byte) error {
	n, err := s.gateway.VerifyNotification(body)
	if err != nil {
		s.metrics.TrackNotification("invalid", "rejected")
		return err
	}

	final := ResolveFinalStatus(n.TransactionStatus, n.FraudStatus)
	slog.Info("payment notification",
		"order_id", n.OrderID,
		"transaction_status", n.TransactionStatus,
		"fraud_status", n.FraudStatus,
		"final_status", final,
	)

	if final == models.StatusPending {
		// Nothing to apply; acknowledge so the processor stops resending.
		s.metrics.TrackNotification(n.TransactionStatus, "noop")
		return nil
	}

	if err := s.store.Transition(ctx, n.OrderID, final); err != nil {
		slog.Error("failed to update transaction status",
			"order_id", n.OrderID, "status", final, "error", err)
		s.metrics.TrackNotification(n.TransactionStatus, "error")
		return nil
	}

	if final == models.StatusSuccess {
		created, err := s.tickets.IssueIfAbsent(ctx, n.OrderID)
		if err != nil {
			slog.Error("ticket issuance failed", "order_id", n.OrderID, "error", err)
			s.metrics.TrackNotification(n.TransactionStatus, "error")
			return nil
		}
		if created {
			s.metrics.TrackTicketIssued()
			if s.realtime != nil {
				if tx, err := s.store.Get(ctx, n.OrderID); err == nil {
					s.realtime.PublishPaymentSuccess(tx.UserID, n.OrderID)
				}
			}
		}
	}

	s.metrics.TrackNotification(n.TransactionStatus, "applied")
	return nil
}

// ResolveFinalStatus maps the processor's reported statuses onto the
// internal state machine. Unrecognized codes resolve to PENDING, which
// applies no change: an unknown code must never corrupt state.
func ResolveFinalStatus(transactionStatus, fraudStatus string) models.TransactionStatus {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "accept":
			return models.StatusSuccess
		case "challenge":
			return models.StatusChallenge
		}
		return models.StatusPending
	case "settlement":
		return models.StatusSuccess
	case "cancel", "deny", "expire":
		return models.StatusFailed
	}
	return models.StatusPending
}
