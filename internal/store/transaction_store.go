// Package store backs the payment core's storage collaborators with
// PocketBase collections.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"tiketons/internal/status"
	"tiketons/models"
)

type TransactionStore struct {
	app core.App
}

func NewTransactionStore(app core.App) *TransactionStore {
	return &TransactionStore{app: app}
}

// Create appends one transaction row. A duplicate order id is reported as
// status.ErrDuplicateOrderID so the caller can decide whether to swallow it.
func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	collection, err := s.app.FindCollectionByNameOrId("transactions")
	if err != nil {
		return fmt.Errorf("find transactions collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("order_id", tx.OrderID)
	record.Set("user_id", tx.UserID)
	record.Set("event_id", tx.EventID)
	record.Set("event_name", tx.EventName)
	record.Set("amount", tx.Amount)
	record.Set("payment_method", tx.PaymentMethod)
	record.Set("payment_reference", tx.PaymentReference)
	record.Set("tribune", tx.Tribune)
	record.Set("status", string(tx.Status))

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", status.ErrDuplicateOrderID, tx.OrderID)
		}
		return fmt.Errorf("save transaction %s: %w", tx.OrderID, err)
	}

	return nil
}

// Transition updates the status of one transaction by order id. Unknown
// order ids are a no-op: callbacks can arrive for rows the best-effort
// create never persisted. SUCCESS and FAILED rows are excluded in SQL so a
// late or duplicate callback can never regress a terminal state, and
// concurrent callbacks for the same order serialize on the row update.
func (s *TransactionStore) Transition(ctx context.Context, orderID string, newStatus models.TransactionStatus) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE transactions SET status = {:status} WHERE order_id = {:orderId} AND status NOT IN ('SUCCESS', 'FAILED')",
	).Bind(dbx.Params{
		"status":  string(newStatus),
		"orderId": orderID,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("transition transaction %s to %s: %w", orderID, newStatus, err)
	}

	return nil
}

func (s *TransactionStore) Get(ctx context.Context, orderID string) (*models.Transaction, error) {
	record, err := s.app.FindFirstRecordByData("transactions", "order_id", orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrTransactionNotFound, orderID)
	}

	return &models.Transaction{
		OrderID:          record.GetString("order_id"),
		UserID:           record.GetString("user_id"),
		EventID:          record.GetString("event_id"),
		EventName:        record.GetString("event_name"),
		Amount:           int64(record.GetInt("amount")),
		PaymentMethod:    record.GetString("payment_method"),
		PaymentReference: record.GetString("payment_reference"),
		Tribune:          record.GetString("tribune"),
		Status:           models.TransactionStatus(record.GetString("status")),
		CreatedAt:        record.GetDateTime("created").Time(),
	}, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "validation_not_unique")
}
