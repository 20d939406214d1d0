package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the internal payment lifecycle state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusSuccess   TransactionStatus = "SUCCESS"
	StatusChallenge TransactionStatus = "CHALLENGE"
	StatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether a later notification must never overwrite the
// status. CHALLENGE can still be promoted or failed by a follow-up.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type PaymentMethod string

const (
	MethodBCA      PaymentMethod = "bca"
	MethodBNI      PaymentMethod = "bni"
	MethodBRI      PaymentMethod = "bri"
	MethodPermata  PaymentMethod = "permata"
	MethodAlfamart PaymentMethod = "alfamart"
)

func (m PaymentMethod) IsBankTransfer() bool {
	switch m {
	case MethodBCA, MethodBNI, MethodBRI, MethodPermata:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m.IsBankTransfer() || m == MethodAlfamart
}

// Transaction is one payment attempt, keyed by the server-generated order
// id. Rows are created by the charge flow, mutated only by the notification
// reconciler and never deleted.
type Transaction struct {
	OrderID          string            `json:"order_id"`
	UserID           string            `json:"user_id"`
	EventID          string            `json:"event_id"`
	EventName        string            `json:"event_name,omitempty"`
	Amount           int64             `json:"amount"`
	PaymentMethod    string            `json:"payment_method"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	Tribune          string            `json:"tribune"`
	Status           TransactionStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ChargeRequest is the client-facing charge body. It never carries an
// order id; the server assigns one.
type ChargeRequest struct {
	Amount        int64         `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	UserID        string        `json:"user_id"`
	EventID       string        `json:"event_id"`
	EventName     string        `json:"event_name,omitempty"`
	Tribune       string        `json:"tribune"`
}

type ChargeResult struct {
	OrderID          string          `json:"order_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	ExpirationTime   string          `json:"expiration_time,omitempty"`
}

// PaymentInfo is the normalized reference extracted from a charge
// response. Reference is empty when the processor returned no recognizable
// code; Method falls back to the requested method in that case.
type PaymentInfo struct {
	Reference string `json:"payment_reference"`
	Method    string `json:"payment_method"`
}
