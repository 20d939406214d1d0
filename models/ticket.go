package models

import (
	"time"
)

// Ticket is the artifact issued once per successful transaction. The
// storage layer enforces uniqueness on TransactionID; usage/redemption is
// handled elsewhere.
type Ticket struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	EventName     string    `json:"event_name"`
	EventDate     time.Time `json:"event_date"`
	Location      string    `json:"location"`
	Tribune       string    `json:"tribune"`
	QRCode        string    `json:"qr_code"`
	IsUsed        bool      `json:"is_used"`
}
