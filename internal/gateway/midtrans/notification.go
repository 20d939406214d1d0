package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"tiketons/internal/status"
)

// Notification is a status webhook body. GrossAmount stays a raw string
// because it participates byte-for-byte in the signature.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// VerifyNotification parses a webhook body and checks its authenticity.
// The signature is sha512 over order_id + status_code + gross_amount +
// server key. Fails closed: no state may change on a mismatch.
func (c *Client) VerifyNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedNotification, err)
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return nil, status.ErrMalformedNotification
	}

	expected := SignaturePayload(n.OrderID, n.StatusCode, n.GrossAmount, c.serverKey)
	if subtle.ConstantTimeCompare([]byte(n.SignatureKey), []byte(expected)) != 1 {
		return nil, fmt.Errorf("%w: order_id %s", status.ErrSignatureMismatch, n.OrderID)
	}

	return &n, nil
}

// SignaturePayload computes the hex sha512 webhook signature.
func SignaturePayload(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}
