// Package midtrans wraps the two Core API surfaces this system needs:
// creating a charge and verifying status webhooks.
package midtrans

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"tiketons/internal/status"
)

const (
	PaymentTypeBankTransfer = "bank_transfer"
	PaymentTypeCStore       = "cstore"
)

type (
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	}

	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	}

	BankTransfer struct {
		Bank string `json:"bank"`

		// VANumber requests a specific virtual account instead of a
		// processor-assigned one. Only some banks honor it.
		VANumber string `json:"va_number,omitempty"`
	}

	CStore struct {
		Store   string `json:"store"`
		Message string `json:"message,omitempty"`
	}

	// ChargeParams is the processor-level instruction. Exactly one of
	// BankTransfer or CStore is set, matching PaymentType.
	ChargeParams struct {
		PaymentType        string             `json:"payment_type"`
		TransactionDetails TransactionDetails `json:"transaction_details"`
		CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
		BankTransfer       *BankTransfer      `json:"bank_transfer,omitempty"`
		CStore             *CStore            `json:"cstore,omitempty"`
	}

	VANumber struct {
		Bank     string `json:"bank"`
		VANumber string `json:"va_number"`
	}

	// ChargeResponse carries the method-dependent response shapes: a
	// va_numbers list for most banks, a dedicated permata field, or a
	// payment_code for retail stores.
	ChargeResponse struct {
		StatusCode        string          `json:"status_code"`
		StatusMessage     string          `json:"status_message"`
		TransactionID     string          `json:"transaction_id"`
		OrderID           string          `json:"order_id"`
		GrossAmount       decimal.Decimal `json:"gross_amount"`
		PaymentType       string          `json:"payment_type"`
		TransactionStatus string          `json:"transaction_status"`
		FraudStatus       string          `json:"fraud_status,omitempty"`
		VANumbers         []VANumber      `json:"va_numbers,omitempty"`
		PermataVANumber   string          `json:"permata_va_number,omitempty"`
		PaymentCode       string          `json:"payment_code,omitempty"`
		ExpiryTime        string          `json:"expiry_time,omitempty"`
	}
)

// Charge creates a payment instruction on the Core API. Failures are
// reported in-band through status_code, not the HTTP status.
func (c *Client) Charge(ctx context.Context, params *ChargeParams) (*ChargeResponse, error) {
	var resp ChargeResponse
	if err := c.do(ctx, http.MethodPost, "/v2/charge", params, &resp); err != nil {
		return nil, err
	}

	if resp.StatusCode != "200" && resp.StatusCode != "201" {
		return nil, fmt.Errorf("%w: %s %s", status.ErrGateway, resp.StatusCode, resp.StatusMessage)
	}

	return &resp, nil
}
