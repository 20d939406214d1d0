package midtrans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiketons/internal/status"
)

const testServerKey = "SB-Mid-server-testkey"

func newTestClient(baseURL string) *Client {
	return NewClient(&Config{
		BaseURL:   baseURL,
		ServerKey: testServerKey,
		ClientKey: "SB-Mid-client-testkey",
	})
}

func TestCharge_BankTransferResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/charge", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Basic ")

		var params ChargeParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, PaymentTypeBankTransfer, params.PaymentType)

		json.NewEncoder(w).Encode(map[string]any{
			"status_code":        "201",
			"status_message":     "Success, Bank Transfer transaction is created",
			"order_id":           params.TransactionDetails.OrderID,
			"gross_amount":       "50000.00",
			"payment_type":       "bank_transfer",
			"transaction_status": "pending",
			"va_numbers": []map[string]string{
				{"bank": "bca", "va_number": "14045"},
			},
			"expiry_time": "2026-09-01 10:00:00",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	resp, err := client.Charge(context.Background(), &ChargeParams{
		PaymentType: PaymentTypeBankTransfer,
		TransactionDetails: TransactionDetails{
			OrderID:     "14045",
			GrossAmount: 50000,
		},
		BankTransfer: &BankTransfer{Bank: "bca", VANumber: "14045"},
	})

	require.NoError(t, err)
	assert.Equal(t, "14045", resp.OrderID)
	assert.True(t, resp.GrossAmount.Equal(decimal.NewFromInt(50000)))
	require.Len(t, resp.VANumbers, 1)
	assert.Equal(t, "bca", resp.VANumbers[0].Bank)
	assert.Equal(t, "14045", resp.VANumbers[0].VANumber)
	assert.Equal(t, "2026-09-01 10:00:00", resp.ExpiryTime)
}

func TestCharge_InBandFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The Core API reports validation failures with HTTP 200.
		json.NewEncoder(w).Encode(map[string]any{
			"status_code":    "406",
			"status_message": "The request could not be completed due to a conflict",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Charge(context.Background(), &ChargeParams{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrGateway))
	assert.Contains(t, err.Error(), "406")
}

func TestCharge_ConnectionError(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Charge(context.Background(), &ChargeParams{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrGateway))
}

func notificationBody(t *testing.T, orderID, statusCode, grossAmount, transactionStatus, fraudStatus, signature string) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"order_id":           orderID,
		"status_code":        statusCode,
		"gross_amount":       grossAmount,
		"transaction_status": transactionStatus,
		"fraud_status":       fraudStatus,
		"signature_key":      signature,
	})
	require.NoError(t, err)
	return body
}

func TestVerifyNotification_ValidSignature(t *testing.T) {
	client := newTestClient("")

	sig := SignaturePayload("14045", "200", "50000.00", testServerKey)
	body := notificationBody(t, "14045", "200", "50000.00", "settlement", "", sig)

	n, err := client.VerifyNotification(body)

	require.NoError(t, err)
	assert.Equal(t, "14045", n.OrderID)
	assert.Equal(t, "settlement", n.TransactionStatus)
}

func TestVerifyNotification_SignatureMismatch(t *testing.T) {
	client := newTestClient("")

	body := notificationBody(t, "14045", "200", "50000.00", "settlement", "", "forged")

	_, err := client.VerifyNotification(body)

	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrSignatureMismatch))
}

func TestVerifyNotification_TamperedAmount(t *testing.T) {
	client := newTestClient("")

	sig := SignaturePayload("14045", "200", "50000.00", testServerKey)
	body := notificationBody(t, "14045", "200", "1.00", "settlement", "", sig)

	_, err := client.VerifyNotification(body)

	assert.True(t, errors.Is(err, status.ErrSignatureMismatch))
}

func TestVerifyNotification_MalformedBody(t *testing.T) {
	client := newTestClient("")

	_, err := client.VerifyNotification([]byte("not json"))
	assert.True(t, errors.Is(err, status.ErrMalformedNotification))

	_, err = client.VerifyNotification([]byte(`{"transaction_status":"settlement"}`))
	assert.True(t, errors.Is(err, status.ErrMalformedNotification))
}
