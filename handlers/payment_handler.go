package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tiketons/internal/status"
	"tiketons/models"
	"tiketons/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	notifications  *services.NotificationService
}

func NewPaymentHandler(paymentService *services.PaymentService, notifications *services.NotificationService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		notifications:  notifications,
	}
}

// Charge - create a payment instruction with the processor
func (h *PaymentHandler) Charge(e *core.RequestEvent) error {
	var req models.ChargeRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.paymentService.Charge(e.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, status.ErrValidation) {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"status":  false,
				"message": err.Error(),
			})
		}
		slog.Error("charge failed", "payment_method", req.PaymentMethod, "error", err)
		return e.JSON(http.StatusInternalServerError, map[string]any{
			"status":  false,
			"message": chargeFailureMessage(err),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  true,
		"message": "Transaction created",
		"data":    result,
	})
}

// chargeFailureMessage maps a charge failure onto the response body. The
// processor's reported reason goes back to the caller; anything that did
// not classify as a gateway error stays generic so internals never leak.
func chargeFailureMessage(err error) string {
	if errors.Is(err, status.ErrGateway) {
		return err.Error()
	}
	return "Payment processor error"
}

// Notification - processor status webhook. The sender retries on any
// non-2xx, so only verification and parse failures may reject; everything
// else, including callbacks for unknown orders, acknowledges with 200.
func (h *PaymentHandler) Notification(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]any{
			"status":  false,
			"message": "unreadable body",
		})
	}

	if err := h.notifications.HandleNotification(e.Request.Context(), body); err != nil {
		slog.Warn("notification rejected", "error", err)
		return e.JSON(http.StatusBadRequest, map[string]any{
			"status":  false,
			"message": "invalid notification",
		})
	}

	return e.String(http.StatusOK, "OK")
}

// GetPaymentDetails - cached charge session for the client's payment page
func (h *PaymentHandler) GetPaymentDetails(e *core.RequestEvent) error {
	orderID := e.Request.PathValue("orderId")
	ctx := e.Request.Context()

	session := h.paymentService.GetSession(ctx, orderID)
	if len(session) == 0 {
		return apis.NewNotFoundError("Payment not found", nil)
	}

	return e.JSON(http.StatusOK, session)
}

// CheckPaymentStatus - current stored transaction status
func (h *PaymentHandler) CheckPaymentStatus(e *core.RequestEvent) error {
	orderID := e.Request.PathValue("orderId")
	ctx := e.Request.Context()

	tx, err := h.paymentService.GetTransaction(ctx, orderID)
	if err != nil {
		return apis.NewNotFoundError("Payment not found", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order_id": orderID,
		"status":   tx.Status,
	})
}
