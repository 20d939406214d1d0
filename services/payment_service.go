package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"tiketons/internal/gateway/midtrans"
	"tiketons/internal/status"
	"tiketons/models"
	"tiketons/monitoring"
	"tiketons/utils"
)

const (
	orderIDMaxAttempts = 5

	// The processor rejects empty customer fields, but the caller does
	// not always supply them.
	fallbackCustomerName  = "Customer"
	fallbackCustomerEmail = "email@example.com"

	cstoreMessage = "Tiketons Payment"
)

// TransactionStore is the durable record of payment attempts.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Transition(ctx context.Context, orderID string, newStatus models.TransactionStatus) error
	Get(ctx context.Context, orderID string) (*models.Transaction, error)
}

// Gateway is the payment processor collaborator.
type Gateway interface {
	Charge(ctx context.Context, params *midtrans.ChargeParams) (*midtrans.ChargeResponse, error)
	VerifyNotification(body []byte) (*midtrans.Notification, error)
}

type PaymentService struct {
	Redis      *redis.Client
	gateway    Gateway
	store      TransactionStore
	breaker    *utils.CircuitBreaker
	metrics    *monitoring.Monitor
	sessionTTL time.Duration
}

func NewPaymentService(redisClient *redis.Client, gateway Gateway, store TransactionStore, metrics *monitoring.Monitor, sessionTTL time.Duration) *PaymentService {
	return &PaymentService{
		Redis:      redisClient,
		gateway:    gateway,
		store:      store,
		breaker:    utils.NewCircuitBreaker("midtrans-charge"),
		metrics:    metrics,
		sessionTTL: sessionTTL,
	}
}

// Charge runs the full charge flow: validate, assign an order id, create
// the charge with the processor, extract the payment reference, and record
// the transaction. The local write is best effort: once the processor has
// accepted the charge, the caller must receive the reference even when the
// audit row cannot be saved. Callbacks repair the missing row later.
func (s *PaymentService) Charge(ctx context.Context, req *models.ChargeRequest) (*models.ChargeResult, error) {
	if err := validateChargeRequest(req); err != nil {
		return nil, err
	}

	orderID, err := s.nextOrderID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("generated order id", "order_id", orderID, "payment_method", req.PaymentMethod, "amount", req.Amount)

	params := BuildChargeParams(orderID, req)

	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.Charge(ctx, params)
	})
	s.metrics.TrackGatewayLatency(time.Since(start))
	if err != nil {
		s.metrics.TrackCharge(string(req.PaymentMethod), "error")
		if !errors.Is(err, status.ErrGateway) {
			err = fmt.Errorf("%w: %v", status.ErrGateway, err)
		}
		return nil, err
	}
	resp := result.(*midtrans.ChargeResponse)

	info := ExtractPaymentInfo(resp, req.PaymentMethod)
	if info.Reference == "" {
		slog.Warn("charge response carried no payment reference",
			"order_id", orderID, "payment_method", req.PaymentMethod)
	}

	tx := &models.Transaction{
		OrderID:          orderID,
		UserID:           req.UserID,
		EventID:          req.EventID,
		EventName:        req.EventName,
		Amount:           req.Amount,
		PaymentMethod:    info.Method,
		PaymentReference: info.Reference,
		Tribune:          req.Tribune,
		Status:           models.StatusPending,
		CreatedAt:        time.Now(),
	}
	if err := s.store.Create(ctx, tx); err != nil {
		slog.Error("failed to persist transaction", "order_id", orderID, "error", err)
	}

	s.cacheSession(ctx, tx, resp.ExpiryTime)
	s.metrics.TrackCharge(info.Method, "created")

	return &models.ChargeResult{
		OrderID:          orderID,
		TotalAmount:      resp.GrossAmount,
		PaymentMethod:    info.Method,
		PaymentReference: info.Reference,
		ExpirationTime:   resp.ExpiryTime,
	}, nil
}

func validateChargeRequest(req *models.ChargeRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", status.ErrValidation)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unsupported payment method %q", status.ErrValidation, req.PaymentMethod)
	}
	return nil
}

// nextOrderID generates a short numeric order id, regenerating when the
// candidate already exists. The id space is only seconds-of-minute plus
// three random digits, so occasional collisions are expected. After the
// attempt budget the last candidate is used anyway; a residual collision
// surfaces in the best-effort create and in the processor's own duplicate
// order check.
func (s *PaymentService) nextOrderID(ctx context.Context) (string, error) {
	var orderID string
	for i := 0; i < orderIDMaxAttempts; i++ {
		id, err := utils.GenerateOrderID()
		if err != nil {
			return "", err
		}
		orderID = id

		if _, err := s.store.Get(ctx, id); errors.Is(err, status.ErrTransactionNotFound) {
			return id, nil
		}
	}
	return orderID, nil
}

// BuildChargeParams maps a charge request onto a processor instruction.
// Bank methods become bank_transfer charges; BCA additionally pins the
// requested virtual account to the order id because it is the one bank
// that does not otherwise return a predictable account number. Alfamart
// becomes a cstore charge with a display message.
func BuildChargeParams(orderID string, req *models.ChargeRequest) *midtrans.ChargeParams {
	customer := &midtrans.CustomerDetails{
		FirstName: req.CustomerName,
		Email:     req.CustomerEmail,
	}
	if customer.FirstName == "" {
		customer.FirstName = fallbackCustomerName
	}
	if customer.Email == "" {
		customer.Email = fallbackCustomerEmail
	}

	params := &midtrans.ChargeParams{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     orderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: customer,
	}

	switch {
	case req.PaymentMethod.IsBankTransfer():
		params.PaymentType = midtrans.PaymentTypeBankTransfer
		params.BankTransfer = &midtrans.BankTransfer{Bank: string(req.PaymentMethod)}
		if req.PaymentMethod == models.MethodBCA {
			params.BankTransfer.VANumber = orderID
		}
	case req.PaymentMethod == models.MethodAlfamart:
		params.PaymentType = midtrans.PaymentTypeCStore
		params.CStore = &midtrans.CStore{Store: string(models.MethodAlfamart), Message: cstoreMessage}
	}

	return params
}

// ExtractPaymentInfo normalizes the processor's method-dependent response
// shapes into one reference. The shapes are mutually exclusive and tried
// in order. Absence of a recognizable field is data, not failure: the
// charge exists either way, the caller just has no code to display.
func ExtractPaymentInfo(resp *midtrans.ChargeResponse, requested models.PaymentMethod) models.PaymentInfo {
	switch {
	case len(resp.VANumbers) > 0:
		return models.PaymentInfo{
			Reference: resp.VANumbers[0].VANumber,
			Method:    resp.VANumbers[0].Bank,
		}
	case resp.PermataVANumber != "":
		return models.PaymentInfo{Reference: resp.PermataVANumber, Method: string(requested)}
	case resp.PaymentCode != "":
		return models.PaymentInfo{Reference: resp.PaymentCode, Method: string(requested)}
	}

	return models.PaymentInfo{Method: string(requested)}
}

func (s *PaymentService) cacheSession(ctx context.Context, tx *models.Transaction, expiry string) {
	if s.Redis == nil {
		return
	}

	sessionKey := fmt.Sprintf("payment:%s", tx.OrderID)
	sessionData := map[string]any{
		"order_id":          tx.OrderID,
		"user_id":           tx.UserID,
		"event_id":          tx.EventID,
		"amount":            tx.Amount,
		"payment_method":    tx.PaymentMethod,
		"payment_reference": tx.PaymentReference,
		"status":            string(tx.Status),
		"expires_at":        expiry,
	}

	for k, v := range sessionData {
		s.Redis.HSet(ctx, sessionKey, k, v)
	}
	s.Redis.Expire(ctx, sessionKey, s.sessionTTL)
}

// GetSession returns the cached charge session, empty when expired or
// never cached.
func (s *PaymentService) GetSession(ctx context.Context, orderID string) map[string]string {
	return s.Redis.HGetAll(ctx, fmt.Sprintf("payment:%s", orderID)).Val()
}

func (s *PaymentService) GetTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	return s.store.Get(ctx, orderID)
}
