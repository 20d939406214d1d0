package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tiketons/internal/gateway/midtrans"
	"tiketons/internal/status"
	"tiketons/models"
)

// fakeTicketIssuer simulates the unique constraint on issued tickets:
// the first call for an order creates, every later call reports the
// ticket already exists.
type fakeTicketIssuer struct {
	mu       sync.Mutex
	issued   map[string]bool
	calls    int
	notFound bool
	err      error
}

func newFakeTicketIssuer() *fakeTicketIssuer {
	return &fakeTicketIssuer{issued: map[string]bool{}}
}

func (f *fakeTicketIssuer) IssueIfAbsent(ctx context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.notFound || f.issued[orderID] {
		return false, nil
	}
	f.issued[orderID] = true
	return true, nil
}

func (f *fakeTicketIssuer) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issued)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishPaymentSuccess(userID, orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, userID+":"+orderID)
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func setupTestNotificationService() (*NotificationService, *MockGateway, *MockTransactionStore, *fakeTicketIssuer, *fakePublisher) {
	gateway := &MockGateway{}
	store := &MockTransactionStore{}
	issuer := newFakeTicketIssuer()
	publisher := &fakePublisher{}

	service := &NotificationService{
		gateway:  gateway,
		store:    store,
		tickets:  issuer,
		realtime: publisher,
	}

	return service, gateway, store, issuer, publisher
}

func TestResolveFinalStatus(t *testing.T) {
	tests := []struct {
		transactionStatus string
		fraudStatus       string
		want              models.TransactionStatus
	}{
		{"capture", "accept", models.StatusSuccess},
		{"capture", "challenge", models.StatusChallenge},
		{"capture", "", models.StatusPending},
		{"capture", "deny", models.StatusPending},
		{"settlement", "", models.StatusSuccess},
		{"settlement", "challenge", models.StatusSuccess},
		{"cancel", "", models.StatusFailed},
		{"deny", "", models.StatusFailed},
		{"expire", "", models.StatusFailed},
		{"pending", "", models.StatusPending},
		{"refund", "", models.StatusPending},
		{"", "", models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.transactionStatus+"/"+tt.fraudStatus, func(t *testing.T) {
			got := ResolveFinalStatus(tt.transactionStatus, tt.fraudStatus)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleNotification_RejectsInvalidSignature(t *testing.T) {
	service, gateway, store, _, _ := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).
		Return(nil, status.ErrSignatureMismatch)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrSignatureMismatch))
	store.AssertNotCalled(t, "Transition")
}

func TestHandleNotification_SettlementIssuesTicket(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusSuccess).Return(nil)
	store.On("Get", mock.Anything, "14045").
		Return(&models.Transaction{OrderID: "14045", UserID: "user-1"}, nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Equal(t, 1, issuer.created())
	assert.Equal(t, []string{"user-1:14045"}, publisher.events)
}

func TestHandleNotification_CaptureChallenge(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusChallenge).Return(nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, issuer.calls)
	assert.Zero(t, publisher.count())
}

func TestHandleNotification_ExpireFails(t *testing.T) {
	service, gateway, store, issuer, _ := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "expire",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusFailed).Return(nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, issuer.calls)
}

func TestHandleNotification_PendingAppliesNothing(t *testing.T) {
	service, gateway, store, issuer, _ := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "pending",
	}, nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	store.AssertNotCalled(t, "Transition")
	assert.Zero(t, issuer.calls)
}

func TestHandleNotification_UnknownStatusAppliesNothing(t *testing.T) {
	service, gateway, store, _, _ := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "partial_refund",
	}, nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	store.AssertNotCalled(t, "Transition")
}

// An order id the store has never seen must still be acknowledged:
// returning an error would only make the processor redeliver a callback
// that can never succeed.
func TestHandleNotification_UnknownOrderAcknowledged(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()
	issuer.notFound = true

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "99999",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "99999", models.StatusSuccess).Return(nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, issuer.created())
	assert.Zero(t, publisher.count())
}

func TestHandleNotification_DuplicateDeliveryIssuesOnce(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusSuccess).Return(nil)
	store.On("Get", mock.Anything, "14045").
		Return(&models.Transaction{OrderID: "14045", UserID: "user-1"}, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, service.HandleNotification(context.Background(), []byte(`{}`)))
	}

	assert.Equal(t, 3, issuer.calls)
	assert.Equal(t, 1, issuer.created())
	assert.Equal(t, 1, publisher.count())
}

func TestHandleNotification_TransitionErrorStillAcks(t *testing.T) {
	service, gateway, store, issuer, _ := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusSuccess).
		Return(errors.New("db locked"))

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, issuer.calls)
}

func TestHandleNotification_IssuanceErrorStillAcks(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()
	issuer.err = errors.New("db locked")

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusSuccess).Return(nil)

	err := service.HandleNotification(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, publisher.count())
}

func TestHandleNotification_ConcurrentCallbacks(t *testing.T) {
	service, gateway, store, issuer, publisher := setupTestNotificationService()

	gateway.On("VerifyNotification", mock.Anything).Return(&midtrans.Notification{
		OrderID:           "14045",
		TransactionStatus: "settlement",
	}, nil)
	store.On("Transition", mock.Anything, "14045", models.StatusSuccess).Return(nil)
	store.On("Get", mock.Anything, "14045").
		Return(&models.Transaction{OrderID: "14045", UserID: "user-1"}, nil)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- service.HandleNotification(context.Background(), []byte(`{}`))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, issuer.created())
	assert.Equal(t, 1, publisher.count())
}
