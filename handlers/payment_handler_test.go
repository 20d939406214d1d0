package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"tiketons/internal/status"
)

func TestChargeFailureMessage_PropagatesGatewayReason(t *testing.T) {
	err := fmt.Errorf("%w: 406 transaction is denied", status.ErrGateway)

	msg := chargeFailureMessage(err)

	assert.Equal(t, err.Error(), msg)
	assert.Contains(t, msg, "transaction is denied")
}

func TestChargeFailureMessage_HidesUnclassifiedErrors(t *testing.T) {
	msg := chargeFailureMessage(errors.New("dial tcp 10.0.0.5: connection reset"))

	assert.Equal(t, "Payment processor error", msg)
	assert.NotContains(t, msg, "10.0.0.5")
}
