package status

import "errors"

var (
	ErrValidation            = errors.New("payment: invalid charge request")
	ErrGateway               = errors.New("gateway: charge request failed")
	ErrMalformedNotification = errors.New("gateway: malformed notification body")
	ErrSignatureMismatch     = errors.New("gateway: notification signature mismatch")
	ErrDuplicateOrderID      = errors.New("store: duplicate order id")
	ErrTransactionNotFound   = errors.New("store: transaction not found")
	ErrEventNotFound         = errors.New("store: event not found")
	ErrTicketExists          = errors.New("store: ticket already issued")
)
