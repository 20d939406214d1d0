package services

import (
	"fmt"

	pubnub "github.com/pubnub/go"
)

// PubNubPublisher pushes payment events to the per-user channel the mobile
// client subscribes to.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) PublishPaymentSuccess(userID, orderID string) {
	channel := fmt.Sprintf("user-%s", userID)
	p.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":     "payment_success",
			"order_id": orderID,
		}).
		Execute()
}
