package service

import (
	"context"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/pricing"
)

const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
	PaymentFailed  = "failed"
)

// CheckoutRequest carries what a gateway needs to start collecting payment
type CheckoutRequest struct {
	Order      *model.Order
	User       *model.User
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the hosted payment page a gateway opened for an order
type CheckoutSession struct {
	Reference string
	URL       string
}

// GatewayPayment is a gateway's view of the money collected for an order.
// Amount is in minor units of Currency.
type GatewayPayment struct {
	Reference string
	Status    string
	Amount    int64
	Currency  string
	PaidAt    time.Time
	Raw       []byte
}

// PaymentGateway executes charges and refunds for one provider
type PaymentGateway interface {
	Name() pricing.Gateway
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// Lookup asks the provider for the current state of the order's payment
	Lookup(ctx context.Context, o *model.Order) (*GatewayPayment, error)
	Refund(ctx context.Context, o *model.Order) error
}

// PaymentSettler applies gateway outcomes to orders. Webhook handlers call it.
type PaymentSettler interface {
	SettlePayment(ctx context.Context, orderID string, p *GatewayPayment) error
	CloseOrder(ctx context.Context, orderID, status string) error
}

// allocate splits total across weights in proportion, giving the rounding
// remainder to the last share so the shares always sum to total.
func allocate(total int64, weights []int64) []int64 {
	shares := make([]int64, len(weights))
	if len(weights) == 0 {
		return shares
	}
	var sum int64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		shares[len(shares)-1] = total
		return shares
	}
	var given int64
	for i, w := range weights[:len(weights)-1] {
		shares[i] = total * w / sum
		given += shares[i]
	}
	shares[len(shares)-1] = total - given
	return shares
}
