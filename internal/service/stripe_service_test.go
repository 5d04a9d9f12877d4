package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type settleCall struct {
	OrderID string
	Payment *GatewayPayment
}

type closeCall struct {
	OrderID, Status string
}

type fakeSettler struct {
	err     error
	settled []settleCall
	closed  []closeCall
}

func (s *fakeSettler) SettlePayment(_ context.Context, orderID string, p *GatewayPayment) error {
	s.settled = append(s.settled, settleCall{orderID, p})
	return s.err
}

func (s *fakeSettler) CloseOrder(_ context.Context, orderID, status string) error {
	s.closed = append(s.closed, closeCall{orderID, status})
	return nil
}

func sessionEvent(t *testing.T, typ string, session map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return stripe.Event{
		ID:      "evt_test",
		Type:    stripe.EventType(typ),
		Created: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC).Unix(),
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestStripeWebhookSettlesPaidSession(t *testing.T) {
	settler := &fakeSettler{}
	h := NewStripeWebhook("whsec_test", settler, zerolog.Nop())

	err := h.handleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", map[string]any{
		"id":                  "cs_test_1",
		"client_reference_id": "order-1",
		"payment_status":      "paid",
		"amount_total":        10320,
		"currency":            "usd",
	}))
	require.NoError(t, err)
	require.Len(t, settler.settled, 1)
	call := settler.settled[0]
	assert.Equal(t, "order-1", call.OrderID)
	assert.Equal(t, PaymentPaid, call.Payment.Status)
	assert.Equal(t, int64(10320), call.Payment.Amount)
	assert.Equal(t, "USD", call.Payment.Currency)
	assert.Equal(t, "cs_test_1", call.Payment.Reference)
	assert.Equal(t, 2026, call.Payment.PaidAt.UTC().Year())
}

func TestStripeWebhookUsesMetadataOrderID(t *testing.T) {
	settler := &fakeSettler{}
	h := NewStripeWebhook("whsec_test", settler, zerolog.Nop())

	err := h.handleEvent(context.Background(), sessionEvent(t, "checkout.session.async_payment_succeeded", map[string]any{
		"id":             "cs_test_2",
		"payment_status": "paid",
		"amount_total":   500,
		"currency":       "eur",
		"metadata":       map[string]string{"order_id": "order-7"},
	}))
	require.NoError(t, err)
	require.Len(t, settler.settled, 1)
	assert.Equal(t, "order-7", settler.settled[0].OrderID)
}

func TestStripeWebhookWaitsForDelayedPayment(t *testing.T) {
	settler := &fakeSettler{}
	h := NewStripeWebhook("whsec_test", settler, zerolog.Nop())

	err := h.handleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", map[string]any{
		"id":                  "cs_test_3",
		"client_reference_id": "order-3",
		"payment_status":      "unpaid",
	}))
	require.NoError(t, err)
	assert.Empty(t, settler.settled)
}

func TestStripeWebhookClosesOrders(t *testing.T) {
	settler := &fakeSettler{}
	h := NewStripeWebhook("whsec_test", settler, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, h.handleEvent(ctx, sessionEvent(t, "checkout.session.expired", map[string]any{
		"id": "cs_a", "client_reference_id": "order-a",
	})))
	require.NoError(t, h.handleEvent(ctx, sessionEvent(t, "checkout.session.async_payment_failed", map[string]any{
		"id": "cs_b", "client_reference_id": "order-b",
	})))
	require.NoError(t, h.handleEvent(ctx, sessionEvent(t, "customer.created", map[string]any{"id": "cus_1"})))

	assert.Equal(t, []closeCall{
		{"order-a", model.OrderStatusExpired},
		{"order-b", model.OrderStatusFailed},
	}, settler.closed)
}

func TestStripeWebhookSettleErrors(t *testing.T) {
	paid := map[string]any{"id": "cs_x", "client_reference_id": "order-x", "payment_status": "paid"}

	for _, benign := range []error{ErrOrderNotFound, ErrOrderNotPending, ErrPaymentMismatch} {
		h := NewStripeWebhook("whsec_test", &fakeSettler{err: benign}, zerolog.Nop())
		assert.NoError(t, h.handleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", paid)), benign.Error())
	}

	h := NewStripeWebhook("whsec_test", &fakeSettler{err: errors.New("db down")}, zerolog.Nop())
	assert.Error(t, h.handleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", paid)))
}

func TestStripeHandleWebhookSignature(t *testing.T) {
	const secret = "whsec_test_secret"
	settler := &fakeSettler{}
	h := NewStripeWebhook(secret, settler, zerolog.Nop())

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2020-08-27",
		"created": 1767225600,
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_sig", "object": "checkout.session", "client_reference_id": "order-9", "payment_status": "paid", "amount_total": 4000, "currency": "usd"}}
	}`)

	t.Run("valid signature", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", signed.Header)
		rec := httptest.NewRecorder()

		h.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, settler.settled, 1)
		assert.Equal(t, "order-9", settler.settled[0].OrderID)
	})

	t.Run("bad signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		rec := httptest.NewRecorder()

		h.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, settler.settled, 1)
	})
}

func TestStripeLineItemsAllocateAmount(t *testing.T) {
	o := &model.Order{
		Currency: "EUR",
		Amount:   9200,
		Fee:      297,
		Items: []model.OrderItem{
			{CourseID: "go", Title: "Go", PriceUSDCents: 4000},
			{CourseID: "sql", Title: "SQL", PriceUSDCents: 6000},
		},
	}
	items := stripeLineItems(o)
	require.Len(t, items, 3)

	var sum int64
	for _, it := range items {
		assert.Equal(t, "eur", *it.PriceData.Currency)
		sum += *it.PriceData.UnitAmount * *it.Quantity
	}
	assert.Equal(t, o.Amount+o.Fee, sum)
	assert.Equal(t, int64(3680), *items[0].PriceData.UnitAmount)
	assert.Equal(t, "Processing fee", *items[2].PriceData.ProductData.Name)
}

func TestCheckoutSessionParamsRestrictMethod(t *testing.T) {
	for _, method := range []string{"card", "sepa_debit"} {
		t.Run(method, func(t *testing.T) {
			o := &model.Order{
				ID: "order-1", UserID: "u1", GatewayReference: "CM-1", Currency: "EUR",
				Amount: 3680, Fee: 29, PaymentMethod: method,
				Items: []model.OrderItem{{CourseID: "go", Title: "Go", PriceUSDCents: 4000}},
			}
			params := checkoutSessionParams(o, "cus_1", "https://ok", "https://cancel")

			require.Len(t, params.PaymentMethodTypes, 1)
			assert.Equal(t, method, *params.PaymentMethodTypes[0])
			assert.Equal(t, "order-1", *params.ClientReferenceID)
			assert.Equal(t, "cus_1", *params.Customer)
			assert.Equal(t, "order-1", params.Metadata["order_id"])
			assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
		})
	}
}
