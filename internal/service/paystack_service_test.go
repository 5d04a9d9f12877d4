package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursemart/internal/model"
	"coursemart/internal/paystack"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaystackAPI struct {
	initialized []paystack.InitializeRequest
	tx          *paystack.Transaction
	refunds     []string
	err         error
}

func (p *fakePaystackAPI) InitializeTransaction(_ context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.initialized = append(p.initialized, in)
	return &paystack.Authorization{
		AuthorizationURL: "https://checkout.paystack.com/" + in.Reference,
		AccessCode:       "ac_" + in.Reference,
		Reference:        in.Reference,
	}, nil
}

func (p *fakePaystackAPI) VerifyTransaction(context.Context, string) (*paystack.Transaction, error) {
	return p.tx, p.err
}

func (p *fakePaystackAPI) RefundTransaction(_ context.Context, reference string, _ int64) (*paystack.Refund, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.refunds = append(p.refunds, reference)
	return &paystack.Refund{ID: 1, Status: "pending"}, nil
}

func TestPaystackCreateCheckout(t *testing.T) {
	api := &fakePaystackAPI{}
	g := NewPaystackGateway(api, "https://coursemart.example/", zerolog.Nop())
	o := &model.Order{ID: "order-1", UserID: "u1", Currency: "NGN", Total: 6302500, PaymentMethod: "bank_transfer", GatewayReference: "CM-ABC"}

	sess, err := g.CreateCheckout(context.Background(), CheckoutRequest{Order: o, User: &model.User{Email: "ada@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "CM-ABC", sess.Reference)
	assert.Equal(t, "https://checkout.paystack.com/CM-ABC", sess.URL)

	require.Len(t, api.initialized, 1)
	in := api.initialized[0]
	assert.Equal(t, int64(6302500), in.Amount)
	assert.Equal(t, "NGN", in.Currency)
	assert.Equal(t, "https://coursemart.example/orders/order-1/verify", in.CallbackURL)
	assert.Equal(t, []string{"bank_transfer", "bank"}, in.Channels)

	_, err = g.CreateCheckout(context.Background(), CheckoutRequest{Order: o, User: &model.User{}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPaystackPayment(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{paystack.StatusSuccess, PaymentPaid},
		{paystack.StatusFailed, PaymentFailed},
		{paystack.StatusAbandoned, PaymentPending},
		{paystack.StatusReversed, PaymentFailed},
		{"ongoing", PaymentPending},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p := paystackPayment(&paystack.Transaction{
				Status: tt.status, Reference: "CM-1", Amount: 500, Currency: "ngn", PaidAt: "2026-01-02T15:04:05Z",
			}, nil)
			assert.Equal(t, tt.want, p.Status)
			assert.Equal(t, "NGN", p.Currency)
			if tt.want == PaymentPaid {
				assert.Equal(t, 2026, p.PaidAt.Year())
			}
		})
	}
}

func paystackWebhookRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(body))
	req.Header.Set("x-paystack-signature", paystack.Sign(secret, []byte(body)))
	return req
}

func TestPaystackHandleWebhook(t *testing.T) {
	const secret = "sk_test_paystack"
	orders := newFakeOrderRepo()
	require.NoError(t, orders.CreateOrder(context.Background(), &model.Order{
		UserID: "u1", Status: model.OrderStatusPending, Currency: "NGN", Total: 1000000, GatewayReference: "CM-REF1",
	}))

	t.Run("charge success settles the order", func(t *testing.T) {
		settler := &fakeSettler{}
		h := NewPaystackWebhook(secret, orders, settler, zerolog.Nop())
		body := `{"event":"charge.success","data":{"id":42,"status":"success","reference":"CM-REF1","amount":1000000,"currency":"NGN","paid_at":"2026-02-01T09:00:00Z"}}`
		rec := httptest.NewRecorder()

		h.HandleWebhook(rec, paystackWebhookRequest(t, secret, body))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, settler.settled, 1)
		assert.Equal(t, "order-1", settler.settled[0].OrderID)
		assert.Equal(t, PaymentPaid, settler.settled[0].Payment.Status)
		assert.Equal(t, int64(1000000), settler.settled[0].Payment.Amount)
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		settler := &fakeSettler{}
		h := NewPaystackWebhook(secret, orders, settler, zerolog.Nop())
		body := `{"event":"charge.success","data":{"reference":"CM-REF1"}}`
		req := paystackWebhookRequest(t, "wrong-secret", body)
		rec := httptest.NewRecorder()

		h.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, settler.settled)
	})

	t.Run("unknown reference and other events are acknowledged", func(t *testing.T) {
		settler := &fakeSettler{}
		h := NewPaystackWebhook(secret, orders, settler, zerolog.Nop())
		for _, body := range []string{
			`{"event":"charge.success","data":{"status":"success","reference":"CM-UNKNOWN"}}`,
			`{"event":"transfer.success","data":{}}`,
		} {
			rec := httptest.NewRecorder()
			h.HandleWebhook(rec, paystackWebhookRequest(t, secret, body))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
		assert.Empty(t, settler.settled)
	})

	t.Run("settlement failures are retried", func(t *testing.T) {
		h := NewPaystackWebhook(secret, orders, &fakeSettler{err: errors.New("db down")}, zerolog.Nop())
		body := `{"event":"charge.success","data":{"status":"success","reference":"CM-REF1","amount":1000000,"currency":"NGN"}}`
		rec := httptest.NewRecorder()

		h.HandleWebhook(rec, paystackWebhookRequest(t, secret, body))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
