package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/paystack"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
)

// PaystackAPI is the subset of the Paystack client the gateway uses
type PaystackAPI interface {
	InitializeTransaction(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
	RefundTransaction(ctx context.Context, reference string, amount int64) (*paystack.Refund, error)
}

// PaystackGateway charges African currencies and local channels through Paystack
type PaystackGateway struct {
	client      PaystackAPI
	frontendURL string
	logger      zerolog.Logger
}

func NewPaystackGateway(client PaystackAPI, frontendURL string, logger zerolog.Logger) *PaystackGateway {
	return &PaystackGateway{
		client:      client,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With().Str("service", "PaystackGateway").Logger(),
	}
}

func (g *PaystackGateway) Name() pricing.Gateway {
	return pricing.GatewayPaystack
}

func (g *PaystackGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	o := req.Order
	if req.User.Email == "" {
		return nil, fmt.Errorf("%w: an email address is required for Paystack", ErrInvalidInput)
	}
	callback := req.SuccessURL
	if callback == "" {
		callback = g.frontendURL + "/orders/" + o.ID + "/verify"
	}
	auth, err := g.client.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       req.User.Email,
		Amount:      o.Total,
		Currency:    o.Currency,
		Reference:   o.GatewayReference,
		CallbackURL: callback,
		Channels:    pricing.Channels(o.PaymentMethod),
		Metadata: map[string]string{
			"order_id": o.ID,
			"user_id":  o.UserID,
		},
	})
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to initialize Paystack transaction")
		return nil, err
	}
	ref := auth.Reference
	if ref == "" {
		ref = o.GatewayReference
	}
	g.logger.Info().Str("order_id", o.ID).Str("reference", ref).Msg("Paystack transaction initialized")
	return &CheckoutSession{Reference: ref, URL: auth.AuthorizationURL}, nil
}

func (g *PaystackGateway) Lookup(ctx context.Context, o *model.Order) (*GatewayPayment, error) {
	tx, err := g.client.VerifyTransaction(ctx, o.GatewayReference)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(tx)
	return paystackPayment(tx, raw), nil
}

func paystackPayment(tx *paystack.Transaction, raw []byte) *GatewayPayment {
	p := &GatewayPayment{
		Reference: tx.Reference,
		Status:    PaymentPending,
		Amount:    tx.Amount,
		Currency:  strings.ToUpper(tx.Currency),
		Raw:       raw,
	}
	switch tx.Status {
	case paystack.StatusSuccess:
		p.Status = PaymentPaid
		if t, err := time.Parse(time.RFC3339, tx.PaidAt); err == nil {
			p.PaidAt = t
		}
	case paystack.StatusFailed, paystack.StatusReversed:
		p.Status = PaymentFailed
	}
	return p
}

func (g *PaystackGateway) Refund(ctx context.Context, o *model.Order) error {
	r, err := g.client.RefundTransaction(ctx, o.GatewayReference, 0)
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to refund Paystack transaction")
		return err
	}
	g.logger.Info().Str("order_id", o.ID).Int64("refund_id", r.ID).Str("status", r.Status).Msg("Paystack refund created")
	return nil
}

// OrderLookup resolves an order from a gateway reference
type OrderLookup interface {
	GetOrderByReference(ctx context.Context, reference string) (*model.Order, error)
}

// PaystackWebhook applies Paystack charge events to orders
type PaystackWebhook struct {
	secret  string
	orders  OrderLookup
	settler PaymentSettler
	logger  zerolog.Logger
}

func NewPaystackWebhook(secret string, orders OrderLookup, settler PaymentSettler, logger zerolog.Logger) *PaystackWebhook {
	return &PaystackWebhook{
		secret:  secret,
		orders:  orders,
		settler: settler,
		logger:  logger.With().Str("service", "PaystackWebhook").Logger(),
	}
}

// HandleWebhook processes Paystack webhook events
func (h *PaystackWebhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read Paystack webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	if !paystack.VerifySignature(h.secret, payload, r.Header.Get("x-paystack-signature")) {
		h.logger.Warn().Msg("Signature verification failed for Paystack webhook")
		http.Error(w, "signature verification failed", http.StatusUnauthorized)
		return
	}
	var event paystack.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error().Err(err).Msg("Invalid Paystack webhook payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	h.logger.Info().Str("event_type", event.Event).Msg("Paystack webhook received")

	if err := h.handleEvent(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Str("event_type", event.Event).Msg("Failed to handle Paystack webhook")
		http.Error(w, "failed to handle event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *PaystackWebhook) handleEvent(ctx context.Context, event paystack.Event) error {
	if event.Event != "charge.success" {
		h.logger.Debug().Str("event_type", event.Event).Msg("Ignoring Paystack event")
		return nil
	}
	var tx paystack.Transaction
	if err := json.Unmarshal(event.Data, &tx); err != nil {
		return fmt.Errorf("invalid charge data: %w", err)
	}
	o, err := h.orders.GetOrderByReference(ctx, tx.Reference)
	if err != nil {
		return err
	}
	if o == nil {
		h.logger.Warn().Str("reference", tx.Reference).Msg("Paystack charge for unknown order; ignoring")
		return nil
	}

	err = h.settler.SettlePayment(ctx, o.ID, paystackPayment(&tx, event.Data))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrPaymentMismatch), errors.Is(err, ErrOrderNotFound):
		h.logger.Warn().Err(err).Str("order_id", o.ID).Msg("Paystack payment not applied")
		return nil
	default:
		return err
	}
}
