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
	"coursemart/internal/pricing"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	refundpkg "github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway charges card orders through Stripe Checkout
type StripeGateway struct {
	userRepo    repository.UserRepository
	frontendURL string
	logger      zerolog.Logger
}

// NewStripeGateway initializes the Stripe key and returns the gateway with a scoped logger
func NewStripeGateway(secretKey, frontendURL string, userRepo repository.UserRepository, logger zerolog.Logger) *StripeGateway {
	stripe.Key = secretKey
	lg := logger.With().Str("service", "StripeGateway").Logger()
	return &StripeGateway{userRepo: userRepo, frontendURL: strings.TrimRight(frontendURL, "/"), logger: lg}
}

func (g *StripeGateway) Name() pricing.Gateway {
	return pricing.GatewayStripe
}

// GetOrCreateCustomer ensures a Stripe Customer exists for a user
func (g *StripeGateway) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	params.Context = ctx
	cust, err := customerpkg.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := g.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		g.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	user.StripeCustomerID = &cust.ID
	return cust.ID, nil
}

// stripeLineItems prices each course at its share of the order amount, plus
// the processing fee as its own line.
func stripeLineItems(o *model.Order) []*stripe.CheckoutSessionLineItemParams {
	currency := strings.ToLower(o.Currency)
	weights := make([]int64, len(o.Items))
	for i, it := range o.Items {
		weights[i] = it.PriceUSDCents
	}
	shares := allocate(o.Amount, weights)

	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items)+1)
	for i, it := range o.Items {
		if shares[i] <= 0 {
			continue
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(shares[i]),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(it.Title),
					Metadata: map[string]string{"course_id": it.CourseID},
				},
			},
			Quantity: stripe.Int64(1),
		})
	}
	if o.Fee > 0 {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(o.Fee),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Processing fee"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}
	return items
}

// checkoutSessionParams restricts the session to the order's quoted payment method
func checkoutSessionParams(o *model.Order, customerID, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"order":    o.GatewayReference,
	}
	return &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		LineItems:          stripeLineItems(o),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{o.PaymentMethod}),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		ClientReferenceID:  stripe.String(o.ID),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
}

// CreateCheckout creates a Stripe Checkout session in payment mode
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	o := req.Order
	customerID, err := g.GetOrCreateCustomer(ctx, req.User)
	if err != nil {
		return nil, err
	}
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = g.frontendURL + "/orders/" + o.ID + "?status=success"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.frontendURL + "/cart?status=cancel"
	}
	params := checkoutSessionParams(o, customerID, successURL, cancelURL)
	params.Context = ctx
	sess, err := checkoutsession.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to create Stripe checkout session")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	g.logger.Info().Str("order_id", o.ID).Str("session_id", sess.ID).Msg("Stripe checkout session created")
	return &CheckoutSession{Reference: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) getSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := checkoutsession.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session %s: %w", id, err)
	}
	return sess, nil
}

// Lookup reports the payment state of the order's checkout session
func (g *StripeGateway) Lookup(ctx context.Context, o *model.Order) (*GatewayPayment, error) {
	sess, err := g.getSession(ctx, o.GatewayReference)
	if err != nil {
		return nil, err
	}
	return stripeSessionPayment(sess, time.Now()), nil
}

func stripeSessionPayment(sess *stripe.CheckoutSession, at time.Time) *GatewayPayment {
	p := &GatewayPayment{
		Reference: sess.ID,
		Status:    PaymentPending,
		Amount:    sess.AmountTotal,
		Currency:  strings.ToUpper(string(sess.Currency)),
	}
	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		p.Status = PaymentPaid
		p.PaidAt = at
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		p.Status = PaymentFailed
	}
	p.Raw, _ = json.Marshal(sess)
	return p
}

// Refund refunds the payment intent behind the order's checkout session
func (g *StripeGateway) Refund(ctx context.Context, o *model.Order) error {
	sess, err := g.getSession(ctx, o.GatewayReference)
	if err != nil {
		return err
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("checkout session %s has no payment intent", sess.ID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		Metadata:      map[string]string{"order_id": o.ID},
	}
	params.Context = ctx
	r, err := refundpkg.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to create Stripe refund")
		return fmt.Errorf("create refund: %w", err)
	}
	g.logger.Info().Str("order_id", o.ID).Str("refund_id", r.ID).Str("status", string(r.Status)).Msg("Stripe refund created")
	return nil
}

// StripeWebhook applies Stripe Checkout events to orders
type StripeWebhook struct {
	secret  string
	settler PaymentSettler
	logger  zerolog.Logger
}

func NewStripeWebhook(secret string, settler PaymentSettler, logger zerolog.Logger) *StripeWebhook {
	return &StripeWebhook{
		secret:  secret,
		settler: settler,
		logger:  logger.With().Str("service", "StripeWebhook").Logger(),
	}
}

// HandleWebhook processes Stripe webhook events
func (h *StripeWebhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sig, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	h.logger.Info().Str("event_type", string(event.Type)).Str("event_id", event.ID).Msg("Stripe webhook received")

	if err := h.handleEvent(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to handle Stripe webhook")
		http.Error(w, "failed to handle event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *StripeWebhook) handleEvent(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return nil
	}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("invalid checkout.session data: %w", err)
		}
		orderID := sessionOrderID(&cs)
		if orderID == "" {
			h.logger.Warn().Str("session_id", cs.ID).Msg("Checkout session without order reference; ignoring")
			return nil
		}
		if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// delayed payment methods settle with async_payment_succeeded
			h.logger.Info().Str("order_id", orderID).Str("payment_status", string(cs.PaymentStatus)).Msg("Checkout completed without payment yet")
			return nil
		}
		p := stripeSessionPayment(&cs, time.Unix(event.Created, 0))
		p.Raw = event.Data.Raw
		return h.settle(ctx, orderID, p)

	case "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("invalid checkout.session data: %w", err)
		}
		if id := sessionOrderID(&cs); id != "" {
			return h.settler.CloseOrder(ctx, id, model.OrderStatusExpired)
		}
		return nil

	case "checkout.session.async_payment_failed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("invalid checkout.session data: %w", err)
		}
		if id := sessionOrderID(&cs); id != "" {
			return h.settler.CloseOrder(ctx, id, model.OrderStatusFailed)
		}
		return nil

	default:
		h.logger.Debug().Str("event_type", string(event.Type)).Msg("Ignoring Stripe event")
		return nil
	}
}

// settle acknowledges outcomes that a retry cannot change
func (h *StripeWebhook) settle(ctx context.Context, orderID string, p *GatewayPayment) error {
	err := h.settler.SettlePayment(ctx, orderID, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrPaymentMismatch):
		h.logger.Warn().Err(err).Str("order_id", orderID).Msg("Stripe payment not applied")
		return nil
	default:
		return err
	}
}

func sessionOrderID(cs *stripe.CheckoutSession) string {
	if cs.ClientReferenceID != "" {
		return cs.ClientReferenceID
	}
	return cs.Metadata["order_id"]
}
