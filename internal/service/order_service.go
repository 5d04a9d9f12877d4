package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	gatewayNone = "none"
	methodFree  = "free"
)

// CheckoutInput is a buyer's request to pay for their cart
type CheckoutInput struct {
	Currency   string
	Country    string
	Method     string
	CouponCode string
	SuccessURL string
	CancelURL  string
}

// ReceiptJob is the queued request to email an order receipt
type ReceiptJob struct {
	OrderID string `json:"order_id"`
}

// JobQueue enqueues background jobs
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

type OrderService interface {
	Checkout(ctx context.Context, userID string, in CheckoutInput) (*model.Order, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	// VerifyOrder asks the gateway for the payment state of a pending order
	// and settles it accordingly.
	VerifyOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	RefundOrder(ctx context.Context, adminID, orderID string) (*model.Order, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
	PaymentSettler
}

type orderService struct {
	orderRepo      repository.OrderRepository
	cartRepo       repository.CartRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	userRepo       repository.UserRepository
	coupons        CouponService
	notifications  NotificationService
	events         EventPublisher
	jobs           JobQueue
	receiptQueue   string
	prices         *pricing.Table
	gateways       map[pricing.Gateway]PaymentGateway
	now            func() time.Time
	logger         zerolog.Logger
}

// OrderDeps groups the collaborators of the order service
type OrderDeps struct {
	Orders        repository.OrderRepository
	Carts         repository.CartRepository
	Courses       repository.CourseRepository
	Enrollments   repository.EnrollmentRepository
	Users         repository.UserRepository
	Coupons       CouponService
	Notifications NotificationService
	Events        EventPublisher
	Jobs          JobQueue
	ReceiptQueue  string
	Prices        *pricing.Table
	Gateways      []PaymentGateway
}

func NewOrderService(d OrderDeps, logger zerolog.Logger) OrderService {
	gateways := make(map[pricing.Gateway]PaymentGateway, len(d.Gateways))
	for _, g := range d.Gateways {
		gateways[g.Name()] = g
	}
	return &orderService{
		orderRepo:      d.Orders,
		cartRepo:       d.Carts,
		courseRepo:     d.Courses,
		enrollmentRepo: d.Enrollments,
		userRepo:       d.Users,
		coupons:        d.Coupons,
		notifications:  d.Notifications,
		events:         d.Events,
		jobs:           d.Jobs,
		receiptQueue:   d.ReceiptQueue,
		prices:         d.Prices,
		gateways:       gateways,
		now:            time.Now,
		logger:         logger.With().Str("service", "OrderService").Logger(),
	}
}

func newOrderReference() string {
	return "CM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}

func (s *orderService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*model.Order, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	cartItems, err := s.cartRepo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]string, 0, len(cartItems))
	for _, it := range cartItems {
		ids = append(ids, it.CourseID)
	}
	owned, err := s.enrollmentRepo.OwnedCourseIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[string]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	// drop courses the buyer already owns or can no longer buy
	var (
		items   []model.OrderItem
		priced  []PricedItem
		dropped []string
	)
	var subtotal int64
	for _, it := range cartItems {
		c := it.Course
		if ownedSet[it.CourseID] || c == nil || !c.IsPublished() || c.InstructorID == userID {
			dropped = append(dropped, it.CourseID)
			continue
		}
		price := c.EffectivePrice()
		items = append(items, model.OrderItem{CourseID: c.ID, Title: c.Title, PriceUSDCents: price})
		priced = append(priced, PricedItem{CourseID: c.ID, PriceUSD: price})
		subtotal += price
	}
	if len(dropped) > 0 {
		s.logger.Info().Str("user_id", userID).Strs("course_ids", dropped).Msg("Dropping unavailable courses from cart at checkout")
		if err := s.cartRepo.RemoveCartItems(ctx, userID, dropped); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to prune cart")
		}
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	var (
		discount   int64
		couponCode *string
	)
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		c, d, err := s.coupons.Apply(ctx, code, subtotal, priced)
		if err != nil {
			return nil, err
		}
		discount = d
		couponCode = &c.Code
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = user.PreferredCurrency
	}
	if currency == "" {
		currency = pricing.BaseCurrency
	}
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = user.Country
	}

	order := &model.Order{
		UserID:           userID,
		Status:           model.OrderStatusPending,
		Currency:         currency,
		Country:          country,
		CouponCode:       couponCode,
		SubtotalUSDCents: subtotal,
		DiscountUSDCents: discount,
		GatewayReference: newOrderReference(),
		Items:            items,
	}

	free := subtotal-discount <= 0
	if free {
		cur, err := s.prices.Currency(currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		order.Currency = cur.Code
		order.Gateway = gatewayNone
		order.PaymentMethod = methodFree
		order.ExchangeRate = cur.PerUSD
	} else {
		q, err := s.prices.Quote(subtotal, discount, currency, in.Method, country)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		order.Currency = q.Currency
		order.Gateway = string(q.Gateway)
		order.PaymentMethod = q.Method
		order.Amount = q.Amount
		order.Fee = q.Fee
		order.Total = q.Total
		order.ExchangeRate = q.Rate
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create order")
		return nil, err
	}
	log := s.logger.With().Str("order_id", order.ID).Str("reference", order.GatewayReference).Logger()
	log.Info().
		Str("gateway", order.Gateway).
		Str("currency", order.Currency).
		Int64("total", order.Total).
		Int("items", len(order.Items)).
		Msg("Order created")

	if free {
		if err := s.fulfill(ctx, order, &GatewayPayment{
			Reference: order.GatewayReference,
			Status:    PaymentPaid,
			Currency:  order.Currency,
			PaidAt:    s.now(),
		}); err != nil {
			return nil, err
		}
		return order, nil
	}

	gw, ok := s.gateways[pricing.Gateway(order.Gateway)]
	if !ok {
		s.failOrder(ctx, order)
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, order.Gateway)
	}
	sess, err := gw.CreateCheckout(ctx, CheckoutRequest{
		Order:      order,
		User:       user,
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("Gateway rejected checkout")
		s.failOrder(ctx, order)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if err := s.orderRepo.SetCheckout(ctx, order.ID, sess.Reference, sess.URL); err != nil {
		log.Error().Err(err).Msg("Failed to store checkout session")
		return nil, err
	}
	order.GatewayReference = sess.Reference
	order.CheckoutURL = &sess.URL
	return order, nil
}

func (s *orderService) failOrder(ctx context.Context, o *model.Order) {
	if _, err := s.orderRepo.TransitionStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusFailed); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to mark order failed")
		return
	}
	o.Status = model.OrderStatusFailed
}

func (s *orderService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.ListOrdersByUser(ctx, userID, limit, offset)
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) VerifyOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.OrderStatusPending {
		return o, nil
	}
	gw, ok := s.gateways[pricing.Gateway(o.Gateway)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, o.Gateway)
	}
	p, err := gw.Lookup(ctx, o)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to verify payment with gateway")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch p.Status {
	case PaymentPaid:
		if err := s.SettlePayment(ctx, o.ID, p); err != nil {
			return nil, err
		}
	case PaymentFailed:
		if err := s.CloseOrder(ctx, o.ID, model.OrderStatusFailed); err != nil {
			return nil, err
		}
	default:
		return o, nil
	}
	return s.GetOrder(ctx, userID, orderID)
}

func (s *orderService) SettlePayment(ctx context.Context, orderID string, p *GatewayPayment) error {
	o, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	log := s.logger.With().Str("order_id", o.ID).Str("reference", p.Reference).Logger()

	switch o.Status {
	case model.OrderStatusPaid:
		// redelivery: make sure every purchased course was granted
		log.Info().Msg("Order already paid; re-checking enrollments")
		return s.grantAll(ctx, o)
	case model.OrderStatusPending:
	default:
		log.Warn().Str("status", o.Status).Msg("Payment received for a closed order")
		return ErrOrderNotPending
	}

	if p.Status != PaymentPaid {
		return ErrPaymentIncomplete
	}
	if p.Amount != o.Total || !strings.EqualFold(p.Currency, o.Currency) {
		log.Error().
			Int64("expected_amount", o.Total).
			Str("expected_currency", o.Currency).
			Int64("amount", p.Amount).
			Str("currency", p.Currency).
			Msg("Payment does not match order")
		s.recordPayment(ctx, o, p, "mismatch")
		return ErrPaymentMismatch
	}
	return s.fulfill(ctx, o, p)
}

// fulfill settles a pending order. Only the caller that moves the order to
// paid runs the side effects.
func (s *orderService) fulfill(ctx context.Context, o *model.Order, p *GatewayPayment) error {
	paidAt := p.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	ok, err := s.orderRepo.MarkPaid(ctx, o.ID, paidAt)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info().Str("order_id", o.ID).Msg("Order settled concurrently; skipping fulfillment")
		return nil
	}
	o.Status = model.OrderStatusPaid
	o.PaidAt = &paidAt
	log := s.logger.With().Str("order_id", o.ID).Str("user_id", o.UserID).Logger()

	s.recordPayment(ctx, o, p, PaymentPaid)
	grantErr := s.grantAll(ctx, o)

	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.CourseID)
	}
	if err := s.cartRepo.RemoveCartItems(ctx, o.UserID, ids); err != nil {
		log.Warn().Err(err).Msg("Failed to remove purchased courses from cart")
	}
	if o.CouponCode != nil {
		if err := s.coupons.Redeem(ctx, *o.CouponCode); err != nil {
			log.Warn().Err(err).Str("code", *o.CouponCode).Msg("Failed to count coupon redemption")
		}
	}

	title := "Payment received"
	body := fmt.Sprintf("Your order %s is confirmed. You now have access to %d course(s).", o.GatewayReference, len(o.Items))
	if o.Total == 0 {
		title = "Enrollment confirmed"
		body = fmt.Sprintf("You now have access to %d course(s).", len(o.Items))
	}
	_ = s.notifications.Notify(ctx, o.UserID, model.NotificationOrderPaid, title, body)

	job, _ := json.Marshal(ReceiptJob{OrderID: o.ID})
	if err := s.jobs.Send(ctx, s.receiptQueue, job); err != nil {
		log.Error().Err(err).Str("queue", s.receiptQueue).Msg("Failed to enqueue receipt job")
	}
	s.events.OrderPaid(ctx, o)

	log.Info().Str("gateway", o.Gateway).Int64("total", o.Total).Msg("Order fulfilled")
	return grantErr
}

// grantAll enrolls the buyer in every course on the order. Enrollment is
// idempotent so it is safe to repeat.
func (s *orderService) grantAll(ctx context.Context, o *model.Order) error {
	var errs []error
	for _, it := range o.Items {
		e := &model.Enrollment{
			UserID:   o.UserID,
			CourseID: it.CourseID,
			OrderID:  &o.ID,
			Status:   model.EnrollmentActive,
		}
		created, err := s.enrollmentRepo.CreateEnrollment(ctx, e)
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", o.ID).Str("course_id", it.CourseID).Msg("Failed to enroll buyer")
			errs = append(errs, err)
			continue
		}
		if !created {
			continue
		}
		if err := s.courseRepo.AdjustEnrollmentCount(ctx, it.CourseID, 1); err != nil {
			s.logger.Warn().Err(err).Str("course_id", it.CourseID).Msg("Failed to bump enrollment count")
		}
		s.events.Enrolled(ctx, e)
	}
	return errors.Join(errs...)
}

func (s *orderService) recordPayment(ctx context.Context, o *model.Order, p *GatewayPayment, status string) {
	rec := &model.Payment{
		OrderID:   o.ID,
		Gateway:   o.Gateway,
		Reference: p.Reference,
		Amount:    p.Amount,
		Currency:  strings.ToUpper(p.Currency),
		Status:    status,
		Raw:       p.Raw,
	}
	if err := s.orderRepo.RecordPayment(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to record payment")
	}
}

func (s *orderService) CloseOrder(ctx context.Context, orderID, status string) error {
	if status != model.OrderStatusFailed && status != model.OrderStatusExpired {
		return fmt.Errorf("%w: cannot close order as %q", ErrInvalidInput, status)
	}
	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, model.OrderStatusPending, status)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info().Str("order_id", orderID).Str("status", status).Msg("Order no longer pending; ignoring close")
		return nil
	}
	s.logger.Info().Str("order_id", orderID).Str("status", status).Msg("Order closed")
	return nil
}

func (s *orderService) RefundOrder(ctx context.Context, adminID, orderID string) (*model.Order, error) {
	admin, err := s.userRepo.GetUserByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	o, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.Status != model.OrderStatusPaid {
		return nil, ErrOrderNotPaid
	}
	log := s.logger.With().Str("order_id", o.ID).Str("admin_id", adminID).Logger()

	if o.Total > 0 {
		gw, ok := s.gateways[pricing.Gateway(o.Gateway)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, o.Gateway)
		}
		if err := gw.Refund(ctx, o); err != nil {
			log.Error().Err(err).Msg("Gateway refund failed")
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, o.ID, model.OrderStatusPaid, model.OrderStatusRefunded)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotPaid
	}
	o.Status = model.OrderStatusRefunded

	revoked, err := s.enrollmentRepo.DeleteByOrder(ctx, o.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to revoke enrollments")
		return nil, err
	}
	for _, courseID := range revoked {
		if err := s.courseRepo.AdjustEnrollmentCount(ctx, courseID, -1); err != nil {
			log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to decrement enrollment count")
		}
	}

	_ = s.notifications.Notify(ctx, o.UserID, model.NotificationOrderRefunded, "Order refunded",
		fmt.Sprintf("Your order %s has been refunded.", o.GatewayReference))
	s.events.OrderRefunded(ctx, o)
	log.Info().Int("revoked", len(revoked)).Msg("Order refunded")
	return o, nil
}

func (s *orderService) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.orderRepo.ExpireStale(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to expire stale orders")
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Time("cutoff", cutoff).Msg("Expired stale pending orders")
	}
	return n, nil
}
