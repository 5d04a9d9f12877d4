package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/paystack"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc         *orderService
	orders      *fakeOrderRepo
	carts       *fakeCartRepo
	courses     *fakeCourseRepo
	enrollments *fakeEnrollmentRepo
	coupons     *fakeCouponRepo
	notifier    *fakeNotifier
	events      *fakeEvents
	queue       *fakeQueue
	stripe      *fakeGateway
}

func newOrderFixture() *orderFixture {
	courses := newFakeCourseRepo(
		&model.Course{ID: "go", InstructorID: "instructor", Title: "Go", PriceCents: 4000, Status: model.CourseStatusPublished},
		&model.Course{ID: "sql", InstructorID: "instructor", Title: "SQL", PriceCents: 6000, Status: model.CourseStatusPublished},
		&model.Course{ID: "draft", InstructorID: "instructor", Title: "Draft", PriceCents: 1000, Status: model.CourseStatusDraft},
		&model.Course{ID: "free", InstructorID: "instructor", Title: "Free", Status: model.CourseStatusPublished},
	)
	users := newFakeUserRepo(
		&model.User{UserID: "student", Email: "s@example.com", Role: model.RoleStudent, Country: "US"},
		&model.User{UserID: "instructor", Role: model.RoleInstructor},
		&model.User{UserID: "admin", Role: model.RoleAdmin},
	)
	carts := newFakeCartRepo(courses)
	coupons := newFakeCouponRepo()
	f := &orderFixture{
		orders:      newFakeOrderRepo(),
		carts:       carts,
		courses:     courses,
		enrollments: newFakeEnrollmentRepo(),
		coupons:     coupons,
		notifier:    &fakeNotifier{},
		events:      &fakeEvents{},
		queue:       &fakeQueue{},
		stripe:      &fakeGateway{name: pricing.GatewayStripe},
	}
	f.svc = NewOrderService(OrderDeps{
		Orders:        f.orders,
		Carts:         carts,
		Courses:       courses,
		Enrollments:   f.enrollments,
		Users:         users,
		Coupons:       NewCouponService(coupons, courses, users, carts, zerolog.Nop()),
		Notifications: f.notifier,
		Events:        f.events,
		Jobs:          f.queue,
		ReceiptQueue:  "receipts",
		Prices:        pricing.Default(),
		Gateways:      []PaymentGateway{f.stripe},
	}, zerolog.Nop()).(*orderService)
	return f
}

func (f *orderFixture) checkout(t *testing.T, courseIDs ...string) *model.Order {
	t.Helper()
	f.carts.items["student"] = courseIDs
	o, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{Method: "card"})
	require.NoError(t, err)
	return o
}

func paidFor(o *model.Order) *GatewayPayment {
	return &GatewayPayment{
		Reference: o.GatewayReference,
		Status:    PaymentPaid,
		Amount:    o.Total,
		Currency:  o.Currency,
		PaidAt:    time.Now(),
	}
}

func TestCheckoutCreatesGatewaySession(t *testing.T) {
	f := newOrderFixture()
	o := f.checkout(t, "go", "sql")

	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, "US", o.Country)
	assert.Equal(t, string(pricing.GatewayStripe), o.Gateway)
	assert.Equal(t, int64(10000), o.SubtotalUSDCents)
	assert.Equal(t, int64(10000), o.Amount)
	assert.Equal(t, int64(320), o.Fee)
	assert.Equal(t, int64(10320), o.Total)
	assert.Equal(t, "sess_"+o.ID, o.GatewayReference)
	require.NotNil(t, o.CheckoutURL)
	assert.Equal(t, "https://pay.example/sess_"+o.ID, *o.CheckoutURL)

	require.Len(t, f.stripe.requests, 1)
	assert.Equal(t, "s@example.com", f.stripe.requests[0].User.Email)
	assert.Empty(t, f.enrollments.enrollments, "nothing is granted before payment")
	assert.Equal(t, []string{"go", "sql"}, f.carts.items["student"], "cart is kept until payment")
}

func TestCheckoutDropsUnavailableCourses(t *testing.T) {
	f := newOrderFixture()
	_, _ = f.enrollments.CreateEnrollment(context.Background(), &model.Enrollment{UserID: "student", CourseID: "sql"})

	o := f.checkout(t, "go", "sql", "draft")

	require.Len(t, o.Items, 1)
	assert.Equal(t, "go", o.Items[0].CourseID)
	assert.Equal(t, []string{"go"}, f.carts.items["student"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{Method: "card"})
	assert.ErrorIs(t, err, ErrCartEmpty)

	f.carts.items["student"] = []string{"draft"}
	_, err = f.svc.Checkout(context.Background(), "student", CheckoutInput{Method: "card"})
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestCheckoutRejectsUnavailableMethod(t *testing.T) {
	f := newOrderFixture()
	f.carts.items["student"] = []string{"go"}
	_, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{Method: "bank_transfer"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.orders.orders)
}

func TestCheckoutFreeOrderIsFulfilledImmediately(t *testing.T) {
	f := newOrderFixture()
	f.carts.items["student"] = []string{"free"}

	o, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, o.Status)
	assert.Equal(t, gatewayNone, o.Gateway)
	assert.Equal(t, int64(0), o.Total)
	assert.Empty(t, f.stripe.requests)
	assert.Contains(t, f.enrollments.enrollments, enrollmentKey("student", "free"))
	assert.Equal(t, 1, f.courses.enrollDelta["free"])
	assert.Empty(t, f.carts.items["student"])
	assert.Equal(t, 1, f.events.count(EventOrderPaid))
}

func TestCheckoutFullDiscountIsFree(t *testing.T) {
	f := newOrderFixture()
	f.coupons.coupons["ALLGO"] = &model.Coupon{
		Code: "ALLGO", CourseID: ptr("go"), DiscountType: model.DiscountPercent, DiscountValue: 100,
		Active: true, StartsAt: time.Now().Add(-time.Hour),
	}
	f.carts.items["student"] = []string{"go"}

	o, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{CouponCode: "ALLGO"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
	assert.Equal(t, int64(4000), o.DiscountUSDCents)
	assert.Equal(t, 1, f.coupons.coupons["ALLGO"].Redemptions)
}

func TestCheckoutGatewayFailureFailsOrder(t *testing.T) {
	f := newOrderFixture()
	f.stripe.err = errors.New("stripe down")
	f.carts.items["student"] = []string{"go"}

	_, err := f.svc.Checkout(context.Background(), "student", CheckoutInput{Method: "card"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	require.Len(t, f.orders.orders, 1)
	for _, o := range f.orders.orders {
		assert.Equal(t, model.OrderStatusFailed, o.Status)
	}
}

func TestSettlePaymentFulfillsOnce(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go", "sql")
	p := paidFor(o)

	require.NoError(t, f.svc.SettlePayment(ctx, o.ID, p))
	require.NoError(t, f.svc.SettlePayment(ctx, o.ID, p))

	stored := f.orders.orders[o.ID]
	assert.Equal(t, model.OrderStatusPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)
	assert.Len(t, f.enrollments.enrollments, 2)
	assert.Equal(t, 1, f.courses.enrollDelta["go"])
	assert.Equal(t, 1, f.courses.enrollDelta["sql"])
	assert.Equal(t, 1, f.events.count(EventOrderPaid))
	assert.Equal(t, 2, f.events.count(EventEnrolled))
	assert.Len(t, f.notifier.sent, 1)
	assert.Empty(t, f.carts.items["student"])

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "receipts", f.queue.jobs[0].Queue)
	var job ReceiptJob
	require.NoError(t, json.Unmarshal(f.queue.jobs[0].Payload, &job))
	assert.Equal(t, o.ID, job.OrderID)

	require.Len(t, f.orders.payments, 1)
	assert.Equal(t, PaymentPaid, f.orders.payments[0].Status)
}

func TestSettlePaymentRepairsMissingEnrollments(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go", "sql")
	f.enrollments.failFor = "sql"

	err := f.svc.SettlePayment(ctx, o.ID, paidFor(o))
	require.Error(t, err)
	assert.Equal(t, model.OrderStatusPaid, f.orders.orders[o.ID].Status)
	assert.NotContains(t, f.enrollments.enrollments, enrollmentKey("student", "sql"))

	f.enrollments.failFor = ""
	require.NoError(t, f.svc.SettlePayment(ctx, o.ID, paidFor(o)))
	assert.Contains(t, f.enrollments.enrollments, enrollmentKey("student", "sql"))
	assert.Equal(t, 1, f.courses.enrollDelta["go"])
	assert.Equal(t, 1, f.courses.enrollDelta["sql"])
	assert.Equal(t, 1, f.events.count(EventOrderPaid))
}

func TestSettlePaymentMismatch(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go")

	short := paidFor(o)
	short.Amount--
	assert.ErrorIs(t, f.svc.SettlePayment(ctx, o.ID, short), ErrPaymentMismatch)

	wrongCurrency := paidFor(o)
	wrongCurrency.Currency = "EUR"
	assert.ErrorIs(t, f.svc.SettlePayment(ctx, o.ID, wrongCurrency), ErrPaymentMismatch)

	assert.Equal(t, model.OrderStatusPending, f.orders.orders[o.ID].Status)
	assert.Empty(t, f.enrollments.enrollments)
	require.Len(t, f.orders.payments, 2)
	assert.Equal(t, "mismatch", f.orders.payments[0].Status)
}

func TestSettlePaymentClosedOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go")

	require.NoError(t, f.svc.CloseOrder(ctx, o.ID, model.OrderStatusExpired))
	assert.ErrorIs(t, f.svc.SettlePayment(ctx, o.ID, paidFor(o)), ErrOrderNotPending)
	assert.ErrorIs(t, f.svc.SettlePayment(ctx, "order-404", paidFor(o)), ErrOrderNotFound)

	pending := paidFor(o)
	pending.Status = PaymentPending
	o2 := f.checkout(t, "sql")
	assert.ErrorIs(t, f.svc.SettlePayment(ctx, o2.ID, pending), ErrPaymentIncomplete)
}

func TestCloseOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go")

	assert.ErrorIs(t, f.svc.CloseOrder(ctx, o.ID, model.OrderStatusPaid), ErrInvalidInput)
	require.NoError(t, f.svc.CloseOrder(ctx, o.ID, model.OrderStatusFailed))
	assert.Equal(t, model.OrderStatusFailed, f.orders.orders[o.ID].Status)
	require.NoError(t, f.svc.CloseOrder(ctx, o.ID, model.OrderStatusExpired), "closing twice is a no-op")
	assert.Equal(t, model.OrderStatusFailed, f.orders.orders[o.ID].Status)
}

func TestVerifyOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go")

	f.stripe.lookup = &GatewayPayment{Status: PaymentPending}
	got, err := f.svc.VerifyOrder(ctx, "student", o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)

	f.stripe.lookup = paidFor(o)
	got, err = f.svc.VerifyOrder(ctx, "student", o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)

	_, err = f.svc.VerifyOrder(ctx, "instructor", o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyOrderAbandonedPaymentStaysPayable(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go")

	f.stripe.lookup = paystackPayment(&paystack.Transaction{Status: paystack.StatusAbandoned, Reference: o.GatewayReference}, nil)
	got, err := f.svc.VerifyOrder(ctx, "student", o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)

	require.NoError(t, f.svc.SettlePayment(ctx, o.ID, paidFor(o)))
	got, err = f.svc.GetOrder(ctx, "student", o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)
	e, err := f.enrollments.GetEnrollment(ctx, "student", "go")
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestRefundOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	o := f.checkout(t, "go", "sql")

	_, err := f.svc.RefundOrder(ctx, "admin", o.ID)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	require.NoError(t, f.svc.SettlePayment(ctx, o.ID, paidFor(o)))

	_, err = f.svc.RefundOrder(ctx, "student", o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	refunded, err := f.svc.RefundOrder(ctx, "admin", o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, refunded.Status)
	assert.Equal(t, []string{o.ID}, f.stripe.refunded)
	assert.Empty(t, f.enrollments.enrollments)
	assert.Equal(t, 0, f.courses.enrollDelta["go"])
	assert.Equal(t, 1, f.events.count(EventOrderRefunded))

	_, err = f.svc.RefundOrder(ctx, "admin", o.ID)
	assert.ErrorIs(t, err, ErrOrderNotPaid)
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	old := f.checkout(t, "go")
	f.orders.orders[old.ID].CreatedAt = time.Now().Add(-2 * time.Hour)
	fresh := f.checkout(t, "sql")

	n, err := f.svc.ExpireStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, model.OrderStatusExpired, f.orders.orders[old.ID].Status)
	assert.Equal(t, model.OrderStatusPending, f.orders.orders[fresh.ID].Status)
}

func TestAllocate(t *testing.T) {
	assert.Equal(t, []int64{3333, 3333, 3334}, allocate(10000, []int64{1, 1, 1}))
	assert.Equal(t, []int64{400, 600}, allocate(1000, []int64{4000, 6000}))
	assert.Equal(t, []int64{0, 0}, allocate(0, []int64{1, 1}))
}
