package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/repository"
)

// In-memory collaborators for service tests. Repository fakes embed the
// interface so calling a method a test does not stub panics loudly.

type fakeUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpsertUser(_ context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleStudent
	}
	cp := *u
	r.users[u.UserID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id, role string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(_ context.Context, id, customerID string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.StripeCustomerID = &customerID
	return nil
}

type fakeCourseRepo struct {
	repository.CourseRepository
	courses     map[string]*model.Course
	enrollDelta map[string]int
	refreshed   []string
	recommended []model.Course
	popular     []model.Course
}

func newFakeCourseRepo(courses ...*model.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[string]*model.Course{}, enrollDelta: map[string]int{}}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) GetCourseByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCourseRepo) AdjustEnrollmentCount(_ context.Context, id string, delta int) error {
	r.enrollDelta[id] += delta
	return nil
}

func (r *fakeCourseRepo) RefreshRating(_ context.Context, id string) error {
	r.refreshed = append(r.refreshed, id)
	return nil
}

func (r *fakeCourseRepo) Recommend(context.Context, string, int) ([]model.Course, error) {
	return r.recommended, nil
}

func (r *fakeCourseRepo) Popular(context.Context, string, int) ([]model.Course, error) {
	return r.popular, nil
}

func (r *fakeCourseRepo) CreateCourse(_ context.Context, c *model.Course) error {
	for _, existing := range r.courses {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = "course-" + c.Slug
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) UpdateCourse(_ context.Context, c *model.Course) error {
	if _, ok := r.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) SetStatus(_ context.Context, id, status string) error {
	c, ok := r.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeCourseRepo) SetThumbnail(_ context.Context, id, path string) error {
	c, ok := r.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.ThumbnailPath = &path
	return nil
}

func (r *fakeCourseRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, c := range r.courses {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type fakeCategoryRepo struct {
	repository.CategoryRepository
	categories []model.Category
}

func (r *fakeCategoryRepo) ListCategories(context.Context) ([]model.Category, error) {
	return r.categories, nil
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, c *model.Category) error {
	for _, existing := range r.categories {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = "cat-" + c.Slug
	r.categories = append(r.categories, *c)
	return nil
}

type fakeReviewRepo struct {
	repository.ReviewRepository
	reviews map[string]model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[string]model.Review{}}
}

func (r *fakeReviewRepo) UpsertReview(_ context.Context, rv *model.Review) error {
	rv.ID = "review-" + enrollmentKey(rv.UserID, rv.CourseID)
	r.reviews[enrollmentKey(rv.UserID, rv.CourseID)] = *rv
	return nil
}

func (r *fakeReviewRepo) ListReviewsByCourse(_ context.Context, courseID string, limit, offset int) ([]model.Review, error) {
	out := []model.Review{}
	for _, rv := range r.reviews {
		if rv.CourseID == courseID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []model.Review{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeWishlistRepo struct {
	repository.WishlistRepository
	items map[string][]string
}

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{items: map[string][]string{}}
}

func (r *fakeWishlistRepo) GetWishlist(_ context.Context, userID string) ([]model.WishlistItem, error) {
	out := []model.WishlistItem{}
	for _, id := range r.items[userID] {
		out = append(out, model.WishlistItem{UserID: userID, CourseID: id})
	}
	return out, nil
}

func (r *fakeWishlistRepo) AddToWishlist(_ context.Context, userID, courseID string) error {
	for _, id := range r.items[userID] {
		if id == courseID {
			return nil
		}
	}
	r.items[userID] = append(r.items[userID], courseID)
	return nil
}

func (r *fakeWishlistRepo) RemoveFromWishlist(_ context.Context, userID, courseID string) error {
	var kept []string
	for _, id := range r.items[userID] {
		if id != courseID {
			kept = append(kept, id)
		}
	}
	r.items[userID] = kept
	return nil
}

type fakeDashboardRepo struct {
	stats *model.InstructorStats
	topN  int
}

func (r *fakeDashboardRepo) GetInstructorStats(_ context.Context, _ string, topN int) (*model.InstructorStats, error) {
	r.topN = topN
	return r.stats, nil
}

type fakeCartRepo struct {
	repository.CartRepository
	courses *fakeCourseRepo
	items   map[string][]string
}

func newFakeCartRepo(courses *fakeCourseRepo) *fakeCartRepo {
	return &fakeCartRepo{courses: courses, items: map[string][]string{}}
}

func (r *fakeCartRepo) GetCartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, id := range r.items[userID] {
		c, _ := r.courses.GetCourseByID(ctx, id)
		out = append(out, model.CartItem{UserID: userID, CourseID: id, Course: c})
	}
	return out, nil
}

func (r *fakeCartRepo) AddCartItem(_ context.Context, userID, courseID string) error {
	for _, id := range r.items[userID] {
		if id == courseID {
			return nil
		}
	}
	r.items[userID] = append(r.items[userID], courseID)
	return nil
}

func (r *fakeCartRepo) RemoveCartItems(_ context.Context, userID string, courseIDs []string) error {
	drop := map[string]bool{}
	for _, id := range courseIDs {
		drop[id] = true
	}
	var kept []string
	for _, id := range r.items[userID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	r.items[userID] = kept
	return nil
}

type fakeCouponRepo struct {
	repository.CouponRepository
	coupons map[string]*model.Coupon
}

func newFakeCouponRepo(coupons ...*model.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{coupons: map[string]*model.Coupon{}}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *fakeCouponRepo) CreateCoupon(_ context.Context, c *model.Coupon) error {
	if _, ok := r.coupons[c.Code]; ok {
		return repository.ErrDuplicate
	}
	c.ID = "coupon-" + c.Code
	r.coupons[c.Code] = c
	return nil
}

func (r *fakeCouponRepo) GetCouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	c, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) IncrementRedemptions(_ context.Context, code string) (bool, error) {
	c, ok := r.coupons[strings.ToUpper(code)]
	if !ok || (c.MaxRedemptions != nil && c.Redemptions >= *c.MaxRedemptions) {
		return false, nil
	}
	c.Redemptions++
	return true, nil
}

type fakeOrderRepo struct {
	repository.OrderRepository
	orders   map[string]*model.Order
	payments []model.Payment
	seq      int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*model.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o *model.Order) error {
	r.seq++
	o.ID = fmt.Sprintf("order-%d", r.seq)
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderByReference(ctx context.Context, ref string) (*model.Order, error) {
	for id, o := range r.orders {
		if o.GatewayReference == ref {
			return r.GetOrderByID(ctx, id)
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) ListOrdersByUser(_ context.Context, userID string, limit, offset int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) SetCheckout(_ context.Context, id, ref, url string) error {
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.GatewayReference = ref
	o.CheckoutURL = &url
	return nil
}

func (r *fakeOrderRepo) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id string, at time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusPaid
	o.PaidAt = &at
	return true, nil
}

func (r *fakeOrderRepo) RecordPayment(_ context.Context, p *model.Payment) error {
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakeOrderRepo) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			o.Status = model.OrderStatusExpired
			n++
		}
	}
	return n, nil
}

type fakeEnrollmentRepo struct {
	repository.EnrollmentRepository
	enrollments map[string]*model.Enrollment
	completed   map[string]map[string]bool
	failFor     string
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		enrollments: map[string]*model.Enrollment{},
		completed:   map[string]map[string]bool{},
	}
}

func enrollmentKey(userID, courseID string) string {
	return userID + "|" + courseID
}

func (r *fakeEnrollmentRepo) CreateEnrollment(_ context.Context, e *model.Enrollment) (bool, error) {
	if e.CourseID == r.failFor {
		return false, fmt.Errorf("insert enrollment: connection reset")
	}
	key := enrollmentKey(e.UserID, e.CourseID)
	if _, ok := r.enrollments[key]; ok {
		return false, nil
	}
	e.ID = "enr-" + key
	e.EnrolledAt = time.Now()
	cp := *e
	r.enrollments[key] = &cp
	return true, nil
}

func (r *fakeEnrollmentRepo) GetEnrollment(_ context.Context, userID, courseID string) (*model.Enrollment, error) {
	e, ok := r.enrollments[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEnrollmentRepo) OwnedCourseIDs(_ context.Context, userID string, courseIDs []string) ([]string, error) {
	var out []string
	for _, id := range courseIDs {
		if _, ok := r.enrollments[enrollmentKey(userID, id)]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) DeleteByOrder(_ context.Context, orderID string) ([]string, error) {
	var out []string
	for key, e := range r.enrollments {
		if e.OrderID != nil && *e.OrderID == orderID {
			out = append(out, e.CourseID)
			delete(r.enrollments, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeEnrollmentRepo) MarkLessonComplete(_ context.Context, userID, courseID, lessonID string) error {
	key := enrollmentKey(userID, courseID)
	if r.completed[key] == nil {
		r.completed[key] = map[string]bool{}
	}
	r.completed[key][lessonID] = true
	return nil
}

func (r *fakeEnrollmentRepo) CountCompletedLessons(_ context.Context, userID, courseID string) (int, error) {
	return len(r.completed[enrollmentKey(userID, courseID)]), nil
}

func (r *fakeEnrollmentRepo) UpdateProgress(_ context.Context, id string, percent int, completedAt *time.Time) error {
	for _, e := range r.enrollments {
		if e.ID == id {
			e.ProgressPercent = percent
			if e.CompletedAt == nil {
				e.CompletedAt = completedAt
			}
			e.Status = model.EnrollmentActive
			if percent == 100 || e.CompletedAt != nil {
				e.Status = model.EnrollmentCompleted
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeLessonRepo struct {
	repository.LessonRepository
	lessons map[string]*model.Lesson
}

func newFakeLessonRepo(lessons ...*model.Lesson) *fakeLessonRepo {
	r := &fakeLessonRepo{lessons: map[string]*model.Lesson{}}
	for _, l := range lessons {
		r.lessons[l.ID] = l
	}
	return r
}

func (r *fakeLessonRepo) GetLessonByID(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := r.lessons[id]
	if !ok {
		return nil, nil
	}
	return l, nil
}

func (r *fakeLessonRepo) CountLessons(_ context.Context, courseID string) (int, error) {
	n := 0
	for _, l := range r.lessons {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (r *fakeLessonRepo) GetLessonsByCourse(_ context.Context, courseID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range r.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeLessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	n, _ := r.CountLessons(ctx, l.CourseID)
	l.Position = n + 1
	l.ID = fmt.Sprintf("%s-lesson-%d", l.CourseID, l.Position)
	cp := *l
	r.lessons[l.ID] = &cp
	return nil
}

type fakeCertRepo struct {
	repository.CertificateRepository
	certs map[string]*model.Certificate
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: map[string]*model.Certificate{}}
}

func (r *fakeCertRepo) CreateCertificate(_ context.Context, c *model.Certificate) error {
	key := enrollmentKey(c.UserID, c.CourseID)
	if _, ok := r.certs[key]; ok {
		return repository.ErrDuplicate
	}
	c.ID = "cert-" + key
	c.IssuedAt = time.Now()
	cp := *c
	r.certs[key] = &cp
	return nil
}

func (r *fakeCertRepo) GetCertificate(_ context.Context, userID, courseID string) (*model.Certificate, error) {
	c, ok := r.certs[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCertRepo) ListCertificatesByUser(_ context.Context, userID string) ([]model.Certificate, error) {
	var out []model.Certificate
	for _, c := range r.certs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type sentNotification struct {
	UserID, Kind, Title string
}

type fakeNotifier struct {
	NotificationService
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID, kind, title, _ string) error {
	n.sent = append(n.sent, sentNotification{userID, kind, title})
	return nil
}

type fakeEvents struct {
	kinds []string
}

func (e *fakeEvents) OrderPaid(context.Context, *model.Order) {
	e.kinds = append(e.kinds, EventOrderPaid)
}

func (e *fakeEvents) OrderRefunded(context.Context, *model.Order) {
	e.kinds = append(e.kinds, EventOrderRefunded)
}

func (e *fakeEvents) Enrolled(context.Context, *model.Enrollment) {
	e.kinds = append(e.kinds, EventEnrolled)
}

func (e *fakeEvents) Completed(context.Context, *model.Enrollment) {
	e.kinds = append(e.kinds, EventCompleted)
}

func (e *fakeEvents) count(kind string) int {
	n := 0
	for _, k := range e.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

type queuedJob struct {
	Queue   string
	Payload []byte
}

type fakeQueue struct {
	jobs []queuedJob
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte) error {
	q.jobs = append(q.jobs, queuedJob{queue, payload})
	return nil
}

type fakeGateway struct {
	name     pricing.Gateway
	err      error
	lookup   *GatewayPayment
	requests []CheckoutRequest
	refunded []string
}

func (g *fakeGateway) Name() pricing.Gateway { return g.name }

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	ref := "sess_" + req.Order.ID
	return &CheckoutSession{Reference: ref, URL: "https://pay.example/" + ref}, nil
}

func (g *fakeGateway) Lookup(context.Context, *model.Order) (*GatewayPayment, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.lookup, nil
}

func (g *fakeGateway) Refund(_ context.Context, o *model.Order) error {
	if g.err != nil {
		return g.err
	}
	g.refunded = append(g.refunded, o.ID)
	return nil
}

type fakeStorage struct {
	uploads map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}}
}

func (s *fakeStorage) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://storage.example/upload/" + key, nil
}

func (s *fakeStorage) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://storage.example/" + key, nil
}

func (s *fakeStorage) Upload(_ context.Context, key, _ string, body []byte) error {
	s.uploads[key] = body
	return nil
}

type fakeEmail struct {
	receipts     []string
	certificates []string
}

func (e *fakeEmail) SendReceipt(_ context.Context, u *model.User, o *model.Order) error {
	e.receipts = append(e.receipts, o.ID)
	return nil
}

func (e *fakeEmail) SendCertificate(_ context.Context, _ *model.User, c *model.Certificate, _ string) error {
	e.certificates = append(e.certificates, c.CertificateNumber)
	return nil
}
