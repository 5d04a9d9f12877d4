package router

import (
	"net/http"
	"os"
	"strings"

	"coursemart/internal/api/v1/handler"
	"coursemart/internal/config"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Middlewares groups the auth layers applied by path
type Middlewares struct {
	Auth         func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	PubSubAuth   func(http.Handler) http.Handler
}

// Webhooks are mounted as raw handlers since they verify the raw body
// signature. A nil handler means the gateway is not configured.
type Webhooks struct {
	Stripe   http.HandlerFunc
	Paystack http.HandlerFunc
}

// Handlers holds every Huma operation handler
type Handlers struct {
	User         *handler.UserHandler
	Course       *handler.CourseHandler
	Review       *handler.ReviewHandler
	Cart         *handler.CartHandler
	Coupon       *handler.CouponHandler
	Order        *handler.OrderHandler
	Enrollment   *handler.EnrollmentHandler
	Wishlist     *handler.WishlistHandler
	Notification *handler.NotificationHandler
	Dashboard    *handler.DashboardHandler
	Pricing      *handler.PricingHandler
	DeadLetters  *handler.DeadLetterHandler
}

// isPublic reports whether the request may be served without a token. The
// catalog, reviews and pricing are readable anonymously.
func isPublic(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	p := r.URL.Path
	return p == "/categories" ||
		p == "/courses" || strings.HasPrefix(p, "/courses/") ||
		strings.HasPrefix(p, "/pricing/")
}

// SetupHumaAPI creates a Huma API instance
func SetupHumaAPI(cfg *config.Config, mw Middlewares, webhooks Webhooks, logger zerolog.Logger) (*chi.Mux, huma.API) {
	chiRouter := chi.NewRouter()

	// Apply middleware based on path
	chiRouter.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/docs" || strings.HasPrefix(r.URL.Path, "/openapi") || strings.HasPrefix(r.URL.Path, "/schemas"):
				next.ServeHTTP(w, r)
			case strings.HasPrefix(r.URL.Path, "/webhooks/"):
				// gateway signatures are verified by the webhook handlers
				next.ServeHTTP(w, r)
			case r.URL.Path == "/dlq/record":
				mw.PubSubAuth(next).ServeHTTP(w, r)
			case isPublic(r):
				mw.OptionalAuth(next).ServeHTTP(w, r)
			default:
				mw.Auth(next).ServeHTTP(w, r)
			}
		})
	})

	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	humaConfig := huma.DefaultConfig("CourseMart API v1", version)
	humaConfig.Info.Description = "CourseMart API - course catalog, multi-currency checkout and learning progress"
	humaConfig.Servers = []*huma.Server{{URL: cfg.APIBaseURL}}

	api := humachi.New(chiRouter, humaConfig)

	if webhooks.Stripe != nil {
		chiRouter.Post("/webhooks/stripe", webhooks.Stripe)
		logger.Info().Msg("Stripe webhook mounted at /webhooks/stripe")
	}
	if webhooks.Paystack != nil {
		chiRouter.Post("/webhooks/paystack", webhooks.Paystack)
		logger.Info().Msg("Paystack webhook mounted at /webhooks/paystack")
	}

	logger.Info().Str("version", version).Msg("Huma API initialized for /v1")
	return chiRouter, api
}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(api huma.API, h Handlers, logger zerolog.Logger) {
	logger.Info().Msg("Registering routes")

	// ========== USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "upsertUser",
		Method:      http.MethodPost,
		Path:        "/users/me",
		Summary:     "Create or update user profile",
		Description: "Creates the profile of the authenticated user or updates it",
		Tags:        []string{"users"},
	}, h.User.UpsertUser)

	huma.Register(api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get user profile",
		Description: "Retrieves the profile of the authenticated user",
		Tags:        []string{"users"},
	}, h.User.GetUser)

	huma.Register(api, huma.Operation{
		OperationID: "becomeInstructor",
		Method:      http.MethodPost,
		Path:        "/users/me/instructor",
		Summary:     "Become an instructor",
		Description: "Grants the authenticated user the instructor role",
		Tags:        []string{"users"},
	}, h.User.BecomeInstructor)

	huma.Register(api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/users/me/recommendations",
		Summary:     "Get course recommendations",
		Description: "Suggests published courses from categories the user engages with",
		Tags:        []string{"users", "courses"},
	}, h.Dashboard.GetRecommendations)

	huma.Register(api, huma.Operation{
		OperationID: "getInstructorDashboard",
		Method:      http.MethodGet,
		Path:        "/instructors/me/dashboard",
		Summary:     "Get instructor dashboard",
		Description: "Course counts, enrollments, revenue and ratings for the authenticated instructor",
		Tags:        []string{"instructors"},
	}, h.Dashboard.GetInstructorDashboard)

	// ========== CATALOG OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/categories",
		Summary:     "List categories",
		Tags:        []string{"categories"},
	}, h.Course.ListCategories)

	huma.Register(api, huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/categories",
		Summary:       "Create a category",
		Description:   "Creates a catalog category (admin only)",
		Tags:          []string{"categories"},
		DefaultStatus: http.StatusCreated,
	}, h.Course.CreateCategory)

	huma.Register(api, huma.Operation{
		OperationID: "listCourses",
		Method:      http.MethodGet,
		Path:        "/courses",
		Summary:     "Search courses",
		Description: "Lists published courses with filters, sorting and pagination",
		Tags:        []string{"courses"},
	}, h.Course.ListCourses)

	huma.Register(api, huma.Operation{
		OperationID:   "createCourse",
		Method:        http.MethodPost,
		Path:          "/courses",
		Summary:       "Create a course",
		Description:   "Creates a draft course owned by the authenticated instructor",
		Tags:          []string{"courses"},
		DefaultStatus: http.StatusCreated,
	}, h.Course.CreateCourse)

	huma.Register(api, huma.Operation{
		OperationID: "getCourse",
		Method:      http.MethodGet,
		Path:        "/courses/{courseId}",
		Summary:     "Get a course",
		Description: "Retrieves a course with its lessons",
		Tags:        []string{"courses"},
	}, h.Course.GetCourse)

	huma.Register(api, huma.Operation{
		OperationID: "updateCourse",
		Method:      http.MethodPatch,
		Path:        "/courses/{courseId}",
		Summary:     "Update a course",
		Tags:        []string{"courses"},
	}, h.Course.UpdateCourse)

	huma.Register(api, huma.Operation{
		OperationID:   "archiveCourse",
		Method:        http.MethodDelete,
		Path:          "/courses/{courseId}",
		Summary:       "Archive a course",
		Description:   "Removes a course from the catalog; existing enrollments keep access",
		Tags:          []string{"courses"},
		DefaultStatus: http.StatusNoContent,
	}, h.Course.ArchiveCourse)

	huma.Register(api, huma.Operation{
		OperationID: "publishCourse",
		Method:      http.MethodPost,
		Path:        "/courses/{courseId}/publish",
		Summary:     "Publish a course",
		Description: "Makes a course with at least one lesson visible in the catalog",
		Tags:        []string{"courses"},
	}, h.Course.PublishCourse)

	huma.Register(api, huma.Operation{
		OperationID: "thumbnailUploadURL",
		Method:      http.MethodPost,
		Path:        "/courses/{courseId}/thumbnail",
		Summary:     "Get thumbnail upload URL",
		Description: "Generates a presigned URL for uploading the course thumbnail",
		Tags:        []string{"courses"},
	}, h.Course.ThumbnailUploadURL)

	huma.Register(api, huma.Operation{
		OperationID: "listLessons",
		Method:      http.MethodGet,
		Path:        "/courses/{courseId}/lessons",
		Summary:     "List lessons",
		Tags:        []string{"lessons"},
	}, h.Course.ListLessons)

	huma.Register(api, huma.Operation{
		OperationID:   "createLesson",
		Method:        http.MethodPost,
		Path:          "/courses/{courseId}/lessons",
		Summary:       "Add a lesson",
		Description:   "Appends a lesson to the end of the course",
		Tags:          []string{"lessons"},
		DefaultStatus: http.StatusCreated,
	}, h.Course.CreateLesson)

	// ========== REVIEW OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/courses/{courseId}/reviews",
		Summary:     "List course reviews",
		Tags:        []string{"reviews"},
	}, h.Review.ListReviews)

	huma.Register(api, huma.Operation{
		OperationID: "createReview",
		Method:      http.MethodPost,
		Path:        "/courses/{courseId}/reviews",
		Summary:     "Review a course",
		Description: "Creates or replaces the authenticated learner's review",
		Tags:        []string{"reviews"},
	}, h.Review.CreateReview)

	// ========== CART OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getCart",
		Method:      http.MethodGet,
		Path:        "/cart",
		Summary:     "Get cart",
		Description: "Returns the cart with USD and converted subtotals",
		Tags:        []string{"cart"},
	}, h.Cart.GetCart)

	huma.Register(api, huma.Operation{
		OperationID:   "addCartItem",
		Method:        http.MethodPost,
		Path:          "/cart/items",
		Summary:       "Add course to cart",
		Tags:          []string{"cart"},
		DefaultStatus: http.StatusNoContent,
	}, h.Cart.AddItem)

	huma.Register(api, huma.Operation{
		OperationID:   "removeCartItem",
		Method:        http.MethodDelete,
		Path:          "/cart/items/{courseId}",
		Summary:       "Remove course from cart",
		Tags:          []string{"cart"},
		DefaultStatus: http.StatusNoContent,
	}, h.Cart.RemoveItem)

	huma.Register(api, huma.Operation{
		OperationID:   "clearCart",
		Method:        http.MethodDelete,
		Path:          "/cart",
		Summary:       "Clear cart",
		Tags:          []string{"cart"},
		DefaultStatus: http.StatusNoContent,
	}, h.Cart.Clear)

	// ========== COUPON OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createCoupon",
		Method:        http.MethodPost,
		Path:          "/coupons",
		Summary:       "Create a coupon",
		Description:   "Admins create any coupon; instructors create coupons for their own courses",
		Tags:          []string{"coupons"},
		DefaultStatus: http.StatusCreated,
	}, h.Coupon.CreateCoupon)

	huma.Register(api, huma.Operation{
		OperationID: "validateCoupon",
		Method:      http.MethodGet,
		Path:        "/coupons/{code}",
		Summary:     "Validate a coupon",
		Description: "Checks a coupon against the authenticated user's cart and returns the discount",
		Tags:        []string{"coupons"},
	}, h.Coupon.ValidateCoupon)

	// ========== ORDER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "checkout",
		Method:        http.MethodPost,
		Path:          "/checkout",
		Summary:       "Check out",
		Description:   "Creates an order from the cart and starts the gateway payment",
		Tags:          []string{"orders"},
		DefaultStatus: http.StatusCreated,
	}, h.Order.Checkout)

	huma.Register(api, huma.Operation{
		OperationID: "listOrders",
		Method:      http.MethodGet,
		Path:        "/orders",
		Summary:     "List orders",
		Tags:        []string{"orders"},
	}, h.Order.ListOrders)

	huma.Register(api, huma.Operation{
		OperationID: "getOrder",
		Method:      http.MethodGet,
		Path:        "/orders/{orderId}",
		Summary:     "Get an order",
		Tags:        []string{"orders"},
	}, h.Order.GetOrder)

	huma.Register(api, huma.Operation{
		OperationID: "verifyOrder",
		Method:      http.MethodPost,
		Path:        "/orders/{orderId}/verify",
		Summary:     "Verify an order payment",
		Description: "Asks the gateway for the payment state and fulfils the order when paid",
		Tags:        []string{"orders"},
	}, h.Order.VerifyOrder)

	huma.Register(api, huma.Operation{
		OperationID: "refundOrder",
		Method:      http.MethodPost,
		Path:        "/orders/{orderId}/refund",
		Summary:     "Refund an order",
		Description: "Refunds a paid order through its gateway and revokes its enrollments (admin only)",
		Tags:        []string{"orders"},
	}, h.Order.RefundOrder)

	// ========== LEARNING OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "enroll",
		Method:        http.MethodPost,
		Path:          "/courses/{courseId}/enroll",
		Summary:       "Enroll in a free course",
		Tags:          []string{"enrollments"},
		DefaultStatus: http.StatusCreated,
	}, h.Enrollment.Enroll)

	huma.Register(api, huma.Operation{
		OperationID: "listEnrollments",
		Method:      http.MethodGet,
		Path:        "/enrollments",
		Summary:     "List enrollments",
		Tags:        []string{"enrollments"},
	}, h.Enrollment.ListEnrollments)

	huma.Register(api, huma.Operation{
		OperationID: "completeLesson",
		Method:      http.MethodPost,
		Path:        "/courses/{courseId}/lessons/{lessonId}/complete",
		Summary:     "Complete a lesson",
		Description: "Records lesson progress and issues a certificate when the course is complete",
		Tags:        []string{"enrollments", "lessons"},
	}, h.Enrollment.CompleteLesson)

	huma.Register(api, huma.Operation{
		OperationID: "listCertificates",
		Method:      http.MethodGet,
		Path:        "/certificates",
		Summary:     "List certificates",
		Description: "Lists the user's certificates with short-lived download links",
		Tags:        []string{"certificates"},
	}, h.Enrollment.ListCertificates)

	// ========== WISHLIST OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getWishlist",
		Method:      http.MethodGet,
		Path:        "/wishlist",
		Summary:     "Get wishlist",
		Tags:        []string{"wishlist"},
	}, h.Wishlist.GetWishlist)

	huma.Register(api, huma.Operation{
		OperationID:   "addToWishlist",
		Method:        http.MethodPost,
		Path:          "/wishlist",
		Summary:       "Add course to wishlist",
		Tags:          []string{"wishlist"},
		DefaultStatus: http.StatusNoContent,
	}, h.Wishlist.AddToWishlist)

	huma.Register(api, huma.Operation{
		OperationID:   "removeFromWishlist",
		Method:        http.MethodDelete,
		Path:          "/wishlist/{courseId}",
		Summary:       "Remove course from wishlist",
		Tags:          []string{"wishlist"},
		DefaultStatus: http.StatusNoContent,
	}, h.Wishlist.RemoveFromWishlist)

	// ========== NOTIFICATION OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notifications",
		Tags:        []string{"notifications"},
	}, h.Notification.ListNotifications)

	huma.Register(api, huma.Operation{
		OperationID:   "markNotificationRead",
		Method:        http.MethodPost,
		Path:          "/notifications/{notificationId}/read",
		Summary:       "Mark notification read",
		Tags:          []string{"notifications"},
		DefaultStatus: http.StatusNoContent,
	}, h.Notification.MarkRead)

	huma.Register(api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/notifications/read-all",
		Summary:     "Mark all notifications read",
		Tags:        []string{"notifications"},
	}, h.Notification.MarkAllRead)

	// ========== PRICING OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listCurrencies",
		Method:      http.MethodGet,
		Path:        "/pricing/currencies",
		Summary:     "List supported currencies",
		Tags:        []string{"pricing"},
	}, h.Pricing.ListCurrencies)

	huma.Register(api, huma.Operation{
		OperationID: "listPaymentMethods",
		Method:      http.MethodGet,
		Path:        "/pricing/methods",
		Summary:     "List payment methods",
		Description: "Payment methods available for a country and currency",
		Tags:        []string{"pricing"},
	}, h.Pricing.ListPaymentMethods)

	huma.Register(api, huma.Operation{
		OperationID: "quoteCourse",
		Method:      http.MethodGet,
		Path:        "/pricing/quote",
		Summary:     "Quote a course",
		Description: "Prices a course in a currency and payment method, including coupon and processing fee",
		Tags:        []string{"pricing"},
	}, h.Pricing.Quote)

	// ========== DEAD LETTER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "recordDeadLetter",
		Method:        http.MethodPost,
		Path:          "/dlq/record",
		Summary:       "Record a dead letter event",
		Description:   "Pub/Sub push endpoint for order and enrollment events that exhausted their delivery attempts",
		Tags:          []string{"events"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeadLetters.RecordDeadLetter)

	logger.Info().Msg("All operations registered successfully")
}
