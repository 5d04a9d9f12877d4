package router

import (
	"context"
	"net/http"
	"strings"

	"coursemart/internal/api/v1/handler"
	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/middleware"
	"coursemart/internal/paystack"
	"coursemart/internal/pgmq"
	"coursemart/internal/pricing"
	"coursemart/internal/pubsub"
	"coursemart/internal/repository"
	"coursemart/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires every dependency of the API and returns the root handler. The
// returned cleanup func releases the DB pool and the event publisher.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	ctx := context.Background()
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")
	logger.Info().Str("db_connection_string_port_check", getPortFromDSN(cfg.DBConnectionString)).Msg("DB connection string port")

	// 1. Resolve secrets from Secret Manager when enabled
	if cfg.SecretManagerEnabled {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		service.ResolveSecrets(ctx, cfg, secrets, logger)
		secrets.Close()
	}

	// 2. Open DB pool
	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	// pgmq goes through database/sql on the same pool
	jobs := pgmq.New(stdlib.OpenDBFromPool(pool))

	// 3. Storage
	storage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	// 4. Event publisher
	var publisher pubsub.Publisher
	closePublisher := func() {}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		publisher = p
		closePublisher = func() {
			if err := p.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close Pub/Sub publisher")
			}
		}
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set; events are written to the log")
		publisher = pubsub.NewLogPublisher(logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	prices := pricing.Default()

	// 5. Repositories
	userRepo := repository.NewUserRepo(pool)
	categoryRepo := repository.NewCategoryRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	lessonRepo := repository.NewLessonRepo(pool)
	cartRepo := repository.NewCartRepo(pool)
	couponRepo := repository.NewCouponRepo(pool)
	orderRepo := repository.NewOrderRepo(pool)
	enrollmentRepo := repository.NewEnrollmentRepo(pool)
	certificateRepo := repository.NewCertificateRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	wishlistRepo := repository.NewWishlistRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	dashboardRepo := repository.NewDashboardRepo(pool)
	deadLetterRepo := repository.NewDeadLetterRepo(pool)

	// 6. Services
	var email service.EmailService
	if cfg.SendgridAPIKey != "" {
		email = service.NewSendgridEmailService(cfg.SendgridAPIKey, cfg.EmailFromName, cfg.EmailFromAddr, prices, logger)
	} else {
		email = service.NewLogEmailService(prices, logger)
	}
	events := service.NewEventPublisher(publisher, cfg.PubSubOrdersTopic, cfg.PubSubEnrollmentsTopic, logger)
	notificationSvc := service.NewNotificationService(notificationRepo, logger)
	userSvc := service.NewUserService(userRepo, prices, logger)
	courseSvc := service.NewCourseService(courseRepo, lessonRepo, categoryRepo, userRepo, storage, logger)
	certificateSvc := service.NewCertificateService(certificateRepo, courseRepo, userRepo, storage, notificationSvc, email, logger)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, lessonRepo, certificateSvc, notificationSvc, events, logger)
	reviewSvc := service.NewReviewService(reviewRepo, courseRepo, enrollmentRepo, logger)
	wishlistSvc := service.NewWishlistService(wishlistRepo, courseRepo, logger)
	couponSvc := service.NewCouponService(couponRepo, courseRepo, userRepo, cartRepo, logger)
	cartSvc := service.NewCartService(cartRepo, courseRepo, enrollmentRepo, userRepo, prices, logger)
	pricingSvc := service.NewPricingService(prices, courseRepo, couponSvc)
	dashboardSvc := service.NewDashboardService(dashboardRepo, courseRepo, userRepo, logger)
	deadLetterSvc := service.NewDeadLetterService(deadLetterRepo, logger)

	var gateways []service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, service.NewStripeGateway(cfg.StripeSecretKey, cfg.FrontendURL, userRepo, logger))
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set; card checkout is disabled")
	}
	if cfg.PaystackSecretKey != "" {
		client := paystack.New(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
		gateways = append(gateways, service.NewPaystackGateway(client, cfg.FrontendURL, logger))
	} else {
		logger.Warn().Msg("PAYSTACK_SECRET_KEY not set; local payment methods are disabled")
	}

	orderSvc := service.NewOrderService(service.OrderDeps{
		Orders:        orderRepo,
		Carts:         cartRepo,
		Courses:       courseRepo,
		Enrollments:   enrollmentRepo,
		Users:         userRepo,
		Coupons:       couponSvc,
		Notifications: notificationSvc,
		Events:        events,
		Jobs:          jobs,
		ReceiptQueue:  cfg.FulfillmentQueueName,
		Prices:        prices,
		Gateways:      gateways,
	}, logger)

	var webhooks Webhooks
	if cfg.StripeWebhookSecret != "" {
		webhooks.Stripe = service.NewStripeWebhook(cfg.StripeWebhookSecret, orderSvc, logger).HandleWebhook
	}
	if cfg.PaystackSecretKey != "" {
		webhooks.Paystack = service.NewPaystackWebhook(cfg.PaystackSecretKey, orderRepo, orderSvc, logger).HandleWebhook
	}

	// 7. Handlers
	handlers := Handlers{
		User:         handler.NewUserHandler(userSvc, validate, logger),
		Course:       handler.NewCourseHandler(courseSvc, prices, validate, logger),
		Review:       handler.NewReviewHandler(reviewSvc, validate, logger),
		Cart:         handler.NewCartHandler(cartSvc, prices, validate, logger),
		Coupon:       handler.NewCouponHandler(couponSvc, validate, logger),
		Order:        handler.NewOrderHandler(orderSvc, prices, validate, logger),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentSvc, certificateSvc, logger),
		Wishlist:     handler.NewWishlistHandler(wishlistSvc, validate, logger),
		Notification: handler.NewNotificationHandler(notificationSvc, logger),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc, prices, logger),
		Pricing:      handler.NewPricingHandler(pricingSvc, logger),
		DeadLetters:  handler.NewDeadLetterHandler(deadLetterSvc, logger),
	}

	// 8. Middleware
	mw := Middlewares{
		Auth:         middleware.AuthMiddleware(cfg.JWTSecret, logger),
		OptionalAuth: middleware.OptionalAuthMiddleware(cfg.JWTSecret, logger),
		PubSubAuth:   middleware.PubSubAuthMiddleware(middleware.PushAuthFromConfig(cfg), logger),
	}

	// 9. Huma API mounted under /v1
	chiRouter, api := SetupHumaAPI(cfg, mw, webhooks, logger)
	RegisterRoutes(api, handlers, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", chiRouter))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	cleanup := func() {
		closePublisher()
		pool.Close()
	}
	logger.Info().Int("gateways", len(gateways)).Msg("Router initialized")
	return middleware.RequestLogger(logger)(c.Handler(mux)), cleanup, nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service.StorageService, error) {
	if !cfg.StorageEnabled() {
		logger.Warn().Msg("Supabase storage not configured; thumbnails and certificate files are disabled")
		return service.NewDisabledStorage(), nil
	}
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})
	return service.NewS3Storage(client, cfg.S3Bucket, logger), nil
}

// getPortFromDSN extracts the port from a URL style DSN for debugging.
func getPortFromDSN(dsn string) string {
	parts := strings.Split(dsn, ":")
	for i, part := range parts {
		if strings.Contains(part, "@") && len(parts) > i+1 {
			return strings.Split(parts[i+1], "/")[0]
		}
	}
	return "not_found"
}

// removeDisableGzip works around signature errors against Supabase storage.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
