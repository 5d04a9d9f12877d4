package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Core
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`
	LogLevel           string `envconfig:"LOG_LEVEL"`
	APIBaseURL         string `envconfig:"API_BASE_URL" default:"http://localhost:8080/v1"`
	FrontendURL        string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`

	// Supabase storage (S3 compatible)
	S3URL       string `envconfig:"SUPABASE_S3_URL"`
	S3Bucket    string `envconfig:"SUPABASE_S3_BUCKET" default:"coursemart"`
	S3Region    string `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"SUPABASE_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"SUPABASE_S3_SECRET_KEY"`

	// Payment gateways
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	PaystackSecretKey   string `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL     string `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`

	// Email
	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	EmailFromName  string `envconfig:"EMAIL_FROM_NAME" default:"CourseMart"`
	EmailFromAddr  string `envconfig:"EMAIL_FROM_ADDRESS" default:"no-reply@coursemart.dev"`

	// GCP
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubOrdersTopic             string `envconfig:"PUBSUB_ORDERS_TOPIC" default:"orders"`
	PubSubEnrollmentsTopic        string `envconfig:"PUBSUB_ENROLLMENTS_TOPIC" default:"enrollments"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
	SecretManagerEnabled          bool   `envconfig:"SECRET_MANAGER_ENABLED" default:"false"`

	// Fulfillment worker
	FulfillmentQueueName           string `envconfig:"FULFILLMENT_QUEUE_NAME" default:"order_receipts"`
	FulfillmentDeadLetterQueueName string `envconfig:"FULFILLMENT_DEAD_LETTER_QUEUE_NAME" default:"order_receipts_dlq"`
	FulfillmentPollTimeoutSec      int    `envconfig:"FULFILLMENT_POLL_TIMEOUT_SEC" default:"30"`
	FulfillmentPollMaxMsg          int    `envconfig:"FULFILLMENT_POLL_MAX_MSG" default:"1"`
	FulfillmentMaxRetries          int    `envconfig:"FULFILLMENT_MAX_RETRIES" default:"5"`
	FulfillmentBackoffInitialSec   int    `envconfig:"FULFILLMENT_BACKOFF_INITIAL_SEC" default:"1"`
	FulfillmentBackoffMaxSec       int    `envconfig:"FULFILLMENT_BACKOFF_MAX_SEC" default:"60"`

	// Scheduler
	ExpiryCron         string `envconfig:"EXPIRY_CRON" default:"*/15 * * * *"`
	OrderPendingTTLMin int    `envconfig:"ORDER_PENDING_TTL_MIN" default:"1440"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// StorageEnabled reports whether Supabase storage credentials are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3URL != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
