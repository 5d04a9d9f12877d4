package main

import (
	"context"
	"errors"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// host.docker.internal lets the emulator container reach the API on the host.
const dlqEndpointLocal = "http://host.docker.internal:8080/v1/dlq/record"

const (
	retention       = 7 * 24 * time.Hour
	ackDeadline     = 60 * time.Second
	subscriptionTTL = 31 * 24 * time.Hour
)

var retryPolicy = &pubsub.RetryPolicy{
	MinimumBackoff: 10 * time.Second,
	MaximumBackoff: 600 * time.Second,
}

// Resets the local Pub/Sub emulator and recreates the event topics. Each topic
// gets a pull subscription for downstream consumers that dead-letters into
// <topic>-dlq, whose push subscription records failures through /v1/dlq/record.
func main() {
	logger := logger.New()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the emulator")
	}
	endpoint := cfg.DLQEndpointURL
	if endpoint == "" {
		endpoint = dlqEndpointLocal
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close Pub/Sub client")
		}
	}()

	if err := resetEmulator(ctx, client, logger); err != nil {
		logger.Fatal().Msgf("Failed to reset emulator: %v", err)
	}
	for _, topicID := range []string{cfg.PubSubOrdersTopic, cfg.PubSubEnrollmentsTopic} {
		if err := setupTopic(ctx, client, topicID, endpoint, logger); err != nil {
			logger.Fatal().Msgf("Failed to set up topic %s: %v", topicID, err)
		}
	}
	logger.Info().Msg("Pub/Sub setup for local environment complete")
}

// resetEmulator deletes every subscription and topic in the project.
func resetEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) error {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		logger.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		logger.Info().Str("topic", topic.ID()).Msg("Deleting topic")
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
	return nil
}

func setupTopic(ctx context.Context, client *pubsub.Client, topicID, dlqEndpoint string, logger zerolog.Logger) error {
	log := logger.With().Str("topic", topicID).Logger()

	dlqTopic, err := ensureTopic(ctx, client, topicID+"-dlq", log)
	if err != nil {
		return err
	}
	mainTopic, err := ensureTopic(ctx, client, topicID, log)
	if err != nil {
		return err
	}

	if err := ensureSubscription(ctx, client, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      ackDeadline,
		ExpirationPolicy: subscriptionTTL,
		RetryPolicy:      retryPolicy,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	}, log); err != nil {
		return err
	}

	return ensureSubscription(ctx, client, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		PushConfig:       pubsub.PushConfig{Endpoint: dlqEndpoint},
		AckDeadline:      ackDeadline,
		ExpirationPolicy: subscriptionTTL,
		RetryPolicy:      retryPolicy,
	}, log)
}

func ensureTopic(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*pubsub.Topic, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Info().Str("id", topicID).Msg("Topic already exists")
		return topic, nil
	}
	logger.Info().Str("id", topicID).Dur("retention", retention).Msg("Creating topic")
	return client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, subID string, cfg pubsub.SubscriptionConfig, logger zerolog.Logger) error {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.Info().Str("subscription", subID).Str("push_endpoint", cfg.PushConfig.Endpoint).Msg("Creating subscription")
		_, err := client.CreateSubscription(ctx, subID, cfg)
		return err
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		return err
	}
	if existing.PushConfig.Endpoint == cfg.PushConfig.Endpoint && existing.AckDeadline == cfg.AckDeadline {
		logger.Info().Str("subscription", subID).Msg("Subscription is up to date")
		return nil
	}
	logger.Info().Str("subscription", subID).Msg("Updating subscription")
	_, err = sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		PushConfig:  &cfg.PushConfig,
		AckDeadline: cfg.AckDeadline,
		RetryPolicy: cfg.RetryPolicy,
	})
	return err
}
