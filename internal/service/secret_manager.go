package service

import (
	"context"
	"fmt"
	"strings"

	"coursemart/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
)

// Secret names read when the matching config value is empty
const (
	SecretStripeKey      = "stripe-secret-key"
	SecretStripeWebhook  = "stripe-webhook-secret"
	SecretPaystackKey    = "paystack-secret-key"
	SecretSendgridAPIKey = "sendgrid-api-key"
)

type SecretManagerService interface {
	// GetSecret returns the latest version of a project secret
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{client: client, projectID: cfg.GCPProjectID}, nil
}

func secretVersionPath(projectID, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}

func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionPath(s.projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// ResolveSecrets fills empty gateway and email credentials in cfg from the
// secret store. Secrets that cannot be read are left empty and logged.
func ResolveSecrets(ctx context.Context, cfg *config.Config, secrets SecretManagerService, logger zerolog.Logger) {
	targets := []struct {
		name  string
		value *string
	}{
		{SecretStripeKey, &cfg.StripeSecretKey},
		{SecretStripeWebhook, &cfg.StripeWebhookSecret},
		{SecretPaystackKey, &cfg.PaystackSecretKey},
		{SecretSendgridAPIKey, &cfg.SendgridAPIKey},
	}
	for _, t := range targets {
		if *t.value != "" {
			continue
		}
		v, err := secrets.GetSecret(ctx, t.name)
		if err != nil {
			logger.Warn().Err(err).Str("secret", t.name).Msg("Secret not resolved")
			continue
		}
		*t.value = v
		logger.Info().Str("secret", t.name).Msg("Secret loaded from Secret Manager")
	}
}
