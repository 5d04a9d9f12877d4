package middleware

import (
	"context"
	"errors"
	"net/http"

	"coursemart/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

var (
	errPushNotConfigured = errors.New("push endpoint has no audience or service account")
	errPushNoToken       = errors.New("missing bearer token")
	errPushBadToken      = errors.New("invalid push token")
	errPushWrongAccount  = errors.New("push token signed for another service account")
)

// PushAuth describes who may deliver dead letter events to the API.
type PushAuth struct {
	// Emulator disables verification; the Pub/Sub emulator sends no token.
	Emulator       bool
	Audience       string
	ServiceAccount string

	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// PushAuthFromConfig reads the push settings of the dead letter endpoint.
func PushAuthFromConfig(cfg *config.Config) PushAuth {
	return PushAuth{
		Emulator:       cfg.PubSubEmulatorHost != "",
		Audience:       cfg.DLQEndpointURL,
		ServiceAccount: cfg.PubSubPushServiceAccountEmail,
	}
}

func (a PushAuth) verify(r *http.Request) (string, error) {
	if a.Audience == "" || a.ServiceAccount == "" {
		return "", errPushNotConfigured
	}
	token, ok := bearerToken(r)
	if !ok {
		return "", errPushNoToken
	}
	validate := a.validate
	if validate == nil {
		validate = idtoken.Validate
	}
	payload, err := validate(r.Context(), token, a.Audience)
	if err != nil {
		return "", errors.Join(errPushBadToken, err)
	}
	email, _ := payload.Claims["email"].(string)
	if verified, _ := payload.Claims["email_verified"].(bool); !verified || email != a.ServiceAccount {
		return email, errPushWrongAccount
	}
	return email, nil
}

func pushStatus(err error) int {
	switch {
	case errors.Is(err, errPushNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, errPushWrongAccount):
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// PubSubAuthMiddleware admits Pub/Sub push deliveries whose OIDC token was
// issued to the configured service account for the endpoint's audience.
func PubSubAuthMiddleware(auth PushAuth, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "PubSubAuth").Logger()
	if auth.Emulator {
		logger.Warn().Msg("Pub/Sub emulator in use; push tokens are not verified")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.Emulator {
				next.ServeHTTP(w, r)
				return
			}
			email, err := auth.verify(r)
			if err != nil {
				status := pushStatus(err)
				ev := logger.Warn()
				if status == http.StatusInternalServerError {
					ev = logger.Error()
				}
				ev.Err(err).Str("path", r.URL.Path).Str("token_email", email).Int("status", status).
					Msg("Rejected Pub/Sub push")
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
