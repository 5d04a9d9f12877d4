package service

import (
	"context"
	"testing"

	"coursemart/internal/model"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUserCurrency(t *testing.T) {
	tests := []struct {
		name, country, currency string
		wantCountry, want       string
		err                     error
	}{
		{"nigeria defaults to naira", " ng ", "", "NG", "NGN", nil},
		{"euro area", "de", "", "DE", "EUR", nil},
		{"unknown country falls back to usd", "BR", "", "BR", "USD", nil},
		{"explicit preference wins", "NG", "gbp", "NG", "GBP", nil},
		{"unsupported currency", "US", "XYZ", "", "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := NewUserService(repo, pricing.Default(), zerolog.Nop())

			u, err := svc.Upsert(context.Background(), &model.User{UserID: "u1", Country: tt.country, PreferredCurrency: tt.currency})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, repo.users)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCountry, u.Country)
			assert.Equal(t, tt.want, u.PreferredCurrency)
			assert.Equal(t, model.RoleStudent, repo.users["u1"].Role)
		})
	}
}

func TestBecomeInstructor(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(
		&model.User{UserID: "student", Role: model.RoleStudent},
		&model.User{UserID: "admin", Role: model.RoleAdmin},
	)
	svc := NewUserService(repo, pricing.Default(), zerolog.Nop())

	u, err := svc.BecomeInstructor(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, u.Role)
	assert.Equal(t, model.RoleInstructor, repo.users["student"].Role)

	// admins already teach and keep their role
	u, err = svc.BecomeInstructor(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = svc.BecomeInstructor(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
