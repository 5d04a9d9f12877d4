package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	UpsertUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateRole(ctx context.Context, id, role string) error
	UpdateStripeCustomerID(ctx context.Context, id, customerID string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `user_id, email, name, avatar_url, role, country, preferred_currency, stripe_customer_id, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.Role,
		&u.Country,
		&u.PreferredCurrency,
		&u.StripeCustomerID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates the profile or refreshes its editable fields. Role and
// Stripe customer are never overwritten here.
func (r *userRepo) UpsertUser(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (user_id, email, name, avatar_url, country, preferred_currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			country = EXCLUDED.country,
			preferred_currency = EXCLUDED.preferred_currency,
			updated_at = NOW()
		RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query, u.UserID, u.Email, u.Name, u.AvatarURL, u.Country, u.PreferredCurrency)
	saved, err := scanUser(row)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.UserID, err)
	}
	*u = *saved
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE user_id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("updating role for user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdateStripeCustomerID(ctx context.Context, id, customerID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE user_id = $1`, id, customerID)
	if err != nil {
		return fmt.Errorf("storing stripe customer for user %s: %w", id, err)
	}
	return nil
}
