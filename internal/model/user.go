package model

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a user profile keyed by the Supabase auth subject
type User struct {
	UserID            string    `db:"user_id" json:"user_id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	AvatarURL         string    `db:"avatar_url" json:"avatar_url"`
	Role              string    `db:"role" json:"role"`
	Country           string    `db:"country" json:"country"`
	PreferredCurrency string    `db:"preferred_currency" json:"preferred_currency"`
	StripeCustomerID  *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CanTeach reports whether the user may author courses.
func (u *User) CanTeach() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}

// IsAdmin reports whether the user is an administrator.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
