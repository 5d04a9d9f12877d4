package dto

import "time"

type UserUpsertDTO struct {
	Name              string `json:"name" validate:"required" minLength:"1" doc:"Display name"`
	Email             string `json:"email" validate:"omitempty,email" doc:"Contact email used for receipts and certificates"`
	AvatarURL         string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Country           string `json:"country,omitempty" validate:"omitempty,len=2,alpha" doc:"ISO 3166-1 alpha-2 country code"`
	PreferredCurrency string `json:"preferred_currency,omitempty" validate:"omitempty,len=3,alpha" doc:"ISO 4217 currency code; defaults from country"`
}

type UserResponseDTO struct {
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	AvatarURL         string    `json:"avatar_url"`
	Role              string    `json:"role"`
	Country           string    `json:"country"`
	PreferredCurrency string    `json:"preferred_currency"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
