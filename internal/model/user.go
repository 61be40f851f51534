package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
//
// Email, PhoneNumber and TelegramID are optional destinations; a nil
// value means the corresponding channel has no destination on file.
// Token holds the pending telegram login token, if any.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        *string   `json:"email"`
	PhoneNumber  *string   `json:"phone_number"`
	TelegramID   *int64    `json:"telegram_id"`
	Token        *string   `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
