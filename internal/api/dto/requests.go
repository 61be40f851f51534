package dto

// LoginRequest is the password-login request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the account-registration request body.
type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,min=3"`
	Password    string  `json:"password" validate:"required,min=8"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
}

// UpdateProfileRequest is the profile-edit request body.
type UpdateProfileRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
}

// NotifyRequest is the dispatch-trigger request body.
type NotifyRequest struct {
	Message  string   `json:"message" validate:"required"`
	Channels []string `json:"channels" validate:"required,min=1,dive,oneof=email sms telegram"`
}

// NotifyChannelRequest triggers dispatch on a single preset channel.
type NotifyChannelRequest struct {
	Message string `json:"message" validate:"required"`
}

// PromoteRequest names the account to elevate.
type PromoteRequest struct {
	Username string `json:"username" validate:"required"`
}
