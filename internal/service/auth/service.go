// Package auth implements account management and the token bridge that
// pairs a browser session with a telegram identity.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/crypto/bcrypt"

	"github.com/avoronov/notigate/internal/model"
	userrepo "github.com/avoronov/notigate/internal/repository/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotSuperuser       = errors.New("caller is not a superuser")
)

type userRepository interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByToken(ctx context.Context, token string) (model.User, error)
	UpsertByTelegramID(ctx context.Context, telegramID int64, username, token string) (model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, phone *string) error
	ClearToken(ctx context.Context, id uuid.UUID) error
	SetSuperuser(ctx context.Context, id uuid.UUID) error
}

// Service provides account and login-token operations.
type Service struct {
	repo userRepository
}

// NewService creates a new auth Service.
func NewService(repo userRepository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account with a bcrypt password hash and
// returns it.
func (s *Service) Register(ctx context.Context, username, password string, email, phone *string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		PhoneNumber:  phone,
	}

	created, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

// LoginPassword authenticates a username/password pair.
func (s *Service) LoginPassword(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return model.User{}, ErrInvalidCredentials
		}

		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// IssueToken generates an unguessable login token for the token bridge.
func (s *Service) IssueToken() string {
	return uuid.NewString()
}

// BindTelegram attaches a telegram chat identity to an account, creating
// the account if the chat id is unknown. The received token overwrites
// any previously pending token on that account.
func (s *Service) BindTelegram(ctx context.Context, telegramID int64, username, token string) (model.User, error) {
	if username == "" {
		username = fmt.Sprintf("tg_%d", telegramID)
	}

	u, err := s.repo.UpsertByTelegramID(ctx, telegramID, username, token)
	if err != nil {
		return model.User{}, fmt.Errorf("bind telegram: %w", err)
	}

	return u, nil
}

// ExchangeToken finds the account whose pending token matches. The
// token stays on the row until ConsumeToken is called, so a binding is
// not burned when session setup fails after the lookup.
//
// An unbound token returns ErrUserNotFound from the repository; the
// caller keeps the flow in its token-issued state.
func (s *Service) ExchangeToken(ctx context.Context, token string) (model.User, error) {
	return s.repo.GetByToken(ctx, token)
}

// ConsumeToken clears the pending token once the browser session has
// been established, so the token cannot be replayed.
func (s *Service) ConsumeToken(ctx context.Context, userID uuid.UUID) {
	if err := s.repo.ClearToken(ctx, userID); err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear login token")
	}
}

// GetUser retrieves an account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile updates the user's notification destinations.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, email, phone *string) error {
	return s.repo.UpdateProfile(ctx, id, email, phone)
}

// Promote grants superuser status to the target account. The caller
// must already be a superuser; there is no self-service elevation.
func (s *Service) Promote(ctx context.Context, callerID uuid.UUID, targetUsername string) error {
	caller, err := s.repo.GetByID(ctx, callerID)
	if err != nil {
		return fmt.Errorf("get caller: %w", err)
	}

	if !caller.IsSuperuser {
		return ErrNotSuperuser
	}

	target, err := s.repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return fmt.Errorf("get target: %w", err)
	}

	return s.repo.SetSuperuser(ctx, target.ID)
}
