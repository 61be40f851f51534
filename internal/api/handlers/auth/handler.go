// Package auth exposes the login, registration and logout endpoints,
// including the telegram token bridge.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/avoronov/notigate/internal/api/dto"
	"github.com/avoronov/notigate/internal/api/middlewares"
	"github.com/avoronov/notigate/internal/api/respond"
	"github.com/avoronov/notigate/internal/config"
	"github.com/avoronov/notigate/internal/model"
	userrepo "github.com/avoronov/notigate/internal/repository/user"
	authsvc "github.com/avoronov/notigate/internal/service/auth"
)

// TokenCookie is the cookie carrying the pending login token.
const TokenCookie = "token"

type authService interface {
	Register(ctx context.Context, username, password string, email, phone *string) (model.User, error)
	LoginPassword(ctx context.Context, username, password string) (model.User, error)
	IssueToken() string
	ExchangeToken(ctx context.Context, token string) (model.User, error)
	ConsumeToken(ctx context.Context, userID uuid.UUID)
}

type sessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Get(ctx context.Context, id string) (uuid.UUID, error)
	Delete(ctx context.Context, id string) error
}

// Handler handles authentication endpoints.
type Handler struct {
	auth      authService
	sessions  sessionStore
	validator *validator.Validate
	cfg       *config.Config
}

// NewHandler creates a new auth Handler.
func NewHandler(auth authService, sessions sessionStore, v *validator.Validate, cfg *config.Config) *Handler {
	return &Handler{auth: auth, sessions: sessions, validator: v, cfg: cfg}
}

// LoginPage drives the telegram token bridge for an unauthenticated
// browser.
//
// An already-authenticated request is acknowledged as such. Otherwise,
// a request bearing a token cookie that the bot has bound is exchanged
// for a session (and the token cookie is cleared); an unbound token is
// kept and reissued on the cookie, so repeated page loads never rotate
// a pending token.
func (h *Handler) LoginPage(c *ginext.Context) {
	if sid, err := c.Cookie(middlewares.SessionCookie); err == nil && sid != "" {
		if _, err := h.sessions.Get(c.Request.Context(), sid); err == nil {
			respond.OK(c.Writer, map[string]any{"authenticated": true})
			return
		}
	}

	token, err := c.Cookie(TokenCookie)
	if err == nil && token != "" {
		user, exchangeErr := h.auth.ExchangeToken(c.Request.Context(), token)
		if exchangeErr == nil {
			sid, sessErr := h.sessions.Create(c.Request.Context(), user.ID)
			if sessErr != nil {
				// The stored token is untouched, so the next page load
				// can retry the exchange.
				zlog.Logger.Error().Err(sessErr).Msg("failed to create session")
				respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
				return
			}

			c.SetCookie(middlewares.SessionCookie, sid, int(h.cfg.Auth.SessionTTL.Seconds()), "/", "", false, true)
			c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
			h.auth.ConsumeToken(c.Request.Context(), user.ID)
			respond.OK(c.Writer, map[string]any{"authenticated": true, "user": user})
			return
		}

		if !errors.Is(exchangeErr, userrepo.ErrUserNotFound) {
			zlog.Logger.Error().Err(exchangeErr).Msg("failed to exchange token")
			respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
			return
		}
		// Token not bound yet: keep it and fall through to reissue the cookie.
	} else {
		token = h.auth.IssueToken()
	}

	c.SetCookie(TokenCookie, token, int(h.cfg.Auth.TokenTTL.Seconds()), "/", "", false, true)
	respond.OK(c.Writer, map[string]any{
		"authenticated": false,
		"token":         token,
		"bot_link":      h.cfg.Telegram.DeepLink(token),
	})
}

// Login handles password login.
func (h *Handler) Login(c *ginext.Context) {
	var req dto.LoginRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	user, err := h.auth.LoginPassword(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to login")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	h.establishSession(c, user)
}

// Register creates a new account and logs it in.
func (h *Handler) Register(c *ginext.Context) {
	var req dto.RegisterRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Email, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserExists) {
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("username already taken"))
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to register")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	sid, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to create session")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	c.SetCookie(middlewares.SessionCookie, sid, int(h.cfg.Auth.SessionTTL.Seconds()), "/", "", false, true)
	respond.Created(c.Writer, user)
}

// Logout terminates the current session.
func (h *Handler) Logout(c *ginext.Context) {
	sid, err := c.Cookie(middlewares.SessionCookie)
	if err == nil && sid != "" {
		if err := h.sessions.Delete(c.Request.Context(), sid); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	respond.OK(c.Writer, map[string]any{"authenticated": false})
}

func (h *Handler) establishSession(c *ginext.Context, user model.User) {
	sid, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to create session")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	c.SetCookie(middlewares.SessionCookie, sid, int(h.cfg.Auth.SessionTTL.Seconds()), "/", "", false, true)
	respond.OK(c.Writer, user)
}
