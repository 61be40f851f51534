// Package account exposes the profile view/edit endpoints and the
// superuser elevation endpoint.
package account

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
	"github.com/avoronov/notigate/internal/model"
	userrepo "github.com/avoronov/notigate/internal/repository/user"
	authsvc "github.com/avoronov/notigate/internal/service/auth"
)

type accountService interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, phone *string) error
	Promote(ctx context.Context, callerID uuid.UUID, targetUsername string) error
}

type notificationLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
}

// Handler handles account endpoints.
type Handler struct {
	service       accountService
	notifications notificationLister
	validator     *validator.Validate
}

// NewHandler creates a new account Handler.
func NewHandler(s accountService, n notificationLister, v *validator.Validate) *Handler {
	return &Handler{service: s, notifications: n, validator: v}
}

// Get returns the authenticated user's profile and dispatch history.
func (h *Handler) Get(c *ginext.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to get user")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	history, err := h.notifications.ListByUser(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]any{"user": user, "notifications": history})
}

// Update edits the authenticated user's notification destinations.
func (h *Handler) Update(c *ginext.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	var req dto.UpdateProfileRequest

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

	if err := h.service.UpdateProfile(c.Request.Context(), userID, req.Email, req.PhoneNumber); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to update profile")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, "profile updated")
}

// Promote grants superuser status to the named account. The caller
// must already be a superuser.
func (h *Handler) Promote(c *ginext.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	var req dto.PromoteRequest

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

	if err := h.service.Promote(c.Request.Context(), userID, req.Username); err != nil {
		if errors.Is(err, authsvc.ErrNotSuperuser) {
			respond.Fail(c.Writer, http.StatusForbidden, fmt.Errorf("superuser privileges required"))
			return
		}

		if errors.Is(err, userrepo.ErrUserNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("user not found"))
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to promote user")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, "user promoted")
}
