// Package notify exposes the dispatch-trigger endpoints.
package notify

import (
	"context"
	"encoding/json"
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
)

type dispatchService interface {
	Dispatch(ctx context.Context, user model.User, message string, channels []model.Channel) (model.Notification, error)
}

type userGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Handler handles notification dispatch endpoints.
type Handler struct {
	dispatch  dispatchService
	users     userGetter
	validator *validator.Validate
}

// NewHandler creates a new notify Handler.
func NewHandler(d dispatchService, u userGetter, v *validator.Validate) *Handler {
	return &Handler{dispatch: d, users: u, validator: v}
}

// Notify dispatches a message across the requested channel set.
//
// The response carries the dispatch record; per-channel failures are
// visible only through its flags, never as an error status.
func (h *Handler) Notify(c *ginext.Context) {
	var req dto.NotifyRequest

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

	channels := make([]model.Channel, 0, len(req.Channels))
	for _, ch := range req.Channels {
		channels = append(channels, model.Channel(ch))
	}

	h.run(c, req.Message, channels)
}

// NotifyEmail dispatches a message on the email channel only.
func (h *Handler) NotifyEmail(c *ginext.Context) {
	h.single(c, model.ChannelEmail)
}

// NotifySMS dispatches a message on the sms channel only.
func (h *Handler) NotifySMS(c *ginext.Context) {
	h.single(c, model.ChannelSMS)
}

// NotifyTelegram dispatches a message on the telegram channel only.
func (h *Handler) NotifyTelegram(c *ginext.Context) {
	h.single(c, model.ChannelTelegram)
}

func (h *Handler) single(c *ginext.Context, ch model.Channel) {
	var req dto.NotifyChannelRequest

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

	h.run(c, req.Message, []model.Channel{ch})
}

func (h *Handler) run(c *ginext.Context, message string, channels []model.Channel) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to get user")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	record, err := h.dispatch.Dispatch(c.Request.Context(), user, message, channels)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to dispatch notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, record)
}
