// Package dispatch implements multi-channel notification delivery.
//
// One dispatch creates a single record, then attempts each requested
// channel independently: a failing channel is logged and skipped, never
// aborting the remaining channels, and each success is persisted on its
// own so partial progress survives a crash mid-dispatch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/avoronov/notigate/internal/model"
	"github.com/avoronov/notigate/pkg/transport"
)

// FailureKind classifies why a channel attempt failed.
type FailureKind string

const (
	// ConfigurationMissing means the user has no destination on file
	// for the channel; no transport call was made.
	ConfigurationMissing FailureKind = "configuration_missing"
	// TransportRejected means the remote API was reachable but refused
	// the send.
	TransportRejected FailureKind = "transport_rejected"
	// TransportUnreachable means the transport could not be reached or
	// did not answer within the channel timeout.
	TransportUnreachable FailureKind = "transport_unreachable"
)

// ChannelError is the terminal-but-local failure of one channel attempt.
// It never propagates past the orchestrator; callers observe outcomes
// through the record's flags only.
type ChannelError struct {
	Channel model.Channel
	Kind    FailureKind
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %s: %v", e.Channel, e.Kind, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// Sender performs exactly one transport call per invocation.
type Sender interface {
	Send(ctx context.Context, to, msg string) error
}

type notificationRepository interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, channel model.Channel) error
}

// Service orchestrates notification dispatch across channels.
type Service struct {
	repo    notificationRepository
	senders map[model.Channel]Sender
	timeout time.Duration // per-channel send timeout
}

// NewService creates a dispatch Service with the given channel senders.
func NewService(repo notificationRepository, senders map[model.Channel]Sender, timeout time.Duration) *Service {
	return &Service{repo: repo, senders: senders, timeout: timeout}
}

// Dispatch attempts delivery of message to user across the requested
// channels and returns the record reflecting exactly which channels
// succeeded.
//
// Channels are attempted in fixed order (email, sms, telegram). The
// only error returned is a failure to create the initial record; once
// the record exists, channel failures are folded into it and Dispatch
// always returns nil.
func (s *Service) Dispatch(ctx context.Context, user model.User, message string, channels []model.Channel) (model.Notification, error) {
	if message == "" {
		return model.Notification{}, fmt.Errorf("message must not be empty")
	}
	if len(channels) == 0 {
		return model.Notification{}, fmt.Errorf("at least one channel must be requested")
	}

	record, err := s.repo.CreateNotification(ctx, user.ID, message)
	if err != nil {
		return model.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	requested := make(map[model.Channel]bool, len(channels))
	for _, ch := range channels {
		requested[ch] = true
	}

	for _, ch := range model.AllChannels() {
		if !requested[ch] {
			continue
		}

		if cerr := s.attempt(ctx, ch, user, message); cerr != nil {
			zlog.Logger.Warn().
				Str("notification_id", record.ID.String()).
				Str("channel", string(cerr.Channel)).
				Str("kind", string(cerr.Kind)).
				Err(cerr.Err).
				Msg("channel delivery failed")
			continue
		}

		if err := s.repo.MarkSent(ctx, record.ID, ch); err != nil {
			zlog.Logger.Error().
				Str("notification_id", record.ID.String()).
				Str("channel", string(ch)).
				Err(err).
				Msg("failed to persist delivery flag")
			continue
		}

		setFlag(&record, ch)
	}

	return record, nil
}

// attempt resolves the destination, performs one bounded transport call
// and classifies any failure.
func (s *Service) attempt(ctx context.Context, ch model.Channel, user model.User, message string) *ChannelError {
	to, cerr := destination(ch, user)
	if cerr != nil {
		return cerr
	}

	sender, ok := s.senders[ch]
	if !ok {
		return &ChannelError{
			Channel: ch,
			Kind:    ConfigurationMissing,
			Err:     fmt.Errorf("no sender configured for channel %s", ch),
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := sender.Send(sendCtx, to, message); err != nil {
		kind := TransportUnreachable
		if errors.Is(err, transport.ErrRejected) {
			kind = TransportRejected
		}

		return &ChannelError{Channel: ch, Kind: kind, Err: err}
	}

	return nil
}

// destination resolves the channel's address for the user, reporting
// ConfigurationMissing when none is on file.
func destination(ch model.Channel, user model.User) (string, *ChannelError) {
	missing := func(what string) *ChannelError {
		return &ChannelError{
			Channel: ch,
			Kind:    ConfigurationMissing,
			Err:     fmt.Errorf("user %s has no %s on file", user.ID, what),
		}
	}

	switch ch {
	case model.ChannelEmail:
		if user.Email == nil || *user.Email == "" {
			return "", missing("email address")
		}
		return *user.Email, nil
	case model.ChannelSMS:
		if user.PhoneNumber == nil || *user.PhoneNumber == "" {
			return "", missing("phone number")
		}
		return *user.PhoneNumber, nil
	case model.ChannelTelegram:
		if user.TelegramID == nil {
			return "", missing("telegram binding")
		}
		return strconv.FormatInt(*user.TelegramID, 10), nil
	}

	return "", missing("destination")
}

func setFlag(n *model.Notification, ch model.Channel) {
	switch ch {
	case model.ChannelEmail:
		n.EmailSent = true
	case model.ChannelSMS:
		n.SMSSent = true
	case model.ChannelTelegram:
		n.TelegramSent = true
	}
}
