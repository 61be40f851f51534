// Package bot runs the telegram side of the token bridge: it long-polls
// for /start commands and binds the carried login token to the chat
// identity.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/avoronov/notigate/internal/model"
	"github.com/avoronov/notigate/pkg/telegram"
)

const (
	msgLoggedIn   = "You are logged in. Open the site to continue."
	msgBindFailed = "Something went wrong while logging you in. Please try again."
	msgNeedToken  = "To log in, follow the link on the site's login page."

	errorPause = time.Second // pause before re-polling after an API error
)

type api interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboard) error
}

type authService interface {
	BindTelegram(ctx context.Context, telegramID int64, username, token string) (model.User, error)
}

// Bot consumes telegram updates and handles the /start command.
type Bot struct {
	api         api
	auth        authService
	loginURL    string
	pollTimeout time.Duration
}

// New creates a Bot around an injected telegram client.
func New(api api, auth authService, loginURL string, pollTimeout time.Duration) *Bot {
	return &Bot{api: api, auth: auth, loginURL: loginURL, pollTimeout: pollTimeout}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	zlog.Logger.Info().Msg("bot started")

	var offset int64

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("bot stopped")
			return
		default:
		}

		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				zlog.Logger.Info().Msg("bot stopped")
				return
			}

			zlog.Logger.Error().Err(err).Msg("failed to get updates")

			select {
			case <-ctx.Done():
			case <-time.After(errorPause):
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			b.handleUpdate(ctx, upd)
		}
	}
}

// handleUpdate processes one update. Only /start commands are handled;
// everything else is ignored.
func (b *Bot) handleUpdate(ctx context.Context, upd telegram.Update) {
	if upd.Message == nil {
		return
	}

	text := strings.TrimSpace(upd.Message.Text)
	if !strings.HasPrefix(text, "/start") {
		return
	}

	chatID := upd.Message.Chat.ID

	var username string
	if upd.Message.From != nil {
		username = upd.Message.From.Username
	}

	parts := strings.Fields(text)
	if len(parts) < 2 {
		b.reply(ctx, chatID, msgNeedToken, nil)
		return
	}

	token := parts[1]

	if _, err := b.auth.BindTelegram(ctx, chatID, username, token); err != nil {
		zlog.Logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to bind telegram identity")
		b.reply(ctx, chatID, msgBindFailed, nil)
		return
	}

	keyboard := &telegram.InlineKeyboard{
		InlineKeyboard: [][]telegram.InlineButton{
			{{Text: "Open the site", URL: b.loginURL}},
		},
	}

	b.reply(ctx, chatID, msgLoggedIn, keyboard)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboard) {
	if err := b.api.SendMessage(ctx, chatID, text, keyboard); err != nil {
		zlog.Logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}
