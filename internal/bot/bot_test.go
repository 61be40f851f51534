package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/notigate/internal/model"
	"github.com/avoronov/notigate/pkg/telegram"
)

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.InlineKeyboard
}

type fakeAPI struct {
	sent []sentMessage
}

func (f *fakeAPI) GetUpdates(_ context.Context, _ int64, _ time.Duration) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboard) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: keyboard})
	return nil
}

type fakeAuth struct {
	err      error
	chatID   int64
	username string
	token    string
	calls    int
}

func (f *fakeAuth) BindTelegram(_ context.Context, telegramID int64, username, token string) (model.User, error) {
	f.calls++
	f.chatID = telegramID
	f.username = username
	f.token = token

	if f.err != nil {
		return model.User{}, f.err
	}
	return model.User{TelegramID: &telegramID, Username: username}, nil
}

func startUpdate(chatID int64, username, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			Text: text,
			Chat: telegram.Chat{ID: chatID},
			From: &telegram.From{Username: username},
		},
	}
}

func TestHandleUpdate_StartWithToken(t *testing.T) {
	api := &fakeAPI{}
	auth := &fakeAuth{}
	b := New(api, auth, "https://notigate.example.com/login", 30*time.Second)

	b.handleUpdate(context.Background(), startUpdate(12345, "alice_tg", "/start tok-1"))

	assert.Equal(t, 1, auth.calls)
	assert.Equal(t, int64(12345), auth.chatID)
	assert.Equal(t, "alice_tg", auth.username)
	assert.Equal(t, "tok-1", auth.token)

	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(12345), api.sent[0].chatID)
	assert.Equal(t, msgLoggedIn, api.sent[0].text)

	require.NotNil(t, api.sent[0].keyboard)
	require.Len(t, api.sent[0].keyboard.InlineKeyboard, 1)
	assert.Equal(t, "https://notigate.example.com/login", api.sent[0].keyboard.InlineKeyboard[0][0].URL)
}

func TestHandleUpdate_StartWithoutToken(t *testing.T) {
	api := &fakeAPI{}
	auth := &fakeAuth{}
	b := New(api, auth, "https://notigate.example.com/login", 30*time.Second)

	b.handleUpdate(context.Background(), startUpdate(12345, "alice_tg", "/start"))

	assert.Zero(t, auth.calls)
	require.Len(t, api.sent, 1)
	assert.Equal(t, msgNeedToken, api.sent[0].text)
	assert.Nil(t, api.sent[0].keyboard)
}

func TestHandleUpdate_BindFailure(t *testing.T) {
	api := &fakeAPI{}
	auth := &fakeAuth{err: errors.New("db down")}
	b := New(api, auth, "https://notigate.example.com/login", 30*time.Second)

	b.handleUpdate(context.Background(), startUpdate(12345, "alice_tg", "/start tok-1"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, msgBindFailed, api.sent[0].text)
}

func TestHandleUpdate_IgnoresOtherMessages(t *testing.T) {
	api := &fakeAPI{}
	auth := &fakeAuth{}
	b := New(api, auth, "https://notigate.example.com/login", 30*time.Second)

	b.handleUpdate(context.Background(), startUpdate(12345, "alice_tg", "hello bot"))
	b.handleUpdate(context.Background(), telegram.Update{UpdateID: 2})

	assert.Zero(t, auth.calls)
	assert.Empty(t, api.sent)
}

func TestHandleUpdate_EmptyUsername(t *testing.T) {
	api := &fakeAPI{}
	auth := &fakeAuth{}
	b := New(api, auth, "https://notigate.example.com/login", 30*time.Second)

	b.handleUpdate(context.Background(), startUpdate(777, "", "/start tok-1"))

	assert.Equal(t, 1, auth.calls)
	assert.Empty(t, auth.username)
}
