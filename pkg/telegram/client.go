// Package telegram provides a client for the Telegram Bot API.
//
// It covers the two calls the system needs: sending messages (with an
// optional inline keyboard) and long-polling for updates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avoronov/notigate/pkg/transport"
)

const defaultBaseURL = "https://api.telegram.org"

// Client represents a Telegram Bot API client.
type Client struct {
	token   string       // bot token for authentication
	baseURL string       // API host, overridable in tests
	client  *http.Client // HTTP client used to make requests
}

// NewClient creates a new Telegram Client instance with the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
}

// NewClientWithHTTP creates a Client against a custom API host with a
// caller-supplied HTTP client.
func NewClientWithHTTP(token, baseURL string, httpClient *http.Client) *Client {
	return &Client{token: token, baseURL: baseURL, client: httpClient}
}

// Update is one item from the getUpdates result.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	Chat Chat   `json:"chat"`
	From *From  `json:"from"`
	Text string `json:"text"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// From identifies the sender of a message.
type From struct {
	Username string `json:"username"`
}

// InlineKeyboard is an inline keyboard attached to an outgoing message.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// InlineButton is a single URL button.
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// sendMessageRequest represents the payload for the Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID      string          `json:"chat_id"`
	Text        string          `json:"text"`
	ReplyMarkup *InlineKeyboard `json:"reply_markup,omitempty"`
}

// getUpdatesResponse represents the getUpdates API response.
type getUpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

// Send sends a notification message to the chat identified by to.
//
// It satisfies the dispatch sender contract; a non-200 API response is
// reported as a rejection.
func (c *Client) Send(ctx context.Context, to, msg string) error {
	return c.sendMessage(ctx, to, msg, nil)
}

// SendMessage sends a message to the given chat, optionally with an
// inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error {
	return c.sendMessage(ctx, strconv.FormatInt(chatID, 10), text, keyboard)
}

func (c *Client) sendMessage(ctx context.Context, chatID, text string, keyboard *InlineKeyboard) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	body, err := json.Marshal(sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API status %s: %w", resp.Status, transport.ErrRejected)
	}

	return nil
}

// GetUpdates long-polls the Bot API for updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.baseURL, c.token, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API status %s", resp.Status)
	}

	var result getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !result.OK {
		return nil, fmt.Errorf("telegram API returned ok=false")
	}

	return result.Result, nil
}
