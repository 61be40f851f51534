// Package sms provides a client for sending SMS messages through the
// Twilio Messages API.
package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avoronov/notigate/pkg/transport"
)

const defaultBaseURL = "https://api.twilio.com"

// Client represents a Twilio client used to send SMS notifications.
type Client struct {
	accountSID string
	authToken  string
	from       string       // sending phone number
	baseURL    string       // API host, overridable in tests
	client     *http.Client // HTTP client used to make requests
}

// NewClient creates a new SMS Client with the given Twilio credentials.
func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultBaseURL,
		client:     &http.Client{},
	}
}

// NewClientWithHTTP creates a Client against a custom API host with a
// caller-supplied HTTP client.
func NewClientWithHTTP(accountSID, authToken, from, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    baseURL,
		client:     httpClient,
	}
}

// Send delivers an SMS to the given phone number.
//
// A non-2xx API response (for example a rejected number format) is
// reported as a rejection.
func (c *Client) Send(ctx context.Context, to, msg string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", to)
	form.Set("Body", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("twilio API status %s: %w", resp.Status, transport.ErrRejected)
	}

	return nil
}
