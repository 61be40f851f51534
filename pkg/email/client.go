// Package email provides an SMTP client for sending notification emails.
package email

import (
	"context"
	"time"

	"gopkg.in/mail.v2"
)

// Client represents an SMTP client used to send notifications.
type Client struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
}

// NewClient creates a new email Client with the given SMTP settings.
func NewClient(smtpHost string, smtpPort int, username, password, from string) *Client {
	return &Client{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a plain-text notification email to the given address.
//
// The context deadline, if set, bounds the SMTP dial and send.
func (c *Client) Send(ctx context.Context, to, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewMessage()

	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", "Notification")

	message.SetBody("text/plain", msg)

	dialer := mail.NewDialer(c.smtpHost, c.smtpPort, c.username, c.password)
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Timeout = time.Until(deadline)
	}

	return dialer.DialAndSend(message)
}
