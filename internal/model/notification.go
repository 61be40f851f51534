package model

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies a notification delivery transport.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
)

// AllChannels returns every channel in delivery order: email, sms, telegram.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelTelegram}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelTelegram:
		return true
	}
	return false
}

// Notification represents one dispatch attempt and its per-channel outcome.
//
// The three sent flags are independent: each one is set only when its
// channel delivered successfully, and flags never go back to false.
type Notification struct {
	ID           uuid.UUID `json:"id"`            // unique identifier for the dispatch record
	UserID       uuid.UUID `json:"user_id"`       // recipient account
	Message      string    `json:"message"`       // content of the notification, immutable after creation
	EmailSent    bool      `json:"email_sent"`    // email delivery status
	SMSSent      bool      `json:"sms_sent"`      // sms delivery status
	TelegramSent bool      `json:"telegram_sent"` // telegram delivery status
	CreatedAt    time.Time `json:"created_at"`    // timestamp when the dispatch started
}

// Sent reports the delivery flag for the given channel.
func (n Notification) Sent(c Channel) bool {
	switch c {
	case ChannelEmail:
		return n.EmailSent
	case ChannelSMS:
		return n.SMSSent
	case ChannelTelegram:
		return n.TelegramSent
	}
	return false
}
