package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/avoronov/notigate/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownChannel       = errors.New("unknown channel")
)

// sentColumn maps a channel to the flag column it owns. Each column is
// updated by its own statement so one channel's outcome never touches
// another's flag.
var sentColumn = map[model.Channel]string{
	model.ChannelEmail:    "email_sent",
	model.ChannelSMS:      "sms_sent",
	model.ChannelTelegram: "telegram_sent",
}

// Repository provides methods to interact with the notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a new dispatch record with all delivery
// flags false and returns it.
func (r *Repository) CreateNotification(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, message)
		VALUES ($1, $2)
		RETURNING id, created_at;
    `

	n := model.Notification{UserID: userID, Message: message}

	rows, err := r.db.QueryContext(ctx, query, userID, message)
	if err != nil {
		return model.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Notification{}, fmt.Errorf("failed to create notification: %w", err)
		}

		return model.Notification{}, fmt.Errorf("failed to create notification: no row returned")
	}

	if err := rows.Scan(&n.ID, &n.CreatedAt); err != nil {
		return model.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, rows.Err()
}

// MarkSent sets the delivery flag for a single channel on a notification.
//
// The update touches exactly one flag column, so partial dispatch
// progress is persisted channel by channel.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, channel model.Channel) error {
	column, ok := sentColumn[channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}

	query := fmt.Sprintf(`
		UPDATE notifications
		SET %s = TRUE
		WHERE id = $1;
    `, column)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark %s sent: %w", channel, err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// ListByUser retrieves all notifications for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, message, email_sent, sms_sent, telegram_sent, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.EmailSent, &n.SMSSent, &n.TelegramSent, &n.CreatedAt); err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
