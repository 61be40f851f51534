package notification

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/dbpg"

	"github.com/avoronov/notigate/internal/model"
)

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock db: %v", err)
	}

	wrappedDB := &dbpg.DB{Master: db}
	repo := NewRepository(wrappedDB)

	return repo, mock
}

func TestCreateNotification(t *testing.T) {
	repo, mock := setupMockDB(t)

	userID := uuid.New()
	notificationID := uuid.New()
	createdAt := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO notifications (user_id, message)
		VALUES ($1, $2)
		RETURNING id, created_at;
    `)).
		WithArgs(userID, "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(notificationID, createdAt))

	n, err := repo.CreateNotification(context.Background(), userID, "hello")
	assert.NoError(t, err)
	assert.Equal(t, notificationID, n.ID)
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, "hello", n.Message)
	assert.False(t, n.EmailSent)
	assert.False(t, n.SMSSent)
	assert.False(t, n.TelegramSent)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent_UpdatesSingleFlag(t *testing.T) {
	columns := map[model.Channel]string{
		model.ChannelEmail:    "email_sent",
		model.ChannelSMS:      "sms_sent",
		model.ChannelTelegram: "telegram_sent",
	}

	for channel, column := range columns {
		t.Run(string(channel), func(t *testing.T) {
			repo, mock := setupMockDB(t)
			id := uuid.New()

			mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(`
		UPDATE notifications
		SET %s = TRUE
		WHERE id = $1;
    `, column))).
				WithArgs(id).
				WillReturnResult(sqlmock.NewResult(1, 1))

			err := repo.MarkSent(context.Background(), id, channel)
			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMarkSent_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE notifications
		SET email_sent = TRUE
		WHERE id = $1;
    `)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSent(context.Background(), id, model.ChannelEmail)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent_UnknownChannel(t *testing.T) {
	repo, _ := setupMockDB(t)

	err := repo.MarkSent(context.Background(), uuid.New(), model.Channel("pigeon"))
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestListByUser(t *testing.T) {
	repo, mock := setupMockDB(t)

	userID := uuid.New()
	n1 := model.Notification{ID: uuid.New(), UserID: userID, Message: "msg1", EmailSent: true, CreatedAt: time.Now()}
	n2 := model.Notification{ID: uuid.New(), UserID: userID, Message: "msg2", SMSSent: true, TelegramSent: true, CreatedAt: time.Now().Add(-time.Hour)}

	rows := sqlmock.NewRows([]string{"id", "user_id", "message", "email_sent", "sms_sent", "telegram_sent", "created_at"}).
		AddRow(n1.ID, n1.UserID, n1.Message, n1.EmailSent, n1.SMSSent, n1.TelegramSent, n1.CreatedAt).
		AddRow(n2.ID, n2.UserID, n2.Message, n2.EmailSent, n2.SMSSent, n2.TelegramSent, n2.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, message, email_sent, sms_sent, telegram_sent, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `)).
		WithArgs(userID).
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list[0].EmailSent)
	assert.True(t, list[1].SMSSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock := setupMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, message, email_sent, sms_sent, telegram_sent, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "email_sent", "sms_sent", "telegram_sent", "created_at"}))

	list, err := repo.ListByUser(context.Background(), userID)
	assert.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}
