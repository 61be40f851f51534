package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/avoronov/notigate/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

const userColumns = `id, username, password_hash, email, phone_number, telegram_id, token, is_superuser, created_at, updated_at`

// Repository provides methods to interact with the users table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new user repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u     model.User
		hash  sql.NullString
		email sql.NullString
		phone sql.NullString
		token sql.NullString
		tgID  sql.NullInt64
	)

	err := row.Scan(&u.ID, &u.Username, &hash, &email, &phone, &tgID, &token, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}

	u.PasswordHash = hash.String
	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if token.Valid {
		u.Token = &token.String
	}
	if tgID.Valid {
		u.TelegramID = &tgID.Int64
	}

	return u, nil
}

// queryUser runs a statement expected to yield at most one user row.
// Zero rows is reported as sql.ErrNoRows so call sites can map it to
// their own sentinel.
func (r *Repository) queryUser(ctx context.Context, query string, args ...any) (model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.User{}, err
		}

		return model.User{}, sql.ErrNoRows
	}

	u, err := scanUser(rows)
	if err != nil {
		return model.User{}, err
	}

	return u, rows.Err()
}

// CreateUser inserts a new user and returns the created row.
//
// A username collision returns ErrUserExists.
func (r *Repository) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (username, password_hash, email, phone_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING %s;
    `, userColumns)

	created, err := r.queryUser(ctx, query, u.Username, u.PasswordHash, u.Email, u.PhoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserExists
		}

		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// GetByID retrieves a user by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1;`, userColumns)

	u, err := r.queryUser(ctx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return u, nil
}

// GetByUsername retrieves a user by its username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1;`, userColumns)

	u, err := r.queryUser(ctx, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	return u, nil
}

// GetByToken retrieves the user whose pending login token matches.
func (r *Repository) GetByToken(ctx context.Context, token string) (model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE token = $1;`, userColumns)

	u, err := r.queryUser(ctx, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("failed to get user by token: %w", err)
	}

	return u, nil
}

// UpsertByTelegramID creates or updates the account bound to a telegram
// chat. An existing account keyed by the chat id gets its token
// overwritten; otherwise a fresh account is created.
func (r *Repository) UpsertByTelegramID(ctx context.Context, telegramID int64, username, token string) (model.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (username, telegram_id, token)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id)
		DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()
		RETURNING %s;
    `, userColumns)

	u, err := r.queryUser(ctx, query, username, telegramID, token)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user by telegram id: %w", err)
	}

	return u, nil
}

// UpdateProfile updates the user's notification destinations.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, email, phone *string) error {
	query := `
		UPDATE users
		SET email = $1, phone_number = $2, updated_at = NOW()
		WHERE id = $3;
    `

	res, err := r.db.ExecContext(ctx, query, email, phone, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearToken removes the user's pending login token.
func (r *Repository) ClearToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET token = NULL, updated_at = NOW()
		WHERE id = $1;
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetSuperuser grants superuser status to a user.
func (r *Repository) SetSuperuser(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_superuser = TRUE, updated_at = NOW()
		WHERE id = $1;
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to set superuser: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
