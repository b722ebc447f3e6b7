// Package users implements account persistence on PostgreSQL.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

const selectUser = `SELECT id, email, password_hash, subscription, verified, verification_token, token, avatar_url, created_at
		 FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account. Email uniqueness is enforced by the users_email_key
// constraint, so two concurrent registrations cannot both succeed.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, subscription, verified, verification_token, avatar_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, string(user.Subscription), user.Verified, user.VerificationToken, user.AvatarURL,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

// ConsumeVerificationToken marks the holder of token verified and clears the
// token in one statement. A second call with the same token matches nothing
// and returns common.ErrorNotFound.
func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	query :=
		`UPDATE users SET verified = TRUE, verification_token = ''
		 WHERE verification_token = $1 AND verified = FALSE
		 RETURNING id, email, password_hash, subscription, verified, verification_token, token, avatar_url, created_at`
	return r.getOne(ctx, query, token)
}

// SetToken stores the single active session token; an empty token logs out.
// Concurrent writers race and the last one wins.
func (r *PostgresRepository) SetToken(ctx context.Context, id string, token string) error {
	return r.updateOne(ctx, `UPDATE users SET token = $2 WHERE id = $1`, id, token)
}

func (r *PostgresRepository) SetAvatarURL(ctx context.Context, id string, avatarURL string) error {
	return r.updateOne(ctx, `UPDATE users SET avatar_url = $2 WHERE id = $1`, id, avatarURL)
}

func (r *PostgresRepository) SetSubscription(ctx context.Context, id string, subscription models.Subscription) error {
	return r.updateOne(ctx, `UPDATE users SET subscription = $2 WHERE id = $1`, id, string(subscription))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	var subscription string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &subscription, &user.Verified,
		&user.VerificationToken, &user.Token, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Subscription = models.Subscription(subscription)
	return user, nil
}

func (r *PostgresRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
