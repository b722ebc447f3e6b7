// Package contacts provides owner-scoped contact persistence on PostgreSQL.
package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at`

// PostgresRepository implements contact storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the owner's contacts oldest first. A nil filter.Favorite
// matches both values; a non-positive Limit means no limit.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, filter models.ContactFilter) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE owner_id = $1 AND ($2::boolean IS NULL OR favorite = $2)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`

	var favorite, limit any
	if filter.Favorite != nil {
		favorite = *filter.Favorite
	}
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	rows, err := r.db.QueryContext(ctx, query, ownerID, favorite, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Contact, 0)
	for rows.Next() {
		var item models.Contact
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Name, &item.Email, &item.Phone, &item.Favorite, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner_id = $2`
	return r.getOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	query :=
		`INSERT INTO contacts (owner_id, name, email, phone, favorite)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		contact.OwnerID, contact.Name, contact.Email, contact.Phone, contact.Favorite,
	).Scan(&contact.ID, &contact.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return contact, nil
}

// Update applies the non-nil fields of patch and returns the resulting row.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, patch models.ContactPatch) (*models.Contact, error) {
	query :=
		`UPDATE contacts SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			favorite = COALESCE($6, favorite)
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + contactColumns

	return r.getOne(ctx, query, id, ownerID,
		nullable(patch.Name), nullable(patch.Email), nullable(patch.Phone), nullable(patch.Favorite))
}

// Delete removes the contact and returns it as it was.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND owner_id = $2 RETURNING ` + contactColumns
	return r.getOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM contacts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contact ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Contact, error) {
	item := &models.Contact{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Email, &item.Phone, &item.Favorite, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
