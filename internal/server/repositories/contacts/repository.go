package contacts

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

// Repository stores contacts. Every method takes the owner id and never
// touches rows belonging to someone else.
type Repository interface {
	List(ctx context.Context, ownerID string, filter models.ContactFilter) ([]*models.Contact, error)
	Get(ctx context.Context, ownerID, id string) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, ownerID, id string, patch models.ContactPatch) (*models.Contact, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Contact, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}
