package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContactService scopes every operation to the calling account. Contacts of
// other accounts behave exactly like missing ones.
type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewContactService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ContactService {
	return &ContactService{db: db, repomanager: m, log: log}
}

// contactID rejects ids that cannot exist so they never reach the store.
func contactID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", common.ErrorNotFound
	}
	return u.String(), nil
}

func (s *ContactService) List(ctx context.Context, owner *models.User, filter models.ContactFilter) ([]*models.Contact, error) {
	if owner == nil {
		return nil, common.ErrorUnauthorized
	}

	items, err := s.repomanager.Contacts(s.db).List(ctx, owner.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing contacts: %w", err)
	}
	return items, nil
}

func (s *ContactService) Get(ctx context.Context, owner *models.User, id string) (*models.Contact, error) {
	if owner == nil {
		return nil, common.ErrorUnauthorized
	}
	id, err := contactID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repomanager.Contacts(s.db).Get(ctx, owner.ID, id)
	if err != nil {
		return nil, fmt.Errorf("error getting contact: %w", err)
	}
	return item, nil
}

func (s *ContactService) Create(ctx context.Context, owner *models.User, c models.Contact) (*models.Contact, error) {
	if owner == nil {
		return nil, common.ErrorUnauthorized
	}
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return nil, fmt.Errorf("%w: name, email and phone are required", common.ErrorValidation)
	}

	c.ID = ""
	c.OwnerID = owner.ID
	item, err := s.repomanager.Contacts(s.db).Create(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("error creating contact: %w", err)
	}

	owner.OwnedContactIDs = append(owner.OwnedContactIDs, item.ID)
	return item, nil
}

func (s *ContactService) Update(ctx context.Context, owner *models.User, id string, patch models.ContactPatch) (*models.Contact, error) {
	if owner == nil {
		return nil, common.ErrorUnauthorized
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: missing fields", common.ErrorValidation)
	}
	id, err := contactID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repomanager.Contacts(s.db).Update(ctx, owner.ID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating contact: %w", err)
	}
	return item, nil
}

// SetFavorite requires favorite; nil is a validation failure even when the
// contact does not exist.
func (s *ContactService) SetFavorite(ctx context.Context, owner *models.User, id string, favorite *bool) (*models.Contact, error) {
	if favorite == nil {
		return nil, fmt.Errorf("%w: missing field favorite", common.ErrorValidation)
	}
	return s.Update(ctx, owner, id, models.ContactPatch{Favorite: favorite})
}

func (s *ContactService) Remove(ctx context.Context, owner *models.User, id string) (*models.Contact, error) {
	if owner == nil {
		return nil, common.ErrorUnauthorized
	}
	id, err := contactID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repomanager.Contacts(s.db).Delete(ctx, owner.ID, id)
	if err != nil {
		return nil, fmt.Errorf("error deleting contact: %w", err)
	}

	ids := owner.OwnedContactIDs[:0]
	for _, v := range owner.OwnedContactIDs {
		if v != item.ID {
			ids = append(ids, v)
		}
	}
	owner.OwnedContactIDs = ids

	return item, nil
}
