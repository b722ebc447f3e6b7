package users

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrorNotFound when no
// row matches; Create returns common.ErrorAlreadyExists on a duplicate email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetToken(ctx context.Context, id string, token string) error
	ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error)
	SetAvatarURL(ctx context.Context, id string, avatarURL string) error
	SetSubscription(ctx context.Context, id string, subscription models.Subscription) error
}
