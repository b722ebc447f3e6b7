package client

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
)

// Client is the API surface the CLI needs.
type Client interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*models.CurrentUser, error)
	ConfirmVerification(ctx context.Context, token string) error
	RequestVerification(ctx context.Context, email string) error
	UpdateSubscription(ctx context.Context, subscription string) (*models.User, error)
	UploadAvatar(ctx context.Context, path string) (string, error)

	ListContacts(ctx context.Context, opts models.ListOptions) ([]models.Contact, error)
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	CreateContact(ctx context.Context, in models.ContactInput) (*models.Contact, error)
	UpdateContact(ctx context.Context, id string, in models.ContactInput) (*models.Contact, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*models.Contact, error)
	DeleteContact(ctx context.Context, id string) (*models.Contact, error)

	LoggedIn() bool
}
