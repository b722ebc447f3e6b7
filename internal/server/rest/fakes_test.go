package rest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/google/uuid"
)

// fakeBook implements UserService, AvatarService and ContactService in memory
// with the same observable rules as the real services.
type fakeBook struct {
	mu       sync.Mutex
	users    map[string]*models.User // by email
	contacts map[string]*models.Contact
	order    []string
	mailed   map[string]string // email -> verification token

	ingestErr error
	lastTmp   string
}

func newFakeBook() *fakeBook {
	return &fakeBook{
		users:    map[string]*models.User{},
		contacts: map[string]*models.Contact{},
		mailed:   map[string]string{},
	}
}

func (f *fakeBook) byID(id string) *models.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeBook) Register(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u := &models.User{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      "hash:" + password,
		Subscription:      models.SubscriptionStarter,
		VerificationToken: uuid.NewString(),
	}
	f.users[email] = u
	f.mailed[email] = u.VerificationToken
	out := *u
	return &out, nil
}

func (f *fakeBook) Login(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || u.PasswordHash != "hash:"+password || !u.Verified {
		return nil, common.ErrorUnauthorized
	}
	u.Token = "tok-" + uuid.NewString()
	out := *u
	return &out, nil
}

func (f *fakeBook) Logout(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byID(user.ID); u != nil {
		u.Token = ""
	}
	return nil
}

func (f *fakeBook) Authenticate(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Token != "" && u.Token == token {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeBook) Current(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.byID(user.ID)
	u.OwnedContactIDs = []string{}
	for _, id := range f.order {
		if c, ok := f.contacts[id]; ok && c.OwnerID == u.ID {
			u.OwnedContactIDs = append(u.OwnedContactIDs, id)
		}
	}
	return &u, nil
}

func (f *fakeBook) UpdateSubscription(ctx context.Context, user *models.User, s models.Subscription) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(user.ID)
	u.Subscription = s
	out := *u
	return &out, nil
}

func (f *fakeBook) RequestVerification(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	if u.Verified {
		return common.ErrorAlreadyVerified
	}
	return nil
}

func (f *fakeBook) ConfirmVerification(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if token != "" && u.VerificationToken == token {
			u.Verified = true
			u.VerificationToken = ""
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeBook) Ingest(ctx context.Context, user *models.User, tmpPath string) (string, error) {
	defer os.Remove(tmpPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTmp = tmpPath
	if f.ingestErr != nil {
		return "", f.ingestErr
	}
	url := fmt.Sprintf("/avatars/%s-1.png", user.ID)
	f.byID(user.ID).AvatarURL = url
	return url, nil
}

func (f *fakeBook) owned(owner *models.User, id string) (*models.Contact, error) {
	c, ok := f.contacts[id]
	if !ok || c.OwnerID != owner.ID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeBook) List(ctx context.Context, owner *models.User, filter models.ContactFilter) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Contact{}
	for _, id := range f.order {
		c, ok := f.contacts[id]
		if !ok || c.OwnerID != owner.ID {
			continue
		}
		if filter.Favorite != nil && *filter.Favorite != c.Favorite {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBook) Get(ctx context.Context, owner *models.User, id string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBook) Create(ctx context.Context, owner *models.User, c models.Contact) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	c.OwnerID = owner.ID
	f.contacts[c.ID] = &c
	f.order = append(f.order, c.ID)
	cp := c
	return &cp, nil
}

func (f *fakeBook) Update(ctx context.Context, owner *models.User, id string, p models.ContactPatch) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Favorite != nil {
		c.Favorite = *p.Favorite
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBook) SetFavorite(ctx context.Context, owner *models.User, id string, favorite *bool) (*models.Contact, error) {
	return f.Update(ctx, owner, id, models.ContactPatch{Favorite: favorite})
}

func (f *fakeBook) Remove(ctx context.Context, owner *models.User, id string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(owner, id)
	if err != nil {
		return nil, err
	}
	delete(f.contacts, id)
	return c, nil
}
