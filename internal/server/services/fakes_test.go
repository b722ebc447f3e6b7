package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	contactsrepo "github.com/dmitrijs2005/contactbook/internal/server/repositories/contacts"
	usersrepo "github.com/dmitrijs2005/contactbook/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- users ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	err   error // returned by every call when set
	setFn func(id, field, value string) error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.byID {
		if v.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) get(pred func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.byID {
		if pred(v) {
			out := *v
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.get(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.get(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if token == "" {
		return nil, common.ErrorNotFound
	}
	for _, v := range f.byID {
		if v.VerificationToken == token && !v.Verified {
			v.Verified = true
			v.VerificationToken = ""
			out := *v
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) set(id, field, value string, apply func(*models.User)) error {
	if f.setFn != nil {
		if err := f.setFn(id, field, value); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	apply(u)
	return nil
}

func (f *fakeUsersRepo) SetToken(ctx context.Context, id string, token string) error {
	return f.set(id, "token", token, func(u *models.User) { u.Token = token })
}

func (f *fakeUsersRepo) SetAvatarURL(ctx context.Context, id string, avatarURL string) error {
	return f.set(id, "avatar_url", avatarURL, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (f *fakeUsersRepo) SetSubscription(ctx context.Context, id string, s models.Subscription) error {
	return f.set(id, "subscription", string(s), func(u *models.User) { u.Subscription = s })
}

// --- contacts ---

type fakeContactsRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Contact
	err  error
	seq  int
}

func newFakeContactsRepo() *fakeContactsRepo {
	return &fakeContactsRepo{byID: map[string]*models.Contact{}}
}

func (f *fakeContactsRepo) sorted(ownerID string) []*models.Contact {
	var out []*models.Contact
	for _, v := range f.byID {
		if v.OwnerID == ownerID {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeContactsRepo) List(ctx context.Context, ownerID string, filter models.ContactFilter) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Contact, 0)
	for _, c := range f.sorted(ownerID) {
		if filter.Favorite != nil && c.Favorite != *filter.Favorite {
			continue
		}
		out = append(out, c)
	}
	if filter.Offset >= len(out) {
		return []*models.Contact{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeContactsRepo) Get(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeContactsRepo) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.seq++
	n := *c
	n.ID = uuid.NewString()
	n.CreatedAt = time.Unix(int64(f.seq), 0)
	f.byID[n.ID] = &n
	out := n
	return &out, nil
}

func (f *fakeContactsRepo) Update(ctx context.Context, ownerID, id string, p models.ContactPatch) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
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
	out := *c
	return &out, nil
}

func (f *fakeContactsRepo) Delete(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	delete(f.byID, id)
	return c, nil
}

func (f *fakeContactsRepo) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0)
	for _, c := range f.sorted(ownerID) {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeContactsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Contacts(db dbx.DBTX) contactsrepo.Repository { return m.c }

// --- mail and storage ---

type sentMail struct{ to, subject, html string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html})
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = b
	return fmt.Sprintf("/avatars/%s", name), nil
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, name)
	return nil
}

// --- wiring ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	users    *fakeUsersRepo
	contacts *fakeContactsRepo
	mailer   *fakeMailer
	store    *fakeStore
	rm       *fakeRepoManager
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		mock:     mock,
		users:    newFakeUsersRepo(),
		contacts: newFakeContactsRepo(),
		mailer:   &fakeMailer{},
		store:    newFakeStore(),
		cfg: &config.Config{
			SecretKey:                   "k",
			AccessTokenValidityDuration: time.Hour,
			PasswordHashCost:            bcrypt.MinCost,
			PublicBaseURL:               "http://localhost:3000/",
			AvatarSize:                  16,
			AvatarMaxEdge:               64,
		},
	}
	f.rm = &fakeRepoManager{u: f.users, c: f.contacts}
	return f
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.db, f.rm, f.mailer, logging.Nop{}, f.cfg)
}

func (f *fixture) contactService() *ContactService {
	return NewContactService(f.db, f.rm, logging.Nop{})
}

func (f *fixture) avatarService() *AvatarService {
	return NewAvatarService(f.db, f.rm, f.store, f.cfg.AvatarSize, f.cfg.AvatarMaxEdge, logging.Nop{})
}
