package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/contactbook/internal/client/config"
	"github.com/dmitrijs2005/contactbook/internal/client/models"
)

type fakeAPI struct {
	token string
	calls []string

	email, password string
	input           models.ContactInput
	listOpts        models.ListOptions
	lastID          string
	lastArg         string
	favorite        bool

	user     *models.User
	current  *models.CurrentUser
	contact  *models.Contact
	contacts []models.Contact
	err      error
}

func (f *fakeAPI) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeAPI) LoggedIn() bool { return f.token != "" }

func (f *fakeAPI) Register(_ context.Context, email, password string) (*models.User, error) {
	f.record("register")
	f.email, f.password = email, password
	return f.user, f.err
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*models.User, error) {
	f.record("login")
	f.email, f.password = email, password
	if f.err != nil {
		return nil, f.err
	}
	f.token = "tok"
	return f.user, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.record("logout")
	f.token = ""
	return f.err
}

func (f *fakeAPI) Current(context.Context) (*models.CurrentUser, error) {
	f.record("current")
	return f.current, f.err
}

func (f *fakeAPI) ConfirmVerification(_ context.Context, token string) error {
	f.record("confirm")
	f.lastArg = token
	return f.err
}

func (f *fakeAPI) RequestVerification(_ context.Context, email string) error {
	f.record("resend")
	f.lastArg = email
	return f.err
}

func (f *fakeAPI) UpdateSubscription(_ context.Context, subscription string) (*models.User, error) {
	f.record("subscription")
	f.lastArg = subscription
	return f.user, f.err
}

func (f *fakeAPI) UploadAvatar(_ context.Context, path string) (string, error) {
	f.record("avatar")
	f.lastArg = path
	if f.err != nil {
		return "", f.err
	}
	return "/avatars/x.png", nil
}

func (f *fakeAPI) ListContacts(_ context.Context, opts models.ListOptions) ([]models.Contact, error) {
	f.record("list")
	f.listOpts = opts
	return f.contacts, f.err
}

func (f *fakeAPI) GetContact(_ context.Context, id string) (*models.Contact, error) {
	f.record("get")
	f.lastID = id
	return f.contact, f.err
}

func (f *fakeAPI) CreateContact(_ context.Context, in models.ContactInput) (*models.Contact, error) {
	f.record("create")
	f.input = in
	return f.contact, f.err
}

func (f *fakeAPI) UpdateContact(_ context.Context, id string, in models.ContactInput) (*models.Contact, error) {
	f.record("update")
	f.lastID, f.input = id, in
	return f.contact, f.err
}

func (f *fakeAPI) SetFavorite(_ context.Context, id string, favorite bool) (*models.Contact, error) {
	f.record("favorite")
	f.lastID, f.favorite = id, favorite
	c := *f.contact
	c.Favorite = favorite
	return &c, f.err
}

func (f *fakeAPI) DeleteContact(_ context.Context, id string) (*models.Contact, error) {
	f.record("delete")
	f.lastID = id
	return f.contact, f.err
}

// newTestApp returns an App reading lines from input and writing to the
// returned buffer.
func newTestApp(api *fakeAPI, lines ...string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		config: &config.Config{ServerBaseURL: "http://test"},
		api:    api,
		reader: bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n")),
		out:    &out,
	}, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}
