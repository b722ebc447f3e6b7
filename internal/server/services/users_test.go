package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/auth"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerVerified registers email and consumes its verification token.
func registerVerified(t *testing.T, f *fixture, s *UserService, email string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), email, "secret1")
	require.NoError(t, err)
	require.NoError(t, s.ConfirmVerification(context.Background(), u.VerificationToken))
	return u
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	u, err := s.Register(context.Background(), "  A@X.com ", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, models.SubscriptionStarter, u.Subscription)
	assert.False(t, u.Verified)
	assert.NotEmpty(t, u.VerificationToken)
	assert.Empty(t, u.Token)
	assert.Equal(t, auth.GravatarURL("a@x.com"), u.AvatarURL)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.NoError(t, auth.ComparePassword("secret1", u.PasswordHash))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "a@x.com", f.mailer.sent[0].to)
	assert.Contains(t, f.mailer.sent[0].html, "http://localhost:3000/user/verify/"+u.VerificationToken)
	assert.NotContains(t, f.mailer.sent[0].html, "secret1")
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	_, err := s.Register(context.Background(), "a@x.com", "12345")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Register(context.Background(), "   ", "secret1")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Register(context.Background(), "a@x.com", strings.Repeat("p", common.MaxPasswordLength+1))
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Empty(t, f.users.byID)
}

func TestRegister_LongestPasswordAccepted(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	pw := strings.Repeat("p", common.MaxPasswordLength)
	u, err := s.Register(context.Background(), "a@x.com", pw)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(pw, u.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	_, err := s.Register(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "A@x.com", "secret2")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Len(t, f.users.byID, 1)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register(context.Background(), "race@x.com", "secret1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.users.byID, 1)
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	s := f.userService()

	u, err := s.Register(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Len(t, f.users.byID, 1)
}

func TestRegister_StoreError(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("db down")

	_, err := f.userService().Register(context.Background(), "a@x.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "db down")
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	f := newFixture(t)
	s := f.userService()

	_, err := s.Register(context.Background(), "unverified@x.com", "secret1")
	require.NoError(t, err)
	registerVerified(t, f, s, "verified@x.com")

	cases := []struct {
		name, email, password string
	}{
		{"unknown account", "ghost@x.com", "secret1"},
		{"wrong password", "verified@x.com", "wrong!!"},
		{"unverified", "unverified@x.com", "secret1"},
		{"unverified and wrong password", "unverified@x.com", "wrong!!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := s.Login(context.Background(), tc.email, tc.password)
			assert.Nil(t, u)
			assert.Equal(t, common.ErrorUnauthorized, err)
		})
	}

	for _, u := range f.users.byID {
		assert.Empty(t, u.Token, "no session issued for %s", u.Email)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	registered := registerVerified(t, f, s, "a@x.com")

	u, err := s.Login(context.Background(), "A@X.COM", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, u.Token)

	id, err := auth.GetUserIDFromToken(u.Token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)
	assert.Equal(t, u.Token, f.users.byID[registered.ID].Token)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	registerVerified(t, f, s, "a@x.com")

	u, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	token := u.Token

	got, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	t.Run("missing token", func(t *testing.T) {
		_, err := s.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("bad signature", func(t *testing.T) {
		forged, err := auth.GenerateToken(u.ID, []byte("other"), time.Hour)
		require.NoError(t, err)
		_, err = s.Authenticate(context.Background(), forged)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := auth.GenerateToken(u.ID, []byte("k"), -time.Minute)
		require.NoError(t, err)
		_, err = s.Authenticate(context.Background(), expired)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
		assert.ErrorIs(t, err, common.ErrTokenExpired)
	})

	t.Run("unknown account", func(t *testing.T) {
		tok, err := auth.GenerateToken("ghost", []byte("k"), time.Hour)
		require.NoError(t, err)
		_, err = s.Authenticate(context.Background(), tok)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("valid signature but not the stored token", func(t *testing.T) {
		other, err := auth.GenerateToken(u.ID, []byte("k"), 2*time.Hour)
		require.NoError(t, err)
		_, err = s.Authenticate(context.Background(), other)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}

func TestLogin_SupersedesPreviousSession(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	registerVerified(t, f, s, "a@x.com")

	first, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	firstToken := first.Token

	second, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotEqual(t, firstToken, second.Token)

	_, err = s.Authenticate(context.Background(), firstToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Authenticate(context.Background(), second.Token)
	assert.NoError(t, err)
}

func TestLogout_InvalidatesTokenImmediately(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	registerVerified(t, f, s, "a@x.com")

	u, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	token := u.Token

	current, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, s.Logout(context.Background(), current))

	_, err = s.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	assert.ErrorIs(t, s.Logout(context.Background(), nil), common.ErrorUnauthorized)
}

func TestCurrent_IncludesOwnedContacts(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	u := registerVerified(t, f, s, "a@x.com")

	c, err := f.contactService().Create(context.Background(), u, models.Contact{Name: "Bob", Email: "b@x.com", Phone: "1"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	got, err := s.Current(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, got.OwnedContactIDs)
	assert.True(t, got.Verified)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCurrent_StoreErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	u := registerVerified(t, f, s, "a@x.com")
	f.contacts.err = errors.New("db down")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := s.Current(context.Background(), u)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "db down"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateSubscription(t *testing.T) {
	f := newFixture(t)
	s := f.userService()
	u := registerVerified(t, f, s, "a@x.com")

	got, err := s.UpdateSubscription(context.Background(), u, models.SubscriptionPro)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPro, got.Subscription)
	assert.Equal(t, models.SubscriptionPro, f.users.byID[u.ID].Subscription)

	_, err = s.UpdateSubscription(context.Background(), u, "platinum")
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, models.SubscriptionPro, f.users.byID[u.ID].Subscription)
}
