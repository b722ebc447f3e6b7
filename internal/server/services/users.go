// Package services implements the account, session, avatar and contact
// operations on top of the repositories.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/auth"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/mailer"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
)

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	mailer                      mailer.Sender
	log                         logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	passwordHashCost            int
	publicBaseURL               string

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		mailer:                      sender,
		log:                         log,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		passwordHashCost:            cfg.PasswordHashCost,
		publicBaseURL:               strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and mails the verification link.
// A failed send is logged only; the account stays and the link can be resent.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if len(password) < common.MinPasswordLength || len(password) > common.MaxPasswordLength {
		return nil, fmt.Errorf("%w: password must be between %d and %d bytes long",
			common.ErrorValidation, common.MinPasswordLength, common.MaxPasswordLength)
	}

	repo := s.repomanager.Users(s.db)

	// Fast path only; the unique constraint decides concurrent races.
	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrorAlreadyExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	verificationToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating verification token: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:             email,
		PasswordHash:      hash,
		Subscription:      models.SubscriptionStarter,
		VerificationToken: verificationToken,
		AvatarURL:         auth.GravatarURL(email),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Error(ctx, "verification mail not delivered", "user_id", user.ID, "error", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) comparableDummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = auth.DummyHash(s.passwordHashCost)
	})
	return s.dummyHash
}

// Login issues a new session token and stores it as the only valid one.
// Unknown email, wrong password and unverified account all return
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = auth.ComparePassword(password, s.comparableDummyHash())
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if err := auth.ComparePassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error comparing password: %w", err)
	}

	if !user.Verified {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	if err := repo.SetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}
	user.Token = token

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return user, nil
}

// Logout clears the stored session token, which invalidates the bearer token
// right away.
func (s *UserService) Logout(ctx context.Context, user *models.User) error {
	if user == nil {
		return common.ErrorUnauthorized
	}

	if err := s.repomanager.Users(s.db).SetToken(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("error clearing token: %w", err)
	}
	user.Token = ""

	s.log.Info(ctx, "user logged out", "user_id", user.ID)
	return nil
}

// Authenticate resolves a bearer token to its account. The token must verify
// and also equal the account's stored session token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if user.Token == "" || subtle.ConstantTimeCompare([]byte(user.Token), []byte(token)) != 1 {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Current reloads the account together with its contact ids from one
// consistent snapshot.
func (s *UserService) Current(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}

	var current *models.User
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		ids, err := s.repomanager.Contacts(tx).IDsByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		u.OwnedContactIDs = ids
		current = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return current, nil
}

func (s *UserService) UpdateSubscription(ctx context.Context, user *models.User, subscription models.Subscription) (*models.User, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	if !subscription.Valid() {
		return nil, fmt.Errorf("%w: subscription must be one of %v", common.ErrorValidation, models.Subscriptions)
	}

	if err := s.repomanager.Users(s.db).SetSubscription(ctx, user.ID, subscription); err != nil {
		return nil, fmt.Errorf("error updating subscription: %w", err)
	}
	user.Subscription = subscription

	return user, nil
}
