package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

const verificationSubject = "Verify email"

// VerificationLink is the URL mailed to the account holder.
func (s *UserService) VerificationLink(token string) string {
	return s.publicBaseURL + "/user/verify/" + url.PathEscape(token)
}

func (s *UserService) sendVerification(ctx context.Context, user *models.User) error {
	link := html.EscapeString(s.VerificationLink(user.VerificationToken))
	body := fmt.Sprintf(`<a target="_blank" href="%s">Click to verify email</a>`, link)
	return s.mailer.Send(ctx, user.Email, verificationSubject, body)
}

// RequestVerification resends the link for an account that is still
// unverified. The token itself is unchanged.
func (s *UserService) RequestVerification(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	if user.Verified {
		return common.ErrorAlreadyVerified
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return fmt.Errorf("error sending verification mail: %w", err)
	}
	return nil
}

// ConfirmVerification consumes token. A token is accepted once; any later
// attempt returns common.ErrorNotFound.
func (s *UserService) ConfirmVerification(ctx context.Context, token string) error {
	user, err := s.repomanager.Users(s.db).ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error verifying user: %w", err)
	}

	s.log.Info(ctx, "user verified", "user_id", user.ID)
	return nil
}
