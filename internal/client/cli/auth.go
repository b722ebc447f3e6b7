package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, string, error) {
	email, err := a.prompt("Enter email")
	if err != nil {
		return "", "", err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(password)

	return email, string(password), nil
}

// Register creates an account. The server mails a verification link; the
// token in it can also be passed to the verify command.
func (a *App) Register(ctx context.Context, _ []string) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	user, err := a.api.Register(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. Check your inbox to verify the address.\n", user.Email)
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	token, err := a.argOrPrompt(args, "Enter verification token")
	if err != nil {
		return err
	}
	if err := a.api.ConfirmVerification(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified, you can login now.")
	return nil
}

func (a *App) Resend(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter email")
	if err != nil {
		return err
	}
	if err := a.api.RequestVerification(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification email sent.")
	return nil
}

// Login replaces the current session, if any.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	user, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.userName = user.Email
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", user.Email, user.Subscription)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	err := a.api.Logout(ctx)
	if !a.isLoggedIn() {
		a.userName = ""
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Me(ctx context.Context, _ []string) error {
	user, err := a.api.Current(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Email:        %s\n", user.Email)
	fmt.Fprintf(a.out, "Subscription: %s\n", user.Subscription)
	fmt.Fprintf(a.out, "Verified:     %t\n", user.Verified)
	if user.AvatarURL != "" {
		fmt.Fprintf(a.out, "Avatar:       %s\n", user.AvatarURL)
	}
	fmt.Fprintf(a.out, "Contacts:     %d\n", len(user.ContactIDs))
	return nil
}

func (a *App) Subscription(ctx context.Context, args []string) error {
	tier, err := a.argOrPrompt(args, "Enter subscription (starter, pro, business)")
	if err != nil {
		return err
	}
	user, err := a.api.UpdateSubscription(ctx, tier)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Subscription is now %s\n", user.Subscription)
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	path, err := a.argOrPrompt(args, "Enter path to image")
	if err != nil {
		return err
	}
	url, err := a.api.UploadAvatar(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Avatar updated: %s\n", url)
	return nil
}
