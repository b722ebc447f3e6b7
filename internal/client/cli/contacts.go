package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

var errBadFlag = errors.New("expected yes or no")

// parseYesNo accepts the usual spellings of a boolean answer.
func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "on", "1":
		return true, nil
	case "n", "no", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %w, got %q", common.ErrorValidation, errBadFlag, s)
}

// parseListArgs understands "fav", "page=N" and "limit=N" in any order.
func parseListArgs(args []string) (models.ListOptions, error) {
	var opts models.ListOptions
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		switch {
		case arg == "fav" || arg == "favorites":
			fav := true
			opts.Favorite = &fav
		case key == "page" && hasValue:
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, fmt.Errorf("%w: bad page %q", common.ErrorValidation, value)
			}
			opts.Page = n
		case key == "limit" && hasValue:
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, fmt.Errorf("%w: bad limit %q", common.ErrorValidation, value)
			}
			opts.Limit = n
		default:
			return opts, fmt.Errorf("%w: unknown list option %q", common.ErrorValidation, arg)
		}
	}
	return opts, nil
}

func (a *App) printContact(c *models.Contact) {
	fmt.Fprintf(a.out, "ID:       %s\n", c.ID)
	fmt.Fprintf(a.out, "Name:     %s\n", c.Name)
	fmt.Fprintf(a.out, "Email:    %s\n", c.Email)
	fmt.Fprintf(a.out, "Phone:    %s\n", c.Phone)
	fmt.Fprintf(a.out, "Favorite: %t\n", c.Favorite)
}

// List prints the caller's contacts. Usage: list [fav] [page=N] [limit=N].
func (a *App) List(ctx context.Context, args []string) error {
	opts, err := parseListArgs(args)
	if err != nil {
		return err
	}

	items, err := a.api.ListContacts(ctx, opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No contacts.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tFAV")
	for _, c := range items {
		fav := ""
		if c.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, fav)
	}
	return tw.Flush()
}

// Add prompts for every field of a new contact.
func (a *App) Add(ctx context.Context, _ []string) error {
	name, err := a.prompt("Name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	phone, err := a.prompt("Phone")
	if err != nil {
		return err
	}
	favAnswer, err := a.prompt("Favorite? (y/N)")
	if err != nil {
		return err
	}
	fav := false
	if favAnswer != "" {
		if fav, err = parseYesNo(favAnswer); err != nil {
			return err
		}
	}

	c, err := a.api.CreateContact(ctx, models.ContactInput{Name: &name, Email: &email, Phone: &phone, Favorite: &fav})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Contact %s created.\n", c.ID)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter contact ID")
	if err != nil {
		return err
	}
	c, err := a.api.GetContact(ctx, id)
	if err != nil {
		return err
	}
	a.printContact(c)
	return nil
}

// Edit asks for each field; an empty answer keeps the current value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter contact ID")
	if err != nil {
		return err
	}
	current, err := a.api.GetContact(ctx, id)
	if err != nil {
		return err
	}

	var in models.ContactInput
	fields := []struct {
		label string
		old   string
		dst   **string
	}{
		{"Name", current.Name, &in.Name},
		{"Email", current.Email, &in.Email},
		{"Phone", current.Phone, &in.Phone},
	}
	for _, f := range fields {
		v, err := a.prompt(fmt.Sprintf("%s [%s]", f.label, f.old))
		if err != nil {
			return err
		}
		if v != "" && v != f.old {
			*f.dst = &v
		}
	}

	if in.Empty() {
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}

	c, err := a.api.UpdateContact(ctx, id, in)
	if err != nil {
		return err
	}
	a.printContact(c)
	return nil
}

// Fav marks or unmarks a contact. Usage: fav <id> [yes|no], default yes.
func (a *App) Fav(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter contact ID")
	if err != nil {
		return err
	}
	fav := true
	if len(args) > 1 {
		if fav, err = parseYesNo(args[1]); err != nil {
			return err
		}
	}

	c, err := a.api.SetFavorite(ctx, id, fav)
	if err != nil {
		return err
	}
	if c.Favorite {
		fmt.Fprintf(a.out, "%s is a favorite now.\n", c.Name)
	} else {
		fmt.Fprintf(a.out, "%s is no longer a favorite.\n", c.Name)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter contact ID")
	if err != nil {
		return err
	}
	c, err := a.api.DeleteContact(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Contact %s (%s) deleted.\n", c.ID, c.Name)
	return nil
}
