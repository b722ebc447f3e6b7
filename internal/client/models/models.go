// Package models defines the wire shapes the contactbook CLI exchanges with the server.
package models

// User is the account summary returned by register, login and subscription calls.
type User struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL,omitempty"`
}

// CurrentUser is the richer view returned by GET /user/current.
type CurrentUser struct {
	User
	Verified   bool     `json:"verified"`
	ContactIDs []string `json:"contacts"`
}

type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
	Owner    string `json:"owner"`
}

// ContactInput is the body of create and update calls. Nil fields are
// omitted, which the server reads as "leave unchanged" on update.
type ContactInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// Empty reports whether the input carries no field at all.
func (in ContactInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil && in.Favorite == nil
}

// ListOptions maps onto the ?favorite=, ?page= and ?limit= query of GET /contacts.
// Zero values are not sent.
type ListOptions struct {
	Favorite *bool
	Page     int
	Limit    int
}
