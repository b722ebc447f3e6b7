package rest

import (
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

type userResponse struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL,omitempty"`
}

type currentUserResponse struct {
	userResponse
	Verified   bool     `json:"verified"`
	ContactIDs []string `json:"contacts"`
}

type contactResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
	Owner    string `json:"owner"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Subscription: string(u.Subscription), AvatarURL: u.AvatarURL}
}

func toContactResponse(c *models.Contact) contactResponse {
	return contactResponse{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Favorite: c.Favorite,
		Owner:    c.OwnerID,
	}
}
