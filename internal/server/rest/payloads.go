package rest

import (
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

type validatable interface {
	Validate() error
}

// bind parses the JSON body into payload and validates it.
func bind(c *fiber.Ctx, payload validatable) error {
	if err := c.BodyParser(payload); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(common.MinPasswordLength, common.MaxPasswordLength)),
	)
}

type emailPayload struct {
	Email string `json:"email"`
}

func (r emailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("missing required field email"), is.Email),
	)
}

type subscriptionPayload struct {
	Subscription string `json:"subscription"`
}

func (r subscriptionPayload) Validate() error {
	allowed := make([]interface{}, 0, len(models.Subscriptions))
	for _, s := range models.Subscriptions {
		allowed = append(allowed, string(s))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subscription, validation.Required, validation.In(allowed...)),
	)
}

type createContactPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite *bool  `json:"favorite"`
}

func (r createContactPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Length(1, 50)),
	)
}

func (r createContactPayload) contact() models.Contact {
	c := models.Contact{Name: r.Name, Email: r.Email, Phone: r.Phone}
	if r.Favorite != nil {
		c.Favorite = *r.Favorite
	}
	return c
}

// updateContactPayload accepts any subset of the contact fields. Each field
// that is present follows the create rules.
type updateContactPayload struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Favorite *bool   `json:"favorite"`
}

func (r updateContactPayload) patch() models.ContactPatch {
	return models.ContactPatch{Name: r.Name, Email: r.Email, Phone: r.Phone, Favorite: r.Favorite}
}

func (r updateContactPayload) Validate() error {
	if r.patch().Empty() {
		return fmt.Errorf("missing fields")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Phone, validation.NilOrNotEmpty, validation.Length(1, 50)),
	)
}

type favoritePayload struct {
	Favorite *bool `json:"favorite"`
}

func (r favoritePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Favorite, validation.NotNil.Error("missing field favorite")),
	)
}
