package rest

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type contactHandlers struct {
	contacts ContactService
}

// listFilter reads ?favorite=, ?page= and ?limit=.
func listFilter(c *fiber.Ctx) (models.ContactFilter, error) {
	filter := models.ContactFilter{Limit: defaultPageLimit}

	if v := c.Query("favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("%w: favorite must be true or false", common.ErrorValidation)
		}
		filter.Favorite = &fav
	}

	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("%w: page must be a positive integer", common.ErrorValidation)
		}
		page = n
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			return filter, fmt.Errorf("%w: limit must be between 1 and %d", common.ErrorValidation, maxPageLimit)
		}
		filter.Limit = n
	}

	filter.Offset = (page - 1) * filter.Limit
	return filter, nil
}

func (h *contactHandlers) list(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := listFilter(c)
	if err != nil {
		return err
	}

	items, err := h.contacts.List(c.UserContext(), owner, filter)
	if err != nil {
		return err
	}

	out := make([]contactResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toContactResponse(item))
	}
	return c.JSON(out)
}

func (h *contactHandlers) get(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	item, err := h.contacts.Get(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toContactResponse(item))
}

func (h *contactHandlers) create(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	var p createContactPayload
	if err := bind(c, &p); err != nil {
		return err
	}

	item, err := h.contacts.Create(c.UserContext(), owner, p.contact())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toContactResponse(item))
}

func (h *contactHandlers) update(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	var p updateContactPayload
	if err := bind(c, &p); err != nil {
		return err
	}

	item, err := h.contacts.Update(c.UserContext(), owner, c.Params("id"), p.patch())
	if err != nil {
		return err
	}
	return c.JSON(toContactResponse(item))
}

func (h *contactHandlers) setFavorite(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	var p favoritePayload
	if err := bind(c, &p); err != nil {
		return err
	}

	item, err := h.contacts.SetFavorite(c.UserContext(), owner, c.Params("id"), p.Favorite)
	if err != nil {
		return err
	}
	return c.JSON(toContactResponse(item))
}

func (h *contactHandlers) remove(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	item, err := h.contacts.Remove(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "contact deleted", "contact": toContactResponse(item)})
}
