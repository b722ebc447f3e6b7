package rest

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const avatarFormField = "avatar"

type userHandlers struct {
	users   UserService
	avatars AvatarService
	tmpDir  string
	log     logging.Logger
}

func (h *userHandlers) register(c *fiber.Ctx) error {
	var p credentialsPayload
	if err := bind(c, &p); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), p.Email, p.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": toUserResponse(user)})
}

func (h *userHandlers) login(c *fiber.Ctx) error {
	var p credentialsPayload
	if err := bind(c, &p); err != nil {
		return err
	}

	user, err := h.users.Login(c.UserContext(), p.Email, p.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": user.Token, "user": toUserResponse(user)})
}

func (h *userHandlers) logout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Logout(c.UserContext(), user); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *userHandlers) current(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err = h.users.Current(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(currentUserResponse{
		userResponse: toUserResponse(user),
		Verified:     user.Verified,
		ContactIDs:   user.OwnedContactIDs,
	})
}

func (h *userHandlers) updateSubscription(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var p subscriptionPayload
	if err := bind(c, &p); err != nil {
		return err
	}

	user, err = h.users.UpdateSubscription(c.UserContext(), user, models.Subscription(p.Subscription))
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

func (h *userHandlers) confirmVerification(c *fiber.Ctx) error {
	if err := h.users.ConfirmVerification(c.UserContext(), c.Params("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Verification successful"})
}

func (h *userHandlers) requestVerification(c *fiber.Ctx) error {
	var p emailPayload
	if err := bind(c, &p); err != nil {
		return err
	}
	if err := h.users.RequestVerification(c.UserContext(), p.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Verification email sent"})
}

// updateAvatar stores the multipart upload under tmpDir and hands it to the
// avatar service, which owns the temp file from then on.
func (h *userHandlers) updateAvatar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(avatarFormField)
	if err != nil {
		return fmt.Errorf("%w: no file uploaded", common.ErrorValidation)
	}

	tmpPath := filepath.Join(h.tmpDir, uuid.NewString())
	if err := c.SaveFile(fh, tmpPath); err != nil {
		return fmt.Errorf("error saving upload: %w", err)
	}

	avatarURL, err := h.avatars.Ingest(c.UserContext(), user, tmpPath)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"avatarURL": avatarURL})
}
