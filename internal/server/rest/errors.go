package rest

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/gofiber/fiber/v2"
)

func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
}

// classify maps an error chain to a status code and a client-facing message.
// Not-found and unauthorized messages are fixed so they reveal nothing about
// other accounts.
func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, common.ErrorAlreadyVerified):
		return fiber.StatusBadRequest, "Verification has already been passed"
	case errors.Is(err, common.ErrorValidation):
		return fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, "Not authorized"
	case errors.Is(err, common.ErrorAlreadyExists):
		return fiber.StatusConflict, "Email in use"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.As(err, &fe):
		if fe.Code == fiber.StatusNotFound {
			return fe.Code, "Not found"
		}
		return fe.Code, fe.Message
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}
