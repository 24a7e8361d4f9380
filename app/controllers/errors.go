package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindNotFound:               fiber.StatusNotFound,
	apperrors.KindInactive:               fiber.StatusNotFound,
	apperrors.KindAuthenticationRequired: fiber.StatusUnauthorized,
	apperrors.KindForbidden:              fiber.StatusForbidden,
	apperrors.KindPriceMismatch:          fiber.StatusUnprocessableEntity,
	apperrors.KindAlreadyEnrolled:        fiber.StatusConflict,
	apperrors.KindDuplicateEntitlement:   fiber.StatusConflict,
	apperrors.KindInvalidState:           fiber.StatusConflict,
	apperrors.KindGateway:                fiber.StatusBadGateway,
	apperrors.KindIntegrity:              fiber.StatusBadRequest,
	apperrors.KindValidation:             fiber.StatusBadRequest,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := kindStatus[apperrors.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes the JSON error body for err. Internal errors never
// leak their message.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status := StatusFor(err)

	body := fiber.Map{"error": string(kind)}
	if status == fiber.StatusInternalServerError {
		log.Errorf("[API] %s %s: %v", c.Method(), c.Path(), err)
		body["error"] = string(apperrors.KindInternal)
		body["message"] = "internal error"
		return c.Status(status).JSON(body)
	}

	body["message"] = publicMessage(err)
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	if apperrors.IsRetryable(err) {
		body["retryable"] = true
	}
	return c.Status(status).JSON(body)
}

// publicMessage prefers the message of the *apperrors.Error without the
// wrapped cause.
func publicMessage(err error) string {
	var ae *apperrors.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   string(apperrors.KindValidation),
		"message": message,
	})
}
