package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/pkg/utils"
)

// errorStatus maps the triage error taxonomy to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInsufficientEvidence):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrClassification), errors.Is(err, models.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrDuplicateID):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrRemoteService):
		return fiber.StatusBadGateway
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

// errorCode names the taxonomy entry so clients can tell kinds that share a status apart.
func errorCode(err error) utils.ErrorCode {
	switch {
	case errors.Is(err, models.ErrInsufficientEvidence):
		return utils.CodeInsufficientEvidence
	case errors.Is(err, models.ErrClassification):
		return utils.CodeClassification
	case errors.Is(err, models.ErrValidation):
		return utils.CodeValidation
	case errors.Is(err, models.ErrNotFound):
		return utils.CodeNotFound
	case errors.Is(err, models.ErrDuplicateID):
		return utils.CodeConflict
	case errors.Is(err, models.ErrRemoteService):
		return utils.CodeRemoteService
	case errors.Is(err, models.ErrForbidden):
		return utils.CodeForbidden
	case errors.Is(err, models.ErrInvalidCredentials):
		return utils.CodeInvalidCredentials
	case errors.Is(err, context.DeadlineExceeded):
		return utils.CodeTimeout
	}
	return utils.CodeInternal
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return utils.CodedErrorResponse(c, status, errorCode(err), message)
}
