package utils

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorCode is the machine-readable kind of a failed request. Clients branch on it instead of
// parsing Error.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeInsufficientEvidence ErrorCode = "insufficient_evidence"
	CodeClassification       ErrorCode = "classification_error"
	CodeValidation           ErrorCode = "validation_error"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeInvalidCredentials   ErrorCode = "invalid_credentials"
	CodeForbidden            ErrorCode = "forbidden"
	CodeNotFound             ErrorCode = "not_found"
	CodeConflict             ErrorCode = "duplicate_id"
	CodePayloadTooLarge      ErrorCode = "payload_too_large"
	CodeRemoteService        ErrorCode = "remote_service_error"
	CodeTimeout              ErrorCode = "timeout"
	CodeUnavailable          ErrorCode = "not_ready"
	CodeInternal             ErrorCode = "internal"
)

// Response is the envelope of every non-paginated API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    ErrorCode   `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, statusCode int, message string, data interface{}) error {
	return c.Status(statusCode).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse replies with the generic code for statusCode.
func ErrorResponse(c *fiber.Ctx, statusCode int, message string) error {
	return CodedErrorResponse(c, statusCode, CodeForStatus(statusCode), message)
}

// CodedErrorResponse replies with an explicit code, for callers that know more than the status.
func CodedErrorResponse(c *fiber.Ctx, statusCode int, code ErrorCode, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

// CodeForStatus is the fallback code when only the HTTP status is known.
func CodeForStatus(statusCode int) ErrorCode {
	switch statusCode {
	case fiber.StatusBadRequest:
		return CodeBadRequest
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	case fiber.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusBadGateway:
		return CodeRemoteService
	case fiber.StatusServiceUnavailable:
		return CodeUnavailable
	case fiber.StatusGatewayTimeout:
		return CodeTimeout
	}
	if statusCode >= 400 && statusCode < 500 {
		return CodeBadRequest
	}
	return CodeInternal
}

type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

func PaginatedSuccessResponse(c *fiber.Ctx, data interface{}, page, limit int, total int64) error {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}
