package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/middleware"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type AnalysisHandler struct {
	service   services.AnalysisService
	validator *validator.Validate
}

func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Analyze returns a suggested incident for the supplied evidence. A failed classification still
// answers 200 with fallback set so the reporter can fill the form manually.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	var req models.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Analyze(c.Context(), &req, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	message := "Analysis complete"
	if resp.Fallback {
		message = "Automatic analysis unavailable, please fill in the details"
	}
	return utils.SuccessResponse(c, fiber.StatusOK, message, resp)
}

func (h *AnalysisHandler) Transcribe(c *fiber.Ctx) error {
	var req models.TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Transcribe(c.Context(), &req, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Transcription complete", resp)
}
