package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type SettingsHandler struct {
	service   services.SettingsService
	validator *validator.Validate
}

func NewSettingsHandler(service services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req models.SettingsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	settings, err := h.service.Update(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Settings updated", settings)
}
