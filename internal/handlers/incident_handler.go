package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/storewatch/backend/internal/middleware"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type IncidentHandler struct {
	service   services.IncidentService
	validator *validator.Validate
}

func NewIncidentHandler(service services.IncidentService) *IncidentHandler {
	return &IncidentHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *IncidentHandler) CreateIncident(c *fiber.Ctx) error {
	var req models.IncidentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	incident, err := h.service.CreateIncident(c.Context(), &req, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Incident created", incident)
}

func (h *IncidentHandler) GetIncident(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ID")
	}

	incident, err := h.service.GetIncident(c.Context(), id, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Incident retrieved", incident)
}

func (h *IncidentHandler) ListIncidents(c *fiber.Ctx) error {
	list, err := h.service.ListIncidents(c.Context(), parseIncidentFilter(c), middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	message := "Incidents retrieved"
	if list.SelectBranch {
		message = "Select a branch to load incidents"
	}
	return utils.SuccessResponse(c, fiber.StatusOK, message, list)
}

func (h *IncidentHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ID")
	}

	var req models.IncidentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	incident, err := h.service.UpdateStatus(c.Context(), id, &req, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Incident status updated", incident)
}

func (h *IncidentHandler) GetHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ID")
	}

	history, err := h.service.History(c.Context(), id, middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Status history retrieved", history)
}

func (h *IncidentHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.Context(), middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Incident stats retrieved", stats)
}

func (h *IncidentHandler) ExportIncidents(c *fiber.Ctx) error {
	data, err := h.service.ExportIncidents(c.Context(), parseIncidentFilter(c), middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	filename := fmt.Sprintf("incidents_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

func parseIncidentFilter(c *fiber.Ctx) models.IncidentFilter {
	return models.IncidentFilter{
		BranchID: c.Query("branch_id"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Region:   c.Query("region"),
		Brand:    c.Query("brand"),
	}
}
