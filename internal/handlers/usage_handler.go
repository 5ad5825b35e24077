package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type UsageHandler struct {
	service services.UsageService
}

func NewUsageHandler(service services.UsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

func (h *UsageHandler) ListUsage(c *fiber.Ctx) error {
	filter, err := parseUsageFilter(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	records, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.PaginatedSuccessResponse(c, records, filter.Page, filter.Limit, total)
}

func (h *UsageHandler) GetSummary(c *fiber.Ctx) error {
	filter, err := parseUsageFilter(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Summary(c.Context(), filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Usage summary retrieved", summary)
}

func parseUsageFilter(c *fiber.Ctx) (*models.UsageFilter, error) {
	filter := &models.UsageFilter{Operation: c.Query("operation")}
	filter.Page, _ = strconv.Atoi(c.Query("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "start_date must be RFC3339")
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "end_date must be RFC3339")
		}
		filter.EndDate = &t
	}
	return filter, nil
}
