package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/middleware"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type BranchHandler struct {
	service services.BranchService
}

func NewBranchHandler(service services.BranchService) *BranchHandler {
	return &BranchHandler{service: service}
}

func (h *BranchHandler) ListBranches(c *fiber.Ctx) error {
	branches, err := h.service.List(c.Context(), middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Branches retrieved", branches)
}

func (h *BranchHandler) GetBranch(c *fiber.Ctx) error {
	branch, err := h.service.Get(c.Context(), c.Params("id"), middleware.CurrentProfile(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Branch retrieved", branch)
}
