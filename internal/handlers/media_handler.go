package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/pkg/utils"
)

type MediaHandler struct {
	service services.MediaService
}

func NewMediaHandler(service services.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Upload accepts a multipart "file" field and a "kind" of photo or audio.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file")
	}
	defer src.Close()

	resp, err := h.service.Upload(c.Context(), c.FormValue("kind"), services.Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "File uploaded", resp)
}
