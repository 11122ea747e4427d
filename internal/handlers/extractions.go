package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/padvis/ocr-serve/internal/database"
	"github.com/padvis/ocr-serve/internal/logger"
	"github.com/padvis/ocr-serve/internal/models"
)

// ListExtractions returns a paginated list of extraction history records
func (h *Handler) ListExtractions(c *fiber.Ctx) error {
	params := &models.ExtractionListParams{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}

	if status := c.Query("status"); status != "" {
		params.Status = &status
	}

	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	extractions, total, err := h.db.ListExtractions(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list extractions")
	}

	return SuccessWithMeta(c, extractions, total, params.Limit, params.Offset)
}

// GetExtraction returns a single history record, with a presigned image URL
// when the upload was archived
func (h *Handler) GetExtraction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid extraction ID")
	}

	extraction, err := h.db.GetExtractionByID(c.Context(), id)
	if err != nil {
		if err == database.ErrExtractionNotFound {
			return Error(c, fiber.StatusNotFound, "extraction not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get extraction")
	}

	if h.archive != nil && extraction.S3Key != nil {
		imageURL, err := h.archive.GetPresignedURL(c.Context(), *extraction.S3Key, 1*time.Hour)
		if err == nil {
			extraction.ImageURL = &imageURL
		}
	}

	return Success(c, extraction)
}

// GetExtractionImage returns a presigned URL for the archived source image
func (h *Handler) GetExtractionImage(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid extraction ID")
	}

	extraction, err := h.db.GetExtractionByID(c.Context(), id)
	if err != nil {
		if err == database.ErrExtractionNotFound {
			return Error(c, fiber.StatusNotFound, "extraction not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get extraction")
	}

	if h.archive == nil || extraction.S3Key == nil {
		return Error(c, fiber.StatusNotFound, "no archived image for this extraction")
	}

	url, err := h.archive.GetPresignedURL(c.Context(), *extraction.S3Key, 1*time.Hour)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate image URL")
	}

	return Success(c, fiber.Map{"url": url})
}

// DeleteExtraction removes a history record and its archived image
func (h *Handler) DeleteExtraction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid extraction ID")
	}

	extraction, err := h.db.GetExtractionByID(c.Context(), id)
	if err != nil {
		if err == database.ErrExtractionNotFound {
			return Error(c, fiber.StatusNotFound, "extraction not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get extraction")
	}

	if h.archive != nil && extraction.S3Key != nil {
		if err := h.archive.Delete(c.Context(), *extraction.S3Key); err != nil {
			logger.WithComponent("handlers").Warn().Err(err).Str("key", *extraction.S3Key).Int64("id", id).
				Msg("failed to delete archived image")
		}
	}

	if err := h.db.DeleteExtraction(c.Context(), id); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete extraction")
	}

	return Success(c, fiber.Map{"deleted": true})
}
