package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/padvis/ocr-serve/internal/config"
	"github.com/padvis/ocr-serve/internal/database"
	"github.com/padvis/ocr-serve/internal/inference"
	"github.com/padvis/ocr-serve/internal/services"
)

// Handler holds all handler dependencies. db and archive are nil when the
// extraction history and image archive are not configured.
type Handler struct {
	cfg     *config.Config
	engine  inference.Engine
	db      *database.DB
	archive *services.ArchiveService
}

// New creates a new Handler instance
func New(cfg *config.Config, engine inference.Engine, db *database.DB, archive *services.ArchiveService) *Handler {
	return &Handler{
		cfg:     cfg,
		engine:  engine,
		db:      db,
		archive: archive,
	}
}

// HistoryEnabled reports whether the extraction history endpoints can serve
func (h *Handler) HistoryEnabled() bool {
	return h.db != nil
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// APIResponse is the envelope used by the extraction history endpoints
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful enveloped response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful enveloped response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
