package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/padvis/ocr-serve/internal/imageproc"
	"github.com/padvis/ocr-serve/internal/inference"
	"github.com/padvis/ocr-serve/internal/logger"
	"github.com/padvis/ocr-serve/internal/models"
	"github.com/padvis/ocr-serve/internal/services"
)

const serviceVersion = "1.0.0"

// Root identifies the service
func (h *Handler) Root(c *fiber.Ctx) error {
	status := "ready"
	if !h.engine.Loaded() {
		status = "loading"
	}
	return c.JSON(fiber.Map{
		"service": "ocr-serve",
		"version": serviceVersion,
		"device":  h.engine.Device(),
		"status":  status,
	})
}

// Health reports liveness and the compute device the model handle is bound
// to. It returns 200 whether or not the model finished loading; readiness is
// distinguished by the status field and by /status.
func (h *Handler) Health(c *fiber.Ctx) error {
	status := "ok"
	if !h.engine.Loaded() {
		status = "loading"
	}
	return c.JSON(models.HealthResponse{
		Status: status,
		Device: h.engine.Device(),
	})
}

// Status reports whether the model handle finished loading plus GPU memory
// counters where the runtime exposes them.
func (h *Handler) Status(c *fiber.Ctx) error {
	st, err := h.engine.Status(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to query engine status")
	}
	return c.JSON(models.StatusResponse{
		ModelLoaded: st.ModelLoaded,
		Engine:      h.engine.Name(),
		Device:      st.Device,
		GPUInfo:     st.GPUInfo,
	})
}

// ExtractText handles a single image upload
func (h *Handler) ExtractText(c *fiber.Ctx) error {
	maxTokens, resizeMax, err := h.parseGenerationParams(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	result, err := h.processOne(c.Context(), file, maxTokens, resizeMax)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// BatchExtract applies the extract logic to an ordered sequence of files.
// Items are processed sequentially and best-effort: a failed item yields an
// error entry in place and processing continues.
func (h *Handler) BatchExtract(c *fiber.Ctx) error {
	maxTokens, resizeMax, err := h.parseGenerationParams(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form is required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one file is required")
	}

	response := models.BatchResponse{
		Results:    make([]interface{}, 0, len(files)),
		TotalFiles: len(files),
	}

	totalStart := time.Now()
	for i, file := range files {
		result, err := h.processOne(c.Context(), file, maxTokens, resizeMax)
		if err != nil {
			msg := err.Error()
			if e, ok := err.(*fiber.Error); ok {
				msg = e.Message
			}
			response.Results = append(response.Results, models.BatchItemError{
				FileIndex: i,
				Filename:  file.Filename,
				Error:     msg,
			})
			continue
		}

		idx := i
		name := file.Filename
		result.FileIndex = &idx
		result.Filename = &name
		response.Results = append(response.Results, result)
	}

	response.TotalTime = time.Since(totalStart).Seconds()
	response.AvgTimePerFile = response.TotalTime / float64(len(files))

	return c.JSON(response)
}

// processOne validates one upload, applies the resize policy, runs the
// engine, and records the outcome.
func (h *Handler) processOne(ctx context.Context, file *multipart.FileHeader, maxTokens, resizeMax int) (*models.ExtractionResult, error) {
	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return nil, fiber.NewError(fiber.StatusBadRequest,
			"invalid image type. Supported: JPEG, PNG, WebP, TIFF, BMP, GIF")
	}

	if file.Size > h.cfg.MaxUploadBytes {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read file")
	}

	img, err := imageproc.Decode(imageBytes)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not decode image")
	}

	origBounds := img.Bounds()
	processed := imageproc.FitWithin(img, resizeMax)
	procBounds := processed.Bounds()

	res, err := h.engine.ExtractText(ctx, processed, inference.Options{MaxTokens: maxTokens})
	if err != nil {
		h.recordFailure(ctx, file, err, origBounds.Dx(), origBounds.Dy(), procBounds.Dx(), procBounds.Dy())
		if errors.Is(err, inference.ErrModelNotLoaded) {
			return nil, fiber.NewError(fiber.StatusServiceUnavailable, "model not loaded")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "error processing image: "+err.Error())
	}

	result := &models.ExtractionResult{
		ExtractedText:   res.Text,
		ProcessingTime:  res.Duration.Seconds(),
		TokensGenerated: res.TokensGenerated,
		Device:          h.engine.Device(),
		ImageSize: models.ImageSize{
			Original:  [2]int{origBounds.Dx(), origBounds.Dy()},
			Processed: [2]int{procBounds.Dx(), procBounds.Dy()},
		},
	}

	archiveRes := h.archiveUpload(ctx, file.Filename, imageBytes, contentType)
	h.recordSuccess(ctx, file, result, archiveRes)

	return result, nil
}

// archiveUpload stores the original bytes best-effort; a failed archive
// never fails the request.
func (h *Handler) archiveUpload(ctx context.Context, filename string, data []byte, contentType string) *services.ArchiveResult {
	if h.archive == nil {
		return nil
	}

	key := services.ObjectKey(filename, time.Now())
	res, err := h.archive.Store(ctx, key, data, contentType)
	if err != nil {
		logger.WithComponent("handlers").Warn().Err(err).Str("key", key).Msg("failed to archive upload")
		return nil
	}
	return res
}

func (h *Handler) recordSuccess(ctx context.Context, file *multipart.FileHeader, result *models.ExtractionResult, archiveRes *services.ArchiveResult) {
	if h.db == nil {
		return
	}

	req := &models.CreateExtractionRequest{
		OriginalFilename: file.Filename,
		ContentType:      file.Header.Get("Content-Type"),
		FileSizeBytes:    file.Size,
		Status:           models.ExtractionStatusCompleted,
		ExtractedText:    &result.ExtractedText,
		ProcessingTime:   &result.ProcessingTime,
		TokensGenerated:  &result.TokensGenerated,
		Device:           &result.Device,
		OriginalWidth:    &result.ImageSize.Original[0],
		OriginalHeight:   &result.ImageSize.Original[1],
		ProcessedWidth:   &result.ImageSize.Processed[0],
		ProcessedHeight:  &result.ImageSize.Processed[1],
		TTL:              h.cfg.Retention,
	}
	if archiveRes != nil {
		req.S3Bucket = &archiveRes.Bucket
		req.S3Key = &archiveRes.Key
	}

	record, err := h.db.CreateExtraction(ctx, req)
	if err != nil {
		logger.WithComponent("handlers").Warn().Err(err).Msg("failed to record extraction")
		return
	}
	result.ID = &record.ID
}

func (h *Handler) recordFailure(ctx context.Context, file *multipart.FileHeader, cause error, ow, oh, pw, ph int) {
	if h.db == nil {
		return
	}

	errMsg := cause.Error()
	device := h.engine.Device()
	_, err := h.db.CreateExtraction(ctx, &models.CreateExtractionRequest{
		OriginalFilename: file.Filename,
		ContentType:      file.Header.Get("Content-Type"),
		FileSizeBytes:    file.Size,
		Status:           models.ExtractionStatusFailed,
		ErrorMessage:     &errMsg,
		Device:           &device,
		OriginalWidth:    &ow,
		OriginalHeight:   &oh,
		ProcessedWidth:   &pw,
		ProcessedHeight:  &ph,
		TTL:              h.cfg.Retention,
	})
	if err != nil {
		logger.WithComponent("handlers").Warn().Err(err).Msg("failed to record failed extraction")
	}
}

// parseGenerationParams validates the optional max_tokens and resize_max
// form fields, falling back to configured defaults.
func (h *Handler) parseGenerationParams(c *fiber.Ctx) (maxTokens, resizeMax int, err error) {
	maxTokens = h.cfg.DefaultMaxTokens
	resizeMax = h.cfg.DefaultResizeMax

	if v := c.FormValue("max_tokens"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 || n > h.cfg.MaxTokensLimit {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "max_tokens must be a positive integer")
		}
		maxTokens = n
	}

	if v := c.FormValue("resize_max"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "resize_max must be a positive integer")
		}
		resizeMax = n
	}

	return maxTokens, resizeMax, nil
}

// isValidImageType checks if the content type is a decodable image
func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
		"image/tiff",
		"image/bmp",
		"image/gif",
	}

	for _, t := range validTypes {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
