// Package inference isolates the OCR model dependency behind a single
// narrow interface so the serving layer, resize policy, and error mapping
// can be tested with a substitute implementation.
package inference

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/padvis/ocr-serve/internal/config"
	"github.com/padvis/ocr-serve/internal/models"
)

// Options bounds a single generation pass
type Options struct {
	MaxTokens int
}

// Result is the raw engine output before response shaping
type Result struct {
	Text            string
	TokensGenerated int
	Duration        time.Duration
}

// Engine is the model handle: loaded once at process start, read-only and
// shared by all requests afterwards.
type Engine interface {
	// Name identifies the engine implementation ("paddle", "tesseract").
	Name() string

	// Load acquires the model handle. It is called once before the server
	// accepts traffic; on failure the engine stays unloaded and every
	// ExtractText call returns ErrModelNotLoaded.
	Load(ctx context.Context) error

	Loaded() bool

	// Device reports the compute device the handle is bound to
	// ("cuda", "cpu"), or "unknown" before a successful Load.
	Device() string

	// Status returns the current model handle state including GPU counters
	// where the runtime exposes them.
	Status(ctx context.Context) (*models.EngineStatus, error)

	// ExtractText runs one forward pass over an already-resized image.
	ExtractText(ctx context.Context, img image.Image, opts Options) (*Result, error)

	Close() error
}

// New builds the engine selected by configuration
func New(cfg *config.Config) (Engine, error) {
	switch cfg.OCREngine {
	case "paddle":
		return NewRemoteEngine(cfg.InferURL, cfg.InferToken, cfg.InferTimeout), nil
	case "tesseract":
		return NewTesseractEngine(cfg.OCRPoolSize), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
}
