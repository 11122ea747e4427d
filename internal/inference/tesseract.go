package inference

import (
	"context"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/padvis/ocr-serve/internal/imageproc"
	"github.com/padvis/ocr-serve/internal/models"
)

// TesseractEngine runs OCR locally through a pool of gosseract clients.
// It exists as a CPU fallback when no model runtime is available; it keeps
// the same lifecycle contract as the remote engine.
type TesseractEngine struct {
	poolSize int

	mu     sync.RWMutex
	pool   *clientPool
	loaded bool
	closed bool
}

// NewTesseractEngine creates an unloaded engine with the given pool size
func NewTesseractEngine(poolSize int) *TesseractEngine {
	return &TesseractEngine{poolSize: poolSize}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Load(_ context.Context) error {
	pool, err := newClientPool(e.poolSize)
	if err != nil {
		return newError("Load", err, "tesseract client pool")
	}

	e.mu.Lock()
	e.pool = pool
	e.loaded = true
	e.mu.Unlock()
	return nil
}

func (e *TesseractEngine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

func (e *TesseractEngine) Device() string {
	if e.Loaded() {
		return "cpu"
	}
	return "unknown"
}

func (e *TesseractEngine) Status(_ context.Context) (*models.EngineStatus, error) {
	return &models.EngineStatus{
		ModelLoaded: e.Loaded(),
		Device:      e.Device(),
	}, nil
}

// ExtractText writes the processed frame to a temp file and runs one OCR
// pass. Tesseract has no generation step, so the token count is approximated
// by the whitespace-separated token count of the output.
func (e *TesseractEngine) ExtractText(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	e.mu.RLock()
	pool, loaded, closed := e.pool, e.loaded, e.closed
	e.mu.RUnlock()
	if closed {
		return nil, ErrEngineClosed
	}
	if !loaded {
		return nil, ErrModelNotLoaded
	}

	frame, err := imageproc.EncodePNG(img)
	if err != nil {
		return nil, newError("ExtractText", err, "encode frame")
	}

	tmpFile, err := os.CreateTemp("", "extract-*.png")
	if err != nil {
		return nil, newError("ExtractText", err, "create temp file")
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(frame); err != nil {
		tmpFile.Close()
		return nil, newError("ExtractText", err, "write temp file")
	}
	tmpFile.Close()

	client, err := pool.acquire(ctx)
	if err != nil {
		return nil, newError("ExtractText", err, "acquire OCR client")
	}
	defer pool.release(client)

	start := time.Now()
	if err := client.SetImage(tmpFile.Name()); err != nil {
		return nil, newError("ExtractText", err, "set image")
	}
	text, err := client.Text()
	if err != nil {
		return nil, newError("ExtractText", err, "extract text")
	}

	text, tokens := truncateTokens(text, opts.MaxTokens)

	return &Result{
		Text:            text,
		TokensGenerated: tokens,
		Duration:        time.Since(start),
	}, nil
}

// truncateTokens bounds the output to max whitespace-separated tokens,
// standing in for the generation cap of model-backed engines. Text within
// the cap keeps its original layout.
func truncateTokens(text string, max int) (string, int) {
	text = strings.TrimSpace(text)
	fields := strings.Fields(text)
	if max > 0 && len(fields) > max {
		return strings.Join(fields[:max], " "), max
	}
	return text, len(fields)
}

func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.loaded = false
	if e.pool != nil {
		e.pool.destroy()
	}
	return nil
}

var _ Engine = (*TesseractEngine)(nil)
var _ Engine = (*RemoteEngine)(nil)
