package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/padvis/ocr-serve/internal/imageproc"
	"github.com/padvis/ocr-serve/internal/models"
)

// RemoteEngine talks to the PaddleOCR-VL model runtime over HTTP/JSON.
// The runtime owns the weights and the GPU context; this side holds only a
// client and the cached device identity discovered at load time.
type RemoteEngine struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client

	mu     sync.RWMutex
	loaded bool
	device string
	closed bool
}

type inferRequest struct {
	ImageB64     string `json:"image_b64"`
	MaxNewTokens int    `json:"max_new_tokens"`
}

type inferResponse struct {
	Text            string `json:"text"`
	TokensGenerated int    `json:"tokens_generated"`
}

type runtimeStatus struct {
	ModelLoaded bool            `json:"model_loaded"`
	Device      string          `json:"device"`
	GPUInfo     *models.GPUInfo `json:"gpu_info"`
}

// NewRemoteEngine creates an unloaded engine pointing at the runtime base URL
func NewRemoteEngine(baseURL, token string, timeout time.Duration) *RemoteEngine {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     8,
		MaxIdleConnsPerHost: 8,
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
	}
	return &RemoteEngine{
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
		client:  &http.Client{Transport: transport},
		device:  "unknown",
	}
}

func (e *RemoteEngine) Name() string { return "paddle" }

// Load probes the runtime until it reports the model resident, then caches
// the device identity. A runtime that never becomes ready leaves the engine
// unloaded; the caller decides whether that is fatal.
func (e *RemoteEngine) Load(ctx context.Context) error {
	status, err := e.fetchStatus(ctx)
	if err != nil {
		return newError("Load", err, "runtime status probe")
	}
	if !status.ModelLoaded {
		return newError("Load", ErrModelNotLoaded, "runtime reports model not resident")
	}

	e.mu.Lock()
	e.loaded = true
	e.device = status.Device
	e.mu.Unlock()
	return nil
}

func (e *RemoteEngine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

func (e *RemoteEngine) Device() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

// Status queries the runtime live so GPU memory counters stay current. The
// reported load state is gated on the engine's own loaded flag: a runtime
// that only became ready after a failed Load still counts as unloaded,
// because inference refuses requests until the process is restarted.
func (e *RemoteEngine) Status(ctx context.Context) (*models.EngineStatus, error) {
	e.mu.RLock()
	loaded, device := e.loaded, e.device
	e.mu.RUnlock()

	status, err := e.fetchStatus(ctx)
	if err != nil {
		return &models.EngineStatus{ModelLoaded: false, Device: device}, nil
	}
	return &models.EngineStatus{
		ModelLoaded: loaded && status.ModelLoaded,
		Device:      status.Device,
		GPUInfo:     status.GPUInfo,
	}, nil
}

// ExtractText re-encodes the processed frame as PNG and posts it to the
// runtime for a single bounded generation pass.
func (e *RemoteEngine) ExtractText(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	e.mu.RLock()
	loaded, closed := e.loaded, e.closed
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

	payload, err := json.Marshal(inferRequest{
		ImageB64:     base64.StdEncoding.EncodeToString(frame),
		MaxNewTokens: opts.MaxTokens,
	})
	if err != nil {
		return nil, newError("ExtractText", err, "marshal request")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.baseURL+"/infer", bytes.NewReader(payload))
	if err != nil {
		return nil, newError("ExtractText", err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("X-Internal-Token", e.token)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, newError("ExtractText", err, "runtime call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, newError("ExtractText",
			fmt.Errorf("runtime status %d: %s", resp.StatusCode, string(data)), "")
	}

	var parsed inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newError("ExtractText", err, "decode response")
	}

	return &Result{
		Text:            parsed.Text,
		TokensGenerated: parsed.TokensGenerated,
		Duration:        time.Since(start),
	}, nil
}

func (e *RemoteEngine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.loaded = false
	e.mu.Unlock()
	e.client.CloseIdleConnections()
	return nil
}

func (e *RemoteEngine) fetchStatus(ctx context.Context) (*runtimeStatus, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, e.baseURL+"/status", nil)
	if err != nil {
		return nil, err
	}
	if e.token != "" {
		req.Header.Set("X-Internal-Token", e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("runtime status %d: %s", resp.StatusCode, string(data))
	}

	var status runtimeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
