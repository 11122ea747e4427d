package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"
)

const (
	defaultPoolSize = 4
	acquireTimeout  = 30 * time.Second
)

// clientPool hands out gosseract clients, which are not safe for concurrent
// use. Pool size bounds how many OCR passes run at once.
type clientPool struct {
	clients chan *gosseract.Client
	size    int

	mu     sync.Mutex
	closed bool

	metrics poolMetrics
}

type poolMetrics struct {
	mu            sync.Mutex
	inUse         int
	totalAcquired int64
}

func newClientPool(size int) (*clientPool, error) {
	if size <= 0 {
		size = defaultPoolSize
	}

	pool := &clientPool{
		clients: make(chan *gosseract.Client, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		client, err := newTesseractClient()
		if err != nil {
			pool.destroy()
			return nil, fmt.Errorf("failed to initialize client %d: %w", i, err)
		}
		pool.clients <- client
	}

	return pool, nil
}

func newTesseractClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Full automatic page segmentation: uploads are arbitrary documents,
	// not single text blocks.
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return client, nil
}

func (p *clientPool) acquire(ctx context.Context) (*gosseract.Client, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}

	select {
	case client := <-p.clients:
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return client, nil
	case <-time.After(acquireTimeout):
		return nil, fmt.Errorf("timeout waiting for available OCR client")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a client to the pool, or closes it if the pool was
// destroyed while the client was checked out. The mutex is held across the
// channel send so release and destroy cannot interleave; the send never
// blocks because the channel is sized to hold every client.
func (p *clientPool) release(client *gosseract.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		client.Close()
		return
	}

	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.mu.Unlock()

	p.clients <- client
}

// destroy closes all pooled clients. The channel itself is never closed:
// checked-out clients come back through release, which closes them once the
// pool is marked destroyed.
func (p *clientPool) destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for {
		select {
		case client := <-p.clients:
			client.Close()
		default:
			return
		}
	}
}
