package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned when acquiring from a closed pool
var ErrPoolClosed = errors.New("ocr client pool closed")

// clientPool hands out a fixed set of OCR clients, one caller at a time each.
// Tesseract handles are not safe for concurrent use.
type clientPool struct {
	clients chan Client
	all     []Client
	done    chan struct{}
	once    sync.Once
}

// newClientPool creates size clients with factory
func newClientPool(size int, factory ClientFactory) (*clientPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be > 0 (got %d)", size)
	}

	p := &clientPool{
		clients: make(chan Client, size),
		done:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		client, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create OCR client %d: %w", i, err)
		}
		p.all = append(p.all, client)
		p.clients <- client
	}
	return p, nil
}

// acquire waits for a free client or for ctx to end
func (p *clientPool) acquire(ctx context.Context) (Client, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case client := <-p.clients:
		return client, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a client to the pool
func (p *clientPool) release(client Client) {
	p.clients <- client
}

// size returns the number of clients owned by the pool
func (p *clientPool) size() int {
	return len(p.all)
}

// Close shuts down the pool and frees every client
func (p *clientPool) Close() error {
	var errs []error
	p.once.Do(func() {
		close(p.done)
		for _, client := range p.all {
			if err := client.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
