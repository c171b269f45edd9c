package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrBusy       = errors.New("no sandbox available")
)

// acquireWait bounds how long a caller queues for a warm runtime
const acquireWait = 5 * time.Second

// Pool keeps warm runtimes. Each runtime is reset after use. A runtime
// that can be neither reset nor recreated is counted as missing and
// rebuilt by a later Acquire.
type Pool struct {
	config   Config
	runtimes chan *Runtime
	size     int
	missing  atomic.Int64
	metrics  *monitoring.Metrics

	newRuntime   func(Config) (*Runtime, error)
	resetRuntime func(*Runtime) error

	mu     sync.RWMutex
	closed bool
}

// Stats describes pool occupancy
type Stats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Missing   int  `json:"missing"`
	Closed    bool `json:"closed"`
}

// NewPool creates a pool of size runtimes
func NewPool(config Config, size int, metrics *monitoring.Metrics) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:   config,
		runtimes: make(chan *Runtime, size),
		size:     size,
		metrics:  metrics,

		newRuntime:   New,
		resetRuntime: (*Runtime).Reset,
	}

	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create sandbox runtime: %w", err)
		}
		pool.runtimes <- rt
	}

	return pool, nil
}

// Acquire takes a runtime, waiting until one is free
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	runtimes := p.runtimes
	p.mu.RUnlock()

	select {
	case rt, ok := <-runtimes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	default:
	}
	if rt := p.replace(); rt != nil {
		return rt, nil
	}

	wait := time.NewTimer(acquireWait)
	defer wait.Stop()

	select {
	case rt, ok := <-runtimes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wait.C:
		return nil, ErrBusy
	}
}

// Release resets a runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		rt.Close()
		return
	}

	if err := p.resetRuntime(rt); err != nil {
		rt.Close()
		fresh, err := p.newRuntime(p.config)
		if err != nil {
			p.missing.Add(1)
			if p.metrics != nil {
				p.metrics.RecordSandboxLost()
			}
			return
		}
		rt = fresh
	}

	select {
	case p.runtimes <- rt:
	default:
		rt.Close()
	}
}

// replace builds a runtime for a missing slot, if any
func (p *Pool) replace() *Runtime {
	for {
		n := p.missing.Load()
		if n <= 0 {
			return nil
		}
		if p.missing.CompareAndSwap(n, n-1) {
			break
		}
	}

	rt, err := p.newRuntime(p.config)
	if err != nil {
		p.missing.Add(1)
		return nil
	}
	return rt
}

// Run executes a pen's script against a DOM built from its markup
func (p *Pool) Run(ctx context.Context, bundle preview.SourceBundle) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	var dom *DOM
	if p.config.EnableDOM {
		if dom, err = NewDOM(bundle.Markup); err != nil {
			return nil, err
		}
	}

	result, err := rt.Execute(ctx, bundle.Script, dom)
	if p.metrics != nil && result != nil {
		p.metrics.RecordSandboxRun(outcome(result, err), result.Duration)
	}
	return result, err
}

func outcome(result *Result, err error) string {
	switch {
	case err != nil:
		return "cancelled"
	case result.Interrupted:
		return "timeout"
	}
	for _, msg := range result.Messages {
		if msg.Kind == relay.KindRuntimeError {
			return "error"
		}
	}
	return "ok"
}

// Close closes the pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.runtimes)
	for rt := range p.runtimes {
		rt.Close()
	}
	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.runtimes)
	missing := int(p.missing.Load())
	return Stats{
		Size:      p.size,
		Available: available,
		InUse:     max(p.size-available-missing, 0),
		Missing:   missing,
		Closed:    p.closed,
	}
}
