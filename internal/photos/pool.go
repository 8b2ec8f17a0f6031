// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package photos

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/teamdir/internal/metrics"
)

// PrewarmConfig defines configuration for the Prewarmer.
type PrewarmConfig struct {
	Workers       int
	QueueSize     int
	NegTTL        time.Duration
	RendersPerSec float64 // 0 = unlimited
}

// Prewarmer renders thumbnails ahead of demand after a refresh, so the
// first page load hits warm cache. Undecodable sources are negative
// cached with a TTL to avoid re-decoding known-bad files.
type Prewarmer struct {
	renderer *Renderer

	jobs    chan string // photo basenames
	workers int

	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	once sync.Once

	// inflight dedupe across calls
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// negative cache (basename -> expiresAt)
	negMu  sync.Mutex
	neg    map[string]time.Time
	negTTL time.Duration

	stopOnce sync.Once
}

func NewPrewarmer(renderer *Renderer, cfg PrewarmConfig) *Prewarmer {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.NegTTL <= 0 {
		cfg.NegTTL = 10 * time.Minute
	}

	limit := rate.Inf
	if cfg.RendersPerSec > 0 {
		limit = rate.Limit(cfg.RendersPerSec)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Prewarmer{
		renderer: renderer,
		jobs:     make(chan string, cfg.QueueSize),
		workers:  cfg.Workers,
		limiter:  rate.NewLimiter(limit, 1),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
		neg:      make(map[string]time.Time),
		negTTL:   cfg.NegTTL,
	}
}

func (p *Prewarmer) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for name := range p.jobs {
					// Pool context for common cancellation
					p.handle(p.ctx, name)
				}
			}()
		}
		// periodic neg-cache cleanup
		p.wg.Add(1)
		go p.negCleanupLoop()
	})
}

func (p *Prewarmer) Stop() {
	p.stopOnce.Do(func() {
		// Cancel in-flight renders
		p.cancel()
		// Stop accepting new jobs
		close(p.jobs)
		// Wait for workers to drain and cleanup loop to exit
		p.wg.Wait()
	})
}

// Enqueue attempts to add a photo to the prewarm queue.
func (p *Prewarmer) Enqueue(ctx context.Context, name string) (enqueued bool) {
	if name == "" {
		return false
	}

	// global inflight dedupe
	p.inflightMu.Lock()
	if _, ok := p.inflight[name]; ok {
		p.inflightMu.Unlock()
		metrics.IncThumbRender("dedup")
		return true // already queued or rendering
	}
	p.inflight[name] = struct{}{}
	p.inflightMu.Unlock()

	// fast negative-cache gate
	if p.IsNegCached(name) {
		p.clearInflight(name)
		metrics.IncThumbRender("negcache")
		return true // handled via cache
	}

	select {
	case <-ctx.Done():
		p.clearInflight(name)
		return false
	case p.jobs <- name:
		return true
	default:
		// queue full -> drop, the on-demand path covers it later
		p.clearInflight(name)
		metrics.IncThumbRender("dropped")
		return false
	}
}

func (p *Prewarmer) handle(ctx context.Context, name string) {
	defer p.clearInflight(name)

	// Check neg-cache again (race safety)
	if p.IsNegCached(name) {
		metrics.IncThumbRender("negcache")
		return
	}

	// Per-render rate limit; only fails when the pool shuts down.
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	// Renderer records the render outcome metrics.
	if _, _, err := p.renderer.Render(ctx, name); err != nil {
		if errors.Is(err, ErrUndecodable) {
			p.MarkUndecodable(name)
		}
	}
}

func (p *Prewarmer) clearInflight(name string) {
	p.inflightMu.Lock()
	delete(p.inflight, name)
	p.inflightMu.Unlock()
}

// IsNegCached reports whether a photo is known to be undecodable.
// Request handlers use it to skip render attempts for bad files.
func (p *Prewarmer) IsNegCached(name string) bool {
	p.negMu.Lock()
	defer p.negMu.Unlock()
	exp, ok := p.neg[name]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(p.neg, name)
		return false
	}
	return true
}

// MarkUndecodable records a failed decode so the file is not retried
// until the TTL lapses.
func (p *Prewarmer) MarkUndecodable(name string) {
	p.negMu.Lock()
	p.neg[name] = time.Now().Add(p.negTTL)
	p.negMu.Unlock()
}

func (p *Prewarmer) negCleanupLoop() {
	defer p.wg.Done()
	t := time.NewTicker(2 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-p.ctx.Done(): // Stop signal
			return
		case <-t.C:
			now := time.Now()
			p.negMu.Lock()
			for k, exp := range p.neg {
				if now.After(exp) {
					delete(p.neg, k)
				}
			}
			p.negMu.Unlock()
		}
	}
}
