package pipelines

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// CachedDoctor memoises doctor probes so analyze jobs do not spawn python
// just to learn what is installed.
type CachedDoctor struct {
	runner Runner
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

type DoctorOption func(*CachedDoctor)

// WithTTL sets how long a successful probe is reused.
func WithTTL(ttl time.Duration) DoctorOption {
	return func(d *CachedDoctor) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func NewCachedDoctor(runner Runner, logger *slog.Logger, opts ...DoctorOption) *CachedDoctor {
	d := &CachedDoctor{
		runner: runner,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Get returns the cached capabilities while fresh and probes otherwise.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	if caps := d.fresh(); caps != nil {
		return caps, nil
	}
	return d.Refresh(ctx)
}

func (d *CachedDoctor) fresh() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		return d.cached
	}
	return nil
}

// Peek returns the last probe without running a new one. It is nil until the
// first successful probe.
func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh probes now. On failure the previous result, if any, is returned.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.runner.RunDoctor(ctx)
	if err == nil {
		d.cached = caps
		return caps, nil
	}

	if d.logger != nil {
		d.logger.Warn("doctor probe failed", "error", err, "stale_cache", d.cached != nil)
	}
	if d.cached != nil {
		return d.cached, nil
	}
	return nil, err
}

func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
