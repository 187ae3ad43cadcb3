package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultMinInterval = 500 * time.Millisecond
	DefaultMaxAttempts = 3
)

// CallerOptions tunes a Caller. Zero values select the defaults.
type CallerOptions struct {
	MinInterval time.Duration
	// MaxAttempts bounds calls to the provider, including the first.
	MaxAttempts int
	// InitialBackoff is the first retry delay; it doubles up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Cache          *ResponseCache
	Logger         *zap.Logger
}

// Caller wraps a Provider with a response cache, a request rate limit and
// retry with exponential backoff. Each agent owns one Caller so that its
// metrics stay separate.
type Caller struct {
	provider    Provider
	cache       *ResponseCache
	limiter     *rate.Limiter
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	metrics     *Metrics
	logger      *zap.Logger
}

func NewCaller(p Provider, opts CallerOptions) *Caller {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Caller{
		provider:    p,
		cache:       opts.Cache,
		limiter:     rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		maxAttempts: opts.MaxAttempts,
		initial:     opts.InitialBackoff,
		max:         opts.MaxBackoff,
		metrics:     &Metrics{},
		logger:      opts.Logger.With(zap.String("provider", p.Name())),
	}
}

func (c *Caller) Metrics() *Metrics { return c.metrics }

// Call performs a completion, serving repeats from the cache.
func (c *Caller) Call(ctx context.Context, req Request) (string, error) {
	var key string
	if c.cache != nil {
		key = CacheKey(c.provider.Name(), req)
		if out, ok := c.cache.Get(key); ok {
			c.metrics.recordCacheHit()
			c.logger.Debug("cache hit")
			return out, nil
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxInterval = c.max
	b.MaxElapsedTime = 0

	var out string
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		start := time.Now()
		resp, err := c.provider.Complete(ctx, req)
		if err != nil {
			c.metrics.recordError()
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Debug("model call failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		c.metrics.recordCall(req.System+req.Prompt, resp, time.Since(start))
		out = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		c.logger.Warn("model call gave up", zap.Int("attempts", attempt), zap.Error(err))
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	if c.cache != nil {
		c.cache.Put(key, out)
	}
	return out, nil
}
