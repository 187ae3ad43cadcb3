package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Fallback tries the primary provider and falls back to the secondary when
// it fails. A nil primary routes every request to the secondary.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

func NewFallback(primary, secondary Provider, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	if f.primary == nil {
		return f.secondary.Name()
	}
	return fmt.Sprintf("%s|%s", f.primary.Name(), f.secondary.Name())
}

func (f *Fallback) Complete(ctx context.Context, req Request) (string, error) {
	if f.primary != nil {
		out, err := f.primary.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.logger.Warn("primary provider failed, falling back",
			zap.String("primary", f.primary.Name()),
			zap.String("secondary", f.secondary.Name()),
			zap.Error(err))
	}
	return f.secondary.Complete(ctx, req)
}
