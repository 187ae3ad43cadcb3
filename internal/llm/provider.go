// Package llm talks to hosted and local language models and decodes their
// structured replies.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a model answers with no content.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is a single completion request.
type Request struct {
	System string
	Prompt string
	// Images are raw image bytes for vision-capable models.
	Images [][]byte
	// JSON asks the backend to constrain output to JSON when it can.
	JSON bool
}

// Provider is a completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
