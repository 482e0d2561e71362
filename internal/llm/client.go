package llm

import (
	"context"
)

// Client is a minimal text-in text-out interface over a hosted model.
// Classification callers build the full prompt themselves.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
