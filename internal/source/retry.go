package source

import (
	"context"
	"errors"
	"time"

	"github.com/solresol/haruspex/internal/model"
)

// Retrying wraps a source with bounded retries and exponential backoff.
// Not-found results and context cancellation are returned immediately;
// only fetch failures are retried.
type Retrying struct {
	Source   PaperSource
	Attempts int
	Base     time.Duration
}

func WithRetries(src PaperSource, attempts int) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{Source: src, Attempts: attempts, Base: 500 * time.Millisecond}
}

func (r *Retrying) do(ctx context.Context, fn func() error) error {
	var err error
	delay := r.Base
	for attempt := 0; attempt < r.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return err
}

func (r *Retrying) Search(ctx context.Context, query string, limit int) ([]model.Paper, error) {
	var out []model.Paper
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Source.Search(ctx, query, limit)
		return err
	})
	return out, err
}

func (r *Retrying) GetReferences(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	var out []model.Paper
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Source.GetReferences(ctx, bibcode, limit)
		return err
	})
	return out, err
}

func (r *Retrying) GetCiting(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	var out []model.Paper
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Source.GetCiting(ctx, bibcode, limit)
		return err
	})
	return out, err
}

func (r *Retrying) GetAbstract(ctx context.Context, bibcode string) (*model.Paper, error) {
	var out *model.Paper
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Source.GetAbstract(ctx, bibcode)
		return err
	})
	return out, err
}
