package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/domain"
)

// ErrNotFound is returned by Update when the row is gone after the write.
var ErrNotFound = errors.New("task not found")

// TaskRepository persists tasks. Every method runs on its own pooled
// connection; no transaction spans two calls.
type TaskRepository interface {
	// Create stamps the creation date, inserts the task and returns the stored row.
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	// Get returns false when no task has the id.
	Get(ctx context.Context, id int64) (*domain.Task, bool, error)
	List(ctx context.Context) ([]*domain.Task, error)
	ListBetweenDates(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error)
	// Update replaces title, description, due date and status. It is a
	// no-op when the id does not exist.
	Update(ctx context.Context, t *domain.Task) (*domain.Task, error)
	// Delete is a no-op when the id does not exist.
	Delete(ctx context.Context, id int64) error
	EnsureSchema(ctx context.Context) error
}

// Clock returns the current time. Repositories use it to stamp creation dates.
type Clock func() time.Time

// Option configures a repository.
type Option func(*options)

type options struct {
	now Clock
}

// WithClock overrides the clock used for creation dates.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.now = c
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func statusFromColumn(code *string) (*domain.Status, error) {
	if code == nil {
		return nil, nil
	}
	s, err := domain.StatusFromCode(*code)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func statusColumn(s *domain.Status) *string {
	if s == nil {
		return nil
	}
	code := s.Code()
	return &code
}

func reread(ctx context.Context, r TaskRepository, id int64) (*domain.Task, error) {
	t, ok, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}
