package todos

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Results are converted to UTC by callers.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type options struct {
	now    Clock
	logger *slog.Logger
	limit  int
	newID  func() (string, error)
}

type Option func(*options)

// WithClock replaces the wall clock used for due-date comparisons.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.now = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConcurrency bounds how many per-item store calls a single request may
// have in flight. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(o *options) { o.limit = n }
}

func WithIDGenerator(fn func() (string, error)) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    systemClock,
		logger: slog.Default(),
		newID:  newTodoID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time { return o.now().UTC() }

// newTodoID returns a UUIDv7, which sorts by creation time.
func newTodoID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
