package viewmodel

import (
	"io"
	"log/slog"
)

type options struct {
	logger            *slog.Logger
	minPasswordLength int
}

// Option configures a view-model.
type Option func(*options)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMinPasswordLength sets the shortest password accepted at sign-up.
// Only the auth view-model reads it.
func WithMinPasswordLength(n int) Option {
	return func(o *options) {
		o.minPasswordLength = n
	}
}

// DefaultMinPasswordLength matches the backend's own minimum.
const DefaultMinPasswordLength = 6

func buildOptions(opts []Option) options {
	o := options{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		minPasswordLength: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
