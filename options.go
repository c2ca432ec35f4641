package dispatch

import "go.uber.org/zap"

// Option configures a Dispatcher.
type Option[T any] func(*config[T])

// config contains configuration for a dispatcher.
type config[T any] struct {
	// initial is the value reported as Last before the first dispatch.
	initial T

	// logger is the diagnostic sink for callback failures.
	logger *zap.Logger
}

func defaultConfig[T any]() config[T] {
	return config[T]{
		logger: zap.NewNop(),
	}
}

// WithInitial sets the value handlers observe as Last before the first
// dispatch. The default is the zero value of T.
func WithInitial[T any](v T) Option[T] {
	return func(c *config[T]) {
		c.initial = v
	}
}

// WithLogger sets the diagnostic sink for handler errors and panics.
// The default is a no-op logger.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(c *config[T]) {
		if l != nil {
			c.logger = l
		}
	}
}
