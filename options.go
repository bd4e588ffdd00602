package certstore

import "log/slog"

// Option configures a Store opened with Open or Import.
type Option func(*options)

type options struct {
	log     *slog.Logger
	backend backend
}

func newOptions(opts []Option) *options {
	o := &options{
		log:     slog.Default(),
		backend: defaultBackend,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger store operations are reported to. The default
// is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// withBackend replaces the platform certificate store API.
func withBackend(b backend) Option {
	return func(o *options) {
		o.backend = b
	}
}
