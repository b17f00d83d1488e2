package reconciler

import (
	"github.com/agentstation/pubmap/pkg/errors"
)

// options configures a reconciler.
type options struct {
	source   string
	tracking bool
}

func defaultOptions() *options {
	return &options{
		tracking: true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithSource names the source of the candidates. It is recorded in
// provenance and in the empty fetch error.
func WithSource(source string) Option {
	return func(o *options) error {
		if source == "" {
			return &errors.ValidationError{
				Field:   "source",
				Message: "cannot be empty",
			}
		}
		o.source = source
		return nil
	}
}

// WithProvenance enables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}
