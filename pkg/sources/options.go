package sources

import (
	"time"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
)

// Options tune one Fetch call.
type Options struct {
	MaxPages  int           // hard cap on pagination steps, independent of the source's own signal
	PageSize  int           // records requested per step
	PageDelay time.Duration // polite pause between steps
}

// Option configures Options.
type Option func(*Options)

// Defaults returns the default fetch options.
func Defaults() *Options {
	return &Options{
		MaxPages:  constants.DefaultMaxPages,
		PageSize:  constants.DefaultPageSize,
		PageDelay: constants.DefaultPageDelay,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	if o.MaxPages <= 0 {
		return errors.NewValidationError("max_pages", o.MaxPages, "must be positive")
	}
	if o.PageSize <= 0 {
		return errors.NewValidationError("page_size", o.PageSize, "must be positive")
	}
	if o.PageDelay < 0 {
		return errors.NewValidationError("page_delay", o.PageDelay, "must not be negative")
	}
	return nil
}

// WithMaxPages caps the number of pagination steps. Zero keeps the default.
func WithMaxPages(n int) Option {
	return func(o *Options) {
		if n != 0 {
			o.MaxPages = n
		}
	}
}

// WithPageSize sets the number of records per step. Zero keeps the default.
func WithPageSize(n int) Option {
	return func(o *Options) {
		if n != 0 {
			o.PageSize = n
		}
	}
}

// WithPageDelay sets the pause between steps.
func WithPageDelay(d time.Duration) Option {
	return func(o *Options) {
		o.PageDelay = d
	}
}
