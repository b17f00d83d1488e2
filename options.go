package pubmap

import (
	"time"

	"github.com/agentstation/pubmap/pkg/enhancer"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/sources"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	syncDefaults     []pkgsync.Option    // applied before the options of each Sync call
	source           sources.Source      // replaces the registry source when set
	enhancers        []enhancer.Enhancer // replaces the default pipeline when set
	provenance       bool
	autoSyncInterval time.Duration
	autoSyncOptions  []pkgsync.Option
}

func defaults() *options {
	return &options{provenance: true}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// syncOptions resolves the options of one Sync call.
func (o *options) syncOptions(opts ...pkgsync.Option) *pkgsync.Options {
	return pkgsync.Defaults().Apply(o.syncDefaults...).Apply(opts...)
}

// WithCatalogPath configures the catalog document.
func WithCatalogPath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return &errors.ValidationError{Field: "catalog", Value: path, Message: "path is required"}
		}
		o.syncDefaults = append(o.syncDefaults, pkgsync.WithCatalogPath(path))
		return nil
	}
}

// WithSyncDefaults configures options applied to every Sync call. Options
// passed to Sync itself take precedence.
func WithSyncDefaults(opts ...pkgsync.Option) Option {
	return func(o *options) error {
		o.syncDefaults = append(o.syncDefaults, opts...)
		return nil
	}
}

// WithSource configures a source to use instead of building one from the
// sync options.
func WithSource(src sources.Source) Option {
	return func(o *options) error {
		if src == nil {
			return &errors.ValidationError{Field: "source", Message: "source is nil"}
		}
		o.source = src
		return nil
	}
}

// WithEnhancers replaces the default enhancement pipeline. Calling it with
// no enhancers disables enhancement.
func WithEnhancers(enhancers ...enhancer.Enhancer) Option {
	return func(o *options) error {
		o.enhancers = append([]enhancer.Enhancer{}, enhancers...)
		return nil
	}
}

// WithProvenance configures whether field provenance is collected.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.provenance = enabled
		return nil
	}
}

// WithAutoSync runs Sync with opts every interval until AutoSyncOff.
func WithAutoSync(interval time.Duration, opts ...pkgsync.Option) Option {
	return func(o *options) error {
		if interval <= 0 {
			return &errors.ValidationError{
				Field:   "autoSyncInterval",
				Value:   interval,
				Message: "sync interval must be positive",
			}
		}
		o.autoSyncInterval = interval
		o.autoSyncOptions = opts
		return nil
	}
}
