// Package app provides the application context and dependency management
// for the pubmap CLI. It centralizes configuration, logging and the pubmap
// client so commands only depend on the application.Application interface.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/pubmap"
	"github.com/agentstation/pubmap/cmd/application"
	"github.com/agentstation/pubmap/internal/cmd/output"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the pubmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Default client (lazy-initialized) and every client handed out, so
	// Shutdown can stop their schedules.
	mu      sync.RWMutex
	client  pubmap.Client
	clients []pubmap.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration from files and the environment,
// which can be replaced using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format. When none is set it
// is detected from stdout: a table for terminals, JSON for pipes.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// SyncOptions returns the sync settings from configuration.
func (a *App) SyncOptions() []pkgsync.Option {
	return a.config.SyncOptions()
}

// Client returns the pubmap client. Without options the default client is
// created once and reused; with options a new client is created on top of
// the configured catalog path.
func (a *App) Client(opts ...pubmap.Option) (pubmap.Client, error) {
	if len(opts) > 0 {
		c, err := pubmap.New(append(a.clientOptions(), opts...)...)
		if err != nil {
			return nil, errors.WrapResource("create", "client", "with custom options", err)
		}
		a.mu.Lock()
		a.clients = append(a.clients, c)
		a.mu.Unlock()
		return c, nil
	}

	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := pubmap.New(a.clientOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	a.clients = append(a.clients, c)
	return c, nil
}

// Catalog reads the configured catalog document.
func (a *App) Catalog() (*catalogs.Catalog, error) {
	c, err := a.Client()
	if err != nil {
		return nil, err
	}
	cat, err := c.Catalog()
	if err != nil {
		return nil, errors.WrapResource("read", "catalog", c.Path(), err)
	}
	return cat, nil
}

// Shutdown stops scheduled syncs of every client the app created and waits
// for a running sync to end or ctx to expire.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.RLock()
	clients := append([]pubmap.Client(nil), a.clients...)
	a.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range clients {
			if err := c.AutoSyncOff(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to stop scheduled syncs during shutdown")
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []pubmap.Option {
	var opts []pubmap.Option
	if a.config.CatalogPath != "" {
		opts = append(opts, pubmap.WithCatalogPath(a.config.CatalogPath))
	}
	return append(opts, pubmap.WithSyncDefaults(a.config.SyncOptions()...))
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "config is nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom default client (useful for testing).
func WithClient(c pubmap.Client) Option {
	return func(a *App) error {
		a.client = c
		a.clients = append(a.clients, c)
		return nil
	}
}
