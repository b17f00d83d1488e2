// Package application provides the application interface for pubmap commands.
//
// Commands accept an Application rather than the concrete App so they can be
// tested against a Mock:
//
//	mock := &application.Mock{
//	    CatalogFunc: func() (*catalogs.Catalog, error) {
//	        return catalogs.New(pubs...), nil
//	    },
//	}
//	cmd := list.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/pubmap"
	"github.com/agentstation/pubmap/pkg/catalogs"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Application provides what commands need from the running CLI.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Catalog reads the configured catalog document. A missing document is
	// an empty catalog.
	Catalog() (*catalogs.Catalog, error)

	// Client returns the pubmap client. Without options the cached default
	// client is returned; with options a new client is created.
	Client(opts ...pubmap.Option) (pubmap.Client, error)

	// SyncOptions returns the sync settings from configuration files and
	// the environment. Command flags are applied after them.
	SyncOptions() []pkgsync.Option

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
