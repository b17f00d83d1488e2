package pubmap

import (
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence provides access to the catalog on disk.
type Persistence interface {
	// Path returns the catalog document path
	Path() string

	// Catalog reads the catalog. A missing document is an empty catalog; a
	// malformed one is an error.
	Catalog() (*catalogs.Catalog, error)
}

// Path returns the catalog document path.
func (c *client) Path() string {
	return c.options.syncOptions().CatalogPath
}

// Catalog reads the current catalog from disk.
func (c *client) Catalog() (*catalogs.Catalog, error) {
	path := c.Path()
	cat, err := catalogs.Load(path)
	if errors.IsNotFound(err) {
		logging.Debug().Str("path", path).Msg("No catalog on disk, returning empty catalog")
		layout := catalogs.DefaultLayout()
		layout.Format = catalogs.FormatForPath(path)
		return catalogs.Empty().WithLayout(layout), nil
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}
