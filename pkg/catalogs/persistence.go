package catalogs

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/agentstation/pubmap/internal/atomicfile"
	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
)

// LoadStatus describes what LoadOrEmpty found on disk.
type LoadStatus string

const (
	// StatusLoaded means the document was read and parsed.
	StatusLoaded LoadStatus = "loaded"
	// StatusMissing means no document exists at the path.
	StatusMissing LoadStatus = "missing"
	// StatusMalformed means the document exists but could not be parsed.
	StatusMalformed LoadStatus = "malformed"
)

// Load reads and parses the catalog at path. Unlike LoadOrEmpty it reports
// every problem as an error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, &errors.NotFoundError{Resource: "catalog", ID: path}
		}
		return nil, errors.WrapIO("read", path, err)
	}

	format := FormatForPath(path)
	cat, err := Decode(data, format)
	if err != nil {
		var parseErr *errors.ParseError
		if stderrors.As(err, &parseErr) {
			parseErr.File = path
			return nil, parseErr
		}
		return nil, errors.WrapParse(string(format), path, err)
	}
	return cat, nil
}

// LoadOrEmpty reads the catalog at path. A missing or malformed document is
// not an error: it yields an empty catalog and is logged.
func LoadOrEmpty(path string) (*Catalog, LoadStatus) {
	cat, err := Load(path)
	if err == nil {
		logging.Debug().
			Str("path", path).
			Int("publications", cat.Len()).
			Msg("Loaded catalog")
		return cat, StatusLoaded
	}

	layout := DefaultLayout()
	layout.Format = FormatForPath(path)
	empty := Empty().WithLayout(layout)

	if errors.IsNotFound(err) {
		logging.Info().
			Str("path", path).
			Msg("No existing catalog found, starting empty")
		return empty, StatusMissing
	}

	logging.Warn().
		Err(err).
		Str("path", path).
		Msg("Existing catalog could not be read, starting empty")
	return empty, StatusMalformed
}

// SaveTo writes the catalog to path atomically. The format follows the path
// extension. On failure the previous document is left in place.
func (c *Catalog) SaveTo(path string) error {
	data, err := c.EncodeAs(FormatForPath(path))
	if err != nil {
		return errors.WrapResource("encode", "catalog", path, err)
	}
	if err := atomicfile.WriteFile(path, data, 0); err != nil {
		return err
	}
	logging.Debug().
		Str("path", path).
		Int("publications", c.Len()).
		Int("bytes", len(data)).
		Msg("Wrote catalog")
	return nil
}

// Backup copies the current document at path to path+".bak". It is used
// before a malformed catalog is replaced.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapIO("read", path, err)
	}
	backup := path + ".bak"
	if err := atomicfile.WriteFile(backup, data, constants.FilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}
