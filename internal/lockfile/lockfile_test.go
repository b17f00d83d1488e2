package lockfile_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap/internal/lockfile"
	"github.com/agentstation/pubmap/pkg/errors"
)

func TestAcquireIsExclusive(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "data", "publications.yaml")

	first, err := lockfile.Acquire(catalog)
	require.NoError(t, err)
	assert.Equal(t, catalog+".lock", first.Path())
	assert.FileExists(t, first.Path())

	_, err = lockfile.Acquire(catalog)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLocked)
	var resErr *errors.ResourceError
	assert.ErrorAs(t, err, &resErr)

	require.NoError(t, first.Release())

	again, err := lockfile.Acquire(catalog)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestReleaseNil(t *testing.T) {
	var l *lockfile.Lock
	assert.NoError(t, l.Release())
}
