package pubmap_test

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap"
	"github.com/agentstation/pubmap/internal/lockfile"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/sources"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

const input = `
- id: a
  title: "Paper  A"
  authors: [Ada, Grace]
  venue: Journal A
  year: 2020
  link: https://doi.org/10.1000/a
- title: New Paper
  authors: Linus
  year: 2023
  link: https://example.com/new
- title: Undated Note
  link: https://example.com/note
- title: ""
  link: https://example.com/untitled
`

type fixture struct {
	dir     string
	input   string
	catalog string
}

func newFixture(t *testing.T, in string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		input:   filepath.Join(dir, "input.yaml"),
		catalog: filepath.Join(dir, "publications.yaml"),
	}
	require.NoError(t, os.WriteFile(f.input, []byte(in), 0o644))
	return f
}

func (f fixture) client(t *testing.T, opts ...pubmap.Option) pubmap.Client {
	t.Helper()
	opts = append([]pubmap.Option{
		pubmap.WithCatalogPath(f.catalog),
		pubmap.WithSyncDefaults(pkgsync.WithSource(sources.FileID), pkgsync.WithInput(f.input)),
	}, opts...)
	c, err := pubmap.New(opts...)
	require.NoError(t, err)
	return c
}

func (f fixture) writeCatalog(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.catalog, []byte(content), 0o644))
}

func (f fixture) readCatalog(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.catalog)
	require.NoError(t, err)
	return string(data)
}

func TestSyncCreatesCatalog(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t)

	result, err := c.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Written)
	assert.Equal(t, catalogs.StatusMissing, result.LoadStatus)
	assert.Equal(t, 3, result.Stats.Fetched)
	assert.Equal(t, 3, result.Stats.Added)
	assert.Equal(t, 1, result.Skipped, "the untitled record is skipped")
	assert.Equal(t, []string{"new-paper", "a", "undated-note"}, result.Catalog.Keys())

	a, ok := result.Catalog.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Paper A", a.Title)
	assert.Equal(t, "Ada, Grace", a.Authors)
	assert.Equal(t, "10.1000/a", a.DOI, "doi extracted from the link")
	assert.False(t, a.Selected)
	assert.Empty(t, a.Image)

	onDisk, err := c.Catalog()
	require.NoError(t, err)
	assert.True(t, onDisk.Equal(result.Catalog))
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	first := f.readCatalog(t)

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, result.HasChanges())
	assert.False(t, result.Written)
	assert.Equal(t, 3, result.Stats.Matched)
	assert.Equal(t, first, f.readCatalog(t))
}

func TestSyncPreservesCuration(t *testing.T) {
	f := newFixture(t, `
- id: a
  title: Paper A (revised)
  year: 2021
`)
	f.writeCatalog(t, `- id: a
  title: Paper A
  authors: Ada
  venue: Journal A
  year: 2020
  link: https://a.test
  selected: true
  image: a.png
  award: best paper
- id: old
  title: Old Paper
  year: 2010
  link: https://old.test
  selected: false
  image: ""
`)

	result, err := f.client(t).Sync(context.Background())
	require.NoError(t, err)
	require.True(t, result.Written)

	cat, err := catalogs.Load(f.catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "old"}, cat.Keys(), "nothing is deleted")

	a, _ := cat.Get("a")
	assert.Equal(t, "Paper A (revised)", a.Title)
	assert.Equal(t, 2021, a.Year)
	assert.Equal(t, "Ada", a.Authors, "empty fetched values do not overwrite")
	assert.Equal(t, "https://a.test", a.Link)
	assert.True(t, a.Selected)
	assert.Equal(t, "a.png", a.Image)
	assert.Equal(t, "best paper", a.Extra["award"])

	assert.Equal(t, 1, result.Stats.Carried)
	require.Len(t, result.Changeset.Updated, 1)
	assert.NotEmpty(t, result.Provenance["a:title"])
}

func TestSyncEmptyFetchLeavesCatalogUntouched(t *testing.T) {
	for name, in := range map[string]string{
		"empty list":   "[]",
		"all skipped":  "- title: \"\"\n- link: https://x.test\n",
		"empty object": "publications: []\n",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, in)
			before := "- id: a\n  title: Paper A\n  selected: true\n"
			f.writeCatalog(t, before)

			result, err := f.client(t).Sync(context.Background())
			assert.Nil(t, result)
			assert.ErrorIs(t, err, errors.ErrEmptyFetch)
			assert.Equal(t, before, f.readCatalog(t))
		})
	}
}

func TestSyncSourceErrorIsFatal(t *testing.T) {
	f := newFixture(t, input)
	require.NoError(t, os.Remove(f.input))
	f.writeCatalog(t, "- id: a\n  title: A\n")

	_, err := f.client(t).Sync(context.Background())
	var syncErr *errors.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "fetch", syncErr.Step)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "- id: a\n  title: A\n", f.readCatalog(t))
}

func TestSyncDryRun(t *testing.T) {
	f := newFixture(t, input)

	result, err := f.client(t).Sync(context.Background(), pkgsync.WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.True(t, result.HasChanges())
	assert.False(t, result.Written)
	assert.NoFileExists(t, f.catalog)
}

func TestSyncForceRewritesUnchangedCatalog(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	result, err := c.Sync(context.Background(), pkgsync.WithForce(true))
	require.NoError(t, err)
	assert.False(t, result.HasChanges())
	assert.True(t, result.Written)
}

func TestSyncBacksUpMalformedCatalog(t *testing.T) {
	f := newFixture(t, input)
	f.writeCatalog(t, "title: [unclosed")

	result, err := f.client(t).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogs.StatusMalformed, result.LoadStatus)
	assert.True(t, result.Written)
	assert.Equal(t, f.catalog+".bak", result.Backup)

	backup, err := os.ReadFile(result.Backup)
	require.NoError(t, err)
	assert.Equal(t, "title: [unclosed", string(backup))

	cat, err := catalogs.Load(f.catalog)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
}

func TestSyncReordersUnsortedCatalog(t *testing.T) {
	f := newFixture(t, "- id: a\n  title: A\n  year: 2020\n")
	f.writeCatalog(t, `- id: old
  title: Old
  year: 2010
  link: ""
  selected: false
  image: ""
- id: a
  title: A
  year: 2020
  link: ""
  selected: false
  image: ""
`)

	result, err := f.client(t).Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changeset.Summary.Reordered)
	assert.True(t, result.Written)
	assert.Equal(t, []string{"a", "old"}, result.Catalog.Keys())
}

func TestSyncAssignsMissingKeys(t *testing.T) {
	f := newFixture(t, "- title: Stored Paper\n  year: 2019\n")
	f.writeCatalog(t, "- title: Stored Paper\n  year: 2019\n  selected: true\n")

	result, err := f.client(t).Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Equal(t, []string{"stored-paper"}, result.Catalog.Keys())

	pub, _ := result.Catalog.Get("stored-paper")
	assert.True(t, pub.Selected, "the stored record is matched, not duplicated")
}

func TestSyncFailsWhenLocked(t *testing.T) {
	f := newFixture(t, input)
	lock, err := lockfile.Acquire(f.catalog)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	_, err = f.client(t).Sync(context.Background())
	assert.ErrorIs(t, err, errors.ErrLocked)
	assert.NoFileExists(t, f.catalog)
}

func TestSyncValidation(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t)

	_, err := c.Sync(context.Background(), pkgsync.WithSource("arxiv"))
	assert.True(t, errors.IsValidationError(err))

	_, err = c.Sync(context.Background(), pkgsync.WithMaxPages(-1))
	assert.True(t, errors.IsValidationError(err))

	_, err = pubmap.New(pubmap.WithCatalogPath(""))
	assert.True(t, errors.IsValidationError(err))
}

// staticSource serves fixed records.
type staticSource struct {
	recs []sources.RawRecord
}

func (s staticSource) ID() sources.ID { return "static" }

func (s staticSource) Fetch(context.Context, ...sources.Option) iter.Seq2[sources.RawRecord, error] {
	return sources.FromSlice(s.recs)
}

func TestSyncWithCustomSourceAndHooks(t *testing.T) {
	f := newFixture(t, input)
	f.writeCatalog(t, "- id: a\n  title: Old Title\n  year: 2020\n")

	src := staticSource{recs: []sources.RawRecord{
		{ID: "a", Title: "New Title", Year: sources.YearOf(2020)},
		{ID: "b", Title: "Second", Year: sources.YearOf("2022")},
	}}
	c := f.client(t, pubmap.WithSource(src), pubmap.WithEnhancers(), pubmap.WithProvenance(false))

	var added []string
	var updated [][2]string
	var synced int
	c.OnPublicationAdded(func(pub catalogs.Publication) { added = append(added, pub.Key) })
	c.OnPublicationUpdated(func(old, new catalogs.Publication) {
		updated = append(updated, [2]string{old.Title, new.Title})
	})
	c.OnSynced(func(*pkgsync.Result) { synced++ })

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sources.ID("static"), result.Source)
	assert.Nil(t, result.Provenance)
	assert.Equal(t, []string{"b"}, added)
	assert.Equal(t, [][2]string{{"Old Title", "New Title"}}, updated)
	assert.Equal(t, 1, synced)

	// Dry runs report but do not fire change hooks.
	_, err = c.Sync(context.Background(), pkgsync.WithDryRun(true))
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Equal(t, 2, synced)
}

func TestSyncHookCanSyncAgain(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t, pubmap.WithEnhancers())

	var nested *pkgsync.Result
	var nestedErr error
	runs := 0
	c.OnSynced(func(*pkgsync.Result) {
		runs++
		if runs > 1 {
			return
		}
		nested, nestedErr = c.Sync(context.Background())
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sync from a hook deadlocked")
	}
	require.NoError(t, nestedErr)
	require.NotNil(t, nested)
	assert.False(t, nested.Written, "second run sees no changes")
	assert.Equal(t, 2, runs)
}

// stallSource blocks until the run context ends.
type stallSource struct{}

func (stallSource) ID() sources.ID { return "stall" }

func (stallSource) Fetch(ctx context.Context, _ ...sources.Option) iter.Seq2[sources.RawRecord, error] {
	return func(yield func(sources.RawRecord, error) bool) {
		<-ctx.Done()
		yield(sources.RawRecord{}, ctx.Err())
	}
}

func TestSyncTimeout(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t, pubmap.WithSource(stallSource{}))

	_, err := c.Sync(context.Background(), pkgsync.WithTimeout(20*time.Millisecond))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.True(t, errors.IsTransient(err))

	var syncErr *errors.SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "fetch", syncErr.Step)
	assert.NoFileExists(t, f.catalog)
}

func TestAutoSync(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t, pubmap.WithAutoSync(10*time.Millisecond))
	defer func() { require.NoError(t, c.AutoSyncOff()) }()

	done := make(chan *pkgsync.Result, 10)
	c.OnSynced(func(r *pkgsync.Result) {
		select {
		case done <- r:
		default:
		}
	})

	select {
	case r := <-done:
		assert.Equal(t, sources.FileID, r.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled sync did not run")
	}
	require.NoError(t, c.AutoSyncOff())
	assert.FileExists(t, f.catalog)
}

func TestAutoSyncRequiresInterval(t *testing.T) {
	f := newFixture(t, input)
	c := f.client(t)
	assert.True(t, errors.IsValidationError(c.AutoSyncOn()))

	_, err := pubmap.New(pubmap.WithAutoSync(0))
	assert.True(t, errors.IsValidationError(err))
}
