package pubmap

import (
	"context"

	"github.com/agentstation/pubmap/internal/lockfile"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/differ"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/provenance"
	"github.com/agentstation/pubmap/pkg/reconciler"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*client)(nil)

// Syncer runs sync operations.
type Syncer interface {
	// Sync fetches from the source and merges into the catalog file
	Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error)
}

// Sync fetches the source's records, merges them into the catalog, and
// writes the catalog atomically when it changed. Any error means nothing
// was written. Hooks fire after the run has released the catalog, so a hook
// may call Sync again.
func (c *client) Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := c.run(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// Trigger hooks for catalog changes
	c.hooks.triggerSync(result)

	return result, nil
}

// run holds the client and catalog locks for one sync.
func (c *client) run(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 1: Parse and validate options
	options := c.options.syncOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	path := options.CatalogPath

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	// Step 3: Build the source
	src, err := c.source(options)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithCatalog(logging.WithSource(ctx, src.ID().String()), path)
	logger := logging.FromContext(ctx)

	// Step 4: Take the catalog lock, released on return
	lock, err := lockfile.Acquire(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("Could not release catalog lock")
		}
	}()

	// Step 5: Load the existing catalog; missing or malformed starts empty
	existing, status := catalogs.LoadOrEmpty(path)
	resolver := identity.NewResolver(options.ResolverOptions()...)
	existing, assigned := resolver.AssignKeys(existing)
	if assigned > 0 {
		logger.Info().Int("assigned", assigned).Msg("Assigned keys to stored publications without one")
	}
	if dups := existing.Duplicates(); len(dups) > 0 {
		logger.Warn().Strs("keys", dups).Msg("Catalog has duplicate keys; later copies are kept but never updated")
	}

	// Step 6: Fetch and normalize
	candidates, skipped, err := fetch(ctx, src, options.SourceOptions())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.NewTimeoutError("sync", options.Timeout.String(), err.Error())
		}
		return nil, errors.NewSyncError(src.ID().String(), "fetch", err)
	}

	// Step 7: Resolve identity and merge; an empty fetch stops here
	rec, err := reconciler.New(
		reconciler.WithSource(src.ID().String()),
		reconciler.WithProvenance(c.options.provenance),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}
	merged, err := rec.Merge(existing, resolver.All(candidates))
	if err != nil {
		if errors.Is(err, errors.ErrEmptyFetch) {
			logger.Error().
				Err(err).
				Int("skipped", skipped).
				Msg("Source returned no usable records, catalog left untouched")
		}
		return nil, err
	}

	// Step 8: Enhance the publications touched by this fetch
	tracker := provenance.NewTracker(c.options.provenance)
	enhanced, changed, err := c.pipeline(options).
		WithProvenance(tracker).
		Catalog(ctx, merged.Catalog, merged.Touched)
	if err != nil {
		return nil, errors.NewSyncError(src.ID().String(), "enhance", err)
	}

	// Step 9: Sort and diff against the loaded catalog
	final := enhanced.Sorted()
	changeset := differ.Compare(existing, final)

	result := &pkgsync.Result{
		Catalog:    final,
		Changeset:  changeset,
		Stats:      merged.Stats,
		Provenance: merged.Provenance.Merge(tracker.Map()),
		Source:     src.ID(),
		Skipped:    skipped,
		Enhanced:   changed,
		DryRun:     options.DryRun,
		Path:       path,
		LoadStatus: status,
	}

	// Step 10: Log change summary
	if changeset.HasChanges() {
		logger.Info().
			Int("added", len(changeset.Added)).
			Int("updated", len(changeset.Updated)).
			Bool("reordered", changeset.Summary.Reordered).
			Msg("Changes detected")
	} else {
		logger.Info().Msg("No changes detected")
	}

	// Step 11: Write unless dry run; keys assigned at load count as changes
	shouldSave := changeset.HasChanges() || assigned > 0
	if options.Force && !shouldSave {
		shouldSave = true
		logger.Info().Bool("force", true).Msg("Forcing save without changes")
	}

	switch {
	case options.DryRun:
		logger.Info().Bool("dry_run", true).Msg("Dry run completed - no changes applied")
	case shouldSave:
		if status == catalogs.StatusMalformed {
			backup, err := catalogs.Backup(path)
			if err != nil {
				return nil, errors.NewSyncError(src.ID().String(), "backup", err)
			}
			result.Backup = backup
			logger.Warn().Str("backup", backup).Msg("Saved a copy of the unreadable catalog")
		}
		if err := final.SaveTo(path); err != nil {
			return nil, errors.NewSyncError(src.ID().String(), "write", err)
		}
		result.Written = true
		logger.Info().
			Int("publications", final.Len()).
			Int("changes_applied", changeset.Summary.TotalChanges).
			Msg("Sync completed successfully")
	}

	return result, nil
}
