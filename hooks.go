package pubmap

import (
	"slices"
	"sync"

	"github.com/agentstation/pubmap/pkg/catalogs"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for catalog events
type (
	// PublicationAddedHook is called when a publication is added to the catalog
	PublicationAddedHook func(pub catalogs.Publication)

	// PublicationUpdatedHook is called when a publication is updated in the catalog
	PublicationUpdatedHook func(old, new catalogs.Publication)

	// SyncedHook is called after every successful sync run, written or not
	SyncedHook func(result *pkgsync.Result)
)

// Hooks provides event callback registration. Added and updated hooks fire
// only for changes that were written to disk.
type Hooks interface {
	// OnPublicationAdded registers a callback for when publications are added
	OnPublicationAdded(PublicationAddedHook)

	// OnPublicationUpdated registers a callback for when publications are updated
	OnPublicationUpdated(PublicationUpdatedHook)

	// OnSynced registers a callback for completed sync runs
	OnSynced(SyncedHook)
}

// hooks manages event callbacks for catalog changes
type hooks struct {
	mu                   sync.RWMutex
	onPublicationAdded   []PublicationAddedHook
	onPublicationUpdated []PublicationUpdatedHook
	onSynced             []SyncedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnPublicationAdded registers a callback for when publications are added.
func (c *client) OnPublicationAdded(fn PublicationAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onPublicationAdded = append(c.hooks.onPublicationAdded, fn)
}

// OnPublicationUpdated registers a callback for when publications are updated.
func (c *client) OnPublicationUpdated(fn PublicationUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onPublicationUpdated = append(c.hooks.onPublicationUpdated, fn)
}

// OnSynced registers a callback for completed sync runs.
func (c *client) OnSynced(fn SyncedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSynced = append(c.hooks.onSynced, fn)
}

// triggerSync fires the hooks for a finished run. Hooks run without the
// registry lock held, so a hook may register further hooks.
func (h *hooks) triggerSync(result *pkgsync.Result) {
	h.mu.RLock()
	added := slices.Clone(h.onPublicationAdded)
	updated := slices.Clone(h.onPublicationUpdated)
	synced := slices.Clone(h.onSynced)
	h.mu.RUnlock()

	if result.Written && result.Changeset != nil {
		for _, pub := range result.Changeset.Added {
			for _, hook := range added {
				hook(pub.Clone())
			}
		}
		for _, u := range result.Changeset.Updated {
			for _, hook := range updated {
				hook(u.Existing.Clone(), u.New.Clone())
			}
		}
	}

	for _, hook := range synced {
		hook(result)
	}
}
