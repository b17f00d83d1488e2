// Package pubmap keeps a curated publication catalog in step with a
// bibliographic source such as a Google Scholar profile.
//
// A sync fetches the author's records, merges them into the catalog file
// and writes the result back atomically. Source-provided fields (title,
// authors, venue, year, link, doi) are refreshed; curator fields (selected,
// image and any unknown document fields) are never touched. Records are
// never deleted, and a fetch that returns nothing never writes.
//
// Example usage:
//
//	// Create a client for the catalog file
//	pm, err := pubmap.New(pubmap.WithCatalogPath("_data/publications.yml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register event hooks
//	pm.OnPublicationAdded(func(pub catalogs.Publication) {
//	    log.Printf("New publication: %s", pub.Title)
//	})
//
//	// Sync from SerpAPI
//	result, err := pm.Sync(ctx,
//	    sync.WithSource(sources.SerpAPIID),
//	    sync.WithAuthor("AbCdEfG"),
//	    sync.WithAPIKey(os.Getenv("SERPAPI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package pubmap

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/pubmap/pkg/logging"
)

// Client manages a catalog file with syncs, scheduled syncs and event hooks.
type Client interface {

	// Persistence provides access to the catalog on disk
	Persistence

	// Syncer runs sync operations
	Syncer

	// AutoSyncer provides access to scheduled sync controls
	AutoSyncer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// mu serializes sync runs within the process; the lock file guards
	// against other processes.
	mu sync.Mutex

	// auto sync state
	autoMu     sync.Mutex
	autoTicker *time.Ticker       // ticker to trigger scheduled syncs
	autoStop   chan struct{}      // stop channel to stop scheduled syncs
	autoCancel context.CancelFunc // cancel function for the sync goroutine
	autoDone   chan struct{}      // closed when the sync goroutine exits

	hooks *hooks // Event hooks for catalog changes
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		hooks:   newHooks(),
	}

	logging.Debug().
		Str("catalog", c.Path()).
		Bool("custom_source", o.source != nil).
		Int("enhancers", len(o.enhancers)).
		Msg("Created pubmap client")

	if o.autoSyncInterval > 0 {
		if err := c.AutoSyncOn(); err != nil {
			return nil, err
		}
	}

	return c, nil
}
