// Package registry builds publication sources by ID.
// It is separate from the source implementations so they do not import each other.
package registry

import (
	"fmt"
	"slices"

	"github.com/agentstation/pubmap/internal/sources/file"
	"github.com/agentstation/pubmap/internal/sources/scholar"
	"github.com/agentstation/pubmap/internal/sources/serpapi"
	"github.com/agentstation/pubmap/internal/transport"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Config selects and configures one source.
type Config struct {
	Source  sources.ID
	Author  string // SerpAPI author_id or Scholar user id
	APIKey  string // SerpAPI only
	Input   string // file source path
	BaseURL string // overrides the API endpoint, mainly for tests
	Client  *transport.Client
}

// registry maps source IDs to their constructors.
var registry = map[sources.ID]func(Config) (sources.Source, error){
	sources.SerpAPIID: func(cfg Config) (sources.Source, error) {
		var opts []serpapi.Option
		if cfg.BaseURL != "" {
			opts = append(opts, serpapi.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Client != nil {
			opts = append(opts, serpapi.WithClient(cfg.Client))
		}
		return serpapi.New(cfg.Author, cfg.APIKey, opts...)
	},
	sources.ScholarID: func(cfg Config) (sources.Source, error) {
		var opts []scholar.Option
		if cfg.BaseURL != "" {
			opts = append(opts, scholar.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Client != nil {
			opts = append(opts, scholar.WithClient(cfg.Client))
		}
		return scholar.New(cfg.Author, opts...)
	},
	sources.FileID: func(cfg Config) (sources.Source, error) {
		return file.New(cfg.Input)
	},
}

// Get creates a new source for cfg.
func Get(cfg Config) (sources.Source, error) {
	newSource, ok := registry[cfg.Source]
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "source",
			Value:   cfg.Source,
			Message: fmt.Sprintf("unsupported source: %q (one of %v)", cfg.Source, List()),
		}
	}
	return newSource(cfg)
}

// Has checks if a source ID has an implementation.
func Has(id sources.ID) bool {
	_, ok := registry[id]
	return ok
}

// List returns all source IDs with an implementation, sorted.
func List() []sources.ID {
	ids := make([]sources.ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
