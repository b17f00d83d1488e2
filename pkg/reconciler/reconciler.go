// Package reconciler merges a fetched batch of keyed candidates into the
// existing catalog.
//
// The merge is pure: the input catalog is never modified and the same
// inputs always produce the same output. Provider fields are refreshed when
// the candidate carries a value, curator fields are left alone, new records
// start unselected and without an image, and no record is ever removed.
// Merging the same batch twice gives the same catalog as merging it once.
package reconciler

import (
	"github.com/agentstation/pubmap/pkg/authority"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/differ"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/provenance"
)

// Reconciler merges candidates into a catalog.
type Reconciler interface {
	// Merge returns the catalog that results from applying candidates to
	// existing. An empty batch is refused with *errors.EmptyFetchError.
	Merge(existing *catalogs.Catalog, candidates []identity.Keyed) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	source   string
	tracking bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		source:   options.source,
		tracking: options.tracking,
	}, nil
}

// Merge applies candidates to existing with default options.
func Merge(existing *catalogs.Catalog, candidates []identity.Keyed) (*Result, error) {
	r, _ := New()
	return r.Merge(existing, candidates)
}

// Merge implements Reconciler.
func (r *reconciler) Merge(existing *catalogs.Catalog, candidates []identity.Keyed) (*Result, error) {
	if len(candidates) == 0 {
		return nil, errors.NewEmptyFetchError(r.source, existing.Len())
	}

	pubs := existing.List()
	index := make(map[string]int, len(pubs)+len(candidates))
	for i, p := range pubs {
		if _, ok := index[p.Key]; !ok && p.Key != "" {
			index[p.Key] = i
		}
	}

	tracker := provenance.NewTracker(r.tracking)
	stats := Stats{Fetched: len(candidates)}
	added := make(map[string]bool)
	touched := make(map[string]bool)
	var order []string

	for _, c := range candidates {
		if c.Key == "" {
			stats.Skipped++
			continue
		}

		i, ok := index[c.Key]
		switch {
		case !ok:
			pubs = append(pubs, catalogs.Publication{Key: c.Key})
			i = len(pubs) - 1
			index[c.Key] = i
			added[c.Key] = true
			stats.Added++
		case !touched[c.Key] && !added[c.Key]:
			stats.Matched++
		}

		r.fill(&pubs[i], c, tracker)

		if !touched[c.Key] {
			touched[c.Key] = true
			order = append(order, c.Key)
		}
	}

	if len(order) == 0 {
		return nil, errors.NewEmptyFetchError(r.source, existing.Len())
	}
	stats.Carried = existing.Len() - stats.Matched

	merged := existing.WithPublications(pubs).Sorted()
	return &Result{
		Catalog:    merged,
		Changeset:  differ.Compare(existing, merged),
		Touched:    order,
		Provenance: tracker.Map(),
		Stats:      stats,
	}, nil
}

// fill refreshes the provider fields of p from c. Curator fields are never
// touched.
func (r *reconciler) fill(p *catalogs.Publication, c identity.Keyed, tracker provenance.Tracker) {
	source := r.source
	if source == "" {
		source = c.Source.String()
	}
	for _, field := range authority.ProviderFields() {
		set, ok := setters[field]
		if !ok {
			continue
		}
		previous, value, written := set(p, c.Candidate)
		if written && previous != value {
			tracker.Track(p.Key, field, provenance.Provenance{
				Source:   source,
				Value:    value,
				Previous: previous,
				Reason:   c.Strategy,
			})
		}
	}
}
