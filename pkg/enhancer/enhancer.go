// Package enhancer fills gaps in publications after a merge: a DOI found in
// a link, a better link once the DOI is known, venue and year from Crossref.
//
// Enhancers only ever fill provider fields. The pipeline restores the key
// and every curator field after each step, so an enhancer cannot touch what
// a person wrote by hand.
package enhancer

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/pubmap/pkg/authority"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/provenance"
)

// Enhancer defines the interface for publication enrichment.
type Enhancer interface {
	// Name returns the enhancer name
	Name() string

	// Enhance returns pub with additional data filled in
	Enhance(ctx context.Context, pub catalogs.Publication) (catalogs.Publication, error)

	// CanEnhance checks if this enhancer has anything to add to pub
	CanEnhance(pub catalogs.Publication) bool

	// Priority returns the priority of this enhancer (higher = applied first)
	Priority() int
}

// Pipeline manages a chain of enhancers.
type Pipeline struct {
	enhancers []Enhancer
	tracker   provenance.Tracker
}

// NewPipeline creates a new enhancer pipeline. Enhancers run by priority,
// highest first; equal priorities keep their argument order.
func NewPipeline(enhancers ...Enhancer) *Pipeline {
	sorted := slices.Clone(enhancers)
	slices.SortStableFunc(sorted, func(a, b Enhancer) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
	return &Pipeline{enhancers: sorted}
}

// WithProvenance enables provenance tracking for enhancements.
func (p *Pipeline) WithProvenance(tracker provenance.Tracker) *Pipeline {
	p.tracker = tracker
	return p
}

// Len returns the number of enhancers.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.enhancers)
}

// Names returns the enhancer names in application order.
func (p *Pipeline) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.enhancers))
	for i, e := range p.enhancers {
		names[i] = e.Name()
	}
	return names
}

// Enhance applies all enhancers to a single publication. An enhancer error
// is logged and the publication passed on unchanged by that enhancer.
func (p *Pipeline) Enhance(ctx context.Context, pub catalogs.Publication) catalogs.Publication {
	enhanced := pub.Clone()
	if p == nil {
		return enhanced
	}

	for _, enhancer := range p.enhancers {
		if ctx.Err() != nil {
			break
		}
		if !enhancer.CanEnhance(enhanced) {
			continue
		}

		result, err := enhancer.Enhance(ctx, enhanced.Clone())
		if err != nil {
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("enhancer", enhancer.Name()).
				Str("key", pub.Key).
				Msg("Enhancer failed for publication")
			continue
		}
		result = guard(enhanced, result)

		if p.tracker != nil {
			p.track(enhanced, result, enhancer)
		}
		enhanced = result
	}

	return enhanced
}

// Workers bounds how many publications are enhanced at once. Outbound
// requests are still paced by each enhancer's transport.
const Workers = 4

// Catalog enhances the publications stored under keys and returns the
// updated catalog with the number of publications that changed. Other
// publications are left alone. Only context cancellation is an error.
func (p *Pipeline) Catalog(ctx context.Context, cat *catalogs.Catalog, keys []string) (*catalogs.Catalog, int, error) {
	if p.Len() == 0 || len(keys) == 0 {
		return cat, 0, nil
	}

	pubs := cat.List()
	index := make(map[string]int, len(pubs))
	for i, pub := range pubs {
		if _, seen := index[pub.Key]; !seen {
			index[pub.Key] = i
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers)
	var changed atomic.Int64
	queued := make(map[int]bool, len(keys))
	for _, key := range keys {
		i, ok := index[key]
		if !ok || queued[i] {
			continue
		}
		queued[i] = true
		// Each goroutine owns pubs[i]; enhancers of one publication run in order.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			enhanced := p.Enhance(gctx, pubs[i])
			if !enhanced.Equal(pubs[i]) {
				pubs[i] = enhanced
				changed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cat, 0, err
	}
	if err := ctx.Err(); err != nil {
		return cat, 0, err
	}
	if changed.Load() == 0 {
		return cat, 0, nil
	}

	logging.FromContext(ctx).Debug().
		Int64("enhanced", changed.Load()).
		Strs("enhancers", p.Names()).
		Msg("Enhanced publications")
	return cat.WithPublications(pubs), int(changed.Load()), nil
}

// guard keeps only the provider fields of result; the key, curator fields
// and extra document fields come from original.
func guard(original, result catalogs.Publication) catalogs.Publication {
	result.Key = original.Key
	result.Selected = original.Selected
	result.Image = original.Image
	result.Extra = maps.Clone(original.Extra)
	return result
}

// track records each provider field the enhancer changed.
func (p *Pipeline) track(original, enhanced catalogs.Publication, enhancer Enhancer) {
	for _, field := range authority.ProviderFields() {
		previous := authority.Value(original, field)
		value := authority.Value(enhanced, field)
		if previous == value {
			continue
		}
		p.tracker.Track(enhanced.Key, field, provenance.Provenance{
			Source:   enhancer.Name(),
			Value:    value,
			Previous: previous,
			Reason:   "enhancement",
		})
	}
}

// Priorities of the built-in enhancers. DOI extraction runs first so that
// Crossref can look up by DOI and the link can point at it.
const (
	PriorityDOI      = 100
	PriorityCrossref = 80
	PriorityBestLink = 50
)

// Default returns the standard pipeline. Crossref is added only when
// crossref is true because it calls a remote API for every record.
func Default(crossref bool, opts ...CrossrefOption) *Pipeline {
	enhancers := []Enhancer{NewDOI(PriorityDOI), NewBestLink(PriorityBestLink)}
	if crossref {
		enhancers = append(enhancers, NewCrossref(PriorityCrossref, opts...))
	}
	return NewPipeline(enhancers...)
}
