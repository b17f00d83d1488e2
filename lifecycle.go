package pubmap

import (
	"context"

	"github.com/agentstation/pubmap/internal/sources/registry"
	"github.com/agentstation/pubmap/pkg/enhancer"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/normalize"
	"github.com/agentstation/pubmap/pkg/sources"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// source returns the configured source, building one from opts unless the
// client was given its own.
func (c *client) source(opts *pkgsync.Options) (sources.Source, error) {
	if c.options.source != nil {
		return c.options.source, nil
	}
	return registry.Get(opts.SourceConfig())
}

// pipeline returns the enhancement pipeline for one run.
func (c *client) pipeline(opts *pkgsync.Options) *enhancer.Pipeline {
	if opts.NoEnhance {
		return enhancer.NewPipeline()
	}
	if c.options.enhancers != nil {
		return enhancer.NewPipeline(c.options.enhancers...)
	}
	return enhancer.Default(opts.Crossref, enhancer.WithMailto(opts.Mailto))
}

// fetch drains src through the normalizer. It returns the usable candidates
// in fetch order and the number of records skipped. A source error ends the
// fetch and discards what was collected.
func fetch(ctx context.Context, src sources.Source, opts []sources.Option) ([]normalize.Candidate, int, error) {

	// setup logger
	logger := logging.FromContext(ctx)
	logger.Info().Str("source", src.ID().String()).Msg("Fetching")

	skipped := 0
	onSkip := func(raw sources.RawRecord, err error) {
		skipped++
		logger.Warn().
			Err(err).
			Str("source", src.ID().String()).
			Str("link", raw.Link).
			Msg("Skipping record")
	}

	var candidates []normalize.Candidate
	for c, err := range normalize.All(src.Fetch(ctx, opts...), onSkip) {
		if err != nil {
			return nil, skipped, err
		}
		candidates = append(candidates, c)
	}

	logger.Debug().
		Str("source", src.ID().String()).
		Int("candidates", len(candidates)).
		Int("skipped", skipped).
		Msg("Fetch complete")
	return candidates, skipped, nil
}
