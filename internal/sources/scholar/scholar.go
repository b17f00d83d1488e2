// Package scholar reads the public profile listing page by page and parses
// the publication table out of the markup.
package scholar

import (
	"context"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/pubmap/internal/transport"
	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/sources"
)

// DefaultBaseURL is the profile host.
const DefaultBaseURL = "https://scholar.google.com"

// Source fetches publications from a public profile listing.
type Source struct {
	userID  string
	baseURL string
	client  *transport.Client
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the profile host.
func WithBaseURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithClient sets the transport client.
func WithClient(c *transport.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// New creates a source for the profile userID.
func New(userID string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("author_id", userID, "is required")
	}
	s := &Source{
		userID:  userID,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = transport.New(transport.WithName(string(sources.ScholarID)))
	}
	return s, nil
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.ScholarID
}

// Fetch implements sources.Source. A page shorter than the page size is
// the last one. MaxPages bounds the walk regardless.
func (s *Source) Fetch(ctx context.Context, opts ...sources.Option) iter.Seq2[sources.RawRecord, error] {
	options := sources.Defaults().Apply(
		sources.WithMaxPages(constants.ScholarMaxPages),
	).Apply(opts...)
	if err := options.Validate(); err != nil {
		return sources.Fail(err)
	}
	pageSize := min(options.PageSize, constants.ScholarPageSize)
	logger := logging.FromContext(ctx).With().Str("source", string(s.ID())).Logger()

	return sources.Once(func(yield func(sources.RawRecord, error) bool) {
		base, err := url.Parse(s.baseURL)
		if err != nil {
			yield(sources.RawRecord{}, errors.NewConfigError(string(sources.ScholarID), "invalid base url", err))
			return
		}

		for page := 0; page < options.MaxPages; page++ {
			if page > 0 {
				if err := sources.Pause(ctx, options.PageDelay); err != nil {
					yield(sources.RawRecord{}, err)
					return
				}
			}

			body, err := s.client.Get(ctx, s.pageURL(page*pageSize, pageSize))
			if err != nil {
				yield(sources.RawRecord{}, err)
				return
			}
			recs, err := parsePage(body, base)
			if err != nil {
				yield(sources.RawRecord{}, err)
				return
			}
			logger.Debug().Int("page", page+1).Int("rows", len(recs)).Msg("Fetched page")

			for _, rec := range recs {
				if !yield(rec, nil) {
					return
				}
			}
			if len(recs) < pageSize {
				return
			}
			if page == options.MaxPages-1 {
				logger.Info().Int("max_pages", options.MaxPages).Msg("Page cap reached, stopping pagination")
			}
		}
	})
}

func (s *Source) pageURL(start, size int) string {
	q := url.Values{}
	q.Set("user", s.userID)
	q.Set("hl", "en")
	q.Set("view_op", "list_works")
	q.Set("sortby", "pubdate")
	q.Set("cstart", strconv.Itoa(start))
	q.Set("pagesize", strconv.Itoa(size))
	return s.baseURL + "/citations?" + q.Encode()
}
