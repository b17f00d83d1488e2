// Package serpapi reads an author's publication list through the hosted
// search API's author engine.
package serpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/pubmap/internal/transport"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/sources"
)

// DefaultBaseURL is the search endpoint.
const DefaultBaseURL = "https://serpapi.com/search.json"

// maxPageSize is the most articles the author engine returns per request.
const maxPageSize = 100

// Source fetches publications from the hosted search API.
type Source struct {
	authorID string
	apiKey   string
	baseURL  string
	client   *transport.Client
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the search endpoint.
func WithBaseURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithClient sets the transport client. The API key is applied on top of it
// by the source itself.
func WithClient(c *transport.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// New creates a source for the profile authorID.
func New(authorID, apiKey string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, errors.NewValidationError("author_id", authorID, "is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &errors.ConfigError{
			Component: string(sources.SerpAPIID),
			Message:   "api key not set (SERPAPI_API_KEY)",
			Err:       errors.ErrAPIKeyRequired,
		}
	}

	s := &Source{
		authorID: authorID,
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = transport.New(
			transport.WithName(string(sources.SerpAPIID)),
			transport.WithAuth(transport.QueryAuth{Param: "api_key", Key: apiKey}),
		)
	}
	return s, nil
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.SerpAPIID
}

// Fetch implements sources.Source. Pages are requested until the API stops
// offering a next page, a page comes back empty, or MaxPages is reached.
func (s *Source) Fetch(ctx context.Context, opts ...sources.Option) iter.Seq2[sources.RawRecord, error] {
	options := sources.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return sources.Fail(err)
	}
	pageSize := min(options.PageSize, maxPageSize)
	logger := logging.FromContext(ctx).With().Str("source", string(s.ID())).Logger()

	return sources.Once(func(yield func(sources.RawRecord, error) bool) {
		start := 0
		for page := 1; page <= options.MaxPages; page++ {
			if page > 1 {
				if err := sources.Pause(ctx, options.PageDelay); err != nil {
					yield(sources.RawRecord{}, err)
					return
				}
			}

			resp, err := s.page(ctx, start, pageSize)
			if err != nil {
				yield(sources.RawRecord{}, err)
				return
			}
			logger.Debug().Int("page", page).Int("articles", len(resp.Articles)).Msg("Fetched page")

			for _, a := range resp.Articles {
				if !yield(a.record(), nil) {
					return
				}
			}

			if len(resp.Articles) == 0 || resp.Pagination.Next == "" {
				return
			}
			start += len(resp.Articles)
			if page == options.MaxPages {
				logger.Info().Int("max_pages", options.MaxPages).Msg("Page cap reached, stopping pagination")
			}
		}
	})
}

func (s *Source) page(ctx context.Context, start, num int) (*response, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, errors.NewConfigError(string(sources.SerpAPIID), "invalid base url", err)
	}
	q := u.Query()
	q.Set("engine", "google_scholar_author")
	q.Set("author_id", s.authorID)
	q.Set("hl", "en")
	q.Set("sort", "pubdate")
	q.Set("num", strconv.Itoa(num))
	q.Set("start", strconv.Itoa(start))
	u.RawQuery = q.Encode()

	var resp response
	if err := s.client.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		apiErr := errors.NewAPIError(string(sources.SerpAPIID), 0, resp.Error)
		apiErr.Endpoint = s.baseURL
		return nil, apiErr
	}
	return &resp, nil
}

// response is the subset of the author engine payload we read.
type response struct {
	Error      string    `json:"error"`
	Articles   []article `json:"articles"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"serpapi_pagination"`
}

type article struct {
	Title       string               `json:"title"`
	Link        string               `json:"link"`
	CitationID  string               `json:"citation_id"`
	Authors     authorList           `json:"authors"`
	Publication string               `json:"publication"`
	Year        sources.FlexibleYear `json:"year"`
	Resources   []struct {
		Link string `json:"link"`
	} `json:"resources"`
}

func (a article) record() sources.RawRecord {
	return sources.RawRecord{
		ID:      a.CitationID,
		Title:   a.Title,
		Authors: string(a.Authors),
		Venue:   a.Publication,
		Year:    a.Year,
		Link:    a.bestLink(),
		Source:  sources.SerpAPIID,
	}
}

// bestLink prefers a link that does not point back to the search engine.
func (a article) bestLink() string {
	if a.Link != "" && !strings.Contains(a.Link, "scholar.google") {
		return a.Link
	}
	for _, r := range a.Resources {
		if r.Link != "" && !strings.Contains(r.Link, "scholar.google") {
			return r.Link
		}
	}
	return a.Link
}

// authorList accepts either a comma separated string or a list of
// {"name": ...} objects.
type authorList string

// UnmarshalJSON implements json.Unmarshaler.
func (l *authorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = authorList(s)
		return nil
	}
	var named []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	names := make([]string, 0, len(named))
	for _, n := range named {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	*l = authorList(strings.Join(names, ", "))
	return nil
}
