package enhancer

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/pubmap/internal/transport"
	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/normalize"
)

// DefaultCrossrefURL is the Crossref REST API root.
const DefaultCrossrefURL = "https://api.crossref.org"

// Crossref fills empty venue, year, link and doi from the Crossref works API.
// Values already present are never replaced.
type Crossref struct {
	client   *transport.Client
	baseURL  string
	mailto   string
	priority int
}

// CrossrefOption configures a Crossref enhancer.
type CrossrefOption func(*Crossref)

// WithCrossrefURL overrides the API root.
func WithCrossrefURL(u string) CrossrefOption {
	return func(e *Crossref) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithCrossrefClient sets the transport client.
func WithCrossrefClient(c *transport.Client) CrossrefOption {
	return func(e *Crossref) {
		e.client = c
	}
}

// WithMailto identifies the caller to Crossref, which routes such requests
// to its polite pool.
func WithMailto(email string) CrossrefOption {
	return func(e *Crossref) {
		e.mailto = strings.TrimSpace(email)
	}
}

// NewCrossref creates a Crossref enhancer.
func NewCrossref(priority int, opts ...CrossrefOption) *Crossref {
	e := &Crossref{
		baseURL:  DefaultCrossrefURL,
		priority: priority,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		ua := constants.UserAgent
		if e.mailto != "" {
			ua += " mailto:" + e.mailto
		}
		e.client = transport.New(
			transport.WithName("crossref"),
			transport.WithMinInterval(constants.CrossrefDelay),
			transport.WithUserAgent(ua),
		)
	}
	return e
}

// Name returns the enhancer name
func (e *Crossref) Name() string {
	return "crossref"
}

// Priority returns the priority
func (e *Crossref) Priority() int {
	return e.priority
}

// CanEnhance checks if any field Crossref can supply is empty.
func (e *Crossref) CanEnhance(pub catalogs.Publication) bool {
	return pub.Venue == "" || !pub.HasYear() || pub.Link == "" || pub.DOI == ""
}

// Enhance looks pub up by DOI, or by title when no DOI is known, and fills
// the empty fields.
func (e *Crossref) Enhance(ctx context.Context, pub catalogs.Publication) (catalogs.Publication, error) {
	w, err := e.lookup(ctx, pub)
	if err != nil || w == nil {
		return pub, err
	}

	if pub.DOI == "" {
		pub.DOI = normalize.Text(w.DOI)
	}
	if pub.Venue == "" && len(w.ContainerTitle) > 0 {
		pub.Venue = normalize.Text(w.ContainerTitle[0])
	}
	if !pub.HasYear() {
		pub.Year = w.year()
	}
	if pub.Link == "" {
		pub.Link = strings.TrimSpace(w.URL)
	}
	return pub, nil
}

// lookup resolves the DOI first. A DOI Crossref does not know, stale or
// mistyped, falls back to the title search.
func (e *Crossref) lookup(ctx context.Context, pub catalogs.Publication) (*work, error) {
	if pub.DOI != "" {
		w, err := e.byDOI(ctx, pub.DOI)
		if err != nil || w != nil {
			return w, err
		}
		logging.FromContext(ctx).Debug().Str("doi", pub.DOI).Msg("DOI unknown to Crossref, searching by title")
	}
	return e.byTitle(ctx, pub.Title)
}

func (e *Crossref) byDOI(ctx context.Context, doi string) (*work, error) {
	var resp struct {
		Message work `json:"message"`
	}
	err := e.client.GetJSON(ctx, e.url("/works/"+url.PathEscape(doi), nil), &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Message.DOI == "" && len(resp.Message.Title) == 0 {
		return nil, nil
	}
	return &resp.Message, nil
}

func (e *Crossref) byTitle(ctx context.Context, title string) (*work, error) {
	if title == "" {
		return nil, nil
	}
	var resp struct {
		Message struct {
			Items []work `json:"items"`
		} `json:"message"`
	}
	query := url.Values{}
	query.Set("query.bibliographic", title)
	query.Set("rows", "1")
	err := e.client.GetJSON(ctx, e.url("/works", query), &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Message.Items) == 0 {
		return nil, nil
	}
	w := resp.Message.Items[0]
	if !sameTitle(title, w.Title) {
		logging.FromContext(ctx).Debug().
			Str("title", title).
			Strs("found", w.Title).
			Msg("Crossref search result does not match title")
		return nil, nil
	}
	return &w, nil
}

func (e *Crossref) url(path string, query url.Values) string {
	if e.mailto != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("mailto", e.mailto)
	}
	u := e.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// work is the part of a Crossref work record used here.
type work struct {
	DOI             string    `json:"DOI"`
	URL             string    `json:"URL"`
	Title           []string  `json:"title"`
	ContainerTitle  []string  `json:"container-title"`
	PublishedPrint  dateParts `json:"published-print"`
	PublishedOnline dateParts `json:"published-online"`
	Issued          dateParts `json:"issued"`
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (d dateParts) year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	if year, ok := catalogs.ParseYear(d.DateParts[0][0]); ok {
		return year
	}
	return 0
}

// year prefers the print date, then online, then issued.
func (w work) year() int {
	for _, d := range []dateParts{w.PublishedPrint, w.PublishedOnline, w.Issued} {
		if year := d.year(); year != 0 {
			return year
		}
	}
	return 0
}

func sameTitle(title string, candidates []string) bool {
	if len(candidates) == 0 {
		return false
	}
	key := func(s string) string {
		return identity.LegacyTitle{}.Key(normalize.Candidate{Title: normalize.Text(s)})
	}
	return key(title) == key(candidates[0])
}

func isNotFound(err error) bool {
	var apiErr *errors.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
