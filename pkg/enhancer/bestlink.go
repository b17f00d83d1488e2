package enhancer

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

// DOIResolver is the prefix that turns a DOI into a link.
const DOIResolver = "https://doi.org/"

// BestLink replaces a missing or search engine link with the DOI link.
type BestLink struct {
	priority int
}

// NewBestLink creates a link enhancer.
func NewBestLink(priority int) *BestLink {
	return &BestLink{priority: priority}
}

// Name returns the enhancer name
func (e *BestLink) Name() string {
	return "best-link"
}

// Priority returns the priority
func (e *BestLink) Priority() int {
	return e.priority
}

// CanEnhance checks if a DOI is known and the link is empty or points to
// Google Scholar.
func (e *BestLink) CanEnhance(pub catalogs.Publication) bool {
	return pub.DOI != "" && (pub.Link == "" || IsScholarLink(pub.Link))
}

// Enhance points pub.Link at the DOI resolver.
func (e *BestLink) Enhance(_ context.Context, pub catalogs.Publication) (catalogs.Publication, error) {
	pub.Link = DOIResolver + pub.DOI
	return pub, nil
}

// IsScholarLink reports whether link points to a Google Scholar host.
func IsScholarLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(u.Hostname()), "scholar.google.")
}
