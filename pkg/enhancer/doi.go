package enhancer

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

// doiPattern matches a DOI inside free text or a URL.
var doiPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`)

// FindDOI returns the first DOI in s, or "". URL escapes are decoded first
// and trailing sentence punctuation is dropped.
func FindDOI(s string) string {
	if s == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	doi := doiPattern.FindString(s)
	doi = strings.TrimRight(doi, ".,;:")
	if strings.HasSuffix(doi, ")") && strings.Count(doi, "(") < strings.Count(doi, ")") {
		doi = strings.TrimSuffix(doi, ")")
	}
	return doi
}

// DOI fills a missing doi from the link or venue text.
type DOI struct {
	priority int
}

// NewDOI creates a DOI extractor.
func NewDOI(priority int) *DOI {
	return &DOI{priority: priority}
}

// Name returns the enhancer name
func (e *DOI) Name() string {
	return "doi"
}

// Priority returns the priority
func (e *DOI) Priority() int {
	return e.priority
}

// CanEnhance checks if the publication lacks a DOI but has text to search.
func (e *DOI) CanEnhance(pub catalogs.Publication) bool {
	return pub.DOI == "" && (pub.Link != "" || pub.Venue != "")
}

// Enhance fills pub.DOI when the link or venue carries one.
func (e *DOI) Enhance(_ context.Context, pub catalogs.Publication) (catalogs.Publication, error) {
	for _, text := range []string{pub.Link, pub.Venue} {
		if doi := FindDOI(text); doi != "" {
			pub.DOI = doi
			break
		}
	}
	return pub, nil
}
