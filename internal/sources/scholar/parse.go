package scholar

import (
	"bytes"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/sources"
)

// parsePage extracts the publication rows of one profile listing page.
// Relative links are resolved against base.
func parsePage(body []byte, base *url.URL) ([]sources.RawRecord, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapParse("html", "profile page", err)
	}

	var recs []sources.RawRecord
	for _, row := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "tr" && hasClass(n, "gsc_a_tr")
	}) {
		recs = append(recs, parseRow(row, base))
	}
	return recs, nil
}

func parseRow(row *html.Node, base *url.URL) sources.RawRecord {
	rec := sources.RawRecord{Source: sources.ScholarID}

	if a := findFirst(row, func(n *html.Node) bool {
		return n.Data == "a" && hasClass(n, "gsc_a_at")
	}); a != nil {
		rec.Title = text(a)
		if href := attr(a, "href"); href != "" {
			rec.Link = resolve(base, href)
			rec.ID = citationID(rec.Link)
		}
	}

	gray := findAll(row, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "gs_gray")
	})
	if len(gray) > 0 {
		rec.Authors = text(gray[0])
	}
	if len(gray) > 1 {
		// The venue line repeats the year in a span hidden on wide screens.
		rec.Venue = strings.TrimRight(textWithout(gray[1], "gs_oph"), ", ")
	}

	if cell := findFirst(row, func(n *html.Node) bool {
		return n.Data == "td" && hasClass(n, "gsc_a_y")
	}); cell != nil {
		if y := strings.TrimSpace(text(cell)); y != "" {
			rec.Year = sources.YearOf(y)
		}
	}
	return rec
}

func citationID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("citation_for_view")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func text(n *html.Node) string {
	return textWithout(n, "")
}

// textWithout returns the text content of n, leaving out elements carrying
// the class skip.
func textWithout(n *html.Node, skip string) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skip != "" && hasClass(n, skip) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
