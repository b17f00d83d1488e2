package output

import (
	"strings"
	"unicode/utf8"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

const titleWidth = 60

// PublicationsToData converts publications to table format. Wide tables
// carry the venue, link and curator columns as well.
func PublicationsToData(pubs []catalogs.Publication, wide bool) Data {
	headers := []string{"ID", "Year", "Title", "Authors"}
	align := []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Venue", "DOI", "Link", "Selected")
		align = append(align, AlignLeft, AlignLeft, AlignLeft, AlignCenter)
	}

	rows := make([][]string, 0, len(pubs))
	for _, p := range pubs {
		title := p.Title
		authors := p.Authors
		if !wide {
			title = truncate(title, titleWidth)
			authors = truncate(authors, titleWidth/2)
		}
		row := []string{p.Key, p.YearString(), title, authors}
		if wide {
			selected := ""
			if p.Selected {
				selected = "✓"
			}
			row = append(row, p.Venue, p.DOI, p.Link, selected)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
