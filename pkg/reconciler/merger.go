package reconciler

import (
	"strconv"

	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/normalize"
)

// setter writes one provider field of c into p when c carries a value for
// it. It reports the previous and new text of the field and whether a write
// happened. An empty candidate value never overwrites.
type setter func(p *catalogs.Publication, c normalize.Candidate) (previous, value string, ok bool)

// setters holds a rule for every provider field named by the authority table.
var setters = map[string]setter{
	catalogs.FieldTitle: textField(
		func(p *catalogs.Publication) *string { return &p.Title },
		func(c normalize.Candidate) string { return c.Title }),
	catalogs.FieldAuthors: textField(
		func(p *catalogs.Publication) *string { return &p.Authors },
		func(c normalize.Candidate) string { return c.Authors }),
	catalogs.FieldVenue: textField(
		func(p *catalogs.Publication) *string { return &p.Venue },
		func(c normalize.Candidate) string { return c.Venue }),
	catalogs.FieldLink: textField(
		func(p *catalogs.Publication) *string { return &p.Link },
		func(c normalize.Candidate) string { return c.Link }),
	catalogs.FieldDOI: textField(
		func(p *catalogs.Publication) *string { return &p.DOI },
		func(c normalize.Candidate) string { return c.DOI }),
	catalogs.FieldYear: func(p *catalogs.Publication, c normalize.Candidate) (string, string, bool) {
		if !c.HasYear() {
			return "", "", false
		}
		previous := p.YearString()
		p.Year = c.Year
		return previous, strconv.Itoa(c.Year), true
	},
}

func textField(field func(*catalogs.Publication) *string, from func(normalize.Candidate) string) setter {
	return func(p *catalogs.Publication, c normalize.Candidate) (string, string, bool) {
		value := from(c)
		if value == "" {
			return "", "", false
		}
		dst := field(p)
		previous := *dst
		*dst = value
		return previous, value, true
	}
}
