package catalogs

import (
	"maps"
	"reflect"
	"strconv"
	"strings"
)

// Publication is one record of the catalog.
//
// Title, Authors, Venue, Year, Link and DOI are refreshed from the source on
// every sync. Selected, Image and anything kept in Extra belong to the
// curator and are only ever written by hand.
type Publication struct {
	Key string `json:"id" yaml:"id"`

	// Provider-managed
	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
	Venue   string `json:"venue" yaml:"venue"`
	Year    int    `json:"year,omitempty" yaml:"year,omitempty"` // zero means absent
	Link    string `json:"link" yaml:"link"`
	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Curator-owned
	Selected bool   `json:"selected" yaml:"selected"`
	Image    string `json:"image" yaml:"image"`

	// Extra holds document fields this package does not model. They are
	// written back unchanged.
	Extra map[string]any `json:"-" yaml:"-"`
}

// HasYear reports whether the publication carries a year.
func (p Publication) HasYear() bool {
	return p.Year != 0
}

// YearString returns the year as text, or "" when absent.
func (p Publication) YearString() string {
	if !p.HasYear() {
		return ""
	}
	return strconv.Itoa(p.Year)
}

// Clone returns a deep copy of the publication.
func (p Publication) Clone() Publication {
	if p.Extra != nil {
		p.Extra = maps.Clone(p.Extra)
	}
	return p
}

// Equal reports whether two publications hold the same data.
func (p Publication) Equal(other Publication) bool {
	if p.Key != other.Key ||
		p.Title != other.Title ||
		p.Authors != other.Authors ||
		p.Venue != other.Venue ||
		p.Year != other.Year ||
		p.Link != other.Link ||
		p.DOI != other.DOI ||
		p.Selected != other.Selected ||
		p.Image != other.Image {
		return false
	}
	if len(p.Extra) == 0 && len(other.Extra) == 0 {
		return true
	}
	return reflect.DeepEqual(p.Extra, other.Extra)
}

// String returns a short human readable label.
func (p Publication) String() string {
	var b strings.Builder
	b.WriteString(p.Key)
	b.WriteString(": ")
	b.WriteString(p.Title)
	if p.HasYear() {
		b.WriteString(" (")
		b.WriteString(p.YearString())
		b.WriteString(")")
	}
	return b.String()
}
