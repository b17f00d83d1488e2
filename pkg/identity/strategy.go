package identity

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/normalize"
)

// Strategy derives a key from a candidate. An empty key means the strategy
// does not apply and the next one is tried.
type Strategy interface {
	// Name identifies the strategy in logs and results.
	Name() string
	// Key returns the key for c, or "" when the strategy does not apply.
	Key(c normalize.Candidate) string
	// Prefixed reports whether the resolver's key prefix applies.
	Prefixed() bool
}

// NativeID uses the identifier assigned by the source.
type NativeID struct{}

// Name implements Strategy.
func (NativeID) Name() string { return "native-id" }

// Prefixed implements Strategy.
func (NativeID) Prefixed() bool { return true }

// Key implements Strategy.
func (NativeID) Key(c normalize.Candidate) string {
	return sanitize(c.NativeID)
}

// LinkPattern extracts a stable identifier from well-known query parameters
// of the record link.
type LinkPattern struct {
	// Params are tried in order. Defaults to DefaultLinkParams.
	Params []string
}

// DefaultLinkParams are the query parameters that carry a work identifier
// in profile listings.
var DefaultLinkParams = []string{"cluster", "citation_for_view", "cites"}

// Name implements Strategy.
func (LinkPattern) Name() string { return "link-pattern" }

// Prefixed implements Strategy.
func (LinkPattern) Prefixed() bool { return true }

// Key implements Strategy.
func (s LinkPattern) Key(c normalize.Candidate) string {
	if c.Link == "" {
		return ""
	}
	u, err := url.Parse(c.Link)
	if err != nil {
		return ""
	}
	params := s.Params
	if len(params) == 0 {
		params = DefaultLinkParams
	}
	query := u.Query()
	for _, name := range params {
		if key := sanitize(query.Get(name)); key != "" {
			return key
		}
	}
	return ""
}

// TitleSlug slugifies the leading runes of the title.
type TitleSlug struct {
	// Length is the number of title runes considered. Defaults to
	// constants.TitleKeyLength.
	Length int
}

// Name implements Strategy.
func (TitleSlug) Name() string { return "title-slug" }

// Prefixed implements Strategy.
func (TitleSlug) Prefixed() bool { return true }

// Key implements Strategy.
func (s TitleSlug) Key(c normalize.Candidate) string {
	length := s.Length
	if length <= 0 {
		length = constants.TitleKeyLength
	}
	return slug.Make(truncate(c.Title, length))
}

// LegacyTitle keys records by their normalized title, for catalogs that
// have always tracked identity by title.
type LegacyTitle struct{}

// Name implements Strategy.
func (LegacyTitle) Name() string { return "legacy-title" }

// Prefixed implements Strategy.
func (LegacyTitle) Prefixed() bool { return false }

// Key implements Strategy.
func (LegacyTitle) Key(c normalize.Candidate) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(c.Title), notAlphanumeric), " ")
}

func notAlphanumeric(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// sanitize replaces runs of characters other than letters, digits and
// underscore with a single '-' and trims separators from both ends.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
