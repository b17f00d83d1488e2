// Package normalize turns raw source records into candidates of canonical
// shape: cleaned text, a parsed year and empty strings for missing values.
// Records that cannot be used are skipped with a diagnostic rather than
// failing the run.
package normalize

import (
	"iter"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Candidate is a normalized record, ready for identity resolution.
type Candidate struct {
	NativeID string
	Title    string
	Authors  string
	Venue    string
	Year     int // zero means absent
	Link     string
	DOI      string
	Source   sources.ID
}

// HasYear reports whether the candidate carries a year.
func (c Candidate) HasYear() bool {
	return c.Year != 0
}

// cleaner composes to NFC and drops invisible format characters such as
// zero-width spaces and soft hyphens.
var cleaner = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// Text trims s, composes it to NFC and collapses every run of whitespace
// (including non-breaking spaces) into a single space.
func Text(s string) string {
	if s == "" {
		return ""
	}
	cleaned, _, err := transform.String(cleaner, s)
	if err != nil {
		cleaned = s
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

// Record normalizes one raw record. A record without a usable title is
// rejected with a *errors.SkipError.
func Record(raw sources.RawRecord) (Candidate, error) {
	c := Candidate{
		NativeID: Text(raw.ID),
		Title:    Text(raw.Title),
		Authors:  Text(raw.Authors),
		Venue:    Text(raw.Venue),
		Link:     strings.TrimSpace(raw.Link),
		DOI:      Text(raw.DOI),
		Source:   raw.Source,
	}
	if year, ok := raw.Year.Int(); ok {
		c.Year = year
	} else if !raw.Year.IsZero() {
		logging.Debug().
			Str("title", c.Title).
			Str("year", raw.Year.Raw).
			Msg("Unparsable year treated as absent")
	}

	if c.Title == "" {
		return Candidate{}, &errors.SkipError{Reason: "missing title", Value: raw.Link}
	}
	return c, nil
}

// SkipFunc receives every record dropped by All.
type SkipFunc func(raw sources.RawRecord, err error)

// All adapts a raw record sequence into a candidate sequence. Skipped
// records are reported to onSkip (which may be nil) and left out. A source
// error is passed through and ends the sequence.
func All(seq iter.Seq2[sources.RawRecord, error], onSkip SkipFunc) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		for raw, err := range seq {
			if err != nil {
				yield(Candidate{}, err)
				return
			}
			c, skipErr := Record(raw)
			if skipErr != nil {
				if onSkip != nil {
					onSkip(raw, skipErr)
				}
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}
