// Package sources defines the retrieval side of a sync: where raw
// publication records come from.
//
// A Source yields a lazy, finite sequence of RawRecord values. The sequence
// is single use. Pagination, cursors and transport details stay inside the
// source; callers only range over the result:
//
//	for rec, err := range src.Fetch(ctx, sources.WithMaxPages(5)) {
//	    if err != nil {
//	        return err // terminal: the source stops after yielding an error
//	    }
//	    handle(rec)
//	}
package sources

import (
	"context"
	"iter"
	"slices"
)

// Source produces raw publication records.
type Source interface {
	// ID returns the identifier of this source.
	ID() ID

	// Fetch returns the records of one retrieval run. The sequence may stop
	// early at a page cap and may yield a single terminal error.
	Fetch(ctx context.Context, opts ...Option) iter.Seq2[RawRecord, error]
}

// ID represents the identifier of a data source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Known sources.
const (
	// SerpAPIID is the hosted search API for author profiles.
	SerpAPIID ID = "serpapi"
	// ScholarID reads the public profile listing over HTTP.
	ScholarID ID = "scholar"
	// FileID reads raw records from a local JSON or YAML document.
	FileID ID = "file"
)

// IDs returns all available source IDs.
func IDs() []ID {
	return []ID{
		SerpAPIID,
		ScholarID,
		FileID,
	}
}

// IsValid returns true if the source ID is known.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}
