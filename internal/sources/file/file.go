// Package file reads raw publication records from a local JSON or YAML
// document, such as a saved API response or a hand-written import list.
package file

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Spellings accepted for each record field, most canonical first.
var (
	idFields      = []string{"id", "key", "citation_id"}
	venueFields   = []string{"venue", "journal", "publication"}
	linkFields    = []string{"link", "url"}
	listWrappers  = []string{"publications", "articles", "items"}
	authorsFields = []string{"authors", "author"}
)

// Source reads records from a file.
type Source struct {
	path string
}

// New creates a source reading path.
func New(path string) (*Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError("input", path, "is required for the file source")
	}
	return &Source{path: path}, nil
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.FileID
}

// Path returns the input file path.
func (s *Source) Path() string {
	return s.path
}

// Fetch implements sources.Source. The whole file is one page; pagination
// options are accepted and ignored.
func (s *Source) Fetch(ctx context.Context, _ ...sources.Option) iter.Seq2[sources.RawRecord, error] {
	return sources.Once(func(yield func(sources.RawRecord, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(sources.RawRecord{}, err)
			return
		}
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				yield(sources.RawRecord{}, errors.NewNotFoundError("input file", s.path))
				return
			}
			yield(sources.RawRecord{}, errors.WrapIO("read", s.path, err))
			return
		}
		recs, err := Parse(data)
		if err != nil {
			var pe *errors.ParseError
			if errors.As(err, &pe) {
				pe.File = s.path
			}
			yield(sources.RawRecord{}, err)
			return
		}
		for _, rec := range recs {
			if !yield(rec, nil) {
				return
			}
		}
	})
}

// Parse decodes a document holding a list of records, either at the top
// level or under "publications", "articles" or "items".
func Parse(data []byte) ([]sources.RawRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}

	items, err := list(doc)
	if err != nil {
		return nil, err
	}

	recs := make([]sources.RawRecord, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewParseError("yaml", "", fmt.Sprintf("record %d is not an object", i), nil)
		}
		recs = append(recs, record(fields))
	}
	return recs, nil
}

func list(doc any) ([]any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		for _, name := range listWrappers {
			if items, ok := v[name].([]any); ok {
				return items, nil
			}
		}
		return nil, errors.NewParseError("yaml", "", "object has no publications, articles or items list", nil)
	default:
		return nil, errors.NewParseError("yaml", "", fmt.Sprintf("unexpected document of type %T", doc), nil)
	}
}

func record(fields map[string]any) sources.RawRecord {
	return sources.RawRecord{
		ID:      first(fields, idFields),
		Title:   text(fields["title"]),
		Authors: authors(fields),
		Venue:   first(fields, venueFields),
		Year:    sources.YearOf(fields["year"]),
		Link:    first(fields, linkFields),
		DOI:     text(fields["doi"]),
		Source:  sources.FileID,
	}
}

func first(fields map[string]any, names []string) string {
	for _, name := range names {
		if v := text(fields[name]); v != "" {
			return v
		}
	}
	return ""
}

// authors accepts free text, a list of names, or a list of {name: ...}.
func authors(fields map[string]any) string {
	for _, name := range authorsFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return text(v)
		}
		names := make([]string, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				item = m["name"]
			}
			if n := strings.TrimSpace(text(item)); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
