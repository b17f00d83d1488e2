package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/pubmap/pkg/errors"
)

// Format is the serialization of a catalog document.
type Format string

const (
	// FormatYAML is the default catalog document format.
	FormatYAML Format = "yaml"
	// FormatJSON is used for catalogs stored with a .json extension.
	FormatJSON Format = "json"
)

// FormatForPath picks the document format from a file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Field names of the canonical document. They are a contract with the sites
// that render the catalog.
const (
	FieldKey      = "id"
	FieldTitle    = "title"
	FieldAuthors  = "authors"
	FieldVenue    = "venue"
	FieldYear     = "year"
	FieldLink     = "link"
	FieldDOI      = "doi"
	FieldSelected = "selected"
	FieldImage    = "image"
)

// Historical spellings accepted on load. The first spelling seen in a
// document is kept when writing it back.
var (
	keyAliases      = []string{FieldKey, "key"}
	venueAliases    = []string{FieldVenue, "journal"}
	linkAliases     = []string{FieldLink, "url"}
	selectedAliases = []string{FieldSelected, "selected_publication", "selected-publication", "featured"}
)

// Layout records how a catalog document is spelled so it can be written
// back the way it was read.
type Layout struct {
	Format         Format
	Wrapped        bool   // {publications: [...]} rather than a bare list
	KeyField       string // id or key
	VenueField     string // venue or journal
	LinkField      string // link or url
	SelectedField  string // selected, selected_publication, ...
	SelectedAsWord bool   // "yes"/"no" instead of true/false
}

// DefaultLayout returns the layout used for new catalogs.
func DefaultLayout() Layout {
	return Layout{
		Format:        FormatYAML,
		KeyField:      FieldKey,
		VenueField:    FieldVenue,
		LinkField:     FieldLink,
		SelectedField: FieldSelected,
	}
}

// Decode parses a catalog document. Both a top-level list and an object with
// a "publications" list are accepted. An empty document is an empty catalog.
func Decode(data []byte, format Format) (*Catalog, error) {
	layout := DefaultLayout()
	layout.Format = format

	if len(bytes.TrimSpace(data)) == 0 {
		return Empty().WithLayout(layout), nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse(string(format), "", err)
	}

	var items []any
	switch v := doc.(type) {
	case nil:
	case []any:
		items = v
	case map[string]any:
		list, ok := v["publications"]
		if !ok {
			return nil, errors.NewParseError(string(format), "", "object document has no publications list", nil)
		}
		layout.Wrapped = true
		if list != nil {
			items, ok = list.([]any)
			if !ok {
				return nil, errors.NewParseError(string(format), "", "publications is not a list", nil)
			}
		}
	default:
		return nil, errors.NewParseError(string(format), "", fmt.Sprintf("unexpected document of type %T", doc), nil)
	}

	detected := make(map[string]bool)
	pubs := make([]Publication, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewParseError(string(format), "", fmt.Sprintf("entry %d is not an object", i), nil)
		}
		pubs = append(pubs, fromFields(fields, &layout, detected))
	}

	return New(pubs...).WithLayout(layout), nil
}

// Encode renders the catalog in its layout. Publications are written in
// catalog order; call Sorted first for canonical order.
func (c *Catalog) Encode() ([]byte, error) {
	return c.EncodeAs(c.Layout().Format)
}

// EncodeAs renders the catalog in the given format.
func (c *Catalog) EncodeAs(format Format) ([]byte, error) {
	layout := c.Layout()
	records := make([]yaml.MapSlice, 0, c.Len())
	for _, p := range c.pubs {
		records = append(records, toFields(p, layout))
	}

	if format == FormatJSON {
		return encodeJSON(records, layout.Wrapped)
	}

	var doc any = records
	if layout.Wrapped {
		doc = yaml.MapSlice{{Key: "publications", Value: records}}
	}
	data, err := yaml.MarshalWithOptions(doc,
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseLiteralStyleIfMultiline(true),
	)
	if err != nil {
		return nil, errors.WrapParse(string(FormatYAML), "", err)
	}
	return data, nil
}

// fromFields converts one document object into a Publication, recording
// which spellings the document uses.
func fromFields(fields map[string]any, layout *Layout, detected map[string]bool) Publication {
	var p Publication
	used := make(map[string]bool, len(fields))

	pick := func(group string, aliases []string, target *string) (any, bool) {
		for _, name := range aliases {
			if v, ok := fields[name]; ok {
				used[name] = true
				if !detected[group] {
					detected[group] = true
					*target = name
				}
				return v, true
			}
		}
		return nil, false
	}

	if v, ok := pick("key", keyAliases, &layout.KeyField); ok {
		p.Key = toText(v)
	}
	if v, ok := pick("venue", venueAliases, &layout.VenueField); ok {
		p.Venue = toText(v)
	}
	if v, ok := pick("link", linkAliases, &layout.LinkField); ok {
		p.Link = toText(v)
	}
	if v, ok := pick("selected", selectedAliases, &layout.SelectedField); ok {
		selected, word := toFlag(v)
		p.Selected = selected
		if !detected["selected-style"] {
			detected["selected-style"] = true
			layout.SelectedAsWord = word
		}
	}

	if v, ok := fields[FieldTitle]; ok {
		used[FieldTitle] = true
		p.Title = toText(v)
	}
	if v, ok := fields[FieldAuthors]; ok {
		used[FieldAuthors] = true
		p.Authors = toAuthors(v)
	}
	if v, ok := fields[FieldDOI]; ok {
		used[FieldDOI] = true
		p.DOI = toText(v)
	}
	if v, ok := fields[FieldImage]; ok {
		used[FieldImage] = true
		p.Image = toText(v)
	}
	if v, ok := fields[FieldYear]; ok {
		if year, valid := ParseYear(v); valid {
			used[FieldYear] = true
			p.Year = year
		}
		// An unparsable year stays in Extra so it is written back verbatim.
	}

	for name, v := range fields {
		if used[name] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[name] = v
	}
	return p
}

// toFields renders a Publication as an ordered document object.
func toFields(p Publication, layout Layout) yaml.MapSlice {
	out := yaml.MapSlice{
		{Key: layout.KeyField, Value: scalar(p.Key)},
		{Key: FieldTitle, Value: scalar(p.Title)},
		{Key: FieldAuthors, Value: scalar(p.Authors)},
		{Key: layout.VenueField, Value: scalar(p.Venue)},
	}
	if p.HasYear() {
		out = append(out, yaml.MapItem{Key: FieldYear, Value: p.Year})
	}
	out = append(out, yaml.MapItem{Key: layout.LinkField, Value: scalar(p.Link)})
	if p.DOI != "" {
		out = append(out, yaml.MapItem{Key: FieldDOI, Value: scalar(p.DOI)})
	}

	var selected any = p.Selected
	if layout.SelectedAsWord {
		selected = "no"
		if p.Selected {
			selected = "yes"
		}
	}
	out = append(out,
		yaml.MapItem{Key: layout.SelectedField, Value: selected},
		yaml.MapItem{Key: FieldImage, Value: scalar(p.Image)},
	)

	written := make(map[string]bool, len(out))
	for _, item := range out {
		written[item.Key.(string)] = true
	}
	extras := make([]string, 0, len(p.Extra))
	for name := range p.Extra {
		if !written[name] {
			extras = append(extras, name)
		}
	}
	slices.Sort(extras)
	for _, name := range extras {
		value := p.Extra[name]
		if text, ok := value.(string); ok {
			value = scalar(text)
		}
		out = append(out, yaml.MapItem{Key: name, Value: value})
	}
	return out
}

// quotedText is written double-quoted in YAML.
type quotedText string

// MarshalYAML implements yaml.BytesMarshaler.
func (q quotedText) MarshalYAML() ([]byte, error) {
	return []byte(strconv.Quote(string(q))), nil
}

// scalar returns s, or s as quotedText when a plain YAML scalar would read
// back as a float. The encoder quotes null and boolean words itself but
// leaves .inf and .nan bare.
func scalar(s string) any {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case ".inf", ".nan":
		return quotedText(s)
	}
	return s
}

// encodeJSON writes records as indented JSON keeping field order.
func encodeJSON(records []yaml.MapSlice, wrapped bool) ([]byte, error) {
	var buf bytes.Buffer
	if wrapped {
		buf.WriteString(`{"publications":`)
	}
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONObject(&buf, rec); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	if wrapped {
		buf.WriteByte('}')
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, errors.WrapParse(string(FormatJSON), "", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSONObject(buf *bytes.Buffer, rec yaml.MapSlice) error {
	buf.WriteByte('{')
	for i, item := range rec {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return errors.WrapParse(string(FormatJSON), "", err)
		}
		value, err := json.Marshal(item.Value)
		if err != nil {
			return errors.WrapParse(string(FormatJSON), "", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// toAuthors accepts free text or a list of names.
func toAuthors(v any) string {
	list, ok := v.([]any)
	if !ok {
		return toText(v)
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		if name := strings.TrimSpace(toText(item)); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// toFlag parses a selected flag. word reports whether it was spelled yes/no.
func toFlag(v any) (value bool, word bool) {
	switch t := v.(type) {
	case bool:
		return t, false
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "on":
			return true, true
		case "no", "n", "off", "":
			return false, true
		case "true", "1":
			return true, false
		default:
			return false, false
		}
	case uint64:
		return t != 0, false
	case int64:
		return t != 0, false
	case int:
		return t != 0, false
	default:
		return false, false
	}
}
