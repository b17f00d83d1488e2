// Package authority records who owns each publication field. Provider
// fields are refreshed from the source on every sync; curator fields are
// only ever written by hand and survive every merge.
package authority

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

// Owner is the party allowed to write a field.
type Owner string

const (
	// Provider fields come from the fetched source.
	Provider Owner = "provider"
	// Curator fields are edited by hand.
	Curator Owner = "curator"
)

// Field describes the ownership of one publication field.
type Field struct {
	Name  string `json:"name" yaml:"name"`   // canonical document field name
	Owner Owner  `json:"owner" yaml:"owner"` // who may write it
}

// fields lists the modeled fields in document order. The key is neither
// provider nor curator data: it is fixed when the record is created.
var fields = []Field{
	{Name: catalogs.FieldTitle, Owner: Provider},
	{Name: catalogs.FieldAuthors, Owner: Provider},
	{Name: catalogs.FieldVenue, Owner: Provider},
	{Name: catalogs.FieldYear, Owner: Provider},
	{Name: catalogs.FieldLink, Owner: Provider},
	{Name: catalogs.FieldDOI, Owner: Provider},
	{Name: catalogs.FieldSelected, Owner: Curator},
	{Name: catalogs.FieldImage, Owner: Curator},
}

// Fields returns every modeled field in document order.
func Fields() []Field {
	return slices.Clone(fields)
}

// ByOwner returns the names of the fields owned by owner.
func ByOwner(owner Owner) []string {
	var names []string
	for _, f := range fields {
		if f.Owner == owner {
			names = append(names, f.Name)
		}
	}
	return names
}

// ProviderFields returns the names of the provider-managed fields.
func ProviderFields() []string {
	return ByOwner(Provider)
}

// CuratorFields returns the names of the curator-owned fields.
func CuratorFields() []string {
	return ByOwner(Curator)
}

// OwnerOf returns the owner of a field. Fields that are not modeled (the
// extra fields kept on a record) belong to the curator.
func OwnerOf(name string) Owner {
	for _, f := range fields {
		if MatchesPattern(name, f.Name) {
			return f.Owner
		}
	}
	return Curator
}

// IsProvider reports whether the source may overwrite name.
func IsProvider(name string) bool {
	return OwnerOf(name) == Provider
}

// MatchesPattern checks if a field name matches a pattern (supports *
// wildcards and filepath.Match syntax).
func MatchesPattern(name, pattern string) bool {
	if name == pattern {
		return true
	}
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}

// Value returns the text form of a publication field. Extra fields are
// addressed by their document name.
func Value(p catalogs.Publication, name string) string {
	switch name {
	case catalogs.FieldKey:
		return p.Key
	case catalogs.FieldTitle:
		return p.Title
	case catalogs.FieldAuthors:
		return p.Authors
	case catalogs.FieldVenue:
		return p.Venue
	case catalogs.FieldYear:
		return p.YearString()
	case catalogs.FieldLink:
		return p.Link
	case catalogs.FieldDOI:
		return p.DOI
	case catalogs.FieldSelected:
		return fmt.Sprint(p.Selected)
	case catalogs.FieldImage:
		return p.Image
	default:
		v, ok := p.Extra[name]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
}
