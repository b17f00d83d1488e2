// Package catalogs provides the publication catalog: the ordered record set
// that is read once at the start of a sync run and written once at the end.
//
// A Catalog is a value. Operations that change it return a new Catalog and
// leave the receiver untouched, so a merge can never corrupt the baseline it
// is compared against.
//
// Example usage:
//
//	cat, status := catalogs.LoadOrEmpty("publications.yaml")
//	if status != catalogs.StatusLoaded {
//	    log.Printf("starting from an empty catalog (%s)", status)
//	}
//	for _, pub := range cat.List() {
//	    fmt.Println(pub)
//	}
package catalogs

import (
	"fmt"
	"slices"
)

// Catalog is an ordered set of publications indexed by key.
type Catalog struct {
	pubs   []Publication
	index  map[string]int
	layout Layout
}

// New creates a catalog from publications in the given order. When two
// publications share a key, lookups resolve to the first one; both are kept.
func New(pubs ...Publication) *Catalog {
	c := &Catalog{
		pubs:   make([]Publication, 0, len(pubs)),
		index:  make(map[string]int, len(pubs)),
		layout: DefaultLayout(),
	}
	for _, p := range pubs {
		c.append(p.Clone())
	}
	return c
}

// Empty returns a catalog with no publications.
func Empty() *Catalog {
	return New()
}

func (c *Catalog) append(p Publication) {
	if _, exists := c.index[p.Key]; !exists && p.Key != "" {
		c.index[p.Key] = len(c.pubs)
	}
	c.pubs = append(c.pubs, p)
}

// Len returns the number of publications.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pubs)
}

// Get returns the publication stored under key.
func (c *Catalog) Get(key string) (Publication, bool) {
	if c == nil {
		return Publication{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return Publication{}, false
	}
	return c.pubs[i].Clone(), true
}

// Exists checks if a key is present without returning the publication.
func (c *Catalog) Exists(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[key]
	return ok
}

// List returns a copy of all publications in catalog order.
func (c *Catalog) List() []Publication {
	if c == nil {
		return nil
	}
	out := make([]Publication, len(c.pubs))
	for i, p := range c.pubs {
		out[i] = p.Clone()
	}
	return out
}

// Keys returns the keys in catalog order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.pubs))
	for i, p := range c.pubs {
		keys[i] = p.Key
	}
	return keys
}

// Layout returns the document layout the catalog was read with.
func (c *Catalog) Layout() Layout {
	if c == nil {
		return DefaultLayout()
	}
	return c.layout
}

// WithLayout returns a copy of the catalog that will be written with layout.
func (c *Catalog) WithLayout(layout Layout) *Catalog {
	out := c.Clone()
	out.layout = layout
	return out
}

// WithPublications returns a catalog holding pubs that keeps the receiver's
// document layout.
func (c *Catalog) WithPublications(pubs []Publication) *Catalog {
	out := New(pubs...)
	out.layout = c.Layout()
	return out
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return Empty()
	}
	return c.WithPublications(c.pubs)
}

// Sorted returns a copy of the catalog in canonical order (see Sort).
func (c *Catalog) Sorted() *Catalog {
	pubs := c.List()
	Sort(pubs)
	return c.WithPublications(pubs)
}

// Equal reports whether both catalogs hold equal publications in the same order.
func (c *Catalog) Equal(other *Catalog) bool {
	if c.Len() != other.Len() {
		return false
	}
	if c.Len() == 0 {
		return true
	}
	return slices.EqualFunc(c.pubs, other.pubs, Publication.Equal)
}

// Duplicates returns keys that appear more than once, in first-seen order.
func (c *Catalog) Duplicates() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]int, len(c.pubs))
	var dups []string
	for _, p := range c.pubs {
		if p.Key == "" {
			continue
		}
		seen[p.Key]++
		if seen[p.Key] == 2 {
			dups = append(dups, p.Key)
		}
	}
	return dups
}

// String implements fmt.Stringer.
func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog(%d publications)", c.Len())
}
