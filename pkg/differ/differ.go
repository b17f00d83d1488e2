package differ

import (
	"maps"
	"slices"

	"github.com/agentstation/pubmap/pkg/authority"
	"github.com/agentstation/pubmap/pkg/catalogs"
)

// Differ compares catalogs.
type Differ interface {
	// Catalogs compares two complete catalogs.
	Catalogs(existing, updated *catalogs.Catalog) *Changeset

	// Publication compares two versions of one record and returns nil when
	// they are equal.
	Publication(existing, updated catalogs.Publication) *Update
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
	extras       bool
}

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithExtras enables or disables comparison of unmodeled document fields.
func WithExtras(enabled bool) Option {
	return func(d *differ) {
		d.extras = enabled
	}
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
		extras:       true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compare is shorthand for New().Catalogs(existing, updated).
func Compare(existing, updated *catalogs.Catalog) *Changeset {
	return New().Catalogs(existing, updated)
}

// Catalogs compares two catalogs by key. Added and Updated follow the order
// of updated; Removed follows the order of existing.
func (d *differ) Catalogs(existing, updated *catalogs.Catalog) *Changeset {
	changeset := &Changeset{
		Added:   []catalogs.Publication{},
		Updated: []Update{},
		Removed: []catalogs.Publication{},
	}

	seen := make(map[string]bool, updated.Len())
	for _, pub := range updated.List() {
		if seen[pub.Key] {
			continue
		}
		seen[pub.Key] = true

		old, ok := existing.Get(pub.Key)
		if !ok {
			changeset.Added = append(changeset.Added, pub)
			continue
		}
		if u := d.Publication(old, pub); u != nil {
			changeset.Updated = append(changeset.Updated, *u)
		}
	}

	for _, pub := range existing.List() {
		if !updated.Exists(pub.Key) {
			changeset.Removed = append(changeset.Removed, pub)
		}
	}

	reordered := len(changeset.Added) == 0 && len(changeset.Removed) == 0 &&
		!slices.Equal(existing.Keys(), updated.Keys())
	changeset.Summary = calculateSummary(changeset, reordered)
	return changeset
}

// Publication compares two versions of one record field by field.
func (d *differ) Publication(existing, updated catalogs.Publication) *Update {
	var changes []FieldChange
	for _, f := range authority.Fields() {
		changes = d.appendChange(changes, f.Name, existing, updated)
	}

	if d.extras {
		names := maps.Clone(existing.Extra)
		if names == nil {
			names = make(map[string]any, len(updated.Extra))
		}
		maps.Copy(names, updated.Extra)
		for _, name := range slices.Sorted(maps.Keys(names)) {
			changes = d.appendChange(changes, name, existing, updated)
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return &Update{
		Key:      updated.Key,
		Existing: existing,
		New:      updated,
		Changes:  changes,
	}
}

func (d *differ) appendChange(changes []FieldChange, name string, existing, updated catalogs.Publication) []FieldChange {
	if d.ignoreFields[name] {
		return changes
	}
	oldValue := authority.Value(existing, name)
	newValue := authority.Value(updated, name)
	if oldValue == newValue {
		return changes
	}

	changeType := ChangeTypeUpdate
	switch {
	case oldValue == "":
		changeType = ChangeTypeAdd
	case newValue == "":
		changeType = ChangeTypeRemove
	}
	return append(changes, FieldChange{
		Path:     name,
		OldValue: oldValue,
		NewValue: newValue,
		Type:     changeType,
	})
}
