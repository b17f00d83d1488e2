// Package provenance records which source wrote each publication field
// during a sync, so a surprising value can be traced back to its origin.
package provenance

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Provenance describes one write of a field value.
type Provenance struct {
	Source   string `json:"source" yaml:"source"`                         // source or enhancer that provided the value
	Field    string `json:"field" yaml:"field"`                           // document field name
	Value    string `json:"value" yaml:"value"`                           // the value written
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"` // value before the write
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`     // why the value was selected
}

// Map tracks provenance for many records. The key is "recordKey:field".
type Map map[string][]Provenance

// Tracker collects provenance during a merge.
type Tracker interface {
	// Track records provenance for a field of the record stored under key.
	Track(key, field string, p Provenance)

	// FindByField retrieves the writes of one field, oldest first.
	FindByField(key, field string) []Provenance

	// FindByResource retrieves every tracked field of one record.
	FindByResource(key string) map[string][]Provenance

	// Map returns a copy of the complete provenance map.
	Map() Map

	// Clear removes all provenance data.
	Clear()
}

// tracker is the default implementation. It is safe for concurrent use.
type tracker struct {
	mu         sync.RWMutex
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker accepts
// and discards everything.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (t *tracker) Track(key, field string, p Provenance) {
	if !t.enabled {
		return
	}
	p.Field = field
	id := makeKey(key, field)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.provenance[id] = append(t.provenance[id], p)
}

// FindByField retrieves provenance for a specific field.
func (t *tracker) FindByField(key, field string) []Provenance {
	if !t.enabled {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.provenance[makeKey(key, field)])
}

// FindByResource retrieves all provenance for a record.
func (t *tracker) FindByResource(key string) map[string][]Provenance {
	if !t.enabled {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make(map[string][]Provenance)
	for id, infos := range t.provenance {
		recordKey, field := splitKey(id)
		if recordKey == key {
			result[field] = slices.Clone(infos)
		}
	}
	return result
}

// Map returns the complete provenance map.
func (t *tracker) Map() Map {
	if !t.enabled {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make(Map, len(t.provenance))
	for k, v := range t.provenance {
		result[k] = slices.Clone(v)
	}
	return result
}

// Clear removes all provenance data.
func (t *tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.provenance = make(Map)
}

func makeKey(key, field string) string {
	return key + ":" + field
}

// splitKey reverses makeKey. Field names never contain ':' but stored
// record keys may.
func splitKey(id string) (key, field string) {
	i := strings.LastIndexByte(id, ':')
	if i < 0 {
		return id, ""
	}
	return id[:i], id[i+1:]
}

// Merge returns a new map holding m followed by the entries of others.
// Nil when everything is empty.
func (m Map) Merge(others ...Map) Map {
	var out Map
	for _, src := range append([]Map{m}, others...) {
		for id, infos := range src {
			if out == nil {
				out = make(Map)
			}
			out[id] = append(out[id], infos...)
		}
	}
	return out
}

// Current returns the last write of each tracked field.
func (m Map) Current() map[string]Provenance {
	out := make(map[string]Provenance, len(m))
	for id, infos := range m {
		if len(infos) > 0 {
			out[id] = infos[len(infos)-1]
		}
	}
	return out
}

// Report renders a human-readable provenance report, one block per record
// in key order.
func (m Map) Report() string {
	byRecord := make(map[string][]string)
	for id := range m {
		key, _ := splitKey(id)
		byRecord[key] = append(byRecord[key], id)
	}

	var sb strings.Builder
	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	for _, key := range slices.Sorted(maps.Keys(byRecord)) {
		sb.WriteString(key)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		ids := byRecord[key]
		slices.Sort(ids)
		for _, id := range ids {
			infos := m[id]
			if len(infos) == 0 {
				continue
			}
			current := infos[len(infos)-1]
			_, field := splitKey(id)
			fmt.Fprintf(&sb, "  %s: %q (from %s)\n", field, current.Value, current.Source)
			if len(infos) > 1 {
				for _, info := range infos[:len(infos)-1] {
					fmt.Fprintf(&sb, "    was %q from %s\n", info.Value, info.Source)
				}
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
