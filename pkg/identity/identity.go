// Package identity assigns the stable key under which a publication is
// stored. A key is computed from the record alone by an ordered chain of
// strategies; the first strategy that yields a non-empty key wins. The same
// input always produces the same key, which is what keeps repeated syncs
// from creating duplicates.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/normalize"
)

// Mode selects the strategy chain.
type Mode string

const (
	// ModeKeyed resolves by native ID, then link pattern, then title slug.
	ModeKeyed Mode = "keyed"
	// ModeTitle resolves by normalized title only.
	ModeTitle Mode = "title"
)

// String returns the string representation of a mode.
func (m Mode) String() string {
	return string(m)
}

// ParseMode parses a mode name. An empty name is ModeKeyed.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeKeyed:
		return ModeKeyed, nil
	case ModeTitle:
		return ModeTitle, nil
	default:
		return "", &errors.ValidationError{
			Field:   "identity",
			Value:   s,
			Message: "must be keyed or title",
		}
	}
}

// FallbackStrategy names keys produced by the title hash.
const FallbackStrategy = "title-hash"

// Keyed is a candidate together with its resolved key.
type Keyed struct {
	normalize.Candidate
	Key      string
	Strategy string
}

// Resolver computes keys with an ordered strategy chain.
type Resolver struct {
	strategies []Strategy
	prefix     string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPrefix prepends prefix to keys from prefixed strategies.
func WithPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.prefix = prefix
	}
}

// WithMode selects the default strategy chain for mode.
func WithMode(mode Mode) Option {
	return func(r *Resolver) {
		r.strategies = Strategies(mode)
	}
}

// WithStrategies replaces the strategy chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(r *Resolver) {
		r.strategies = strategies
	}
}

// Strategies returns the chain used by mode.
func Strategies(mode Mode) []Strategy {
	if mode == ModeTitle {
		return []Strategy{LegacyTitle{}}
	}
	return []Strategy{NativeID{}, LinkPattern{}, TitleSlug{}}
}

// NewResolver creates a resolver. Without options it uses the keyed chain
// and no prefix.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{strategies: Strategies(ModeKeyed)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the key for c and the name of the strategy that produced it.
func (r *Resolver) Resolve(c normalize.Candidate) (key, strategy string) {
	for _, s := range r.strategies {
		if k := s.Key(c); k != "" {
			if s.Prefixed() {
				k = r.prefix + k
			}
			return k, s.Name()
		}
	}
	return r.prefix + Fallback(c.Title), FallbackStrategy
}

// Keyed resolves c and pairs it with its key.
func (r *Resolver) Keyed(c normalize.Candidate) Keyed {
	key, strategy := r.Resolve(c)
	return Keyed{Candidate: c, Key: key, Strategy: strategy}
}

// All resolves every candidate in order.
func (r *Resolver) All(candidates []normalize.Candidate) []Keyed {
	out := make([]Keyed, len(candidates))
	for i, c := range candidates {
		out[i] = r.Keyed(c)
	}
	return out
}

// AssignKeys gives every stored publication without a key the key it would
// receive if it were fetched now. Stored keys are never changed. It returns
// the updated catalog and the number of keys assigned.
func (r *Resolver) AssignKeys(cat *catalogs.Catalog) (*catalogs.Catalog, int) {
	pubs := cat.List()
	assigned := 0
	for i, p := range pubs {
		if p.Key != "" {
			continue
		}
		pubs[i].Key, _ = r.Resolve(normalize.Candidate{
			Title: normalize.Text(p.Title),
			Link:  p.Link,
		})
		assigned++
	}
	if assigned == 0 {
		return cat, 0
	}
	return cat.WithPublications(pubs), assigned
}

// String implements fmt.Stringer.
func (r *Resolver) String() string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return fmt.Sprintf("Resolver(%s, prefix=%q)", strings.Join(names, ">"), r.prefix)
}

// Fallback returns the deterministic key used when no strategy applies: "t-"
// followed by the first 12 hex digits of the SHA-256 of the title.
func Fallback(title string) string {
	sum := sha256.Sum256([]byte(title))
	return "t-" + hex.EncodeToString(sum[:])[:12]
}
