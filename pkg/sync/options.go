// Package sync provides options and results for synchronizing a publication
// catalog with a source.
package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/pubmap/internal/sources/registry"
	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/sources"
)

// Options controls one run of Client.Sync.
type Options struct {
	// Orchestration control
	DryRun  bool          // Compute and report changes without writing
	Force   bool          // Write the catalog even when nothing changed
	Timeout time.Duration // Timeout for the entire sync run (zero means none)

	// Source selection
	Source  sources.ID // Which source to fetch from
	Author  string     // Profile id for serpapi and scholar
	APIKey  string     // SerpAPI key
	Input   string     // Input document for the file source
	BaseURL string     // Overrides the source endpoint

	// Output control
	CatalogPath string // Catalog document to read and write

	// Source behavior control
	MaxPages  int           // Pagination cap (zero means the source default)
	PageSize  int           // Records per page (zero means the source default)
	PageDelay time.Duration // Pause between pages (zero means the default)

	// Identity
	KeyPrefix string        // Prefix for generated keys
	Identity  identity.Mode // keyed or title

	// Enhancement
	NoEnhance bool   // Skip DOI extraction and link selection
	Crossref  bool   // Look up missing venue, year, link and doi on Crossref
	Mailto    string // Contact address sent to Crossref
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:      false,
		Force:       false,
		Timeout:     constants.SyncTimeout,
		Source:      sources.SerpAPIID,
		CatalogPath: constants.DefaultCatalogPath,
		Identity:    identity.ModeKeyed,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid. Whether the source exists
// is checked when it is built.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	if s.Source == "" {
		return &errors.ValidationError{
			Field:   "Source",
			Value:   s.Source,
			Message: fmt.Sprintf("source is required, one of %v", registry.List()),
		}
	}

	if strings.TrimSpace(s.CatalogPath) == "" {
		return &errors.ValidationError{
			Field:   "CatalogPath",
			Value:   s.CatalogPath,
			Message: "catalog path is required",
		}
	}

	for field, n := range map[string]int{"MaxPages": s.MaxPages, "PageSize": s.PageSize} {
		if n < 0 {
			return &errors.ValidationError{
				Field:   field,
				Value:   n,
				Message: "must be non-negative",
			}
		}
	}
	if s.PageDelay < 0 {
		return &errors.ValidationError{
			Field:   "PageDelay",
			Value:   s.PageDelay,
			Message: "delay must be non-negative",
		}
	}

	if _, err := identity.ParseMode(string(s.Identity)); err != nil {
		return err
	}

	// Check if parent directory exists
	dir := filepath.Dir(s.CatalogPath)
	if dir != "." && dir != "/" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return &errors.ValidationError{
				Field:   "CatalogPath",
				Value:   s.CatalogPath,
				Message: fmt.Sprintf("catalog directory '%s' does not exist", dir),
			}
		}
	}

	return nil
}

// SourceConfig returns the registry configuration for the selected source.
func (s *Options) SourceConfig() registry.Config {
	return registry.Config{
		Source:  s.Source,
		Author:  s.Author,
		APIKey:  s.APIKey,
		Input:   s.Input,
		BaseURL: s.BaseURL,
	}
}

// SourceOptions converts sync options to source options. Unset values are
// left out so each source applies its own defaults.
func (s *Options) SourceOptions() []sources.Option {
	var sourceOpts []sources.Option

	if s.MaxPages > 0 {
		sourceOpts = append(sourceOpts, sources.WithMaxPages(s.MaxPages))
	}
	if s.PageSize > 0 {
		sourceOpts = append(sourceOpts, sources.WithPageSize(s.PageSize))
	}
	if s.PageDelay > 0 {
		sourceOpts = append(sourceOpts, sources.WithPageDelay(s.PageDelay))
	}

	return sourceOpts
}

// ResolverOptions converts sync options to identity resolver options.
func (s *Options) ResolverOptions() []identity.Option {
	return []identity.Option{
		identity.WithMode(s.Identity),
		identity.WithPrefix(s.KeyPrefix),
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithForce configures writing even without changes.
func WithForce(force bool) Option {
	return func(opts *Options) {
		opts.Force = force
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithSource configures which source to fetch from.
func WithSource(id sources.ID) Option {
	return func(opts *Options) {
		opts.Source = id
	}
}

// WithAuthor configures the profile id for serpapi and scholar.
func WithAuthor(author string) Option {
	return func(opts *Options) {
		opts.Author = author
	}
}

// WithAPIKey configures the SerpAPI key.
func WithAPIKey(key string) Option {
	return func(opts *Options) {
		opts.APIKey = key
	}
}

// WithInput configures the input document of the file source.
func WithInput(path string) Option {
	return func(opts *Options) {
		opts.Input = path
	}
}

// WithBaseURL overrides the source endpoint.
func WithBaseURL(u string) Option {
	return func(opts *Options) {
		opts.BaseURL = u
	}
}

// WithCatalogPath configures the catalog document.
func WithCatalogPath(path string) Option {
	return func(opts *Options) {
		opts.CatalogPath = path
	}
}

// WithMaxPages configures the pagination cap.
func WithMaxPages(n int) Option {
	return func(opts *Options) {
		opts.MaxPages = n
	}
}

// WithPageSize configures the page size.
func WithPageSize(n int) Option {
	return func(opts *Options) {
		opts.PageSize = n
	}
}

// WithPageDelay configures the pause between pages.
func WithPageDelay(d time.Duration) Option {
	return func(opts *Options) {
		opts.PageDelay = d
	}
}

// WithKeyPrefix configures the prefix of generated keys.
func WithKeyPrefix(prefix string) Option {
	return func(opts *Options) {
		opts.KeyPrefix = prefix
	}
}

// WithIdentity configures the identity mode.
func WithIdentity(mode identity.Mode) Option {
	return func(opts *Options) {
		opts.Identity = mode
	}
}

// WithoutEnhancement disables all enhancers.
func WithoutEnhancement() Option {
	return func(opts *Options) {
		opts.NoEnhance = true
	}
}

// WithCrossref enables Crossref lookups, identifying as mailto when set.
func WithCrossref(enabled bool, mailto string) Option {
	return func(opts *Options) {
		opts.Crossref = enabled
		opts.Mailto = mailto
	}
}
