// Package constants provides shared constants used throughout the pubmap codebase.
// This includes timeouts, pagination caps, retry budgets and file permissions
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single HTTP request
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout bounds a whole sync run, including every page and retry
	SyncTimeout = 15 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 2 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 20 * time.Second

	// DefaultPageDelay is the polite pause between two pagination steps
	DefaultPageDelay = 2 * time.Second

	// CrossrefDelay is the polite pause between two Crossref lookups
	CrossrefDelay = 400 * time.Millisecond
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of attempts for a transiently failing request
	MaxRetries = 5

	// DefaultPageSize is the number of records requested per page
	DefaultPageSize = 100

	// ScholarPageSize is the largest page the profile listing serves
	ScholarPageSize = 100

	// DefaultMaxPages caps pagination for API sources
	DefaultMaxPages = 10

	// ScholarMaxPages caps pagination for the profile listing
	ScholarMaxPages = 50

	// TitleKeyLength is the number of title runes used to derive a slug key
	TitleKeyLength = 60

	// MaxResponseBytes bounds a single response body
	MaxResponseBytes = 16 << 20
)

// Defaults for files and identity
const (
	// DefaultCatalogPath is where the catalog lives when nothing else is configured
	DefaultCatalogPath = "publications.yaml"

	// LockSuffix is appended to the catalog path for the run lock
	LockSuffix = ".lock"

	// UserAgent is sent with every outbound request
	UserAgent = "pubmap/1.0 (+https://github.com/agentstation/pubmap)"
)
