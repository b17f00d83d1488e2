package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	pkgerrors "github.com/agentstation/pubmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "max_pages",
			Message: "must be positive",
		}
		assert.Equal(t, "validation failed for field max_pages: must be positive", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		err := pkgerrors.NewAPIError("serpapi", 429, "too many requests")
		assert.Contains(t, err.Error(), "serpapi")
		assert.Contains(t, err.Error(), "429")
		assert.True(t, pkgerrors.IsRateLimited(err))
		assert.True(t, pkgerrors.IsTransient(err))
	})

	t.Run("server error", func(t *testing.T) {
		err := pkgerrors.NewAPIError("scholar", 503, "unavailable")
		assert.True(t, pkgerrors.IsProviderUnavailable(err))
		assert.True(t, pkgerrors.IsTransient(err))
	})

	t.Run("client error is permanent", func(t *testing.T) {
		err := pkgerrors.NewAPIError("serpapi", 401, "bad key")
		assert.False(t, pkgerrors.IsRateLimited(err))
		assert.False(t, pkgerrors.IsTransient(err))
	})
}

func TestEmptyFetchError(t *testing.T) {
	err := pkgerrors.NewEmptyFetchError("scholar", 12)
	assert.Contains(t, err.Error(), "scholar")
	assert.Contains(t, err.Error(), "12")
	assert.True(t, pkgerrors.IsEmptyFetch(err))

	wrapped := fmt.Errorf("sync: %w", err)
	assert.True(t, pkgerrors.IsEmptyFetch(wrapped))

	var target *pkgerrors.EmptyFetchError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 12, target.Existing)
}

func TestRetryError(t *testing.T) {
	cause := pkgerrors.NewAPIError("serpapi", 502, "bad gateway")
	err := pkgerrors.NewRetryError("GET /search.json", 5, cause)

	assert.Equal(t, "GET /search.json failed after 5 attempts: API error from serpapi (status 502): bad gateway", err.Error())
	assert.True(t, pkgerrors.IsRetriesExhausted(err))
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
}

func TestSkipError(t *testing.T) {
	err := &pkgerrors.SkipError{Reason: "missing title"}
	assert.Equal(t, "skipped record: missing title", err.Error())
	assert.ErrorIs(t, err, pkgerrors.ErrSkipped)

	err = &pkgerrors.SkipError{Reason: "bad link", Title: "Paper"}
	assert.Equal(t, `skipped record "Paper": bad link`, err.Error())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"timeout error", pkgerrors.NewTimeoutError("fetch", "30s", "slow"), true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"plain error", errors.New("boom"), false},
		{"validation", pkgerrors.NewValidationError("x", 1, "bad"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.IsTransient(tt.err))
		})
	}
}

func TestIOError(t *testing.T) {
	err := pkgerrors.WrapIO("write", "/tmp/pubs.yaml", errors.New("disk full"))
	require.Error(t, err)
	assert.Equal(t, "IO error during write of /tmp/pubs.yaml: disk full", err.Error())
	assert.Nil(t, pkgerrors.WrapIO("write", "x", nil))
}

func TestParseError(t *testing.T) {
	err := pkgerrors.NewParseError("yaml", "pubs.yaml", "bad indent", nil)
	assert.Equal(t, "parse error in yaml file pubs.yaml: bad indent", err.Error())

	err = &pkgerrors.ParseError{Format: "yaml", File: "pubs.yaml", Line: 3, Column: 2, Message: "bad"}
	assert.Equal(t, "parse error in yaml at pubs.yaml:3:2: bad", err.Error())
}

func TestSyncError(t *testing.T) {
	cause := pkgerrors.NewEmptyFetchError("file", 0)
	err := pkgerrors.NewSyncError("file", "merge", cause)
	assert.Contains(t, err.Error(), "during merge")
	assert.True(t, pkgerrors.IsEmptyFetch(err))
}
