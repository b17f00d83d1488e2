package normalize_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/normalize"
	"github.com/agentstation/pubmap/pkg/sources"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trim", "  Paper A  ", "Paper A"},
		{"collapse", "Deep\t\tLearning \n for   Cats", "Deep Learning for Cats"},
		{"nbsp", "Graph\u00a0Neural\u00a0Networks", "Graph Neural Networks"},
		{"zero width", "Zero\u200bWidth", "ZeroWidth"},
		{"soft hyphen", "hy\u00adphen", "hyphen"},
		{"nfc", "Cafe\u0301", "Caf\u00e9"},
		{"only spaces", " \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Text(tt.in))
		})
	}
}

func TestRecord(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		c, err := normalize.Record(sources.RawRecord{
			ID:      " abc123 ",
			Title:   "  A   Title ",
			Authors: "A Author,  B Author",
			Venue:   "Journal X",
			Year:    sources.YearOf("2021"),
			Link:    " https://example.org/a ",
			Source:  sources.ScholarID,
		})
		require.NoError(t, err)
		assert.Equal(t, normalize.Candidate{
			NativeID: "abc123",
			Title:    "A Title",
			Authors:  "A Author, B Author",
			Venue:    "Journal X",
			Year:     2021,
			Link:     "https://example.org/a",
			Source:   sources.ScholarID,
		}, c)
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := normalize.Record(sources.RawRecord{Title: "Only Title"})
		require.NoError(t, err)
		assert.Equal(t, "", c.Authors)
		assert.Equal(t, "", c.Venue)
		assert.Equal(t, "", c.Link)
		assert.False(t, c.HasYear())
	})

	t.Run("unparsable year is absent", func(t *testing.T) {
		for _, y := range []any{"in press", "", nil, 3.5, "20xx"} {
			c, err := normalize.Record(sources.RawRecord{Title: "T", Year: sources.YearOf(y)})
			require.NoError(t, err, "year %v must never fail", y)
			assert.False(t, c.HasYear(), "year %v", y)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := normalize.Record(sources.RawRecord{Title: "   ", Link: "https://x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrSkipped)
	})
}

func TestAll(t *testing.T) {
	raw := sources.FromSlice([]sources.RawRecord{
		{Title: "First"},
		{Title: ""},
		{Title: "Second", Year: sources.YearOf(2020)},
	})

	var skipped []sources.RawRecord
	var got []normalize.Candidate
	for c, err := range normalize.All(raw, func(r sources.RawRecord, err error) {
		skipped = append(skipped, r)
	}) {
		require.NoError(t, err)
		got = append(got, c)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, 2020, got[1].Year)
	assert.Len(t, skipped, 1)
}

func TestAllPropagatesSourceError(t *testing.T) {
	boom := errors.New("network down")
	var errs []error
	for _, err := range normalize.All(sources.Fail(boom), nil) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}
