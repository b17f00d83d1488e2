package catalogs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap/pkg/catalogs"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
)

const canonicalYAML = `- id: a
  title: Paper A
  authors: A Author, B Author
  venue: Journal of Tests
  year: 2021
  link: https://example.org/a
  selected: true
  image: a.png
- id: b
  title: Paper B
  authors: ""
  venue: ""
  link: ""
  selected: false
  image: ""
`

func TestDecodeCanonical(t *testing.T) {
	cat, err := catalogs.Decode([]byte(canonicalYAML), catalogs.FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	a, ok := cat.Get("a")
	require.True(t, ok)
	assert.Equal(t, catalogs.Publication{
		Key:      "a",
		Title:    "Paper A",
		Authors:  "A Author, B Author",
		Venue:    "Journal of Tests",
		Year:     2021,
		Link:     "https://example.org/a",
		Selected: true,
		Image:    "a.png",
	}, a)

	b, _ := cat.Get("b")
	assert.False(t, b.HasYear())
}

func TestEncodeRoundTrip(t *testing.T) {
	cat, err := catalogs.Decode([]byte(canonicalYAML), catalogs.FormatYAML)
	require.NoError(t, err)

	data, err := cat.Encode()
	require.NoError(t, err)

	again, err := catalogs.Decode(data, catalogs.FormatYAML)
	require.NoError(t, err)
	assert.True(t, cat.Equal(again))

	// Field order of the canonical document is stable.
	text := string(data)
	assert.Less(t, strings.Index(text, "id: a"), strings.Index(text, "title: Paper A"))
	assert.Less(t, strings.Index(text, "link:"), strings.Index(text, "selected:"))
}

func TestEncodeKeepsFloatWordsAsText(t *testing.T) {
	for _, word := range []string{".inf", ".Inf", "-.inf", "+.INF", ".nan", ".NaN"} {
		t.Run(word, func(t *testing.T) {
			pub := catalogs.Publication{
				Key:     word,
				Title:   word,
				Authors: word,
				Venue:   word,
				Link:    word,
				DOI:     word,
				Image:   word,
				Extra:   map[string]any{"note": word},
			}
			for _, format := range []catalogs.Format{catalogs.FormatYAML, catalogs.FormatJSON} {
				data, err := catalogs.New(pub).EncodeAs(format)
				require.NoError(t, err)

				back, err := catalogs.Decode(data, format)
				require.NoError(t, err, string(data))
				require.Equal(t, 1, back.Len())
				assert.True(t, back.List()[0].Equal(pub), "%s:\n%s", format, data)
			}
		})
	}
}

func TestDecodeLegacyShapes(t *testing.T) {
	doc := `publications:
- key: scholar_abc
  title: Old Style
  authors:
  - Ada
  - Grace
  journal: Proceedings
  year: "2019"
  url: https://example.org/old
  selected-publication: "yes"
  venue_link: https://venue.example.org
  image: old.png
- key: scholar_def
  title: Undated
  year: n.d.
  selected-publication: "no"
`
	cat, err := catalogs.Decode([]byte(doc), catalogs.FormatYAML)
	require.NoError(t, err)

	old, ok := cat.Get("scholar_abc")
	require.True(t, ok)
	assert.Equal(t, "Old Style", old.Title)
	assert.Equal(t, "Ada, Grace", old.Authors)
	assert.Equal(t, "Proceedings", old.Venue)
	assert.Equal(t, 2019, old.Year)
	assert.Equal(t, "https://example.org/old", old.Link)
	assert.True(t, old.Selected)
	assert.Equal(t, "https://venue.example.org", old.Extra["venue_link"])

	undated, _ := cat.Get("scholar_def")
	assert.False(t, undated.HasYear())
	assert.Equal(t, "n.d.", undated.Extra["year"])

	layout := cat.Layout()
	assert.True(t, layout.Wrapped)
	assert.Equal(t, "key", layout.KeyField)
	assert.Equal(t, "journal", layout.VenueField)
	assert.Equal(t, "url", layout.LinkField)
	assert.Equal(t, "selected-publication", layout.SelectedField)
	assert.True(t, layout.SelectedAsWord)

	// Written back with the same spellings.
	data, err := cat.Encode()
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "publications:"))
	assert.Contains(t, text, "key: scholar_abc")
	assert.Contains(t, text, "journal: Proceedings")
	assert.Contains(t, text, "url:")
	assert.Contains(t, text, "selected-publication:")
	assert.Contains(t, text, "venue_link:")
	assert.Contains(t, text, "n.d.")
	assert.NotContains(t, text, "selected:")

	again, err := catalogs.Decode(data, catalogs.FormatYAML)
	require.NoError(t, err)
	assert.True(t, cat.Equal(again))
}

func TestDecodeSelectedPublicationBool(t *testing.T) {
	doc := `[{"id": "x", "title": "X", "selected_publication": true}]`
	cat, err := catalogs.Decode([]byte(doc), catalogs.FormatJSON)
	require.NoError(t, err)

	x, _ := cat.Get("x")
	assert.True(t, x.Selected)
	assert.Equal(t, "selected_publication", cat.Layout().SelectedField)
	assert.False(t, cat.Layout().SelectedAsWord)
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	cat, err := catalogs.Decode([]byte("  \n"), catalogs.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())

	cat, err = catalogs.Decode([]byte("publications:\n"), catalogs.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())

	for name, doc := range map[string]string{
		"scalar":        "just text",
		"no list":       "other: 1\n",
		"bad entry":     "- 1\n- 2\n",
		"broken syntax": "- id: a\n  title: [unclosed\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := catalogs.Decode([]byte(doc), catalogs.FormatYAML)
			require.Error(t, err)
			var parseErr *errors.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	cat := catalogs.New(catalogs.Publication{
		Key: "a", Title: "Paper \"A\"", Year: 2020, Selected: true,
		Extra: map[string]any{"z": "last", "cover_alt": "alt"},
	})

	data, err := cat.EncodeAs(catalogs.FormatJSON)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"id\": \"a\""))
	assert.Contains(t, text, `"title": "Paper \"A\""`)
	assert.Less(t, strings.Index(text, `"cover_alt"`), strings.Index(text, `"z"`))

	again, err := catalogs.Decode(data, catalogs.FormatJSON)
	require.NoError(t, err)
	assert.True(t, cat.Equal(again))
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publications.yaml")

	_, err := catalogs.Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	cat := catalogs.New(
		catalogs.Publication{Key: "a", Title: "A", Year: 2020},
		catalogs.Publication{Key: "b", Title: "B"},
	)
	require.NoError(t, cat.SaveTo(path))

	loaded, err := catalogs.Load(path)
	require.NoError(t, err)
	assert.True(t, cat.Equal(loaded))

	jsonPath := filepath.Join(dir, "publications.json")
	require.NoError(t, loaded.SaveTo(jsonPath))
	fromJSON, err := catalogs.Load(jsonPath)
	require.NoError(t, err)
	assert.True(t, cat.Equal(fromJSON))
}

func TestLoadOrEmpty(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		captured := logging.CaptureLoggingForTest(t)
		cat, status := catalogs.LoadOrEmpty(filepath.Join(dir, "nope.yaml"))
		assert.Equal(t, catalogs.StatusMissing, status)
		assert.Equal(t, 0, cat.Len())
		captured.AssertContains(t, "starting empty")
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- id: a\n  title: [oops\n"), 0o644))

		captured := logging.CaptureLoggingForTest(t)
		cat, status := catalogs.LoadOrEmpty(path)
		assert.Equal(t, catalogs.StatusMalformed, status)
		assert.Equal(t, 0, cat.Len())
		captured.AssertContains(t, "could not be read")

		backup, err := catalogs.Backup(path)
		require.NoError(t, err)
		data, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[oops")
	})

	t.Run("loaded", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(canonicalYAML), 0o644))
		cat, status := catalogs.LoadOrEmpty(path)
		assert.Equal(t, catalogs.StatusLoaded, status)
		assert.Equal(t, 2, cat.Len())
	})
}
