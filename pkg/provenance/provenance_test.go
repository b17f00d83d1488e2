package provenance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap/pkg/provenance"
)

func TestTracker(t *testing.T) {
	tr := provenance.NewTracker(true)
	tr.Track("a", "title", provenance.Provenance{Source: "serpapi", Value: "Paper A"})
	tr.Track("a", "title", provenance.Provenance{Source: "scholar", Value: "Paper A (revised)", Previous: "Paper A"})
	tr.Track("a", "doi", provenance.Provenance{Source: "doi", Value: "10.1/x"})
	tr.Track("x:y", "year", provenance.Provenance{Source: "file", Value: "2020"})

	title := tr.FindByField("a", "title")
	require.Len(t, title, 2)
	assert.Equal(t, "title", title[0].Field)
	assert.Equal(t, "Paper A (revised)", title[1].Value)

	fields := tr.FindByResource("a")
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "doi")

	colon := tr.FindByResource("x:y")
	require.Contains(t, colon, "year")

	current := tr.Map().Current()
	assert.Equal(t, "scholar", current["a:title"].Source)

	report := tr.Map().Report()
	assert.Contains(t, report, `title: "Paper A (revised)" (from scholar)`)
	assert.Contains(t, report, `was "Paper A" from serpapi`)
	assert.Contains(t, report, "x:y\n")

	tr.Clear()
	assert.Empty(t, tr.Map())
}

func TestDisabledTracker(t *testing.T) {
	tr := provenance.NewTracker(false)
	tr.Track("a", "title", provenance.Provenance{Source: "serpapi"})
	assert.Nil(t, tr.FindByField("a", "title"))
	assert.Nil(t, tr.FindByResource("a"))
	assert.Nil(t, tr.Map())
}

func TestMapIsACopy(t *testing.T) {
	tr := provenance.NewTracker(true)
	tr.Track("a", "title", provenance.Provenance{Source: "s", Value: "v"})
	m := tr.Map()
	m["a:title"][0].Value = "changed"
	assert.Equal(t, "v", tr.FindByField("a", "title")[0].Value)
}

func TestMapMerge(t *testing.T) {
	a := provenance.Map{"x:title": {{Source: "serpapi", Value: "A"}}}
	b := provenance.Map{
		"x:title": {{Source: "crossref", Value: "B"}},
		"y:doi":   {{Source: "doi", Value: "10.1/y"}},
	}

	merged := a.Merge(b)
	require.Len(t, merged["x:title"], 2)
	assert.Equal(t, "B", merged.Current()["x:title"].Value)
	assert.Len(t, merged["y:doi"], 1)
	assert.Len(t, a["x:title"], 1, "receiver is not modified")

	var empty provenance.Map
	assert.Nil(t, empty.Merge(nil))
}
