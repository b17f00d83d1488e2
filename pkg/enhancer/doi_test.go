package enhancer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://doi.org/10.1145/3368089.3409741", "10.1145/3368089.3409741"},
		{"https://dl.acm.org/doi/abs/10.1145/3368089.3409741.", "10.1145/3368089.3409741"},
		{"see 10.1000/ABC-def_1;2, page 3", "10.1000/ABC-def_1;2"},
		{"(doi 10.1000/xyz)", "10.1000/xyz"},
		{"10.1002/(SICI)1097-4571", "10.1002/(SICI)1097-4571"},
		{"https://x.test/10.1000%2Fencoded", "10.1000/encoded"},
		{"Proceedings of ICSE 2020", ""},
		{"10.12/too-short-registrant", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FindDOI(tt.in))
		})
	}
}

func TestDOIEnhancer(t *testing.T) {
	e := NewDOI(PriorityDOI)
	ctx := context.Background()

	assert.False(t, e.CanEnhance(catalogs.Publication{DOI: "10.1/x", Link: "https://doi.org/10.2/y"}))
	assert.False(t, e.CanEnhance(catalogs.Publication{}))

	pub := catalogs.Publication{Link: "https://x.test/paper", Venue: "Journal, doi:10.5555/12345678"}
	require.True(t, e.CanEnhance(pub))
	got, err := e.Enhance(ctx, pub)
	require.NoError(t, err)
	assert.Equal(t, "10.5555/12345678", got.DOI)

	got, err = e.Enhance(ctx, catalogs.Publication{Link: "https://x.test/paper"})
	require.NoError(t, err)
	assert.Empty(t, got.DOI)
}

func TestBestLink(t *testing.T) {
	e := NewBestLink(PriorityBestLink)
	ctx := context.Background()

	assert.True(t, IsScholarLink("https://scholar.google.com/citations?view_op=view_citation"))
	assert.True(t, IsScholarLink("https://scholar.google.co.uk/scholar?q=x"))
	assert.False(t, IsScholarLink("https://doi.org/10.1/x"))
	assert.False(t, IsScholarLink("https://example.com/scholar.google.com"))

	assert.False(t, e.CanEnhance(catalogs.Publication{Link: "https://scholar.google.com/x"}))
	assert.False(t, e.CanEnhance(catalogs.Publication{DOI: "10.1/x", Link: "https://publisher.test/x"}))

	for _, link := range []string{"", "https://scholar.google.com/x"} {
		pub := catalogs.Publication{DOI: "10.1/x", Link: link}
		require.True(t, e.CanEnhance(pub))
		got, err := e.Enhance(ctx, pub)
		require.NoError(t, err)
		assert.Equal(t, "https://doi.org/10.1/x", got.Link)
	}
}
