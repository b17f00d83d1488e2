package scholar_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pubmap/internal/sources/scholar"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
	"github.com/agentstation/pubmap/pkg/sources"
)

const rowTemplate = `<tr class="gsc_a_tr">
  <td class="gsc_a_t">
    <a href="/citations?view_op=view_citation&amp;hl=en&amp;user=USR&amp;citation_for_view=USR:id%d" class="gsc_a_at">Paper&nbsp;%d</a>
    <div class="gs_gray">Ada Lovelace, Grace Hopper</div>
    <div class="gs_gray">Journal of Tests %d<span class="gs_oph">, %s</span></div>
  </td>
  <td class="gsc_a_c"><a class="gsc_a_ac gs_ibl">12</a></td>
  <td class="gsc_a_y"><span class="gsc_a_h gsc_a_hc gs_ibl">%s</span></td>
</tr>`

func page(from, to int, year func(int) string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="gsc_a_t"><tbody id="gsc_a_b">`)
	for i := from; i < to; i++ {
		fmt.Fprintf(&b, rowTemplate, i, i, i, year(i), year(i))
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func TestFetchParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/citations", r.URL.Path)
		assert.Equal(t, "USR", r.URL.Query().Get("user"))
		assert.Equal(t, "pubdate", r.URL.Query().Get("sortby"))
		fmt.Fprint(w, page(0, 2, func(i int) string {
			if i == 1 {
				return ""
			}
			return "2021"
		}))
	}))
	defer srv.Close()

	src, err := scholar.New("USR", scholar.WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, sources.ScholarID, src.ID())

	recs, err := sources.Collect(src.Fetch(context.Background(), sources.WithPageDelay(0)))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "Paper\u00a00", first.Title, "text is left for the normalizer")
	assert.Equal(t, "USR:id0", first.ID)
	assert.Equal(t, srv.URL+"/citations?view_op=view_citation&hl=en&user=USR&citation_for_view=USR:id0", first.Link)
	assert.Equal(t, "Ada Lovelace, Grace Hopper", first.Authors)
	assert.Equal(t, "Journal of Tests 0", first.Venue)
	year, ok := first.Year.Int()
	assert.True(t, ok)
	assert.Equal(t, 2021, year)

	assert.True(t, recs[1].Year.IsZero())
	assert.Equal(t, sources.ScholarID, recs[1].Source)
}

func TestFetchPaginatesUntilShortPage(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		start, _ := strconv.Atoi(r.URL.Query().Get("cstart"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pagesize"))
		end := min(start+size, 7)
		fmt.Fprint(w, page(start, end, func(int) string { return "2020" }))
	}))
	defer srv.Close()

	src, err := scholar.New("USR", scholar.WithBaseURL(srv.URL))
	require.NoError(t, err)

	recs, err := sources.Collect(src.Fetch(context.Background(),
		sources.WithPageSize(3), sources.WithPageDelay(0)))
	require.NoError(t, err)
	assert.Len(t, recs, 7)
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchStopsAtPageCap(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		start, _ := strconv.Atoi(r.URL.Query().Get("cstart"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pagesize"))
		fmt.Fprint(w, page(start, start+size, func(int) string { return "2020" }))
	}))
	defer srv.Close()

	src, err := scholar.New("USR", scholar.WithBaseURL(srv.URL))
	require.NoError(t, err)

	captured := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), captured.Logger)
	recs, err := sources.Collect(src.Fetch(ctx,
		sources.WithPageSize(2), sources.WithMaxPages(4), sources.WithPageDelay(0)))
	require.NoError(t, err)
	assert.Len(t, recs, 8)
	assert.Equal(t, int32(4), requests.Load())
	capped := captured.Messages("Page cap reached, stopping pagination")
	require.Len(t, capped, 1)
	assert.Equal(t, "info", capped[0]["level"], "reaching the cap is not a problem")
}

func TestFetchEmptyProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
	}))
	defer srv.Close()

	src, err := scholar.New("USR", scholar.WithBaseURL(srv.URL))
	require.NoError(t, err)

	recs, err := sources.Collect(src.Fetch(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNewRequiresUser(t *testing.T) {
	_, err := scholar.New(" ")
	assert.True(t, errors.IsValidationError(err))
}
