package tableview

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreRow struct {
	Name  string
	Score int
	Email *string
}

var scoreFields = Fields[scoreRow]{
	{Key: "name", Label: "Name", Sortable: true, Searchable: true, Value: func(r scoreRow) any { return r.Name }},
	{Key: "score", Label: "Score", Sortable: true, Value: func(r scoreRow) any { return r.Score }},
	{Key: "email", Label: "Email", Searchable: true, Value: func(r scoreRow) any { return r.Email }},
}

func dataset() []scoreRow {
	return []scoreRow{{Name: "Ama", Score: 92}, {Name: "Kojo", Score: 81}}
}

func TestFilterMatchesCaseInsensitively(t *testing.T) {
	got := Filter(dataset(), "ama", scoreFields)
	assert.Equal(t, []scoreRow{{Name: "Ama", Score: 92}}, got)

	assert.Equal(t, []scoreRow{{Name: "Kojo", Score: 81}}, Filter(dataset(), "  KOJO ", scoreFields))
	assert.Empty(t, Filter(dataset(), "zed", scoreFields))
}

func TestFilterEmptyQueryKeepsEverything(t *testing.T) {
	rows := dataset()
	assert.Equal(t, rows, Filter(rows, "", scoreFields))
	assert.Equal(t, rows, Filter(rows, "   ", scoreFields))
	// sanitizes down to nothing
	assert.Equal(t, rows, Filter(rows, "select -- ;", scoreFields))
}

func TestFilterSkipsNilAndEmptyValues(t *testing.T) {
	email := "kojo@example.com"
	rows := []scoreRow{{Name: "Ama"}, {Name: "", Email: &email}}
	assert.Equal(t, []scoreRow{{Name: "", Email: &email}}, Filter(rows, "example", scoreFields))
}

func TestFilterFoldsUnicode(t *testing.T) {
	rows := []scoreRow{{Name: "Straße"}, {Name: "Éowyn"}}
	assert.Len(t, Filter(rows, "STRASSE", scoreFields), 1)
	// decomposed E + combining acute matches the precomposed value
	assert.Len(t, Filter(rows, "E\u0301OWYN", scoreFields), 1)
}

func TestSortByScoreDescending(t *testing.T) {
	got := Sort(dataset(), SortConfig{Key: "score", Direction: Descending}, scoreFields)
	assert.Equal(t, []scoreRow{{Name: "Ama", Score: 92}, {Name: "Kojo", Score: 81}}, got)

	got = Sort(dataset(), SortConfig{Key: "score", Direction: Ascending}, scoreFields)
	assert.Equal(t, []scoreRow{{Name: "Kojo", Score: 81}, {Name: "Ama", Score: 92}}, got)
}

func TestSortAscendingThenDescendingReverses(t *testing.T) {
	rows := []scoreRow{{Name: "d", Score: 4}, {Name: "a", Score: 1}, {Name: "c", Score: 3}, {Name: "b", Score: 2}}
	for _, key := range []string{"name", "score"} {
		asc := Sort(rows, SortConfig{Key: key, Direction: Ascending}, scoreFields)
		desc := Sort(rows, SortConfig{Key: key, Direction: Descending}, scoreFields)
		require.Len(t, desc, len(asc))
		for i := range asc {
			assert.Equal(t, asc[i], desc[len(desc)-1-i], "key %s index %d", key, i)
		}
	}
}

func TestSortIsStable(t *testing.T) {
	rows := []scoreRow{{Name: "x", Score: 1}, {Name: "y", Score: 1}, {Name: "z", Score: 0}}
	asc := Sort(rows, SortConfig{Key: "score", Direction: Ascending}, scoreFields)
	assert.Equal(t, []string{"z", "x", "y"}, names(asc))
	desc := Sort(rows, SortConfig{Key: "score", Direction: Descending}, scoreFields)
	assert.Equal(t, []string{"x", "y", "z"}, names(desc))
}

func TestSortLeavesInputAlone(t *testing.T) {
	rows := dataset()
	_ = Sort(rows, SortConfig{Key: "score", Direction: Ascending}, scoreFields)
	assert.Equal(t, dataset(), rows)
	assert.Equal(t, rows, Sort(rows, SortConfig{}, scoreFields))
	assert.Equal(t, rows, Sort(rows, SortConfig{Key: "missing"}, scoreFields))
}

func TestEmptyQueryUnderAnySortIsSetEqual(t *testing.T) {
	rows := []scoreRow{{Name: "b", Score: 2}, {Name: "a", Score: 3}, {Name: "c", Score: 1}}
	for _, cfg := range []SortConfig{{}, {Key: "name", Direction: Ascending}, {Key: "score", Direction: Descending}} {
		got := Sort(Filter(rows, "", scoreFields), cfg, scoreFields)
		assert.ElementsMatch(t, rows, got)
	}
}

func TestPaginateLengthProperty(t *testing.T) {
	for n := 0; n <= 12; n++ {
		items := make([]int, n)
		for size := 1; size <= 5; size++ {
			for page := 1; page <= 6; page++ {
				want := size
				if rest := n - (page-1)*size; rest < want {
					want = rest
				}
				if want < 0 {
					want = 0
				}
				assert.Len(t, Paginate(items, page, size), want, fmt.Sprintf("n=%d page=%d size=%d", n, page, size))
			}
		}
	}
}

func TestTotalPagesAndClamp(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))

	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 1, ClampPage(4, 0))
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, PageWindow(1, 9, 5))
	assert.Equal(t, []int{4, 5, 6, 7, 8}, PageWindow(6, 9, 5))
	assert.Equal(t, []int{7, 8, 9}, PageWindow(9, 9, 5))
	assert.Nil(t, PageWindow(1, 0, 5))
}

func TestToggle(t *testing.T) {
	var cfg SortConfig
	cfg = cfg.Toggle("name")
	assert.Equal(t, SortConfig{Key: "name", Direction: Ascending}, cfg)
	cfg = cfg.Toggle("name")
	assert.Equal(t, SortConfig{Key: "name", Direction: Descending}, cfg)
	cfg = cfg.Toggle("name")
	assert.Equal(t, Ascending, cfg.Direction)
	cfg = cfg.Toggle("name").Toggle("score")
	assert.Equal(t, SortConfig{Key: "score", Direction: Ascending}, cfg)
	assert.Equal(t, "↑", cfg.Indicator("score"))
	assert.Equal(t, "", cfg.Indicator("name"))
}

func TestApplyStates(t *testing.T) {
	res := Apply([]scoreRow{}, Query{Page: 1, PageSize: 10}, scoreFields)
	assert.Equal(t, StateNoData, res.State)

	res = Apply(dataset(), Query{Search: "zed", Page: 1}, scoreFields)
	assert.Equal(t, StateNoResults, res.State)
	assert.Equal(t, "zed", res.Search)

	res = Apply(dataset(), Query{Search: "zed", Page: 1}, scoreFields).WithError("Failed to load students: boom")
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, "Failed to load students: boom", res.Error)

	res = Apply([]scoreRow{}, Query{}, scoreFields).WithError("x")
	assert.Equal(t, StateError, res.State, "error wins over no data")
}

func TestApplyPipeline(t *testing.T) {
	rows := make([]scoreRow, 0, 23)
	for i := 0; i < 23; i++ {
		rows = append(rows, scoreRow{Name: fmt.Sprintf("student-%02d", i), Score: i})
	}
	res := Apply(rows, Query{Sort: SortConfig{Key: "score", Direction: Descending}, Page: 7, PageSize: 10}, scoreFields)
	assert.Equal(t, StateOK, res.State)
	assert.Equal(t, 3, res.Page, "clamped to last page")
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 23, res.TotalItems)
	assert.Equal(t, 21, res.From)
	assert.Equal(t, 23, res.To)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, 2, res.Rows[0].Score)
	assert.Equal(t, 0, res.Rows[2].Score)

	res = Apply(rows, Query{Search: "student-1", Page: 1}, scoreFields)
	assert.Equal(t, 10, res.TotalItems)
	assert.Equal(t, DefaultPageSize, res.PageSize)
}

func TestCompare(t *testing.T) {
	now := time.Now()
	assert.Equal(t, -1, Compare(1, 2.5))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, -1, Compare(false, true))
	assert.Equal(t, 1, Compare(now.Add(time.Second), now))
	assert.Equal(t, -1, Compare(nil, "a"))
	assert.Equal(t, 0, Compare(nil, (*string)(nil)))
	assert.Equal(t, -1, Compare(10, "9"), "mixed kinds compare as text")
}

func TestText(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T08:30:00Z", Text(at))
	assert.Equal(t, "87.5", Text(87.5))
	assert.Equal(t, "3", Text(int64(3)))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "", Text(nil))
}

func names(rows []scoreRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}
