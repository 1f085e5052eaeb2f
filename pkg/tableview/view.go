package tableview

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
)

// DefaultPageSize applies when a query carries no page size.
const DefaultPageSize = 10

// State names the empty-state kind of a Result.
type State string

const (
	StateOK        State = "ok"
	StateNoData    State = "no_data"
	StateNoResults State = "no_results"
	StateError     State = "error"
)

// Query is one view request over a record slice.
type Query struct {
	Search   string
	Sort     SortConfig
	Page     int
	PageSize int
}

// Result is a rendered page. From and To are 1-based and inclusive; both are
// zero for an empty page.
type Result[T any] struct {
	Rows       []T        `json:"rows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalItems int        `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
	From       int        `json:"from"`
	To         int        `json:"to"`
	Pages      []int      `json:"pages,omitempty"`
	Search     string     `json:"search,omitempty"`
	Sort       SortConfig `json:"sort"`
	State      State      `json:"state"`
	Error      string     `json:"error,omitempty"`
}

// WithError switches the result to the error state, which wins over both
// empty states. Rows are dropped.
func (r Result[T]) WithError(message string) Result[T] {
	r.State = StateError
	r.Error = message
	r.Rows = []T{}
	r.From, r.To = 0, 0
	return r
}

// Apply filters, sorts and paginates items. The page is clamped into
// [1, TotalPages].
func Apply[T any](items []T, q Query, fields Fields[T]) Result[T] {
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	search := sanitize.SearchQuery(q.Search)

	filtered := Filter(items, q.Search, fields)
	sorted := Sort(filtered, q.Sort, fields)
	total := TotalPages(len(sorted), size)
	page := ClampPage(q.Page, total)
	rows := Paginate(sorted, page, size)

	res := Result[T]{
		Rows:       rows,
		Page:       page,
		PageSize:   size,
		TotalItems: len(sorted),
		TotalPages: total,
		Pages:      PageWindow(page, total, 5),
		Search:     search,
		Sort:       q.Sort,
		State:      StateOK,
	}
	if len(rows) > 0 {
		res.From = (page-1)*size + 1
		res.To = res.From + len(rows) - 1
	}
	switch {
	case len(items) == 0:
		res.State = StateNoData
	case len(sorted) == 0:
		res.State = StateNoResults
	}
	return res
}

// Filter keeps records where any searchable field contains the sanitized,
// case-folded query. An empty query, before or after sanitizing, keeps all
// records. Values that are nil, "", zero or false never match.
func Filter[T any](items []T, query string, fields Fields[T]) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	needle := fold(sanitize.SearchQuery(query))
	if needle == "" {
		return items
	}
	searchable := fields.Searchable()
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range searchable {
			v := normalize(f.Value(item))
			if isFalsy(v) {
				continue
			}
			if strings.Contains(fold(sanitize.HTML(text(v))), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Sort returns a sorted copy of items. Unknown keys and an unset config leave
// the order unchanged. Equal values keep their relative order in both
// directions.
func Sort[T any](items []T, cfg SortConfig, fields Fields[T]) []T {
	if !cfg.IsSet() {
		return items
	}
	field, ok := fields.Lookup(cfg.Key)
	if !ok {
		return items
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		c := Compare(field.Value(a), field.Value(b))
		if cfg.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

// Paginate slices [(page-1)*size, page*size) out of items, bounded by len(items).
func Paginate[T any](items []T, page, size int) []T {
	if size < 1 || page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// TotalPages is ceil(n / size).
func TotalPages(n, size int) int {
	if n <= 0 || size < 1 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage bounds page into [1, totalPages]; with no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageWindow lists up to width page numbers starting two before current.
func PageWindow(current, totalPages, width int) []int {
	if totalPages < 1 || width < 1 {
		return nil
	}
	start := current - 2
	if start < 1 {
		start = 1
	}
	pages := make([]int, 0, width)
	for p := start; p <= totalPages && len(pages) < width; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Compare orders two field values: nil first, then numbers numerically,
// strings lexicographically, false before true and times chronologically.
// Mixed kinds compare by their text.
func Compare(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return compareFloat(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(text(a), text(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// normalize dereferences pointers and widens numeric kinds to float64.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case string, bool, float64, time.Time:
		return t
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return nil
		}
		return f
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return rv.Interface()
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

// Text renders a field value for display and export.
func Text(v any) string {
	return text(normalize(v))
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// fold is NFC normalisation plus Unicode case folding. A cases.Caser holds
// state, so each call builds its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}
