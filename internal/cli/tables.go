package cli

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-admin-gateway/internal/service"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/tableview"
)

type column struct {
	Key   string
	Label string
}

// tableSpec is one admin table as seen from the terminal.
type tableSpec struct {
	Name       string
	Label      string
	Path       string
	Columns    []column
	Filterable bool
}

func specOf[S, R any](res service.Resource[S, R], path string) tableSpec {
	cols := make([]column, 0, len(res.Fields))
	for _, f := range res.Fields {
		cols = append(cols, column{Key: f.Key, Label: f.Label})
	}
	return tableSpec{Name: res.Name, Label: res.Label, Path: path, Columns: cols, Filterable: res.Filterable}
}

var (
	studentsTable     = specOf(service.Students, "/admin/students")
	coursesTable      = specOf(service.Courses, "/admin/courses")
	reportsTable      = specOf(service.Reports, "/admin/reports")
	interactionsTable = specOf(service.Interactions, "/admin/interactions")
)

// tableView mirrors the gateway page view with untyped rows and stats.
type tableView struct {
	Resource   string                   `json:"resource"`
	Stats      map[string]interface{}   `json:"stats,omitempty"`
	StatsError string                   `json:"stats_error,omitempty"`
	Table      tableResult              `json:"table"`
	Server     service.ServerPagination `json:"server"`
	Status     string                   `json:"status,omitempty"`
	ListError  string                   `json:"list_error,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

type tableResult struct {
	Rows       []map[string]interface{} `json:"rows"`
	TotalItems int                      `json:"totalItems"`
	From       int                      `json:"from"`
	To         int                      `json:"to"`
	Search     string                   `json:"search,omitempty"`
	State      tableview.State          `json:"state"`
	Error      string                   `json:"error,omitempty"`
}

type tableFlags struct {
	page    int
	size    int
	sort    string
	desc    bool
	search  string
	status  string
	refresh bool
}

func (f tableFlags) query(cmd *cobra.Command) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.page))
	if cmd.Flags().Changed("size") {
		q.Set("size", strconv.Itoa(f.size))
	}
	if f.sort != "" {
		q.Set("sort_by", f.sort)
		dir := tableview.Ascending
		if f.desc {
			dir = tableview.Descending
		}
		q.Set("sort_dir", string(dir))
	}
	// always sent so the session view forgets an earlier search
	q.Set("q", f.search)
	if f.status != "" {
		q.Set("status", f.status)
	}
	if f.refresh {
		q.Set("refresh", "true")
	}
	return q
}

func newTableCommand(opts *RootOptions, spec tableSpec) *cobra.Command {
	var flags tableFlags
	cmd := &cobra.Command{
		Use:   spec.Name,
		Short: fmt.Sprintf("Show the %s table", spec.Label),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd.OutOrStdout())
			ctx, err := opts.authed(cmd.Context())
			if err != nil {
				return out.Failure(err)
			}
			var env struct {
				Data tableView `json:"data"`
			}
			if err := opts.gateway().GetJSON(ctx, upstream.Bearer, spec.Path, flags.query(cmd), &env); err != nil {
				return out.Failure(err)
			}
			return out.Success(env.Data, func(w io.Writer) { renderView(w, spec, env.Data) })
		},
	}
	cmd.Flags().IntVar(&flags.page, "page", 1, "server page")
	cmd.Flags().IntVar(&flags.size, "size", 10, "server page size")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "sort column ("+strings.Join(keys(spec.Columns), ", ")+")")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&flags.search, "search", "", "filter the current page")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "refetch stats and rows")
	if spec.Filterable {
		cmd.Flags().StringVar(&flags.status, "status", "", "status filter (all, open, resolved, dismissed)")
	}
	return cmd
}

func renderView(w io.Writer, spec tableSpec, view tableView) {
	fmt.Fprintln(w, titleStyle.Render(strings.ToUpper(spec.Label[:1])+spec.Label[1:]))
	switch {
	case view.StatsError != "":
		fmt.Fprintln(w, errorStyle.Render(view.StatsError))
	case len(view.Stats) > 0:
		fmt.Fprintln(w, mutedStyle.Render(statsLine(view.Stats)))
	}

	if view.Table.State != tableview.StateOK {
		fmt.Fprintln(w, emptyMessage(spec, view))
		return
	}

	rows := make([][]string, 0, len(view.Table.Rows))
	for _, r := range view.Table.Rows {
		cells := make([]string, 0, len(spec.Columns))
		for _, c := range spec.Columns {
			cells = append(cells, tableview.Text(r[c.Key]))
		}
		rows = append(rows, cells)
	}
	renderTable(w, labels(spec.Columns), rows)
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Showing %d-%d of %d on this page. Page %d of %d (%d total).",
		view.Table.From, view.Table.To, view.Table.TotalItems, view.Server.Page, view.Server.Pages, view.Server.Total)))
	for _, warning := range view.Warnings {
		fmt.Fprintln(w, warningStyle.Render("! "+warning))
	}
}

// emptyMessage renders the non-ok table states.
func emptyMessage(spec tableSpec, view tableView) string {
	switch view.Table.State {
	case tableview.StateError:
		msg := view.ListError
		if msg == "" {
			msg = view.Table.Error
		}
		return errorStyle.Render(msg)
	case tableview.StateNoResults:
		return fmt.Sprintf("No results for %q", view.Table.Search)
	default:
		return fmt.Sprintf("No %s found", spec.Label)
	}
}

func statsLine(stats map[string]interface{}) string {
	names := make([]string, 0, len(stats))
	for k := range stats {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		if _, nested := stats[k].(map[string]interface{}); nested {
			continue
		}
		if _, list := stats[k].([]interface{}); list {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, tableview.Text(stats[k])))
	}
	return strings.Join(parts, "  ")
}

func keys(cols []column) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Key)
	}
	return out
}

func labels(cols []column) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Label)
	}
	return out
}
