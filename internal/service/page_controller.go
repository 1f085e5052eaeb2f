package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/asyncop"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/tableview"
)

// Resource describes one admin table page: where its stats and list live
// upstream and how its rows are searched, sorted and checked.
type Resource[S, R any] struct {
	Name       string
	Label      string
	StatsPath  string
	ListPath   string
	Fields     tableview.Fields[R]
	Filterable bool
	// Warnings returns edge-case notes about a row that passed validation.
	Warnings func(R) []string
}

// ControllerOptions are shared by every controller of a registry.
type ControllerOptions struct {
	PageSize      int
	RetryAttempts int
	RetryDelay    time.Duration
	Logger        *zap.Logger
	Observer      asyncop.Observer
	Validator     *validator.Validate
	Sleep         asyncop.SleepFunc
}

// ListParams is the dependency key of a list fetch.
type ListParams struct {
	Page   int
	Size   int
	Sort   tableview.SortConfig
	Status string
}

// Query renders the upstream query string.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))
	if p.Sort.IsSet() {
		q.Set("sort_by", p.Sort.Key)
		q.Set("sort_dir", string(p.Sort.Direction))
	}
	if p.Status != "" && p.Status != models.ReportStatusAll {
		q.Set("status_filter", p.Status)
	}
	return q
}

// MaxPageSize bounds the server page size a client may request.
const MaxPageSize = 100

// Update carries the view changes requested by a client. Nil or empty fields
// leave the current value alone.
type Update struct {
	Page    *int
	Size    *int
	Toggle  string
	SortBy  string
	SortDir string
	Search  *string
	Status  *string
}

// ServerPagination is the upstream page bookkeeping.
type ServerPagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// View is the ready to render state of a table page.
type View[S, R any] struct {
	Resource     string               `json:"resource"`
	Stats        *S                   `json:"stats,omitempty"`
	StatsLoading bool                 `json:"stats_loading"`
	StatsError   string               `json:"stats_error,omitempty"`
	Table        tableview.Result[R]  `json:"table"`
	Server       ServerPagination     `json:"server"`
	Sort         tableview.SortConfig `json:"sort"`
	Search       string               `json:"search,omitempty"`
	Status       string               `json:"status,omitempty"`
	ListLoading  bool                 `json:"list_loading"`
	ListError    string               `json:"list_error,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// PageController holds the page state of one resource for one session.
type PageController[S, R any] struct {
	res      Resource[S, R]
	api      upstreamAPI
	validate *validator.Validate
	logger   *zap.Logger

	stats *asyncop.Operation[struct{}, S]
	list  *asyncop.Operation[ListParams, models.Page[R]]

	mu           sync.Mutex
	page         int
	size         int
	sort         tableview.SortConfig
	search       string
	status       string
	serverPages  int
	statsFetched bool
	loaded       *ListParams
}

// NewPageController builds a controller for res.
func NewPageController[S, R any](api upstreamAPI, res Resource[S, R], opts ControllerOptions) *PageController[S, R] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.PageSize < 1 {
		opts.PageSize = tableview.DefaultPageSize
	}
	c := &PageController[S, R]{
		res:      res,
		api:      api,
		validate: opts.Validator,
		logger:   opts.Logger.With(zap.String("resource", res.Name)),
		page:     1,
		size:     opts.PageSize,
	}
	if res.Filterable {
		c.status = models.ReportStatusAll
	}

	c.stats = asyncop.New(func(ctx context.Context, _ struct{}) (S, error) {
		var stats S
		err := c.api.GetJSON(ctx, upstream.Bearer, res.StatsPath, nil, &stats)
		return stats, err
	}, asyncop.Options{
		Name:          res.Name + "_stats",
		RetryAttempts: opts.RetryAttempts,
		RetryDelay:    opts.RetryDelay,
		Logger:        c.logger,
		Observer:      opts.Observer,
		Sleep:         opts.Sleep,
	})
	c.list = asyncop.New(func(ctx context.Context, p ListParams) (models.Page[R], error) {
		var page models.Page[R]
		err := c.api.GetJSON(ctx, upstream.Bearer, res.ListPath, p.Query(), &page)
		return page, err
	}, asyncop.Options{
		Name:          res.Name + "_list",
		RetryAttempts: opts.RetryAttempts,
		RetryDelay:    opts.RetryDelay,
		Logger:        c.logger,
		Observer:      opts.Observer,
		Sleep:         opts.Sleep,
	})
	return c
}

// Resource returns the resource description.
func (c *PageController[S, R]) Resource() Resource[S, R] {
	return c.res
}

// Apply folds an Update into the controller state.
func (c *PageController[S, R]) Apply(u Update) {
	if u.Status != nil {
		c.SetFilter(*u.Status)
	}
	switch {
	case u.Toggle != "":
		c.ToggleSort(u.Toggle)
	case u.SortBy != "":
		c.SetSort(u.SortBy, tableview.ParseDirection(u.SortDir))
	}
	if u.Search != nil {
		c.SetSearch(*u.Search)
	}
	if u.Size != nil {
		c.SetSize(*u.Size)
	}
	if u.Page != nil {
		c.SetPage(*u.Page)
	}
}

// SetPage moves to page n, clamped into [1, serverPages] once the server page
// count is known.
func (c *PageController[S, R]) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverPages > 0 {
		n = tableview.ClampPage(n, c.serverPages)
	} else if n < 1 {
		n = 1
	}
	c.page = n
}

// SetSize changes the server page size and returns to the first page.
// Sizes outside [1, MaxPageSize] are ignored.
func (c *PageController[S, R]) SetSize(n int) {
	if n < 1 || n > MaxPageSize {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size != n {
		c.size = n
		c.page = 1
		c.serverPages = 0
	}
}

// ToggleSort flips the direction of an active key and starts an ascending sort
// on a new one. Keys that are not sortable are ignored.
func (c *PageController[S, R]) ToggleSort(key string) {
	if !c.res.Fields.Sortable(key) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.Toggle(key)
}

// SetSort sets the sort column and direction. Keys that are not sortable are
// ignored.
func (c *PageController[S, R]) SetSort(key string, dir tableview.Direction) {
	if !c.res.Fields.Sortable(key) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = tableview.SortConfig{Key: key, Direction: dir}
}

// SetSearch stores the local search query. It never triggers a fetch.
func (c *PageController[S, R]) SetSearch(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = q
}

// SetFilter selects a status filter on filterable resources and returns to
// the first page when it changes.
func (c *PageController[S, R]) SetFilter(status string) {
	if !c.res.Filterable {
		return
	}
	switch status {
	case models.ReportStatusAll, models.ReportStatusOpen, models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != status {
		c.status = status
		c.page = 1
	}
}

// Invalidate forces the next Load to refetch stats and list.
func (c *PageController[S, R]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = nil
	c.statsFetched = false
}

func (c *PageController[S, R]) params() ListParams {
	return ListParams{Page: c.page, Size: c.size, Sort: c.sort, Status: c.status}
}

// Load fetches stats once (or again on refresh) and the list whenever its
// dependency key changed since the last successful load. Both run
// concurrently; their failures are reported inline in the view.
func (c *PageController[S, R]) Load(ctx context.Context, refresh bool) (View[S, R], error) {
	c.mu.Lock()
	params := c.params()
	needStats := refresh || !c.statsFetched
	needList := refresh || c.loaded == nil || *c.loaded != params
	if needStats {
		c.statsFetched = true
	}
	c.mu.Unlock()

	var g errgroup.Group
	if needStats {
		g.Go(func() error {
			_, err := c.stats.Execute(ctx, struct{}{})
			return contextError(err)
		})
	}
	if needList {
		g.Go(func() error {
			return c.loadList(ctx, params)
		})
	}
	if err := g.Wait(); err != nil {
		return View[S, R]{}, err
	}
	return c.View(), nil
}

func (c *PageController[S, R]) loadList(ctx context.Context, params ListParams) error {
	page, err := c.list.Execute(ctx, params)
	if err != nil {
		return contextError(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverPages = page.Pages
	c.loaded = &params
	return nil
}

// Retry re-runs whichever load currently holds an error. The list is retried
// with the current page state.
func (c *PageController[S, R]) Retry(ctx context.Context) (View[S, R], error) {
	var g errgroup.Group
	if c.stats.State().Err != nil {
		g.Go(func() error {
			_, err := c.stats.Retry(ctx)
			return contextError(err)
		})
	}
	if c.list.State().Err != nil {
		c.mu.Lock()
		params := c.params()
		c.mu.Unlock()
		g.Go(func() error {
			return c.loadList(ctx, params)
		})
	}
	if err := g.Wait(); err != nil {
		return View[S, R]{}, err
	}
	return c.View(), nil
}

// View renders the current state without fetching.
func (c *PageController[S, R]) View() View[S, R] {
	c.mu.Lock()
	sortCfg, search, status, size := c.sort, c.search, c.status, c.size
	c.mu.Unlock()

	stats := c.stats.State()
	list := c.list.State()

	view := View[S, R]{
		Resource:     c.res.Name,
		StatsLoading: stats.Loading,
		Sort:         sortCfg,
		Search:       search,
		Status:       status,
		ListLoading:  list.Loading,
	}
	if stats.HasData {
		s := stats.Data
		view.Stats = &s
	}
	if stats.Err != nil {
		view.StatsError = failure(c.res.Label+" stats", stats.Err)
	}

	items := list.Data.Items
	if items == nil {
		items = []R{}
	}
	view.Server = ServerPagination{Total: list.Data.Total, Page: list.Data.Page, Size: list.Data.Size, Pages: list.Data.Pages}
	view.Table = tableview.Apply(items, tableview.Query{Search: search, Sort: sortCfg, Page: 1, PageSize: size}, c.res.Fields)
	if list.Err != nil {
		view.ListError = failure(c.res.Label, list.Err)
		view.Table = view.Table.WithError(view.ListError)
	} else {
		view.Warnings = c.warnings(items)
	}
	return view
}

// failure is the inline message shown in place of data that failed to load.
func failure(what string, err error) string {
	return fmt.Sprintf("Failed to load %s: %s", what, appErrors.Message(err))
}

// warnings validates each row with its struct tags and collects edge-case
// notes. Rows are never dropped or modified.
func (c *PageController[S, R]) warnings(items []R) []string {
	var out []string
	for i, item := range items {
		if err := c.validate.Struct(item); err != nil {
			for _, msg := range FieldErrors(structErrors(err)).Messages() {
				out = append(out, fmt.Sprintf("row %d: %s", i+1, msg))
			}
			continue
		}
		if c.res.Warnings != nil {
			for _, w := range c.res.Warnings(item) {
				out = append(out, fmt.Sprintf("row %d: %s", i+1, w))
			}
		}
	}
	if len(out) > 0 {
		c.logger.Debug("page rows carry warnings", zap.Int("count", len(out)))
	}
	return out
}

// contextError passes through cancellation so Load can abort; every other
// failure lives in the operation state.
func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
