package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/export"
	"github.com/noah-isme/lms-admin-gateway/pkg/response"
	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
)

type exportService interface {
	Export(ctx context.Context, sessionID, resource string, format export.Format) (*service.ExportFile, error)
}

// TableHandler serves the admin table pages from per-session controllers.
type TableHandler struct {
	registry *service.ControllerRegistry
	exports  exportService
}

// NewTableHandler constructs the handler.
func NewTableHandler(registry *service.ControllerRegistry, exports exportService) *TableHandler {
	return &TableHandler{registry: registry, exports: exports}
}

// Students godoc
// @Summary Students table
// @Tags Admin
// @Produce json
// @Param page query int false "Server page"
// @Param size query int false "Server page size"
// @Param sort query string false "Toggle sort on a column"
// @Param sort_by query string false "Sort column"
// @Param sort_dir query string false "asc or desc"
// @Param q query string false "Local search"
// @Param refresh query bool false "Refetch stats and list"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *TableHandler) Students(c *gin.Context) {
	if set, ok := h.pages(c); ok {
		serveTable(c, set.Students)
	}
}

// Courses serves the courses table.
func (h *TableHandler) Courses(c *gin.Context) {
	if set, ok := h.pages(c); ok {
		serveTable(c, set.Courses)
	}
}

// Reports serves the question reports table. It also accepts status.
func (h *TableHandler) Reports(c *gin.Context) {
	if set, ok := h.pages(c); ok {
		serveTable(c, set.Reports)
	}
}

// Interactions serves the bot interactions table.
func (h *TableHandler) Interactions(c *gin.Context) {
	if set, ok := h.pages(c); ok {
		serveTable(c, set.Interactions)
	}
}

// Export godoc
// @Summary Export the visible rows of a table
// @Tags Admin
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/{resource}/export [get]
func (h *TableHandler) Export(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionID(c)
		if !ok {
			return
		}
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
			return
		}
		file, err := h.exports.Export(c.Request.Context(), id, resource, format)
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		c.Data(http.StatusOK, file.ContentType, file.Body)
	}
}

func (h *TableHandler) pages(c *gin.Context) (*service.PageSet, bool) {
	id, ok := sessionID(c)
	if !ok {
		return nil, false
	}
	return h.registry.For(id), true
}

func serveTable[S, R any](c *gin.Context, ctl *service.PageController[S, R]) {
	update, err := parseUpdate(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctl.Apply(update)

	view, err := ctl.Load(c.Request.Context(), c.Query("refresh") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	pagination := &models.Pagination{
		Page:       view.Server.Page,
		PageSize:   view.Server.Size,
		TotalCount: view.Server.Total,
		TotalPages: view.Server.Pages,
	}
	response.JSON(c, http.StatusOK, view, pagination)
}

// maxRawQuery bounds q before sanitizing, which later truncates it to
// sanitize.MaxSearchLength.
const maxRawQuery = 1000

func parseUpdate(c *gin.Context) (service.Update, error) {
	var u service.Update
	fields := map[string]string{}

	if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			fields["page"] = "page must be a number"
		} else {
			u.Page = &page
		}
	}
	if raw, ok := c.GetQuery("size"); ok {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > service.MaxPageSize {
			fields["size"] = fmt.Sprintf("size must be between 1 and %d", service.MaxPageSize)
		} else {
			u.Size = &size
		}
	}
	u.Toggle = c.Query("sort")
	u.SortBy = c.Query("sort_by")
	u.SortDir = c.Query("sort_dir")
	if u.SortDir != "" && u.SortDir != "asc" && u.SortDir != "desc" {
		fields["sort_dir"] = "sort_dir must be asc or desc"
	}
	if q, ok := c.GetQuery("q"); ok {
		if valid, msg := sanitize.ValidateInputLength(q, maxRawQuery, "Search"); !valid {
			fields["q"] = msg
		} else {
			u.Search = &q
		}
	}
	if status, ok := c.GetQuery("status"); ok {
		u.Status = &status
	}

	if len(fields) > 0 {
		return service.Update{}, appErrors.Wrap(service.FieldErrors(fields), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	return u, nil
}
