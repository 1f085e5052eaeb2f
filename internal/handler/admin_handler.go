package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/response"
)

type dashboardService interface {
	Load(ctx context.Context) (service.DashboardView, error)
}

type reportService interface {
	UpdateStatus(ctx context.Context, sessionID string, id int, status string) error
}

type logsService interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (*models.LogFile, error)
}

type settingsService interface {
	Get() models.Settings
	Save(ctx context.Context, next models.Settings) (*service.SettingsResult, error)
	Status(ctx context.Context) (*models.SystemStatus, error)
}

// AdminHandler serves the admin pages that are not tables.
type AdminHandler struct {
	dashboard dashboardService
	reports   reportService
	logs      logsService
	settings  settingsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(dashboard dashboardService, reports reportService, logs logsService, settings settingsService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, reports: reports, logs: logs, settings: settings}
}

// Dashboard godoc
// @Summary Admin dashboard
// @Description Stats cards and recent activity; each panel reports its own failure
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	view, err := h.dashboard.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateReport godoc
// @Summary Resolve or dismiss a question report
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param payload body models.UpdateReportStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/{id} [put]
func (h *AdminHandler) UpdateReport(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "report id must be a number"))
		return
	}
	var req models.UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	if err := h.reports.UpdateStatus(c.Request.Context(), id, reportID, req.Status); err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": reportID, "status": req.Status}, nil)
}

// Logs lists the upstream log files.
func (h *AdminHandler) Logs(c *gin.Context) {
	files, err := h.logs.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// LogFile returns one log file. format=text streams it as plain text.
func (h *AdminHandler) LogFile(c *gin.Context) {
	file, err := h.logs.Read(c.Request.Context(), c.Param("file"))
	if err != nil {
		fail(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.Header("Cache-Control", "no-store")
		c.String(http.StatusOK, file.Content)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// Settings returns the saved settings and upstream system status. A status
// failure is reported inline.
func (h *AdminHandler) Settings(c *gin.Context) {
	body := gin.H{"settings": h.settings.Get()}
	status, err := h.settings.Status(c.Request.Context())
	if err != nil {
		body["status_error"] = "Failed to load system status: " + appErrors.Message(err)
	} else {
		body["system_status"] = status
	}
	response.JSON(c, http.StatusOK, body, nil)
}

// SaveSettings validates and stores settings.
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	var next models.Settings
	if err := c.ShouldBindJSON(&next); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	res, err := h.settings.Save(c.Request.Context(), next)
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
