package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/export"
)

// ExportFile is a rendered table export.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// ExportService renders the current view rows of a session's table.
type ExportService struct {
	registry *ControllerRegistry
	enabled  bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service.
func NewExportService(registry *ControllerRegistry, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{registry: registry, enabled: enabled, logger: logger, now: time.Now}
}

// Export loads the resource page if needed and renders its visible rows.
func (s *ExportService) Export(ctx context.Context, sessionID, resource string, format export.Format) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled")
	}
	set := s.registry.For(sessionID)

	var (
		data export.Dataset
		err  error
	)
	switch resource {
	case ResourceStudents:
		data, err = exportRows(ctx, set.Students, "Students")
	case ResourceCourses:
		data, err = exportRows(ctx, set.Courses, "Courses")
	case ResourceReports:
		data, err = exportRows(ctx, set.Reports, "Question Reports")
	case ResourceInteractions:
		data, err = exportRows(ctx, set.Interactions, "Bot Interactions")
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown resource "+resource)
	}
	if err != nil {
		return nil, err
	}

	at := s.now()
	data.GeneratedAt = at
	body, err := export.Render(format, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("table exported", zap.String("resource", resource), zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Name: export.FileName(resource, format, at), ContentType: format.ContentType(), Body: body}, nil
}

func exportRows[S, R any](ctx context.Context, c *PageController[S, R], title string) (export.Dataset, error) {
	view, err := c.Load(ctx, false)
	if err != nil {
		return export.Dataset{}, err
	}
	if view.ListError != "" {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrUpstream, view.ListError)
	}
	return export.FromRows(title, c.Resource().Fields, view.Table.Rows), nil
}
