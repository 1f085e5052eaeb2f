package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

// ReportService moderates question reports.
type ReportService struct {
	api       upstreamAPI
	registry  *ControllerRegistry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(api upstreamAPI, registry *ControllerRegistry, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ReportService{api: api, registry: registry, validator: validate, logger: logger}
}

// UpdateStatus marks report id resolved or dismissed and invalidates the
// session's reports page so its next load refetches.
func (s *ReportService) UpdateStatus(ctx context.Context, sessionID string, id int, status string) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "report id must be positive")
	}
	req := models.UpdateReportStatusRequest{Status: status}
	if err := s.validator.Struct(req); err != nil {
		return validationFailed(structErrors(err))
	}
	if err := s.api.PutJSON(ctx, upstream.Bearer, fmt.Sprintf("/admin/reports/%d", id), req, nil); err != nil {
		return err
	}
	s.registry.For(sessionID).Reports.Invalidate()
	s.logger.Info("report status updated", zap.Int("report_id", id), zap.String("status", status))
	return nil
}
