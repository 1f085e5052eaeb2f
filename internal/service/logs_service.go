package service

import (
	"context"
	"net/url"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
)

// LogsService proxies the upstream log viewer.
type LogsService struct {
	api     upstreamAPI
	enabled bool
}

// NewLogsService constructs the service. A disabled viewer answers not found.
func NewLogsService(api upstreamAPI, enabled bool) *LogsService {
	return &LogsService{api: api, enabled: enabled}
}

// List returns the available log file names.
func (s *LogsService) List(ctx context.Context) ([]string, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "log viewer is disabled")
	}
	files := []string{}
	if err := s.api.GetJSON(ctx, upstream.Bearer, "/logs/", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Read returns the content of one log file. Names changed by path sanitizing
// are rejected before any request is made.
func (s *LogsService) Read(ctx context.Context, name string) (*models.LogFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "log viewer is disabled")
	}
	if err := sanitize.ValidateFileName(name); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log file name")
	}
	content, err := s.api.GetText(ctx, upstream.Bearer, "/logs/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	return &models.LogFile{Name: name, Content: content}, nil
}
