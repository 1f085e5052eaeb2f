package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/validation"
)

// SettingsResult is a saved settings document with its advisory warnings.
type SettingsResult struct {
	Settings models.Settings `json:"settings"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SettingsService validates and holds admin settings in process memory.
type SettingsService struct {
	api    upstreamAPI
	schema validation.Schema
	logger *zap.Logger

	mu      sync.RWMutex
	current models.Settings
}

// NewSettingsService starts from the default settings.
func NewSettingsService(api upstreamAPI, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		api:     api,
		schema:  mustFormSchema("settings"),
		logger:  logger,
		current: models.DefaultSettings(),
	}
}

// Get returns the current settings.
func (s *SettingsService) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates and stores next.
func (s *SettingsService) Save(ctx context.Context, next models.Settings) (*SettingsResult, error) {
	next.SiteName = strings.TrimSpace(next.SiteName)
	next.SiteDescription = strings.TrimSpace(next.SiteDescription)

	form := validation.NewForm(settingsValues(next), s.schema, validation.WithLogger(s.logger))
	valid, err := form.HandleSubmit(ctx, func(context.Context, validation.Values) error {
		s.mu.Lock()
		s.current = next
		s.mu.Unlock()
		return nil
	})
	if !valid {
		return nil, validationFailed(form.Errors())
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("settings saved", zap.String("site_name", next.SiteName))
	return &SettingsResult{Settings: next, Warnings: settingsWarnings(next)}, nil
}

// Status fetches upstream component health.
func (s *SettingsService) Status(ctx context.Context) (*models.SystemStatus, error) {
	var status models.SystemStatus
	if err := s.api.GetJSON(ctx, upstream.Bearer, "/admin/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func settingsValues(st models.Settings) validation.Values {
	return validation.Values{
		"siteName":             st.SiteName,
		"siteDescription":      st.SiteDescription,
		"botAccuracyThreshold": st.BotAccuracyThreshold,
		"alertThreshold":       st.AlertThreshold,
		"sessionTimeout":       st.SessionTimeout,
		"passwordMinLength":    st.PasswordMinLength,
		"maxLoginAttempts":     st.MaxLoginAttempts,
	}
}

func settingsWarnings(st models.Settings) []string {
	var out []string
	if st.SessionTimeout < 10 {
		out = append(out, "Session timeout is very short. Consider increasing for better security.")
	}
	if st.PasswordMinLength < 8 {
		out = append(out, "Password minimum length is below recommended 8 characters.")
	}
	return out
}
