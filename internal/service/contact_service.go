package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
	"github.com/noah-isme/lms-admin-gateway/pkg/validation"
)

// ContactService forwards the public contact form.
type ContactService struct {
	api    upstreamAPI
	schema validation.Schema
	logger *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(api upstreamAPI, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{api: api, schema: mustFormSchema("contact"), logger: logger}
}

// Submit validates msg against the contact form, posts it and returns the
// upstream confirmation text.
func (s *ContactService) Submit(ctx context.Context, msg models.ContactMessage) (*models.ContactSuccess, error) {
	form := validation.NewForm(validation.Values{
		"name":              strings.TrimSpace(msg.Name),
		"email":             strings.TrimSpace(msg.Email),
		"subject":           strings.TrimSpace(msg.Subject),
		"message":           msg.Message,
		"telegram_username": optional(msg.TelegramUsername),
		"whatsapp_number":   optional(msg.WhatsappNumber),
	}, s.schema, validation.WithLogger(s.logger))

	var success models.ContactSuccess
	valid, err := form.HandleSubmit(ctx, func(ctx context.Context, values validation.Values) error {
		payload := models.ContactMessage{
			Name:             sanitize.HTML(values["name"].(string)),
			Email:            values["email"].(string),
			Subject:          sanitize.HTML(values["subject"].(string)),
			Message:          sanitize.HTML(values["message"].(string)),
			TelegramUsername: nonEmpty(values["telegram_username"].(string)),
			WhatsappNumber:   nonEmpty(values["whatsapp_number"].(string)),
		}
		if err := s.api.PostJSON(ctx, upstream.Public, "/contact/", payload, nil); err != nil {
			return err
		}
		return s.api.GetJSON(ctx, upstream.Public, "/contact/success", nil, &success)
	})
	if !valid {
		return nil, validationFailed(form.Errors())
	}
	if err != nil {
		return nil, err
	}
	return &success, nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
