package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-admin-gateway/internal/middleware"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/response"
)

// fail writes err, surfacing per-field validation messages in meta.fields.
func fail(c *gin.Context, err error) {
	if fields, ok := service.AsFieldErrors(err); ok {
		response.Error(c, err, map[string]interface{}{"fields": fields})
		return
	}
	response.Error(c, err)
}

func sessionID(c *gin.Context) (string, bool) {
	session := middleware.CurrentSession(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return session.ID, true
}
