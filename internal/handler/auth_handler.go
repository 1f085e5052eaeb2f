package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-admin-gateway/internal/middleware"
	"github.com/noah-isme/lms-admin-gateway/internal/models"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/response"
)

type authService interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Me(ctx context.Context, session *models.Session) (*models.UserInfo, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Start a dashboard session
// @Description Exchange upstream credentials for a gateway session token
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body models.Credentials true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	creds.IP = c.ClientIP()

	res, err := h.service.Login(c.Request.Context(), creds)
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), session)
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"isAuthenticated": true, "user": user}, nil)
}

// Logout ends the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}
