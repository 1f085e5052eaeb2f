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

type publicService interface {
	Stats(ctx context.Context) (*models.PublicStats, bool, error)
	RecentActivity(ctx context.Context) ([]models.PublicRecentActivity, bool, error)
}

type contactService interface {
	Submit(ctx context.Context, msg models.ContactMessage) (*models.ContactSuccess, error)
}

// PublicHandler serves unauthenticated endpoints.
type PublicHandler struct {
	public  publicService
	contact contactService
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(public publicService, contact contactService) *PublicHandler {
	return &PublicHandler{public: public, contact: contact}
}

// Stats godoc
// @Summary Landing page totals
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/stats [get]
func (h *PublicHandler) Stats(c *gin.Context) {
	stats, hit, err := h.public.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// RecentActivity returns the most active courses.
func (h *PublicHandler) RecentActivity(c *gin.Context) {
	items, hit, err := h.public.RecentActivity(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Contact godoc
// @Summary Send a contact message
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body models.ContactMessage true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *PublicHandler) Contact(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}
	res, err := h.contact.Submit(c.Request.Context(), msg)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, res)
}
