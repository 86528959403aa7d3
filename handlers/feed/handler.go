package feed

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/social"
)

type Service interface {
	GetFeed(ctx context.Context, viewerID string, scope social.FeedScope, cursor string, limit int) (*social.Page, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary Get the feed
// @Description Posts newest first (ties broken by id). scope=following keeps the authors the user follows plus their own posts.
// @Tags feed
// @Produce json
// @Param scope query string false "all (default) or following"
// @Param cursor query string false "Cursor returned by the previous page"
// @Param limit query int false "Page size (max 100)"
// @Security BearerAuth
// @Success 200 {object} social.Page
// @Failure 400 {object} utils.Response "code: validation"
// @Failure 503 {object} utils.Response "code: unavailable"
// @Router /feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	limit, ok := handlers.Limit(c)
	if !ok {
		return
	}

	scope := social.FeedScope(c.DefaultQuery("scope", string(social.ScopeAll)))
	page, err := h.svc.GetFeed(c.Request.Context(), middleware.CurrentUserID(c), scope, c.Query("cursor"), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
