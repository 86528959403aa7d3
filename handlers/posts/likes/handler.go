package likes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/social"
)

type Service interface {
	ToggleLike(ctx context.Context, postID, userID string) (*social.LikeResult, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary Toggle like on a post
// @Description Add or remove the authenticated user's like. likesCount always equals the size of likes.
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} social.LikeResult
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} utils.Response "code: not_found"
// @Failure 503 {object} utils.Response "code: unavailable"
// @Router /posts/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	result, err := h.svc.ToggleLike(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
