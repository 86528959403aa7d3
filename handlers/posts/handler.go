package posts

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/utils"
)

type Service interface {
	CreatePost(ctx context.Context, ownerID string, in models.PostCreate) (*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, postID, requesterID string) error
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary Create a new post
// @Description Create a post for the authenticated user. Exactly one of imageUrl or imageData is required.
// @Tags posts
// @Accept json
// @Produce json
// @Param post body models.PostCreate true "Post information"
// @Security BearerAuth
// @Success 201 {object} models.Post
// @Failure 400 {object} utils.Response "code: validation"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} utils.Response "code: not_found (profile not bootstrapped)"
// @Failure 503 {object} utils.Response "code: unavailable"
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var input models.PostCreate
	if !utils.ValidateRequestBody(c, &input) {
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// @Summary Get a post by ID
// @Description Retrieve a post by its ID
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} models.Post
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /posts/{id} [get]
func (h *Handler) GetPostByID(c *gin.Context) {
	post, err := h.svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Delete a post
// @Description Delete a post owned by the authenticated user
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Post deleted successfully"
// @Failure 403 {object} utils.Response "code: permission"
// @Failure 404 {object} utils.Response "code: not_found"
// @Failure 503 {object} utils.Response "code: unavailable"
// @Router /posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.svc.DeletePost(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
