package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/utils"
)

type Service interface {
	EnsureProfile(ctx context.Context, id social.Identity, in models.UserCreate) (*models.User, bool, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.UserUpdate) (*models.User, error)
	GetUserPosts(ctx context.Context, userID, cursor string, limit int) (*social.Page, error)
	ListFollowers(ctx context.Context, userID string) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID string) ([]models.UserSummary, error)
	ToggleFollow(ctx context.Context, followerID, targetID string) (*social.FollowResult, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary Bootstrap the authenticated user's profile
// @Description Create the profile from the token claims if it does not exist yet. Idempotent.
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserCreate false "Optional name and phone"
// @Security BearerAuth
// @Success 201 {object} models.User "profile created"
// @Success 200 {object} models.User "profile already existed"
// @Failure 400 {object} utils.Response "code: validation"
// @Router /users/me [post]
func (h *Handler) CreateProfile(c *gin.Context) {
	var input models.UserCreate
	if c.Request.ContentLength != 0 && !utils.ValidateRequestBody(c, &input) {
		return
	}

	identity := social.Identity{
		UserID: middleware.CurrentUserID(c),
		Name:   c.GetString(middleware.UserNameKey),
		Email:  c.GetString(middleware.UserEmailKey),
	}
	user, created, err := h.svc.EnsureProfile(c.Request.Context(), identity, input)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	h.respondUser(c, middleware.CurrentUserID(c))
}

// @Summary Update the authenticated user's profile
// @Description Only the provided fields are changed. Replacing profileImage cleans up the old image.
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserUpdate true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 400 {object} utils.Response "code: validation"
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input models.UserUpdate
	if !utils.ValidateRequestBody(c, &input) {
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	h.respondUser(c, c.Param("id"))
}

func (h *Handler) respondUser(c *gin.Context, userID string) {
	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary List a user's posts
// @Description Newest first, paginated with an opaque cursor
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Param cursor query string false "Cursor returned by the previous page"
// @Param limit query int false "Page size (max 100)"
// @Security BearerAuth
// @Success 200 {object} social.Page
// @Failure 400 {object} utils.Response "code: validation"
// @Router /users/{id}/posts [get]
func (h *Handler) GetUserPosts(c *gin.Context) {
	limit, ok := handlers.Limit(c)
	if !ok {
		return
	}

	page, err := h.svc.GetUserPosts(c.Request.Context(), c.Param("id"), c.Query("cursor"), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// @Summary List followers
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /users/{id}/followers [get]
func (h *Handler) GetFollowers(c *gin.Context) {
	h.respondSummaries(c, h.svc.ListFollowers)
}

// @Summary List followed users
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} utils.Response "code: not_found"
// @Router /users/{id}/following [get]
func (h *Handler) GetFollowing(c *gin.Context) {
	h.respondSummaries(c, h.svc.ListFollowing)
}

func (h *Handler) respondSummaries(c *gin.Context, list func(context.Context, string) ([]models.UserSummary, error)) {
	users, err := list(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary Toggle follow
// @Description Follow the user if not already followed, unfollow otherwise. Both profiles are updated together.
// @Tags users
// @Produce json
// @Param id path string true "User ID to follow or unfollow"
// @Security BearerAuth
// @Success 200 {object} social.FollowResult
// @Failure 400 {object} utils.Response "code: validation (self-follow)"
// @Failure 404 {object} utils.Response "code: not_found"
// @Failure 503 {object} utils.Response "code: unavailable"
// @Router /users/{id}/follow [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	result, err := h.svc.ToggleFollow(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
