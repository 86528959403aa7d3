package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers/users"
	"github.com/whisky55/rede-social/social"
)

func UsersRoutes(r *gin.Engine, svc *social.Service, auth gin.HandlerFunc) {
	handler := users.New(svc)

	usersRoutes := r.Group("/users")
	usersRoutes.Use(auth)
	{
		usersRoutes.POST("/me", handler.CreateProfile)
		usersRoutes.GET("/me", handler.GetMe)
		usersRoutes.PUT("/me", handler.UpdateMe)

		usersRoutes.GET("/:id", handler.GetUserByID)
		usersRoutes.GET("/:id/posts", handler.GetUserPosts)
		usersRoutes.GET("/:id/followers", handler.GetFollowers)
		usersRoutes.GET("/:id/following", handler.GetFollowing)
		usersRoutes.POST("/:id/follow", handler.ToggleFollow)
	}
}
