package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers/posts"
	"github.com/whisky55/rede-social/handlers/posts/likes"
	"github.com/whisky55/rede-social/social"
)

func PostsRoutes(r *gin.Engine, svc *social.Service, auth gin.HandlerFunc) {
	postHandler := posts.New(svc)
	likeHandler := likes.New(svc)

	postsRoutes := r.Group("/posts")
	postsRoutes.Use(auth)
	{
		postsRoutes.POST("", postHandler.CreatePost)
		postsRoutes.GET("/:id", postHandler.GetPostByID)
		postsRoutes.DELETE("/:id", postHandler.DeletePost)

		// Routes des interactions
		postsRoutes.POST("/:id/like", likeHandler.ToggleLike)
	}
}
