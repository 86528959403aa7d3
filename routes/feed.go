package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers/feed"
	"github.com/whisky55/rede-social/social"
)

func FeedRoutes(r *gin.Engine, svc *social.Service, auth gin.HandlerFunc) {
	r.GET("/feed", auth, feed.New(svc).GetFeed)
}
