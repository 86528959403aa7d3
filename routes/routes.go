package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/whisky55/rede-social/handlers/ping"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/utils"
)

// Deps regroupe ce dont les routes ont besoin
type Deps struct {
	Service     *social.Service
	Hub         *realtime.Hub
	JWTSecret   string
	CORSOrigins []string
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(utils.LogWriter()), gin.Recovery())

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"} // Pour autoriser toutes les origines en dev
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/ping", ping.New(deps.Hub).HandlePing)

	auth := middleware.JWTAuth(deps.JWTSecret)
	UsersRoutes(r, deps.Service, auth)
	PostsRoutes(r, deps.Service, auth)
	FeedRoutes(r, deps.Service, auth)
	RealtimeRoutes(r, deps.Hub, deps.CORSOrigins, auth)

	return r
}

// gin-contrib/cors refuse "*" avec AllowCredentials
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
