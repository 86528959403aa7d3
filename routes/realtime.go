package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/handlers/ws"
	"github.com/whisky55/rede-social/realtime"
)

func RealtimeRoutes(r *gin.Engine, hub *realtime.Hub, origins []string, auth gin.HandlerFunc) {
	r.GET("/ws", auth, ws.New(hub, origins).Subscribe)
}
