package ping

import (
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/utils"
)

// SubscriberCounter expose le nombre d'abonnements temps réel ouverts
type SubscriberCounter interface {
	Subscribers() int
}

type Handler struct {
	hub SubscriberCounter
}

func New(hub SubscriberCounter) *Handler {
	return &Handler{hub: hub}
}

// HandlePing gère la logique de l'endpoint ping
// @Summary Ping test
// @Description Endpoint de test qui répond pong et le nombre d'abonnés temps réel
// @Tags test
// @Produce json
// @Success 200 {object} utils.Response
// @Router /ping [get]
func (h *Handler) HandlePing(c *gin.Context) {
	data := gin.H{"message": "pong"}
	if h.hub != nil {
		data["subscribers"] = h.hub.Subscribers()
	}
	utils.SendSuccess(c, 200, "Ping successful", data)
}
