package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Subscriber interface {
	Subscribe(f realtime.Filter) *realtime.Subscription
}

type Handler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

// New accepte toutes les origines quand allowedOrigins est vide ou contient "*"
func New(hub Subscriber, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// FilterFromQuery lit author, post, user et types (séparés par des virgules)
func FilterFromQuery(c *gin.Context) realtime.Filter {
	f := realtime.Filter{
		AuthorID: c.Query("author"),
		PostID:   c.Query("post"),
		UserID:   c.Query("user"),
	}
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			f.Types = append(f.Types, realtime.EventType(t))
		}
	}
	return f
}

// @Summary Subscribe to change events
// @Description Websocket stream of post.created, post.updated, post.deleted and user.updated events. The token may be passed as access_token.
// @Tags realtime
// @Param author query string false "Only posts of this author"
// @Param post query string false "Only this post"
// @Param user query string false "Only this user profile"
// @Param types query string false "Comma separated event types"
// @Param access_token query string false "JWT when the Authorization header cannot be set"
// @Security BearerAuth
// @Success 101 {object} realtime.Event
// @Router /ws [get]
func (h *Handler) Subscribe(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error while upgrading connection")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(FilterFromQuery(c))
	defer sub.Close()
	utils.LogSuccessWithUser(userID, "Realtime subscription opened")

	done := make(chan struct{})
	go readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				closeWith(conn, sub.Err())
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				utils.LogErrorWithUser(userID, err, "Error writing realtime event")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			utils.LogInfo("Realtime subscription closed by client " + userID)
			return
		}
	}
}

// readLoop consomme les messages du client (pong, close) et signale la déconnexion
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// closeWith informe le client de la raison de la fermeture côté serveur
func closeWith(conn *websocket.Conn, err error) {
	code, reason := websocket.CloseNormalClosure, ""
	switch {
	case errors.Is(err, realtime.ErrSlowConsumer):
		code, reason = websocket.CloseTryAgainLater, err.Error()
	case errors.Is(err, realtime.ErrHubClosed):
		code, reason = websocket.CloseGoingAway, err.Error()
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
