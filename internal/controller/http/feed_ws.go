package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const feedWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect with the JWT in the query string, so the
	// usual origin check does not apply here; auth already ran.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /api/feed/ws?professorId=&subject= upgrades to a websocket and
// streams the filtered snapshot on every change until the client
// disconnects.
func (h *Handlers) FeedWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Feed websocket upgrade failed", zap.Error(err))
		return
	}

	sub, err := h.watcher.Subscribe(c.Request.Context(), c.Query("professorId"), c.Query("subject"))
	if err != nil {
		h.logger.Error("Feed subscription failed", zap.Error(err))
		conn.Close()
		return
	}

	// Read pump: we expect no client messages, but reading is the only
	// way to notice the peer going away.
	go func() {
		defer sub.Cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for snapshot := range sub.C {
		conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteJSON(snapshot); err != nil {
			sub.Cancel()
			// Drain so the watcher never sees a stuck subscriber.
			for range sub.C {
			}
			return
		}
	}
}
