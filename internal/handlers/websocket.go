package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"conecta-ongs/internal/service"
	ws "conecta-ongs/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	// origins are enforced by the CORS layer
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	svc    service.DonationService
	hub    *ws.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(svc service.DonationService, hub *ws.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{svc: svc, hub: hub, logger: logger}
}

// ServeWs streams every view of one donation session, starting with the
// current one. The hub takes the snapshot once the client is registered,
// so no transition falls between the two.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if _, err := h.svc.View(id); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", "sessionId", id.String(), "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, id)
	client.Snapshot = func() any {
		view, err := h.svc.View(id)
		if err != nil {
			return nil
		}
		return view
	}
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; actions arrive over HTTP.
func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		client.Hub.Unsubscribe(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("readPump error", "sessionId", client.SessionID.String(), "error", err)
			}
			return
		}
	}
}
