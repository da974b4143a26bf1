package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID uuid.UUID
	// Snapshot, when set, is sent to the client right after it is
	// registered, ahead of any later broadcast. A nil result sends nothing.
	Snapshot func() any
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID uuid.UUID) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
	}
}

// Update is one message for every subscriber of a donation session.
type Update struct {
	SessionID uuid.UUID
	Payload   any
}

type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Update
	// CloseSession disconnects every subscriber of a session.
	CloseSession chan uuid.UUID
	done         chan struct{}
	logger       *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[uuid.UUID]map[*Client]struct{}),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Broadcast:    make(chan Update, 64),
		CloseSession: make(chan uuid.UUID, 16),
		done:         make(chan struct{}),
		logger:       logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id := range h.clients {
				h.dropSession(id)
			}
			return

		case client := <-h.Register:
			subs, ok := h.clients[client.SessionID]
			if !ok {
				subs = make(map[*Client]struct{})
				h.clients[client.SessionID] = subs
			}
			subs[client] = struct{}{}
			h.logger.Debug("WebSocket client registered", "sessionId", client.SessionID)
			h.sendSnapshot(client)

		case client := <-h.Unregister:
			h.remove(client)

		case id := <-h.CloseSession:
			h.dropSession(id)

		case update := <-h.Broadcast:
			subs, ok := h.clients[update.SessionID]
			if !ok {
				continue
			}
			data, err := json.Marshal(update.Payload)
			if err != nil {
				h.logger.Error("Failed to marshal session update", "sessionId", update.SessionID, "error", err)
				continue
			}
			for client := range subs {
				select {
				case client.Send <- data:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) sendSnapshot(client *Client) {
	if client.Snapshot == nil {
		return
	}
	payload := client.Snapshot()
	if payload == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal session snapshot", "sessionId", client.SessionID, "error", err)
		return
	}
	select {
	case client.Send <- data:
	default:
		h.remove(client)
	}
}

// Subscribe registers a client. It reports false once the hub has stopped.
func (h *Hub) Subscribe(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes a client. It returns at once when the hub has stopped.
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	subs, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.Send)
	if len(subs) == 0 {
		delete(h.clients, client.SessionID)
	}
	h.logger.Debug("WebSocket client unregistered", "sessionId", client.SessionID)
}

func (h *Hub) dropSession(id uuid.UUID) {
	for client := range h.clients[id] {
		close(client.Send)
	}
	delete(h.clients, id)
}

// Publish queues an update without blocking the caller; updates are dropped
// when the hub is saturated.
func (h *Hub) Publish(sessionID uuid.UUID, payload any) {
	select {
	case h.Broadcast <- Update{SessionID: sessionID, Payload: payload}:
	default:
		h.logger.Warn("WebSocket hub saturated, update dropped", "sessionId", sessionID)
	}
}

// Disconnect asks the hub to close every subscriber of the session.
func (h *Hub) Disconnect(sessionID uuid.UUID) {
	select {
	case h.CloseSession <- sessionID:
	default:
		h.logger.Warn("WebSocket hub saturated, disconnect dropped", "sessionId", sessionID)
	}
}
