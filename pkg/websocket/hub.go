package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"carpool/pkg/logger"
)

const UserRoomPrefix = "user_"

type HubMetrics interface {
	SetWebsocketClients(n int)
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logger.Logger
	metrics    HubMetrics
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub(log *logger.Logger, m HubMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
		metrics:    m,
	}
}

// Run serves register and unregister requests until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.removeLocked(client)
			h.mutex.Unlock()

		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				h.removeLocked(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Register hands a client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, UserRoom(client.UserID))
	h.reportClients()

	h.log.WithUserID(client.UserID).Debug("websocket client registered")

	h.sendLocked(client, Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: getCurrentTimestamp(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
		},
	})
}

// removeLocked drops a client from the hub. Safe to call twice.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.reportClients()

	h.log.WithUserID(client.UserID).Debug("websocket client unregistered")
}

// sendLocked queues data for a client. A client whose buffer is full is
// dropped rather than blocking the hub.
func (h *Hub) sendLocked(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal websocket message")
		return
	}
	h.deliverLocked(client, data)
}

func (h *Hub) deliverLocked(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.WithUserID(client.UserID).Warn("websocket client too slow, dropping")
		h.removeLocked(client)
	}
}

func (h *Hub) SendToRoom(roomID string, message Message) {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal websocket message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.rooms[roomID] {
		h.deliverLocked(client, data)
	}
}

func (h *Hub) SendToUser(userID string, message Message) {
	if userID == "" {
		return
	}
	h.SendToRoom(UserRoom(userID), message)
}

// NotifyReservationChanged tells each user that a reservation changed so
// their client can re-fetch it.
func (h *Hub) NotifyReservationChanged(userIDs []string, reservationID, displayStatus string) {
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true

		h.SendToUser(userID, Message{
			Type:   "reservation.changed",
			UserID: userID,
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"display_status": displayStatus,
			},
		})
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) reportClients() {
	if h.metrics != nil {
		h.metrics.SetWebsocketClients(len(h.clients))
	}
}

func UserRoom(userID string) string {
	return UserRoomPrefix + userID
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
