package ws

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trade-chat-service/internal/models"
	"trade-chat-service/internal/observability"
)

// Broadcaster fans committed events out to live subscribers. Delivery is
// at-most-once: disconnected or saturated clients miss events and reconcile
// through message history.
type Broadcaster interface {
	PublishRoomMessage(roomID int64, msg models.Message)
	PublishRoomRead(roomID int64, readerID string, flipped int64)
	PublishRoomDeleted(roomID int64)
	PublishUserSummary(userID string, event models.SummaryEvent)
}

const sendBufferSize = 32

// Client is one websocket subscription. Writes go through a buffered channel
// drained by a single writer goroutine, so events published concurrently
// reach the socket in publish order.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	info ConnInfo
	once sync.Once
}

func newClient(conn *websocket.Conn, info ConnInfo) *Client {
	c := &Client{conn: conn, send: make(chan []byte, sendBufferSize), info: info}
	go c.writePump()
	return c
}

func (c *Client) writePump() {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.Debugf("websocket write error: %v", err)
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub maintains the live topics: one per room, one per user.
type Hub struct {
	roomTopics map[int64]map[*Client]struct{}
	userTopics map[string]map[*Client]struct{}
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		roomTopics: make(map[int64]map[*Client]struct{}),
		userTopics: make(map[string]map[*Client]struct{}),
	}
}

// AddRoomClient subscribes a connection to a room topic.
func (h *Hub) AddRoomClient(roomID int64, conn *websocket.Conn, info ConnInfo) *Client {
	client := newClient(conn, info)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.roomTopics[roomID]; !ok {
		h.roomTopics[roomID] = make(map[*Client]struct{})
	}
	h.roomTopics[roomID][client] = struct{}{}
	return client
}

// RemoveRoomClient drops a room subscription and stops its writer.
func (h *Hub) RemoveRoomClient(roomID int64, client *Client) {
	h.mu.Lock()
	if clients, ok := h.roomTopics[roomID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomTopics, roomID)
		}
	}
	h.mu.Unlock()
	client.close()
}

// AddUserClient subscribes a connection to a user topic.
func (h *Hub) AddUserClient(userID string, conn *websocket.Conn, info ConnInfo) *Client {
	client := newClient(conn, info)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userTopics[userID]; !ok {
		h.userTopics[userID] = make(map[*Client]struct{})
	}
	h.userTopics[userID][client] = struct{}{}
	return client
}

// RemoveUserClient drops a user subscription and stops its writer.
func (h *Hub) RemoveUserClient(userID string, client *Client) {
	h.mu.Lock()
	if clients, ok := h.userTopics[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userTopics, userID)
		}
	}
	h.mu.Unlock()
	client.close()
}

// PublishRoomMessage sends a committed message to the room's subscribers.
func (h *Hub) PublishRoomMessage(roomID int64, msg models.Message) {
	h.publishRoom(roomID, models.RoomEvent{Type: "message", Message: &msg})
}

// PublishRoomRead notifies the room that a participant caught up.
func (h *Hub) PublishRoomRead(roomID int64, readerID string, flipped int64) {
	h.publishRoom(roomID, models.RoomEvent{Type: "read", ReaderID: readerID, Flipped: flipped})
}

// PublishRoomDeleted notifies subscribers that the room is gone.
func (h *Hub) PublishRoomDeleted(roomID int64) {
	h.publishRoom(roomID, models.RoomEvent{Type: "room_deleted"})
}

// PublishUserSummary pushes a room-summary change to one user's subscribers.
func (h *Hub) PublishUserSummary(userID string, event models.SummaryEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.Warnf("marshal summary event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.userTopics[userID] {
		h.offer(client, payload, "user")
	}
}

func (h *Hub) publishRoom(roomID int64, event models.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.Warnf("marshal room event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.roomTopics[roomID] {
		h.offer(client, payload, "room")
	}
}

// offer never blocks; a full buffer means the subscriber is too slow and the
// event is dropped.
func (h *Hub) offer(client *Client, payload []byte, topic string) {
	select {
	case client.send <- payload:
	default:
		observability.IncWSDropped(topic)
	}
}

// RoomSubscribers reports the current subscriber count of a room topic.
func (h *Hub) RoomSubscribers(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomTopics[roomID])
}

// UserSubscribers reports the current subscriber count of a user topic.
func (h *Hub) UserSubscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userTopics[userID])
}

func publishLifecycleEvent(ctx context.Context, topic string, resource string, event string, info ConnInfo, reason string) {
	observability.IncWSEvent(topic, event)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"topic":       topic,
			"resource_id": resource,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events."+topic+"s",
		observability.NewEventEnvelope("ws_events", event, payload), headers)
}

func roomResource(roomID int64) string {
	return strconv.FormatInt(roomID, 10)
}
