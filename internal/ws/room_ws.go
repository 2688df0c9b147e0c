package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/observability"
	"trade-chat-service/internal/repositories"
)

// RoomWebSocketHandler serves the per-room live topic.
type RoomWebSocketHandler struct {
	hub        *Hub
	roomRepo   repositories.RoomRepository
	userClient clients.UserResolver
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, roomRepo repositories.RoomRepository, userClient clients.UserResolver) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, roomRepo: roomRepo, userClient: userClient}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and subscribes it to the room topic.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("trade-chat-service/ws").Start(c.Request.Context(), "ws.room.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := resolveIdentity(c, h.userClient)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	room, err := h.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !room.IsParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := newConnInfo(c.Request, userID, span.SpanContext().TraceID().String())
	client := h.hub.AddRoomClient(roomID, conn, info)

	observability.IncWSActive("room")
	publishLifecycleEvent(ctx, "room", roomResource(roomID), "ws_connect", info, "")

	// The request context is canceled once this handler returns; lifecycle
	// events for the connection's lifetime need to outlive it.
	go h.readLoop(context.WithoutCancel(ctx), roomID, conn, client, info)
}

// readLoop keeps the connection alive and cleans up on close. Inbound sends
// go through the HTTP endpoint; frames received here are discarded.
func (h *RoomWebSocketHandler) readLoop(ctx context.Context, roomID int64, conn *websocket.Conn, client *Client, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveRoomClient(roomID, client)
		observability.DecWSActive("room")
		publishLifecycleEvent(ctx, "room", roomResource(roomID), "ws_disconnect", info, closeReason)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycleEvent(ctx, "room", roomResource(roomID), "ws_error", info, closeReason)
			}
			return
		}
	}
}

func resolveIdentity(c *gin.Context, users clients.UserResolver) (string, error) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		return "", errors.New("missing user id")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if _, err := users.ResolveUser(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}
