package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/observability"
)

// UserWebSocketHandler serves the per-user topic carrying room-summary
// notifications for list-view badges.
type UserWebSocketHandler struct {
	hub        *Hub
	userClient clients.UserResolver
}

// NewUserWebSocketHandler constructs a UserWebSocketHandler.
func NewUserWebSocketHandler(hub *Hub, userClient clients.UserResolver) *UserWebSocketHandler {
	return &UserWebSocketHandler{hub: hub, userClient: userClient}
}

// Handle upgrades the connection and subscribes it to the caller's topic.
func (h *UserWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("trade-chat-service/ws").Start(c.Request.Context(), "ws.user.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := resolveIdentity(c, h.userClient)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := newConnInfo(c.Request, userID, span.SpanContext().TraceID().String())
	client := h.hub.AddUserClient(userID, conn, info)

	observability.IncWSActive("user")
	publishLifecycleEvent(ctx, "user", userID, "ws_connect", info, "")

	// Lifecycle events outlive the handler's request context.
	lifecycleCtx := context.WithoutCancel(ctx)
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveUserClient(userID, client)
			observability.DecWSActive("user")
			publishLifecycleEvent(lifecycleCtx, "user", userID, "ws_disconnect", info, closeReason)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					publishLifecycleEvent(lifecycleCtx, "user", userID, "ws_error", info, closeReason)
				}
				return
			}
		}
	}()
}
