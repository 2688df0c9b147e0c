package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/content"
	"trade-chat-service/internal/models"
	"trade-chat-service/internal/observability"
	"trade-chat-service/internal/repositories"
	"trade-chat-service/internal/telemetry"
	"trade-chat-service/internal/views"
	"trade-chat-service/internal/ws"
)

// MessageHandler manages message and read-state endpoints.
type MessageHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	readRepo    repositories.ReadRepository
	userClient  clients.UserResolver
	broadcaster ws.Broadcaster
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, readRepo repositories.ReadRepository, userClient clients.UserResolver, broadcaster ws.Broadcaster, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		readRepo:    readRepo,
		userClient:  userClient,
		broadcaster: broadcaster,
		audit:       audit,
	}
}

// PostMessage appends a message and fans the committed result out to live
// subscribers. Broadcast happens strictly after commit.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	senderID := viewerFromContext(c)

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.AppendMessage(c.Request.Context(), roomID, senderID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrInvalidContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message content"})
		case errors.Is(err, repositories.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, repositories.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	observability.IncMessageAppended()
	h.broadcaster.PublishRoomMessage(roomID, msg)
	h.notifyCounterpart(c, roomID, senderID)

	h.audit.Emit(c.Request.Context(), telemetry.ActionMessageAppended, roomID,
		fmt.Sprintf("message=%d sequence=%d", msg.ID, msg.Sequence),
		requestIDFromContext(c), &senderID)

	c.JSON(http.StatusCreated, msg)
}

// notifyCounterpart pushes a room-summary-changed event to the other
// participant's user topic so list views can update badges.
func (h *MessageHandler) notifyCounterpart(c *gin.Context, roomID int64, senderID string) {
	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		return
	}
	counterpartID, err := views.Counterpart(room, senderID)
	if err != nil {
		return
	}

	h.broadcaster.PublishUserSummary(counterpartID, models.SummaryEvent{
		Type:         "room_summary_changed",
		RoomID:       room.ID,
		LastMessage:  views.TruncatePreview(room.LastMessage, views.PreviewLength),
		LastActivity: room.LastActivity,
		UnreadCount:  room.UnreadFor(counterpartID),
	})
}

// ListMessages returns a page of room history in commit order.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	viewerID := viewerFromContext(c)
	if !h.requireParticipant(c, roomID, viewerID) {
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), roomID, offset, limit)
	if err != nil {
		h.writeListError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.withSenderNames(c, msgs)})
}

// SearchMessages returns room messages matching a keyword.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	viewerID := viewerFromContext(c)
	if !h.requireParticipant(c, roomID, viewerID) {
		return
	}

	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing search keyword"})
		return
	}

	msgs, err := h.messageRepo.SearchMessages(c.Request.Context(), roomID, keyword)
	if err != nil {
		h.writeListError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.withSenderNames(c, msgs)})
}

// MarkRead flips the caller's unread messages and resets their counter.
// Idempotent: a second call without new messages flips zero.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	readerID := viewerFromContext(c)

	flipped, err := h.readRepo.MarkRead(c.Request.Context(), roomID, readerID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, repositories.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		}
		return
	}

	if flipped > 0 {
		h.broadcaster.PublishRoomRead(roomID, readerID, flipped)
	}

	c.JSON(http.StatusOK, gin.H{"flipped": flipped})
}

func (h *MessageHandler) requireParticipant(c *gin.Context, roomID int64, viewerID string) bool {
	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return false
	}
	if !room.IsParticipant(viewerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return false
	}
	return true
}

func (h *MessageHandler) writeListError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
}

func (h *MessageHandler) withSenderNames(c *gin.Context, msgs []models.Message) []messageResponse {
	senderIDs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		senderIDs = append(senderIDs, m.SenderID)
	}
	names := displayNames(c.Request.Context(), h.userClient, uniqueStrings(senderIDs))

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderName: names[m.SenderID]})
	}
	return resp
}

type messageResponse struct {
	models.Message
	SenderName string `json:"sender_name,omitempty"`
}
