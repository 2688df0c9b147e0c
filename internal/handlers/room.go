package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/models"
	"trade-chat-service/internal/observability"
	"trade-chat-service/internal/repositories"
	"trade-chat-service/internal/telemetry"
	"trade-chat-service/internal/views"
	"trade-chat-service/internal/ws"
)

// RoomHandler manages room endpoints.
type RoomHandler struct {
	roomRepo    repositories.RoomRepository
	readRepo    repositories.ReadRepository
	userClient  clients.UserResolver
	itemClient  clients.ItemResolver
	broadcaster ws.Broadcaster
	audit       *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(roomRepo repositories.RoomRepository, readRepo repositories.ReadRepository, userClient clients.UserResolver, itemClient clients.ItemResolver, broadcaster ws.Broadcaster, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{
		roomRepo:    roomRepo,
		readRepo:    readRepo,
		userClient:  userClient,
		itemClient:  itemClient,
		broadcaster: broadcaster,
		audit:       audit,
	}
}

// StartRoom returns the room for (item, caller-as-buyer, seller), creating
// it when absent.
func (h *RoomHandler) StartRoom(c *gin.Context) {
	var req struct {
		ItemID   string `json:"item_id" binding:"required"`
		SellerID string `json:"seller_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyerID := viewerFromContext(c)

	item, err := h.itemClient.ResolveItem(c.Request.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, clients.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve item"})
		return
	}

	sellerID := req.SellerID
	if sellerID == "" {
		sellerID = item.SellerID
	}
	if sellerID == buyerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a room with yourself"})
		return
	}
	if _, err := h.userClient.ResolveUser(c.Request.Context(), sellerID); err != nil {
		if errors.Is(err, clients.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve seller"})
		return
	}

	room, created, err := h.roomRepo.GetOrCreateRoom(c.Request.Context(), req.ItemID, buyerID, sellerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	if created {
		observability.IncRoomCreated()
		h.audit.Emit(c.Request.Context(), telemetry.ActionRoomCreated, room.ID,
			fmt.Sprintf("item=%s buyer=%s seller=%s", room.ItemID, room.BuyerID, room.SellerID),
			requestIDFromContext(c), &buyerID)
	}

	c.JSON(http.StatusOK, gin.H{"room": room, "created": created})
}

// ListRooms returns the caller's rooms as viewer-relative summaries, most
// recently active first.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	viewerID := viewerFromContext(c)

	rooms, err := h.roomRepo.ListRoomsForUser(c.Request.Context(), viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	counterpartIDs := make([]string, 0, len(rooms))
	for _, room := range rooms {
		id, err := views.Counterpart(room, viewerID)
		if err != nil {
			continue
		}
		counterpartIDs = append(counterpartIDs, id)
	}
	names := displayNames(c.Request.Context(), h.userClient, uniqueStrings(counterpartIDs))

	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		counterpartID, err := views.Counterpart(room, viewerID)
		if err != nil {
			continue
		}
		summary, err := views.Summarize(room, viewerID, names[counterpartID], h.itemTitle(c, room.ItemID))
		if err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"rooms": summaries})
}

// GetRoom returns the detail summary of one room for the caller.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	viewerID := viewerFromContext(c)

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}

	counterpartID, err := views.Counterpart(room, viewerID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	names := displayNames(c.Request.Context(), h.userClient, []string{counterpartID})
	summary, err := views.Summarize(room, viewerID, names[counterpartID], h.itemTitle(c, room.ItemID))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	// The detail view reports the count derived from message rows; the
	// cached room counter only serves the list view.
	if derived, err := h.readRepo.UnreadCount(c.Request.Context(), roomID, viewerID); err == nil {
		summary.UnreadCount = derived
	} else {
		logrus.WithError(err).WithField("room_id", roomID).Warn("derived unread count failed")
	}

	c.JSON(http.StatusOK, summary)
}

// DeleteRoom removes a room and all its messages.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	viewerID := viewerFromContext(c)

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !room.IsParticipant(viewerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	if err := h.roomRepo.DeleteRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete room"})
		return
	}

	h.broadcaster.PublishRoomDeleted(roomID)
	h.audit.Emit(c.Request.Context(), telemetry.ActionRoomDeleted, roomID, "",
		requestIDFromContext(c), &viewerID)

	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) itemTitle(c *gin.Context, itemID string) string {
	item, err := h.itemClient.ResolveItem(c.Request.Context(), itemID)
	if err != nil {
		logrus.WithError(err).WithField("item_id", itemID).Debug("item title resolution failed")
		return ""
	}
	return item.Title
}
