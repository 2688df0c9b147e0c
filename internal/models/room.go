package models

import "time"

// RoomStatusActive is the only room lifecycle state currently in use.
const RoomStatusActive = "active"

// Room is a persistent conversation between the buyer and seller of an item.
type Room struct {
	ID           int64     `db:"id" json:"id"`
	ItemID       string    `db:"item_id" json:"item_id"`
	BuyerID      string    `db:"buyer_id" json:"buyer_id"`
	SellerID     string    `db:"seller_id" json:"seller_id"`
	Status       string    `db:"status" json:"status"`
	LastMessage  string    `db:"last_message" json:"last_message"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	BuyerUnread  int       `db:"buyer_unread" json:"-"`
	SellerUnread int       `db:"seller_unread" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsParticipant reports whether the user is the room's buyer or seller.
func (r Room) IsParticipant(userID string) bool {
	return r.BuyerID == userID || r.SellerID == userID
}

// UnreadFor returns the cached unread counter for the given viewer.
func (r Room) UnreadFor(viewerID string) int {
	if viewerID == r.BuyerID {
		return r.BuyerUnread
	}
	if viewerID == r.SellerID {
		return r.SellerUnread
	}
	return 0
}

// RoomSummary is the viewer-relative view of a room for list and detail endpoints.
type RoomSummary struct {
	RoomID          int64     `json:"room_id"`
	ItemID          string    `json:"item_id"`
	ItemTitle       string    `json:"item_title,omitempty"`
	CounterpartID   string    `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name,omitempty"`
	LastMessage     string    `json:"last_message"`
	LastActivity    time.Time `json:"last_activity"`
	UnreadCount     int       `json:"unread_count"`
	Status          string    `json:"status"`
}
