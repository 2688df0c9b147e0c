package models

import "time"

// Message is a chat message inside a room. Sequence is the authoritative
// per-room order; SentAt is kept for display only.
type Message struct {
	ID       int64     `db:"id" json:"id"`
	RoomID   int64     `db:"room_id" json:"room_id"`
	SenderID string    `db:"sender_id" json:"sender_id"`
	Content  string    `db:"content" json:"content"`
	Sequence int64     `db:"sequence" json:"sequence"`
	IsRead   bool      `db:"is_read" json:"is_read"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}

// RoomEvent is broadcast on a room topic over websockets.
type RoomEvent struct {
	Type     string   `json:"type"`
	Message  *Message `json:"message,omitempty"`
	ReaderID string   `json:"reader_id,omitempty"`
	Flipped  int64    `json:"flipped,omitempty"`
}

// SummaryEvent is broadcast on a user topic when one of their rooms changes.
type SummaryEvent struct {
	Type         string    `json:"type"`
	RoomID       int64     `json:"room_id"`
	LastMessage  string    `json:"last_message,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	UnreadCount  int       `json:"unread_count"`
}
