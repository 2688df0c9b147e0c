// Package views assembles viewer-relative room summaries. Everything here is
// pure: no storage access, no side effects.
package views

import (
	"errors"

	"trade-chat-service/internal/models"
)

var ErrNotParticipant = errors.New("viewer is not a room participant")

// PreviewLength caps the last-message preview in room summaries.
const PreviewLength = 60

// Counterpart returns the other participant relative to the viewer: the
// seller when the viewer is the buyer and vice versa. A viewer who is
// neither participant is an error, never a silent fallback.
func Counterpart(room models.Room, viewerID string) (string, error) {
	switch viewerID {
	case room.BuyerID:
		return room.SellerID, nil
	case room.SellerID:
		return room.BuyerID, nil
	default:
		return "", ErrNotParticipant
	}
}

// Summarize builds the outward-facing summary of a room for the viewer.
// Counterpart name and item title are resolved by the caller.
func Summarize(room models.Room, viewerID, counterpartName, itemTitle string) (models.RoomSummary, error) {
	counterpartID, err := Counterpart(room, viewerID)
	if err != nil {
		return models.RoomSummary{}, err
	}

	return models.RoomSummary{
		RoomID:          room.ID,
		ItemID:          room.ItemID,
		ItemTitle:       itemTitle,
		CounterpartID:   counterpartID,
		CounterpartName: counterpartName,
		LastMessage:     TruncatePreview(room.LastMessage, PreviewLength),
		LastActivity:    room.LastActivity,
		UnreadCount:     room.UnreadFor(viewerID),
		Status:          room.Status,
	}, nil
}

// TruncatePreview cuts text to max runes and appends an ellipsis. Stored
// content is never mutated.
func TruncatePreview(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
