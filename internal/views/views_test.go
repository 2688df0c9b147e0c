package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-chat-service/internal/models"
)

func testRoom() models.Room {
	return models.Room{
		ID:           7,
		ItemID:       "item-1",
		BuyerID:      "buyer-1",
		SellerID:     "seller-1",
		Status:       models.RoomStatusActive,
		LastMessage:  "hello",
		LastActivity: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		BuyerUnread:  2,
		SellerUnread: 5,
	}
}

func TestCounterpart(t *testing.T) {
	room := testRoom()

	counterpart, err := Counterpart(room, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", counterpart)

	counterpart, err = Counterpart(room, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", counterpart)
}

func TestCounterpartRejectsStranger(t *testing.T) {
	_, err := Counterpart(testRoom(), "intruder")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestSummarize(t *testing.T) {
	room := testRoom()

	summary, err := Summarize(room, "seller-1", "Alice", "Used bike")
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.RoomID)
	assert.Equal(t, "buyer-1", summary.CounterpartID)
	assert.Equal(t, "Alice", summary.CounterpartName)
	assert.Equal(t, "Used bike", summary.ItemTitle)
	assert.Equal(t, "hello", summary.LastMessage)
	assert.Equal(t, 5, summary.UnreadCount)
}

func TestSummarizeStrangerFails(t *testing.T) {
	_, err := Summarize(testRoom(), "intruder", "", "")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "short", TruncatePreview("short", 10))
	assert.Equal(t, "exact", TruncatePreview("exact", 5))
	assert.Equal(t, "abc…", TruncatePreview("abcdef", 3))
	assert.Equal(t, "héll…", TruncatePreview("héllo wörld", 4))
	assert.Equal(t, "", TruncatePreview("anything", 0))
}
