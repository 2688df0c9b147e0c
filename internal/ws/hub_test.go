package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-chat-service/internal/models"
)

// dialPair upgrades one server-side connection registered to the hub and
// returns the matching client-side connection for reading.
func dialPair(t *testing.T, register func(conn *websocket.Conn)) *websocket.Conn {
	t.Helper()

	upgraded := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		register(conn)
		close(upgraded)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	select {
	case <-upgraded:
	case <-time.After(time.Second):
		t.Fatal("handshake did not complete")
	}
	return clientConn
}

func TestHubAddAndRemoveRoomClient(t *testing.T) {
	hub := NewHub()

	var client *Client
	dialPair(t, func(conn *websocket.Conn) {
		client = hub.AddRoomClient(1, conn, ConnInfo{ConnID: "c1", UserID: "buyer-1"})
	})

	assert.Equal(t, 1, hub.RoomSubscribers(1))
	hub.RemoveRoomClient(1, client)
	assert.Equal(t, 0, hub.RoomSubscribers(1))
}

func TestHubAddAndRemoveUserClient(t *testing.T) {
	hub := NewHub()

	var client *Client
	dialPair(t, func(conn *websocket.Conn) {
		client = hub.AddUserClient("buyer-1", conn, ConnInfo{ConnID: "c1", UserID: "buyer-1"})
	})

	assert.Equal(t, 1, hub.UserSubscribers("buyer-1"))
	hub.RemoveUserClient("buyer-1", client)
	assert.Equal(t, 0, hub.UserSubscribers("buyer-1"))
}

func TestPublishRoomMessageReachesSubscriberInOrder(t *testing.T) {
	hub := NewHub()

	clientConn := dialPair(t, func(conn *websocket.Conn) {
		hub.AddRoomClient(1, conn, ConnInfo{ConnID: "c1", UserID: "seller-1"})
	})

	for i := int64(1); i <= 5; i++ {
		hub.PublishRoomMessage(1, models.Message{ID: i, RoomID: 1, SenderID: "buyer-1", Sequence: i})
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := int64(1); i <= 5; i++ {
		_, payload, err := clientConn.ReadMessage()
		require.NoError(t, err)

		var event models.RoomEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "message", event.Type)
		require.NotNil(t, event.Message)
		assert.Equal(t, i, event.Message.Sequence)
	}
}

func TestPublishUserSummaryTargetsOneUser(t *testing.T) {
	hub := NewHub()

	buyerConn := dialPair(t, func(conn *websocket.Conn) {
		hub.AddUserClient("buyer-1", conn, ConnInfo{ConnID: "c1", UserID: "buyer-1"})
	})
	sellerConn := dialPair(t, func(conn *websocket.Conn) {
		hub.AddUserClient("seller-1", conn, ConnInfo{ConnID: "c2", UserID: "seller-1"})
	})

	hub.PublishUserSummary("seller-1", models.SummaryEvent{Type: "room_summary_changed", RoomID: 1, UnreadCount: 1})

	sellerConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := sellerConn.ReadMessage()
	require.NoError(t, err)

	var event models.SummaryEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, int64(1), event.RoomID)
	assert.Equal(t, 1, event.UnreadCount)

	buyerConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = buyerConn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishToEmptyTopicIsNoop(t *testing.T) {
	hub := NewHub()
	hub.PublishRoomMessage(99, models.Message{ID: 1, RoomID: 99})
	hub.PublishUserSummary("nobody", models.SummaryEvent{Type: "room_summary_changed"})
}
