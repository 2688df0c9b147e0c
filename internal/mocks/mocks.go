package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/models"
	"trade-chat-service/internal/repositories"
	"trade-chat-service/internal/ws"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) GetOrCreateRoom(ctx context.Context, itemID, buyerID, sellerID string) (models.Room, bool, error) {
	args := m.Called(ctx, itemID, buyerID, sellerID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Bool(1), args.Error(2)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int64) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) DeleteRoom(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, roomID int64, senderID, rawContent string) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, rawContent)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, roomID int64, offset, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, offset, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) SearchMessages(ctx context.Context, roomID int64, keyword string) ([]models.Message, error) {
	args := m.Called(ctx, roomID, keyword)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ReadRepositoryMock struct {
	mock.Mock
}

func (m *ReadRepositoryMock) MarkRead(ctx context.Context, roomID int64, readerID string) (int64, error) {
	args := m.Called(ctx, roomID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReadRepositoryMock) UnreadCount(ctx context.Context, roomID int64, viewerID string) (int, error) {
	args := m.Called(ctx, roomID, viewerID)
	return args.Int(0), args.Error(1)
}

type UserResolverMock struct {
	mock.Mock
}

func (m *UserResolverMock) ResolveUser(ctx context.Context, userID string) (clients.User, error) {
	args := m.Called(ctx, userID)
	var user clients.User
	if val := args.Get(0); val != nil {
		user = val.(clients.User)
	}
	return user, args.Error(1)
}

func (m *UserResolverMock) BulkUsers(ctx context.Context, userIDs []string) (map[string]clients.User, error) {
	args := m.Called(ctx, userIDs)
	var users map[string]clients.User
	if val := args.Get(0); val != nil {
		users = val.(map[string]clients.User)
	}
	return users, args.Error(1)
}

type ItemResolverMock struct {
	mock.Mock
}

func (m *ItemResolverMock) ResolveItem(ctx context.Context, itemID string) (clients.Item, error) {
	args := m.Called(ctx, itemID)
	var item clients.Item
	if val := args.Get(0); val != nil {
		item = val.(clients.Item)
	}
	return item, args.Error(1)
}

// BroadcasterMock records published events for assertions.
type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) PublishRoomMessage(roomID int64, msg models.Message) {
	m.Called(roomID, msg)
}

func (m *BroadcasterMock) PublishRoomRead(roomID int64, readerID string, flipped int64) {
	m.Called(roomID, readerID, flipped)
}

func (m *BroadcasterMock) PublishRoomDeleted(roomID int64) {
	m.Called(roomID)
}

func (m *BroadcasterMock) PublishUserSummary(userID string, event models.SummaryEvent) {
	m.Called(userID, event)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReadRepository = (*ReadRepositoryMock)(nil)
var _ clients.UserResolver = (*UserResolverMock)(nil)
var _ clients.ItemResolver = (*ItemResolverMock)(nil)
var _ ws.Broadcaster = (*BroadcasterMock)(nil)
