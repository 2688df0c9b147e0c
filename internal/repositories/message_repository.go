package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"trade-chat-service/internal/content"
	"trade-chat-service/internal/models"
)

var ErrNotParticipant = errors.New("user is not a room participant")

const messageColumns = `id, room_id, sender_id, content, sequence, is_read, sent_at`

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// MessageRepository is the durable, strictly ordered message log per room.
type MessageRepository interface {
	AppendMessage(ctx context.Context, roomID int64, senderID, rawContent string) (models.Message, error)
	ListMessages(ctx context.Context, roomID int64, offset, limit int) ([]models.Message, error)
	SearchMessages(ctx context.Context, roomID int64, keyword string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AppendMessage validates and stores a message. The insert, the room summary
// update and the counterpart unread increment commit in one transaction; the
// room row is locked first, which also serializes per-room sequence
// allocation under concurrent senders.
func (r *MessageRepo) AppendMessage(ctx context.Context, roomID int64, senderID, rawContent string) (models.Message, error) {
	clean, err := content.Validate(rawContent)
	if err != nil {
		return models.Message{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var room models.Room
	err = tx.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id=$1 FOR UPDATE`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if !room.IsParticipant(senderID) {
		return models.Message{}, ErrNotParticipant
	}

	var msg models.Message
	insert := `INSERT INTO messages (room_id, sender_id, content, sequence)
        VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sequence), 0) + 1 FROM messages WHERE room_id=$1))
        RETURNING ` + messageColumns
	if err := tx.GetContext(ctx, &msg, insert, roomID, senderID, clean); err != nil {
		return models.Message{}, err
	}

	unreadColumn := "seller_unread"
	if senderID == room.SellerID {
		unreadColumn = "buyer_unread"
	}
	update := fmt.Sprintf(`UPDATE rooms SET last_message=$2, last_activity=$3, %s=%s+1 WHERE id=$1`, unreadColumn, unreadColumn)
	if _, err := tx.ExecContext(ctx, update, roomID, msg.Content, msg.SentAt); err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns a page of room history in ascending sequence order.
func (r *MessageRepo) ListMessages(ctx context.Context, roomID int64, offset, limit int) ([]models.Message, error) {
	if err := r.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE room_id=$1 ORDER BY sequence ASC LIMIT $2 OFFSET $3`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, roomID, limit, offset)
	return msgs, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so a keyword matches literally.
func escapeLike(keyword string) string {
	return likeEscaper.Replace(keyword)
}

// SearchMessages returns room messages containing the keyword as a literal
// case-insensitive substring, in sequence order.
func (r *MessageRepo) SearchMessages(ctx context.Context, roomID int64, keyword string) ([]models.Message, error) {
	if err := r.roomExists(ctx, roomID); err != nil {
		return nil, err
	}

	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE room_id=$1 AND content ILIKE '%' || $2 || '%'
        ORDER BY sequence ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, roomID, escapeLike(keyword))
	return msgs, err
}

func (r *MessageRepo) roomExists(ctx context.Context, roomID int64) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1)`, roomID); err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}
	return nil
}
