package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"trade-chat-service/internal/models"
)

// ReadRepository tracks per-room, per-viewer read state.
type ReadRepository interface {
	MarkRead(ctx context.Context, roomID int64, readerID string) (int64, error)
	UnreadCount(ctx context.Context, roomID int64, viewerID string) (int, error)
}

// ReadRepo is a sqlx implementation of ReadRepository.
type ReadRepo struct {
	db *sqlx.DB
}

// NewReadRepo constructs a ReadRepo.
func NewReadRepo(db *sqlx.DB) *ReadRepo {
	return &ReadRepo{db: db}
}

// MarkRead flips the read flag on every unread message not sent by the
// reader and zeroes the reader's cached unread counter, in one transaction.
// Calling it with nothing unread is a no-op returning zero.
func (r *ReadRepo) MarkRead(ctx context.Context, roomID int64, readerID string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var room models.Room
	err = tx.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id=$1 FOR UPDATE`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}
	if !room.IsParticipant(readerID) {
		return 0, ErrNotParticipant
	}

	res, err := tx.ExecContext(ctx, `UPDATE messages SET is_read=TRUE
        WHERE room_id=$1 AND sender_id<>$2 AND is_read=FALSE`, roomID, readerID)
	if err != nil {
		return 0, err
	}
	flipped, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	unreadColumn := "buyer_unread"
	if readerID == room.SellerID {
		unreadColumn = "seller_unread"
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET `+unreadColumn+`=0 WHERE id=$1`, roomID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return flipped, nil
}

// UnreadCount derives the viewer's unread count from the message rows. It
// always equals count(messages where sender != viewer and not read).
func (r *ReadRepo) UnreadCount(ctx context.Context, roomID int64, viewerID string) (int, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1)`, roomID); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrRoomNotFound
	}

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE room_id=$1 AND sender_id<>$2 AND is_read=FALSE`, roomID, viewerID)
	return count, err
}
