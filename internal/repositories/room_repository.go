package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"trade-chat-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

const roomColumns = `id, item_id, buyer_id, seller_id, status, last_message, last_activity, buyer_unread, seller_unread, created_at`

// RoomRepository owns room identity and the one-room-per-(item, buyer,
// seller) invariant.
type RoomRepository interface {
	GetOrCreateRoom(ctx context.Context, itemID, buyerID, sellerID string) (models.Room, bool, error)
	GetRoom(ctx context.Context, roomID int64) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	DeleteRoom(ctx context.Context, roomID int64) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// GetOrCreateRoom returns the room for the (item, buyer, seller) triple,
// creating it when absent; the second return reports whether this call
// created the row. Concurrent creators converge on a single row: the insert
// is ON CONFLICT DO NOTHING, and a loser falls back to re-selecting the
// winner's row.
func (r *RoomRepo) GetOrCreateRoom(ctx context.Context, itemID, buyerID, sellerID string) (models.Room, bool, error) {
	if buyerID == sellerID {
		return models.Room{}, false, errors.New("buyer and seller must differ")
	}

	var room models.Room
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE item_id=$1 AND buyer_id=$2 AND seller_id=$3`
	err := r.db.GetContext(ctx, &room, query, itemID, buyerID, sellerID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, false, err
	}

	insert := `INSERT INTO rooms (item_id, buyer_id, seller_id) VALUES ($1, $2, $3)
        ON CONFLICT (item_id, buyer_id, seller_id) DO NOTHING
        RETURNING ` + roomColumns
	err = r.db.GetContext(ctx, &room, insert, itemID, buyerID, sellerID)
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, false, err
	}

	// Lost the creation race; the winner's row exists now.
	if err := r.db.GetContext(ctx, &room, query, itemID, buyerID, sellerID); err != nil {
		return models.Room{}, false, err
	}
	return room, false, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int64) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the user's rooms, most recently active first.
// An unknown user yields an empty slice.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms
        WHERE buyer_id=$1 OR seller_id=$1
        ORDER BY last_activity DESC`
	rooms := []models.Room{}
	err := r.db.SelectContext(ctx, &rooms, query, userID)
	return rooms, err
}

// DeleteRoom removes the room; its messages cascade.
func (r *RoomRepo) DeleteRoom(ctx context.Context, roomID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}
