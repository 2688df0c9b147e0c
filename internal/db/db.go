package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
            id BIGSERIAL PRIMARY KEY,
            item_id TEXT NOT NULL,
            buyer_id TEXT NOT NULL,
            seller_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            last_message TEXT NOT NULL DEFAULT '',
            last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            buyer_unread INT NOT NULL DEFAULT 0,
            seller_unread INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(item_id, buyer_id, seller_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            content TEXT NOT NULL,
            sequence BIGINT NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(room_id, sequence)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_buyer ON rooms(buyer_id, last_activity DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_seller ON rooms(seller_id, last_activity DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages(room_id, sequence);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logrus.Info("database migrations applied")
	return nil
}
