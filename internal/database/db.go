package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// NewDB opens the sqlite history store and creates the schema on first use.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS detections (
		id TEXT PRIMARY KEY,
		emotion TEXT NOT NULL,
		confidence REAL NOT NULL,
		face_detected INTEGER NOT NULL,
		source TEXT NOT NULL,
		distribution TEXT NOT NULL,
		detected_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_detections_detected_at ON detections(detected_at);
	`

	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
