// Package postgres stores the map event log.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/GameMap/internal/config"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	ContentID string                 `json:"content_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// Client manages the Postgres connection for event storage.
// Every row it writes or reads is scoped to one content id.
type Client struct {
	db        *sql.DB
	contentID string
}

// ConnString builds a lib/pq connection string from PG* environment
// variables. The password may come from PGPASSWORD or PGPASSWORD_FILE.
func ConnString() (string, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "gamemap")
	dbname := getEnv("PGDATABASE", "gamemap")
	sslmode := getEnv("PGSSLMODE", "disable")

	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return "", err
	}

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode), nil
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		host, port, user, dbname, sslmode), nil
}

// New connects using ConnString and makes sure the events table exists.
func New(contentID string) (*Client, error) {
	connStr, err := ConnString()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve postgres credentials: %w", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:        db,
		contentID: contentID,
	}

	if err := client.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS map_events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			content_id TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_map_events_ts ON map_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_map_events_content_id ON map_events(content_id);
	`
	_, err := c.db.Exec(query)
	return err
}

// ContentID returns the content id rows are scoped to.
func (c *Client) ContentID() string {
	return c.contentID
}

// Append inserts an event scoped to the client's content id. Empty msg and
// sessionID are stored as NULL.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
		fieldsJSON = b
	}

	_, err := c.db.Exec(`
		INSERT INTO map_events (ts, level, event, msg, fields, content_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ts, level, event, nullString(msg), fieldsJSON, c.contentID, nullString(sessionID))
	return err
}

// Query returns the newest limit events, newest first.
func (c *Client) Query(limit int) ([]EventRow, error) {
	return c.query(`
		SELECT event_id, ts, level, event, msg, fields, content_id, session_id
		FROM map_events
		WHERE content_id = $1
		ORDER BY ts DESC
		LIMIT $2`, c.contentID, clampLimit(limit))
}

// QuerySince returns events at or after since, newest first.
func (c *Client) QuerySince(since time.Time, limit int) ([]EventRow, error) {
	return c.query(`
		SELECT event_id, ts, level, event, msg, fields, content_id, session_id
		FROM map_events
		WHERE content_id = $1 AND ts >= $2
		ORDER BY ts DESC
		LIMIT $3`, c.contentID, since, clampLimit(limit))
}

func (c *Client) query(q string, args ...interface{}) ([]EventRow, error) {
	rows, err := c.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		e, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanRow(rows *sql.Rows) (EventRow, error) {
	var (
		e          EventRow
		fieldsJSON []byte
		msg, sess  sql.NullString
	)
	if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.ContentID, &sess); err != nil {
		return e, err
	}
	if msg.Valid {
		e.Message = &msg.String
	}
	if sess.Valid {
		e.SessionID = &sess.String
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
			return e, fmt.Errorf("failed to unmarshal fields: %w", err)
		}
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

// Ping checks that the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
