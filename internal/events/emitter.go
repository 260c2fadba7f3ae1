// Package events records the structured trigger points of a map session.
// Every event goes to an in-memory ring buffer and to live subscribers, and
// optionally to the Postgres event log.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AaronLay10/GameMap/internal/storage/postgres"
)

// Event is one structured trigger point.
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

var (
	buffer     = NewRingBuffer(256)
	totalCount atomic.Int64

	pgMu     sync.RWMutex
	pgClient *postgres.Client
	// pgFailed is set after the first append failure so it is reported once.
	pgFailed atomic.Bool

	sessionMu sync.RWMutex
	sessionID = uuid.NewString()
)

// SetPostgresClient sets the event log. nil turns persistence off.
func SetPostgresClient(client *postgres.Client) {
	pgMu.Lock()
	pgClient = client
	pgMu.Unlock()
	pgFailed.Store(false)
}

// GetPostgresClient returns the event log, or nil.
func GetPostgresClient() *postgres.Client {
	pgMu.RLock()
	defer pgMu.RUnlock()
	return pgClient
}

// SessionID returns the id stamped on every event of this process.
func SessionID() string {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	return sessionID
}

// NewSession starts a new session id and returns it.
func NewSession() string {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	sessionID = uuid.NewString()
	return sessionID
}

// Emit records a registered event and returns its JSON encoding.
func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		SessionID: SessionID(),
		Fields:    fields,
	}

	buffer.Add(e)
	totalCount.Add(1)
	broadcast(e)
	persist(ts, e)

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

// persist appends e to the event log. The first failure is recorded as a
// system.error in the buffer only; going through Emit could recurse.
func persist(ts time.Time, e Event) {
	client := GetPostgresClient()
	if client == nil {
		return
	}
	err := client.Append(ts, e.Level, e.Name, e.Message, e.Fields, e.SessionID)
	if err == nil || pgFailed.Swap(true) {
		return
	}
	buffer.Add(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     "error",
		Name:      "system.error",
		Message:   "postgres append failed",
		SessionID: e.SessionID,
		Fields:    map[string]interface{}{"error": err.Error()},
	})
}

// Snapshot returns every buffered event, oldest first.
func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() int64 {
	return totalCount.Load()
}

// Clear empties the buffer. Used by tests.
func Clear() {
	buffer.Clear()
}
