// Package sqlite persists map progress locally so a learner can resume where
// they left off. It uses the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StageRecord is the saved progress of one stage.
type StageRecord struct {
	StageID       string         `json:"stage_id"`
	State         string         `json:"state"`
	Score         float64        `json:"score"`
	InstanceState map[string]any `json:"instance_state,omitempty"`
}

// Progress is the saved progress of one map.
type Progress struct {
	ContentID string
	Stages    []StageRecord
	UpdatedAt time.Time
}

// Completion is one finished run of a map.
type Completion struct {
	ID        int64
	ContentID string
	Score     float64
	MaxScore  float64
	CreatedAt time.Time
}

// ErrNoProgress is returned by Load when nothing has been saved yet.
var ErrNoProgress = errors.New("storage: no saved progress")

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS progress (
			content_id TEXT PRIMARY KEY,
			stages TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS completions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_id TEXT NOT NULL,
			score REAL NOT NULL,
			max_score REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_completions_content ON completions(content_id, score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the saved progress for contentID.
func (s *Store) Save(contentID string, stages []StageRecord) error {
	if contentID == "" {
		return fmt.Errorf("storage: content id is required")
	}
	if stages == nil {
		stages = []StageRecord{}
	}
	b, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("storage: cannot encode progress: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO progress (content_id, stages, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET stages = excluded.stages, updated_at = excluded.updated_at`,
		contentID, string(b), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save progress: %w", err)
	}
	return nil
}

// Load returns the saved progress for contentID, or ErrNoProgress.
func (s *Store) Load(contentID string) (*Progress, error) {
	var raw string
	var updated time.Time
	err := s.db.QueryRow(
		"SELECT stages, updated_at FROM progress WHERE content_id = ?", contentID,
	).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load progress: %w", err)
	}

	p := &Progress{ContentID: contentID, UpdatedAt: updated}
	if err := json.Unmarshal([]byte(raw), &p.Stages); err != nil {
		return nil, fmt.Errorf("storage: corrupt progress for %s: %w", contentID, err)
	}
	return p, nil
}

// Clear removes the saved progress for contentID.
func (s *Store) Clear(contentID string) error {
	_, err := s.db.Exec("DELETE FROM progress WHERE content_id = ?", contentID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear progress: %w", err)
	}
	return nil
}

// RecordCompletion stores a finished run. Returns the inserted id.
func (s *Store) RecordCompletion(contentID string, score, maxScore float64) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO completions (content_id, score, max_score) VALUES (?, ?, ?)",
		contentID, score, maxScore,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// BestCompletions returns up to limit runs for contentID, best score first.
func (s *Store) BestCompletions(contentID string, limit int) ([]Completion, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, content_id, score, max_score, created_at
		FROM completions
		WHERE content_id = ?
		ORDER BY score DESC, created_at ASC
		LIMIT ?`, contentID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.ID, &c.ContentID, &c.Score, &c.MaxScore, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan completion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
