package main

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/api"
	"github.com/AaronLay10/GameMap/internal/gamemap"
	"github.com/AaronLay10/GameMap/internal/shared"
	"github.com/AaronLay10/GameMap/internal/storage/sqlite"
)

// progressStore is the part of the sqlite store the session writes to.
type progressStore interface {
	Save(contentID string, stages []sqlite.StageRecord) error
	RecordCompletion(contentID string, score, maxScore float64) (int64, error)
}

// poster queues work on the map's goroutine.
type poster interface {
	Post(fn func())
}

// progressTracker saves a snapshot after every burst of stage changes and
// mirrors the aggregate into the metrics.
type progressTracker struct {
	store     progressStore
	loop      poster
	log       *zap.Logger
	contentID string

	m       *gamemap.Map
	pending bool
}

func newProgressTracker(store progressStore, loop poster, log *zap.Logger, contentID string) *progressTracker {
	return &progressTracker{store: store, loop: loop, log: log, contentID: contentID}
}

// attach binds the tracker to the running map.
func (p *progressTracker) attach(m *gamemap.Map) {
	p.m = m
	p.publish()
}

// Hooks returns the map hooks that drive the tracker.
func (p *progressTracker) Hooks() gamemap.Hooks {
	return gamemap.Hooks{
		OnStateChanged: func(string, shared.State) { p.schedule() },
		OnScoreChanged: func(string, float64) { p.schedule() },
		OnCompleted: func(score, maxScore float64) {
			id, err := p.store.RecordCompletion(p.contentID, score, maxScore)
			if err != nil {
				p.log.Error("failed to record completion", zap.Error(err))
				return
			}
			p.log.Info("map completed",
				zap.Int64("completion_id", id),
				zap.Float64("score", score),
				zap.Float64("max_score", maxScore))
		},
	}
}

// schedule coalesces changes made in the same task into one save.
func (p *progressTracker) schedule() {
	if p.pending {
		return
	}
	p.pending = true
	p.loop.Post(p.flush)
}

func (p *progressTracker) flush() {
	p.pending = false
	if p.m == nil {
		return
	}
	if err := p.store.Save(p.contentID, toRecords(p.m.Snapshot())); err != nil {
		p.log.Error("failed to save progress", zap.Error(err))
	} else {
		api.SetProgressSaved(time.Now())
	}
	p.publish()
}

func (p *progressTracker) publish() {
	cleared := 0
	states := p.m.Shared().States()
	views := p.m.Stages()
	for _, v := range views {
		if st, ok := states.Code(v.State); ok && st == shared.StateCleared {
			cleared++
		}
	}
	api.SetMapProgress(p.m.Score(), p.m.MaxScore(), cleared, len(views), p.m.IsCompleted())
}

// toRecords converts map snapshots into storage rows.
func toRecords(snaps []gamemap.StageSnapshot) []sqlite.StageRecord {
	out := make([]sqlite.StageRecord, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, sqlite.StageRecord{
			StageID:       s.StageID,
			State:         s.State,
			Score:         s.Score,
			InstanceState: asObject(s.ContentState),
		})
	}
	return out
}

// toSnapshots converts saved progress into the map's previous state.
func toSnapshots(p *sqlite.Progress) map[string]gamemap.StageSnapshot {
	if p == nil || len(p.Stages) == 0 {
		return nil
	}
	out := make(map[string]gamemap.StageSnapshot, len(p.Stages))
	for _, r := range p.Stages {
		snap := gamemap.StageSnapshot{StageID: r.StageID, State: r.State, Score: r.Score}
		if r.InstanceState != nil {
			snap.ContentState = r.InstanceState
		}
		out[r.StageID] = snap
	}
	return out
}

// asObject normalizes content state to a JSON object. Other shapes are dropped.
func asObject(v any) map[string]any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var obj map[string]any
	if json.Unmarshal(b, &obj) != nil {
		return nil
	}
	return obj
}
