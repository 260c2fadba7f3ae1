package gamemap

import (
	"errors"
	"testing"
	"time"

	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/shared"
	"github.com/AaronLay10/GameMap/internal/storage/postgres"
)

type fakeLog struct {
	rows []postgres.EventRow // newest first, like the real client
	err  error
}

func (f *fakeLog) Query(limit int) ([]postgres.EventRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	rows := append([]postgres.EventRow{}, f.rows...)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func row(event string, fields map[string]interface{}) postgres.EventRow {
	return postgres.EventRow{Timestamp: time.Now(), Level: "info", Event: event, Fields: fields, ContentID: "demo-map"}
}

// newestFirst takes events in chronological order.
func newestFirst(rows ...postgres.EventRow) []postgres.EventRow {
	out := make([]postgres.EventRow, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out
}

func TestRestoreFromEventsNilLog(t *testing.T) {
	state, count, err := RestoreFromEvents(nil, "demo-map", 100)
	if err != nil || state != nil || count != 0 {
		t.Errorf("expected empty restore, got %v %d %v", state, count, err)
	}

	var pg *postgres.Client
	state, count, err = RestoreFromEvents(pg, "demo-map", 100)
	if err != nil || state != nil || count != 0 {
		t.Errorf("expected empty restore with typed nil client, got %v %d %v", state, count, err)
	}
}

func TestRestoreFromEventsQueryError(t *testing.T) {
	_, _, err := RestoreFromEvents(&fakeLog{err: errors.New("down")}, "demo-map", 0)
	if err == nil {
		t.Error("expected query error")
	}
}

func TestRestoreFromEvents(t *testing.T) {
	log := &fakeLog{rows: newestFirst(
		row("map.started", nil),
		row("stage.state_changed", map[string]interface{}{"stage_id": "quiz", "state": "opened"}),
		row("map.reset", nil),
		row("stage.state_changed", map[string]interface{}{"stage_id": "intro", "state": "cleared"}),
		row("stage.state_changed", map[string]interface{}{"stage_id": "quiz", "state": "opened"}),
		row("stage.state_changed", map[string]interface{}{"stage_id": "quiz", "state": "completed"}),
		row("stage.state_changed", map[string]interface{}{"stage_id": "podcast", "state": "cleared"}),
		row("stage.reset", map[string]interface{}{"stage_id": "podcast"}),
		postgres.EventRow{Event: "stage.state_changed", ContentID: "other-map",
			Fields: map[string]interface{}{"stage_id": "video", "state": "cleared"}},
	)}

	state, count, err := RestoreFromEvents(log, "demo-map", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 9 {
		t.Errorf("expected 9 rows, got %d", count)
	}
	if !state.SessionActive {
		t.Error("expected active session")
	}

	want := map[string]string{"intro": "cleared", "quiz": "completed"}
	if len(state.StageStates) != len(want) {
		t.Fatalf("expected %v, got %v", want, state.StageStates)
	}
	for id, st := range want {
		if state.StageStates[id] != st {
			t.Errorf("expected %s=%s, got %s", id, st, state.StageStates[id])
		}
	}
}

func TestApplyRestored(t *testing.T) {
	events.Clear()
	h := newHarness(t, loadDemo(t), Deps{}, Hooks{})

	h.m.ApplyRestored(&RestoredState{
		SessionActive: true,
		ContentID:     "demo-map",
		StageStates:   map[string]string{"intro": "cleared", "quiz": "completed", "ghost": "cleared"},
	})
	h.loop.Flush()

	if h.state("intro") != shared.StateCleared {
		t.Errorf("expected intro cleared, got %s", h.state("intro"))
	}
	if h.state("quiz") != shared.StateCompleted {
		t.Errorf("expected quiz completed, got %s", h.state("quiz"))
	}
	if h.m.Access("video") != AccessOpen {
		t.Errorf("expected video open after restore, got %s", h.m.Access("video"))
	}
	if countEvents("stage.state_changed") != 0 {
		t.Error("restore must not re-emit state changes")
	}
	if countEvents("map.restored") != 1 {
		t.Error("expected map.restored event")
	}
}

func TestApplyRestoredIgnoresInactiveOrForeign(t *testing.T) {
	events.Clear()
	h := newHarness(t, loadDemo(t), Deps{}, Hooks{})

	h.m.ApplyRestored(nil)
	h.m.ApplyRestored(&RestoredState{StageStates: map[string]string{"intro": "cleared"}})
	h.m.ApplyRestored(&RestoredState{SessionActive: true, ContentID: "other", StageStates: map[string]string{"intro": "cleared"}})

	if h.state("intro") != shared.StateUnstarted {
		t.Errorf("expected intro unstarted, got %s", h.state("intro"))
	}
	if countEvents("map.restored") != 0 {
		t.Error("expected no map.restored event")
	}
}
