package gamemap

import (
	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/storage/postgres"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 1000

// EventLog is the part of the Postgres client restore needs.
type EventLog interface {
	Query(limit int) ([]postgres.EventRow, error)
}

// RestoredState is the stage progress reconstructed from the event log.
type RestoredState struct {
	SessionActive bool
	ContentID     string
	StageStates   map[string]string // stage_id -> state name
}

// RestoreFromEvents loads events from the log and reconstructs stage states.
// Returns nil if log is nil or empty. Events for other content ids are
// skipped.
func RestoreFromEvents(log EventLog, contentID string, limit int) (*RestoredState, int, error) {
	if log == nil {
		return nil, 0, nil
	}
	if pg, ok := log.(*postgres.Client); ok && pg == nil {
		return nil, 0, nil
	}

	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := log.Query(limit)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Query returns newest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	state := &RestoredState{
		ContentID:   contentID,
		StageStates: make(map[string]string),
	}

	for _, row := range rows {
		if row.ContentID != "" && contentID != "" && row.ContentID != contentID {
			continue
		}
		switch row.Event {
		case "map.started":
			state.SessionActive = true

		case "map.reset":
			state.StageStates = make(map[string]string)

		case "stage.state_changed":
			id, _ := row.Fields["stage_id"].(string)
			name, _ := row.Fields["state"].(string)
			if id != "" && name != "" {
				state.StageStates[id] = name
			}

		case "stage.reset":
			if id, ok := row.Fields["stage_id"].(string); ok {
				delete(state.StageStates, id)
			}
		}
	}

	return state, len(rows), nil
}

// ApplyRestored forces the restored stage states onto the map. It does not
// emit state change events or fire the completion trigger point.
func (m *Map) ApplyRestored(state *RestoredState) {
	if state == nil || !state.SessionActive || len(state.StageStates) == 0 {
		return
	}
	if state.ContentID != "" && state.ContentID != m.def.ContentID {
		return
	}

	m.applyStates(state.StageStates)
	m.initAccess()

	events.Emit("info", "map.restored", "", map[string]interface{}{
		"content_id": m.def.ContentID,
		"stages":     len(state.StageStates),
	})
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, contentID string) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"restored":   restored,
		"content_id": contentID,
	})
}
