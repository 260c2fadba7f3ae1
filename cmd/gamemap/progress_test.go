package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/content"
	"github.com/AaronLay10/GameMap/internal/gamemap"
	"github.com/AaronLay10/GameMap/internal/schedule"
	"github.com/AaronLay10/GameMap/internal/storage/sqlite"
)

const demoMapPath = "../../examples/maps/demo-map.v1.json"

type fakeStore struct {
	saves       [][]sqlite.StageRecord
	completions [][2]float64
}

func (f *fakeStore) Save(_ string, stages []sqlite.StageRecord) error {
	f.saves = append(f.saves, stages)
	return nil
}

func (f *fakeStore) RecordCompletion(_ string, score, maxScore float64) (int64, error) {
	f.completions = append(f.completions, [2]float64{score, maxScore})
	return int64(len(f.completions)), nil
}

func (f *fakeStore) last() map[string]sqlite.StageRecord {
	out := make(map[string]sqlite.StageRecord)
	if len(f.saves) == 0 {
		return out
	}
	for _, r := range f.saves[len(f.saves)-1] {
		out[r.StageID] = r
	}
	return out
}

func startMap(t *testing.T, store progressStore, prev map[string]gamemap.StageSnapshot) (*gamemap.Map, *schedule.Loop) {
	t.Helper()
	def, err := gamemap.LoadDefinition(demoMapPath)
	require.NoError(t, err)

	loop := schedule.NewLoop()
	tracker := newProgressTracker(store, loop, zap.NewNop(), def.ContentID)
	m, err := gamemap.New(def, gamemap.Deps{Scheduler: loop, PreviousState: prev}, tracker.Hooks())
	require.NoError(t, err)
	tracker.attach(m)
	loop.Flush()
	return m, loop
}

func answer(t *testing.T, m *gamemap.Map, loop *schedule.Loop, id string, score float64) {
	t.Helper()
	require.NoError(t, m.OpenStage(id))
	loop.Flush()
	require.NoError(t, m.Answer(id, score))
	loop.Flush()
}

func TestTrackerSavesAndRecordsCompletion(t *testing.T) {
	store := &fakeStore{}
	m, loop := startMap(t, store, nil)

	require.NoError(t, m.OpenStage("intro"))
	loop.Flush()
	require.NotEmpty(t, store.saves)
	assert.Equal(t, "cleared", store.last()["intro"].State)

	answer(t, m, loop, "quiz", 5)
	assert.Equal(t, 5.0, store.last()["quiz"].Score)
	assert.Equal(t, true, store.last()["quiz"].InstanceState["answered"])

	for _, id := range []string{"video", "podcast"} {
		require.NoError(t, m.OpenStage(id))
		loop.Flush()
	}
	answer(t, m, loop, "final", 3)

	require.Len(t, store.completions, 1)
	assert.Equal(t, [2]float64{8, 8}, store.completions[0])
}

func TestTrackerCoalescesSaves(t *testing.T) {
	store := &fakeStore{}
	m, loop := startMap(t, store, nil)
	before := len(store.saves)

	tracker := newProgressTracker(store, loop, zap.NewNop(), m.ContentID())
	tracker.attach(m)
	tracker.schedule()
	tracker.schedule()
	tracker.schedule()
	loop.Flush()

	assert.Equal(t, before+1, len(store.saves))
}

func TestResumeFromSavedRecords(t *testing.T) {
	store := &fakeStore{}
	m, loop := startMap(t, store, nil)
	require.NoError(t, m.OpenStage("intro"))
	loop.Flush()
	answer(t, m, loop, "quiz", 4)

	saved := &sqlite.Progress{ContentID: "demo-map", Stages: store.saves[len(store.saves)-1]}
	resumed, _ := startMap(t, &fakeStore{}, toSnapshots(saved))

	assert.Equal(t, 4.0, resumed.Score())
	assert.Equal(t, gamemap.AccessOpen, resumed.Access("video"))
	r, err := resumed.Stage("quiz")
	require.NoError(t, err)
	assert.Equal(t, "completed", resumed.Shared().States().Name(r.State()))
}

func TestToSnapshotsEmpty(t *testing.T) {
	assert.Nil(t, toSnapshots(nil))
	assert.Nil(t, toSnapshots(&sqlite.Progress{}))
}

func TestAsObject(t *testing.T) {
	assert.Nil(t, asObject(nil))
	assert.Nil(t, asObject(3))

	obj := asObject(struct {
		Score float64 `json:"score"`
	}{Score: 2})
	assert.Equal(t, map[string]any{"score": 2.0}, obj)
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	validateCmd.SetOut(&out)
	t.Cleanup(func() { validateCmd.SetOut(nil) })

	require.NoError(t, runValidate(validateCmd, []string{demoMapPath}))
	assert.Contains(t, out.String(), "demo-map")
	assert.Contains(t, out.String(), "quiz.cleared && video.completed")
	assert.Contains(t, out.String(), "5 stages, 0 with unknown content")
	assert.True(t, content.DefaultLibrary().Has("H5P.Video"))
}
