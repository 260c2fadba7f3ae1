// Package gamemap is the map controller. It builds one stage runtime per
// stage of a map definition, decides which stages are reachable, aggregates
// progress into an overall score and completion, and emits the map's trigger
// point events.
package gamemap

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/content"
	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/schedule"
	"github.com/AaronLay10/GameMap/internal/shared"
	"github.com/AaronLay10/GameMap/internal/stage"
	"github.com/AaronLay10/GameMap/internal/visibility"
)

var (
	ErrStageNotFound    = errors.New("stage not found")
	ErrStageLocked      = errors.New("stage is locked")
	ErrStageUnavailable = errors.New("stage content unavailable")
	ErrNotAnswerable    = errors.New("stage content does not accept answers")
	ErrStageNotViewed   = errors.New("stage has not been viewed")
)

// Answerer is content that accepts a scored answer from the host.
type Answerer interface {
	Answer(score float64)
}

// Deps are the collaborators a map needs. Scheduler is required.
type Deps struct {
	Factory   content.Factory
	Scheduler schedule.Scheduler
	Viewport  *visibility.Viewport
	// Engine names the rendering engine, used for compatibility patches.
	Engine string
	// PreviousState is saved progress keyed by stage id.
	PreviousState map[string]StageSnapshot
}

// Hooks let the host react to progress. All are optional.
type Hooks struct {
	OnStateChanged func(stageID string, state shared.State)
	OnScoreChanged func(stageID string, score float64)
	OnCompleted    func(score, maxScore float64)
}

// Map is a running map session. Like the stages it owns, it is not safe for
// concurrent use; drive it from a single schedule.Loop.
type Map struct {
	def    *Definition
	deps   Deps
	hooks  Hooks
	shared *shared.Context
	main   *content.Dispatcher

	stages []*stage.Runtime
	byID   map[string]*stage.Runtime
	access map[string]Access

	completed bool
	restoring bool
}

// New builds a map session from def. Every stage is created, its content
// instance initialized and its visibility observer armed.
func New(def *Definition, deps Deps, hooks Hooks) (*Map, error) {
	if def == nil {
		return nil, fmt.Errorf("gamemap: nil definition")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("gamemap: scheduler is required")
	}
	if deps.Factory == nil {
		deps.Factory = content.DefaultLibrary()
	}
	if deps.Viewport == nil {
		deps.Viewport = visibility.NewViewport()
	}

	m := &Map{
		def:    def,
		deps:   deps,
		hooks:  hooks,
		shared: shared.NewContext(),
		main:   content.NewDispatcher(),
		byID:   make(map[string]*stage.Runtime, len(def.Stages)),
		access: make(map[string]Access, len(def.Stages)),
	}

	m.shared.Set(shared.KeyMainInstance, content.Relay(m.main))
	m.shared.Set(shared.KeyContentID, def.ContentID)
	m.shared.Set(shared.KeyParams, def.Params)
	m.shared.Set(shared.KeyPreviousState, deps.PreviousState)
	m.shared.Set(shared.KeyStates, shared.DefaultStates())
	m.shared.Set(shared.KeyResize, func() {
		m.main.Trigger(content.EventResize, content.Event{})
	})
	m.shared.Set(shared.KeyEngine, deps.Engine)

	for _, sd := range def.Stages {
		id := sd.ID
		var prev any
		if snap, ok := deps.PreviousState[id]; ok {
			prev = snap.ContentState
		}
		r := stage.New(stage.Params{
			ID:            id,
			Content:       sd.Content,
			PreviousState: prev,
		}, stage.Deps{
			Shared:    m.shared,
			Factory:   deps.Factory,
			Scheduler: deps.Scheduler,
			Observers: deps.Viewport,
		}, stage.Callbacks{
			OnStateChanged: func(st shared.State) { m.handleStateChanged(id, st) },
			OnScoreChanged: func(score float64) { m.handleScoreChanged(id, score) },
		})
		m.stages = append(m.stages, r)
		m.byID[id] = r

		r.InitializeInstance()
		if !r.HasInstance() {
			events.Emit("warn", "stage.unavailable", "stage content could not be created", map[string]interface{}{
				"stage_id": id,
				"library":  sd.Content.Library,
			})
		}
		r.Reset()
	}

	if len(deps.PreviousState) > 0 {
		states := make(map[string]string, len(deps.PreviousState))
		for id, snap := range deps.PreviousState {
			states[id] = snap.State
			if r, ok := m.byID[id]; ok {
				r.RestoreScore(snap.Score)
			}
		}
		m.applyStates(states)
	}

	m.initAccess()

	events.Emit("info", "map.started", "", map[string]interface{}{
		"content_id": def.ContentID,
		"stages":     len(m.stages),
		"roaming":    def.Roaming,
	})
	Logger().Info("map started",
		zap.String("content_id", def.ContentID),
		zap.Int("stages", len(m.stages)))

	return m, nil
}

// ContentID returns the map's content id.
func (m *Map) ContentID() string { return m.def.ContentID }

// Definition returns the definition the map was built from.
func (m *Map) Definition() *Definition { return m.def }

// Shared returns the session's shared context.
func (m *Map) Shared() *shared.Context { return m.shared }

// MainInstance returns the map's own event relay. Stage instances bubble
// events to it, and events raised on it reach every attached instance.
func (m *Map) MainInstance() content.Relay { return m.main }

// Stage returns the runtime of stage id.
func (m *Map) Stage(id string) (*stage.Runtime, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, id)
	}
	return r, nil
}

// Access returns the reachability of stage id.
func (m *Map) Access(id string) Access { return m.access[id] }

// OpenStage brings stage id into view. The stage's visibility observer then
// attaches the content and marks the stage opened.
func (m *Map) OpenStage(id string) error {
	r, err := m.Stage(id)
	if err != nil {
		return err
	}
	if m.access[id] != AccessOpen {
		return fmt.Errorf("%w: %s", ErrStageLocked, id)
	}

	r.InitializeInstance()
	if !r.HasInstance() {
		return fmt.Errorf("%w: %s", ErrStageUnavailable, id)
	}

	events.Emit("info", "stage.opened", "", map[string]interface{}{"stage_id": id})
	m.deps.Viewport.Show(r.DOM())
	return nil
}

// CloseStage takes stage id out of view.
func (m *Map) CloseStage(id string) error {
	r, err := m.Stage(id)
	if err != nil {
		return err
	}
	m.deps.Viewport.Hide(r.DOM())
	return nil
}

// Answer submits a scored answer to the content of stage id. The stage must
// have been viewed.
func (m *Map) Answer(id string, score float64) error {
	r, err := m.Stage(id)
	if err != nil {
		return err
	}
	if !r.HasInstance() {
		return fmt.Errorf("%w: %s", ErrStageUnavailable, id)
	}
	a, ok := r.Instance().(Answerer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAnswerable, id)
	}
	if !r.IsAttached() {
		return fmt.Errorf("%w: %s", ErrStageNotViewed, id)
	}
	a.Answer(score)
	return nil
}

// ShowSolutions reveals the solutions of stage id.
func (m *Map) ShowSolutions(id string) error {
	r, err := m.Stage(id)
	if err != nil {
		return err
	}
	r.ShowSolutions()
	events.Emit("info", "stage.solutions_shown", "", map[string]interface{}{"stage_id": id})
	return nil
}

// ShowAllSolutions reveals the solutions of every stage.
func (m *Map) ShowAllSolutions() {
	for _, r := range m.stages {
		r.ShowSolutions()
	}
	events.Emit("info", "stage.solutions_shown", "", map[string]interface{}{"stage_id": "*"})
}

// ResetStage returns stage id to unstarted. Access of other stages is kept.
func (m *Map) ResetStage(id string) error {
	r, err := m.Stage(id)
	if err != nil {
		return err
	}
	m.deps.Viewport.Hide(r.DOM())
	resetStage(r)
	if m.completed && !m.IsCompleted() {
		m.completed = false
	}
	events.Emit("info", "stage.reset", "", map[string]interface{}{"stage_id": id})
	return nil
}

// Reset returns every stage to unstarted and relocks the map.
func (m *Map) Reset() {
	for _, r := range m.stages {
		m.deps.Viewport.Hide(r.DOM())
		resetStage(r)
	}
	m.completed = false
	m.initAccess()
	events.Emit("info", "map.reset", "", map[string]interface{}{"content_id": m.def.ContentID})
}

// resetStage resets r and clears task state the stage itself leaves alone
// because the content was never attached, such as a restored answer.
func resetStage(r *stage.Runtime) {
	r.Reset()
	if r.IsAttached() || !r.HasInstance() {
		return
	}
	if tr, ok := r.Instance().(content.TaskResetter); ok {
		tr.ResetTask()
	}
}

// Score sums the stage scores.
func (m *Map) Score() float64 {
	var total float64
	for _, r := range m.stages {
		total += r.Score()
	}
	return total
}

// MaxScore sums the stage max scores.
func (m *Map) MaxScore() float64 {
	var total float64
	for _, r := range m.stages {
		total += r.MaxScore()
	}
	return total
}

// AnswerGiven reports whether any stage has an answer.
func (m *Map) AnswerGiven() bool {
	for _, r := range m.stages {
		if r.AnswerGiven() {
			return true
		}
	}
	return false
}

// IsCompleted reports whether every available stage is done: task stages at
// completed or cleared, other stages at cleared. Stages without content are
// ignored; a map with no available stage is never completed.
func (m *Map) IsCompleted() bool {
	available := false
	for _, r := range m.stages {
		if !r.HasInstance() {
			continue
		}
		available = true
		if r.IsInstanceTask() {
			if !shared.IsDone(r.State()) {
				return false
			}
		} else if r.State() != shared.StateCleared {
			return false
		}
	}
	return available
}

// XAPIData collects the reporting export of every stage that has one.
func (m *Map) XAPIData() *content.XAPIData {
	data := &content.XAPIData{
		Statement: map[string]any{
			"object": map[string]any{"id": m.def.ContentID},
			"result": map[string]any{
				"score": map[string]any{
					"raw": m.Score(),
					"max": m.MaxScore(),
				},
				"completion": m.IsCompleted(),
			},
		},
	}
	for _, r := range m.stages {
		if child, ok := r.XAPIData(); ok {
			data.Children = append(data.Children, child)
		}
	}
	return data
}

// Stages summarizes every stage in definition order.
func (m *Map) Stages() []StageView {
	states := m.shared.States()
	out := make([]StageView, 0, len(m.stages))
	for i, r := range m.stages {
		out = append(out, StageView{
			ID:               r.ID(),
			Label:            m.def.Stages[i].Label,
			Access:           m.access[r.ID()],
			State:            states.Name(r.State()),
			Score:            r.Score(),
			MaxScore:         r.MaxScore(),
			Task:             r.IsInstanceTask(),
			Available:        r.HasInstance(),
			Attached:         r.IsAttached(),
			ShowingSolutions: r.IsShowingSolutions(),
		})
	}
	return out
}

// Snapshot returns the resumable progress of every stage.
func (m *Map) Snapshot() []StageSnapshot {
	states := m.shared.States()
	out := make([]StageSnapshot, 0, len(m.stages))
	for _, r := range m.stages {
		out = append(out, StageSnapshot{
			StageID:      r.ID(),
			State:        states.Name(r.State()),
			Score:        r.RecordedScore(),
			ContentState: r.CurrentState(),
		})
	}
	return out
}

func (m *Map) handleStateChanged(id string, st shared.State) {
	if m.restoring {
		return
	}

	events.Emit("info", "stage.state_changed", "", map[string]interface{}{
		"stage_id": id,
		"state":    m.shared.States().Name(st),
		"code":     int(st),
	})
	if m.hooks.OnStateChanged != nil {
		m.hooks.OnStateChanged(id, st)
	}

	m.updateAccess()
	m.checkCompletion()
}

func (m *Map) handleScoreChanged(id string, score float64) {
	if m.restoring {
		return
	}

	r := m.byID[id]
	events.Emit("info", "stage.score_changed", "", map[string]interface{}{
		"stage_id":  id,
		"score":     score,
		"max_score": r.MaxScore(),
	})
	if m.hooks.OnScoreChanged != nil {
		m.hooks.OnScoreChanged(id, score)
	}

	m.updateAccess()
	m.checkCompletion()
}

// checkCompletion fires the completion trigger point once per reset cycle.
func (m *Map) checkCompletion() {
	if m.completed || !m.IsCompleted() {
		return
	}
	m.completed = true

	score, maxScore := m.Score(), m.MaxScore()
	success := score >= maxScore

	events.Emit("info", "map.completed", "", map[string]interface{}{
		"content_id": m.def.ContentID,
		"score":      score,
		"max_score":  maxScore,
	})
	m.main.Trigger(content.EventXAPI, content.Event{
		Verb: "completed",
		Result: &content.Result{
			Score:      content.Float(score),
			MaxScore:   maxScore,
			Completion: true,
			Success:    &success,
		},
	})
	if m.hooks.OnCompleted != nil {
		m.hooks.OnCompleted(score, maxScore)
	}
}

// initAccess opens start stages (and every unconditioned stage when roaming
// is free), locks the rest, then unlocks whatever current progress allows.
func (m *Map) initAccess() {
	for _, sd := range m.def.Stages {
		if sd.Start || (m.def.Roaming == RoamingFree && sd.Condition == "") {
			m.access[sd.ID] = AccessOpen
		} else {
			m.access[sd.ID] = AccessLocked
		}
	}
	m.updateAccess()
}

func (m *Map) evalContext() *EvalContext {
	ctx := &EvalContext{
		States: make(map[string]shared.State, len(m.stages)),
		Score:  m.Score(),
	}
	for _, r := range m.stages {
		ctx.States[r.ID()] = r.State()
	}
	return ctx
}

func (m *Map) updateAccess() {
	ctx := m.evalContext()
	for _, sd := range m.def.Stages {
		if m.access[sd.ID] != AccessLocked {
			continue
		}
		if m.reachable(&sd, ctx) {
			m.unlock(sd.ID)
		}
	}
}

func (m *Map) reachable(sd *StageDef, ctx *EvalContext) bool {
	if sd.Condition != "" {
		return EvalCondition(sd.Condition, ctx)
	}
	for _, n := range m.def.Neighbors(sd.ID) {
		st := ctx.States[n]
		switch m.def.Roaming {
		case RoamingSuccess:
			if st == shared.StateCleared {
				return true
			}
		default:
			if shared.IsDone(st) {
				return true
			}
		}
	}
	return false
}

// unlock moves a stage to unlocking now and to open on the next frame.
func (m *Map) unlock(id string) {
	m.access[id] = AccessUnlocking
	m.deps.Scheduler.RequestFrame(func() {
		if m.access[id] != AccessUnlocking {
			return
		}
		m.access[id] = AccessOpen
		events.Emit("info", "stage.unlocked", "", map[string]interface{}{"stage_id": id})
	})
}

// applyStates forces stage states without emitting trigger points.
func (m *Map) applyStates(states map[string]string) {
	table := m.shared.States()
	m.restoring = true
	defer func() { m.restoring = false }()

	for id, name := range states {
		r, ok := m.byID[id]
		if !ok || !r.HasInstance() {
			continue
		}
		code, ok := table.Code(name)
		if !ok {
			continue
		}
		r.ForceState(code)
	}
	m.completed = m.IsCompleted()
}
