// Package stage runs one map stage: it owns the embedded content instance,
// creates it lazily, attaches it when the stage becomes visible, relays
// events between it and the map, and tracks the stage's progress state and
// score.
package stage

import (
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/bubble"
	"github.com/AaronLay10/GameMap/internal/content"
	"github.com/AaronLay10/GameMap/internal/schedule"
	"github.com/AaronLay10/GameMap/internal/shared"
	"github.com/AaronLay10/GameMap/internal/surface"
	"github.com/AaronLay10/GameMap/internal/visibility"
)

// EngineBlink identifies the rendering engine that needs the audio height patch.
const EngineBlink = "blink"

// audioPlayerHeight is the fixed height the audio player gets under EngineBlink.
const audioPlayerHeight = "54px"

// Params is the immutable stage descriptor.
type Params struct {
	ID            string
	Content       content.Descriptor
	PreviousState any
	// BubbleEvents are relayed between the instance and the main instance.
	// Defaults to resize.
	BubbleEvents []string
}

// Deps are the collaborators a stage needs.
type Deps struct {
	Shared    *shared.Context
	Factory   content.Factory
	Scheduler schedule.Scheduler
	Observers visibility.ObserverFactory
}

// Callbacks notify the owner about progress.
type Callbacks struct {
	OnStateChanged func(state shared.State)
	OnScoreChanged func(score float64)
}

// Runtime is a single stage. It is not safe for concurrent use.
type Runtime struct {
	params Params
	deps   Deps
	cb     Callbacks
	dom    *surface.Element

	state              shared.State
	score              float64
	caps               *content.Capabilities
	instantiated       bool
	isAttached         bool
	isShowingSolutions bool
	observer           visibility.Observer
}

// New creates a stage in the unstarted state. No instance is created yet.
func New(params Params, deps Deps, cb Callbacks) *Runtime {
	if len(params.BubbleEvents) == 0 {
		params.BubbleEvents = []string{content.EventResize}
	}
	dom := surface.NewElement("div", params.ID)
	dom.AddClass("stage-exercise")

	return &Runtime{
		params: params,
		deps:   deps,
		cb:     cb,
		dom:    dom,
		state:  shared.StateUnstarted,
	}
}

// ID returns the stage id.
func (r *Runtime) ID() string { return r.params.ID }

// DOM returns the stage's container element.
func (r *Runtime) DOM() *surface.Element { return r.dom }

// State returns the current state code.
func (r *Runtime) State() shared.State { return r.state }

// RecordedScore returns the last score reported by the instance's scoring events.
func (r *Runtime) RecordedScore() float64 { return r.score }

// RestoreScore sets the recorded score from saved progress without firing
// callbacks or changing state.
func (r *Runtime) RestoreScore(score float64) {
	if r.caps == nil {
		return
	}
	r.score = score
}

func (r *Runtime) IsAttached() bool { return r.isAttached }

func (r *Runtime) IsShowingSolutions() bool { return r.isShowingSolutions }

// HasInstance reports whether an instance was created successfully.
func (r *Runtime) HasInstance() bool { return r.caps != nil }

// Instance returns the embedded instance, or nil.
func (r *Runtime) Instance() content.Instance { return r.caps.Instance() }

// IsInstanceTask reports whether the embedded instance can be scored.
func (r *Runtime) IsInstanceTask() bool { return r.caps.IsTask() }

// InitializeInstance creates the embedded instance. Only the first call does
// any work; a failed creation is not retried and leaves the stage inert.
func (r *Runtime) InitializeInstance() {
	if r.instantiated {
		return
	}
	r.instantiated = true

	desc := r.params.Content.Clone()
	adaptDescriptor(&desc)

	var (
		inst content.Instance
		err  error
	)
	if r.deps.Factory != nil {
		inst, err = r.deps.Factory.NewRunnable(desc, r.deps.Shared.ContentID(), content.RunOptions{
			IsSubContent:  true,
			PreviousState: r.params.PreviousState,
		})
	}
	if err != nil || inst == nil {
		Logger().Warn("stage content unavailable",
			zap.String("stage_id", r.params.ID),
			zap.String("library", desc.Library),
			zap.Error(err))
		return
	}

	r.caps = content.Probe(inst)
	r.wireBubbling(inst)

	if r.caps.IsTask() {
		inst.On(content.EventXAPI, r.TrackXAPI)
	}

	Logger().Debug("stage content created",
		zap.String("stage_id", r.params.ID),
		zap.String("machine_name", inst.MachineName()),
		zap.Bool("task", r.caps.IsTask()))
}

func (r *Runtime) wireBubbling(inst content.Instance) {
	main := r.deps.Shared.MainInstance()
	if main == nil {
		return
	}
	for _, name := range r.params.BubbleEvents {
		bubble.Up(inst, name, main)
		bubble.Down(main, name, []content.Emitter{inst}, r.IsAttached)
	}
}

// AttachInstance renders the instance into the stage container. It runs at
// most once; attaching again would orphan listeners content registered on
// its first render.
func (r *Runtime) AttachInstance() {
	if r.isAttached || r.caps == nil {
		return
	}

	r.caps.Attach(r.dom)

	if r.caps.MachineName() == content.AudioLibrary && r.deps.Shared.Engine() == EngineBlink {
		if player := r.dom.Find("audio"); player != nil {
			player.SetStyle("height", audioPlayerHeight)
		}
	}

	r.isAttached = true
}

// HandleViewed runs when the stage container comes into view.
func (r *Runtime) HandleViewed() {
	r.AttachInstance()
	if r.caps == nil {
		return
	}

	if r.isShowingSolutions {
		r.caps.ShowSolutions()
	}

	r.SetState("opened")

	r.deps.Scheduler.RequestFrame(r.deps.Shared.Resize)
}

// SetState requests a transition by symbolic name. Unknown names are ignored.
func (r *Runtime) SetState(name string) {
	code, ok := r.deps.Shared.States().Code(name)
	if !ok {
		return
	}
	r.setState(code, false)
}

// SetStateCode requests a transition by code.
func (r *Runtime) SetStateCode(code shared.State) {
	r.setState(code, false)
}

// ForceState sets code directly, skipping resolution.
func (r *Runtime) ForceState(code shared.State) {
	r.setState(code, true)
}

func (r *Runtime) setState(code shared.State, force bool) {
	if !r.deps.Shared.States().Has(code) {
		return
	}

	next := code
	if !force {
		switch code {
		case shared.StateUnstarted, shared.StateCompleted, shared.StateCleared:
		case shared.StateOpened:
			if !r.IsInstanceTask() {
				next = shared.StateCleared
			}
		default:
			return
		}
		// progress only moves forward once a stage has been opened
		if r.state >= shared.StateOpened && next < r.state {
			return
		}
	}

	if next == r.state {
		return
	}
	r.state = next

	if r.cb.OnStateChanged != nil {
		r.cb.OnStateChanged(next)
	}
}

// TrackXAPI handles a scoring event from the instance.
func (r *Runtime) TrackXAPI(ev content.Event) {
	score, ok := ev.Score()
	if !ok {
		return
	}
	r.score = score

	if r.score < r.caps.MaxScore() {
		r.SetStateCode(shared.StateCompleted)
	} else {
		r.SetStateCode(shared.StateCleared)
	}

	if r.cb.OnScoreChanged != nil {
		r.cb.OnScoreChanged(score)
	}
}

// Reset returns the stage to unstarted and re-arms the one-shot visibility
// observer. The instance and the observer are kept.
func (r *Runtime) Reset() {
	r.score = 0
	r.ForceState(shared.StateUnstarted)

	if r.isAttached {
		r.caps.ResetTask()
	}

	r.deps.Scheduler.RequestIdle(r.observe)

	r.isShowingSolutions = false
}

func (r *Runtime) observe() {
	if r.deps.Observers == nil {
		return
	}
	if r.observer == nil {
		r.observer = r.deps.Observers.NewObserver(r.handleIntersection, visibility.Options{Threshold: 0})
	}
	r.observer.Observe(r.dom)
}

func (r *Runtime) handleIntersection(entries []visibility.Entry, o visibility.Observer) {
	for _, e := range entries {
		if e.Target != r.dom || !e.IsIntersecting {
			continue
		}
		o.Unobserve(r.dom)
		r.HandleViewed()
		return
	}
}

// ShowSolutions reveals solutions now if attached, and again whenever the
// stage is viewed until the next reset.
func (r *Runtime) ShowSolutions() {
	if r.isAttached {
		r.caps.ShowSolutions()
	}
	r.isShowingSolutions = true
}

func (r *Runtime) AnswerGiven() bool { return r.caps.AnswerGiven() }

func (r *Runtime) Score() float64 { return r.caps.Score() }

func (r *Runtime) MaxScore() float64 { return r.caps.MaxScore() }

// XAPIData returns the instance's reporting export. ok is false when there
// is no data.
func (r *Runtime) XAPIData() (*content.XAPIData, bool) {
	data := r.caps.XAPIData()
	return data, data != nil
}

// CurrentState returns the instance's resumable state, or nil.
func (r *Runtime) CurrentState() any { return r.caps.CurrentState() }
