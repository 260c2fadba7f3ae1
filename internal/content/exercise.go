package content

import (
	"fmt"

	"github.com/AaronLay10/GameMap/internal/surface"
)

// Exercise is the built-in configurable exercise. Params:
//
//	maxScore  number  maximum reachable score (0 = not scored)
//	isTask    bool    optional explicit task declaration
//	tag       string  tag of the rendered element (default "form")
type Exercise struct {
	*Dispatcher

	machineName      string
	contentID        string
	maxScore         float64
	isTask           bool
	tag              string
	score            float64
	answered         bool
	showingSolutions bool
	resets           int
	view             *surface.Element
}

// NewExercise is the Constructor for ExerciseLibrary.
func NewExercise(desc Descriptor, contentID string, opts RunOptions) (Instance, error) {
	e := &Exercise{
		Dispatcher:  NewDispatcher(),
		machineName: desc.MachineName(),
		contentID:   contentID,
		tag:         "form",
	}

	if v, ok := number(desc.Params["maxScore"]); ok {
		if v < 0 {
			return nil, fmt.Errorf("exercise: negative maxScore %v", v)
		}
		e.maxScore = v
	}
	e.isTask = e.maxScore > 0
	if v, ok := desc.Params["isTask"].(bool); ok {
		e.isTask = v
	}
	if v, ok := desc.Params["tag"].(string); ok && v != "" {
		e.tag = v
	}

	if prev, ok := opts.PreviousState.(map[string]any); ok {
		if v, ok := number(prev["score"]); ok {
			e.score = v
		}
		if v, ok := prev["answered"].(bool); ok {
			e.answered = v
		}
	}

	return e, nil
}

func (e *Exercise) MachineName() string { return e.machineName }

func (e *Exercise) IsTask() bool { return e.isTask }

func (e *Exercise) Attach(target *surface.Element) {
	e.view = surface.NewElement(e.tag, "")
	e.view.AddClass("exercise")
	target.Append(e.view)
}

func (e *Exercise) Score() float64 { return e.score }

func (e *Exercise) MaxScore() float64 { return e.maxScore }

func (e *Exercise) AnswerGiven() bool { return e.answered }

func (e *Exercise) ResetTask() {
	e.score = 0
	e.answered = false
	e.showingSolutions = false
	e.resets++
}

func (e *Exercise) ShowSolutions() {
	e.showingSolutions = true
}

// ShowingSolutions reports whether solutions are currently revealed.
func (e *Exercise) ShowingSolutions() bool { return e.showingSolutions }

// Resets returns how many times ResetTask was called.
func (e *Exercise) Resets() int { return e.resets }

// Answer records a learner answer worth score and raises a scoring event.
// The score is clamped to [0, maxScore].
func (e *Exercise) Answer(score float64) {
	if score < 0 {
		score = 0
	}
	if e.maxScore > 0 && score > e.maxScore {
		score = e.maxScore
	}
	e.score = score
	e.answered = true

	success := e.maxScore > 0 && score >= e.maxScore
	e.Trigger(EventXAPI, Event{
		Verb: "answered",
		Result: &Result{
			Score:      Float(score),
			MaxScore:   e.maxScore,
			Completion: true,
			Success:    &success,
		},
	})
}

func (e *Exercise) XAPIData() *XAPIData {
	return &XAPIData{
		Statement: map[string]any{
			"verb":   "answered",
			"object": map[string]any{"id": e.contentID, "library": e.machineName},
			"result": map[string]any{
				"score": map[string]any{
					"raw": e.score,
					"max": e.maxScore,
				},
				"completion": e.answered,
			},
		},
	}
}

func (e *Exercise) CurrentState() any {
	return map[string]any{
		"score":    e.score,
		"answered": e.answered,
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
