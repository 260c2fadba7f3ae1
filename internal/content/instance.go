package content

import "github.com/AaronLay10/GameMap/internal/surface"

// Library machine names that get type-specific treatment.
const (
	VideoLibrary    = "H5P.Video"
	AudioLibrary    = "H5P.Audio"
	ExerciseLibrary = "Stage.Exercise"
)

// Instance is the runnable content object created for a stage.
// Everything beyond events and identification is optional and expressed
// through the capability interfaces below.
type Instance interface {
	Emitter
	MachineName() string
}

type Attacher interface {
	Attach(target *surface.Element)
}

type Scorer interface {
	Score() float64
}

type MaxScorer interface {
	MaxScore() float64
}

type AnswerReporter interface {
	AnswerGiven() bool
}

type TaskResetter interface {
	ResetTask()
}

type SolutionShower interface {
	ShowSolutions()
}

type XAPIExporter interface {
	XAPIData() *XAPIData
}

// TaskDeclarer is implemented by content that states explicitly whether it
// is a task. The declaration wins over max-score probing.
type TaskDeclarer interface {
	IsTask() bool
}

// StateExporter is implemented by content whose progress can be resumed.
type StateExporter interface {
	CurrentState() any
}

// XAPIData is the reporting export of an instance.
type XAPIData struct {
	Statement map[string]any `json:"statement"`
	Children  []*XAPIData    `json:"children,omitempty"`
}
