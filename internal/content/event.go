package content

// Event names with meaning to the stage runtime.
const (
	EventXAPI   = "xAPI"
	EventResize = "resize"
)

// Result is the scoring part of an xAPI event.
type Result struct {
	Score      *float64 `json:"score,omitempty"`
	MaxScore   float64  `json:"max_score"`
	Completion bool     `json:"completion"`
	Success    *bool    `json:"success,omitempty"`
}

// Event is what content and orchestrating instances raise.
type Event struct {
	Name   string
	Verb   string
	Result *Result
	Data   any
}

// Score returns the event's score and whether it carries one.
func (e Event) Score() (float64, bool) {
	if e.Result == nil || e.Result.Score == nil {
		return 0, false
	}
	return *e.Result.Score, true
}

// Float returns a pointer to v, for building results.
func Float(v float64) *float64 {
	return &v
}

// Handler receives events.
type Handler func(Event)
