package gamemap

// Access is the map-owned reachability of a stage.
type Access string

const (
	AccessLocked    Access = "locked"
	AccessUnlocking Access = "unlocking"
	AccessOpen      Access = "open"
)

// StageView is a read-only summary of one stage.
type StageView struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	Access           Access  `json:"access"`
	State            string  `json:"state"`
	Score            float64 `json:"score"`
	MaxScore         float64 `json:"max_score"`
	Task             bool    `json:"task"`
	Available        bool    `json:"available"`
	Attached         bool    `json:"attached"`
	ShowingSolutions bool    `json:"showing_solutions"`
}

// StageSnapshot is the resumable progress of one stage.
type StageSnapshot struct {
	StageID      string  `json:"stage_id"`
	State        string  `json:"state"`
	Score        float64 `json:"score"`
	ContentState any     `json:"content_state,omitempty"`
}
