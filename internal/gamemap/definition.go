package gamemap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AaronLay10/GameMap/internal/content"
)

// Roaming modes control how locked stages become reachable.
const (
	RoamingFree     = "free"
	RoamingComplete = "complete"
	RoamingSuccess  = "success"
)

// Definition is the top-level map document loaded from JSON.
type Definition struct {
	Version   int            `json:"version"`
	ContentID string         `json:"content_id"`
	Title     string         `json:"title"`
	Roaming   string         `json:"roaming"`
	Stages    []StageDef     `json:"stages"`
	Params    map[string]any `json:"params,omitempty"`
}

// StageDef is one stage on the map.
type StageDef struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Start     bool     `json:"start"`
	Neighbors []string `json:"neighbors"`
	// Condition replaces the neighbor rule when set. See EvalCondition.
	Condition string             `json:"condition,omitempty"`
	Content   content.Descriptor `json:"content"`
}

// LoadDefinition loads a map definition from a JSON file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map definition file: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes and validates a map definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse map definition JSON: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the structural rules of a definition. It fills in the
// default roaming mode.
func (d *Definition) Validate() error {
	if d.Version != 1 {
		return fmt.Errorf("unsupported map definition version: %d", d.Version)
	}
	if d.ContentID == "" {
		return fmt.Errorf("map definition: content_id is required")
	}
	if d.Roaming == "" {
		d.Roaming = RoamingFree
	}
	switch d.Roaming {
	case RoamingFree, RoamingComplete, RoamingSuccess:
	default:
		return fmt.Errorf("map definition: unknown roaming mode %q", d.Roaming)
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("map definition: no stages")
	}

	ids := make(map[string]bool, len(d.Stages))
	hasStart := false
	for _, s := range d.Stages {
		if s.ID == "" {
			return fmt.Errorf("map definition: stage without id")
		}
		if ids[s.ID] {
			return fmt.Errorf("map definition: duplicate stage id %q", s.ID)
		}
		ids[s.ID] = true
		if s.Start {
			hasStart = true
		}
	}
	for _, s := range d.Stages {
		for _, n := range s.Neighbors {
			if !ids[n] {
				return fmt.Errorf("map definition: stage %q has unknown neighbor %q", s.ID, n)
			}
		}
		if !ValidCondition(s.Condition, ids) {
			return fmt.Errorf("map definition: stage %q has invalid condition %q", s.ID, s.Condition)
		}
	}
	if d.Roaming != RoamingFree && !hasStart {
		return fmt.Errorf("map definition: roaming %q needs at least one start stage", d.Roaming)
	}
	return nil
}

// Stage returns the definition of stage id, or nil.
func (d *Definition) Stage(id string) *StageDef {
	for i := range d.Stages {
		if d.Stages[i].ID == id {
			return &d.Stages[i]
		}
	}
	return nil
}

// Neighbors returns the stages connected to id in either direction.
func (d *Definition) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if n != id && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, s := range d.Stages {
		if s.ID == id {
			for _, n := range s.Neighbors {
				add(n)
			}
			continue
		}
		for _, n := range s.Neighbors {
			if n == id {
				add(s.ID)
			}
		}
	}
	return out
}
