package shared

import "fmt"

// State is an integer-coded progress state. Codes are ordered: a higher code
// means further progress.
type State int

const (
	StateUnstarted State = iota
	StateLocked
	StateUnlocking
	StateOpen
	StateOpened
	StateCompleted
	StateCleared
)

var stateNames = []string{
	"unstarted",
	"locked",
	"unlocking",
	"open",
	"opened",
	"completed",
	"cleared",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// StateTable maps symbolic state names to their codes.
type StateTable struct {
	names []string
	codes map[string]State
}

// DefaultStates returns the standard seven-state table.
func DefaultStates() *StateTable {
	t := &StateTable{
		names: append([]string{}, stateNames...),
		codes: make(map[string]State, len(stateNames)),
	}
	for i, name := range stateNames {
		t.codes[name] = State(i)
	}
	return t
}

// Code resolves a symbolic name. ok is false for unknown names.
func (t *StateTable) Code(name string) (State, bool) {
	if t == nil {
		return 0, false
	}
	code, ok := t.codes[name]
	return code, ok
}

// Name returns the symbolic name of a code, or "" if the code is not in the table.
func (t *StateTable) Name(code State) string {
	if !t.Has(code) {
		return ""
	}
	return t.names[code]
}

// Has returns true if code is part of the table.
func (t *StateTable) Has(code State) bool {
	return t != nil && code >= 0 && int(code) < len(t.names)
}

// Names returns the state names in code order.
func (t *StateTable) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string{}, t.names...)
}

// IsDone returns true for states that count as finished work on a stage.
func IsDone(s State) bool {
	return s == StateCompleted || s == StateCleared
}
