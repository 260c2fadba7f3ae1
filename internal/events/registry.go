package events

import (
	"fmt"
	"sort"
	"strings"
)

// registered lists every event name Emit accepts, grouped by prefix.
var registered = map[string][]string{
	"stage": {
		"created", "unavailable", "state_changed", "score_changed",
		"unlocked", "opened", "reset", "solutions_shown",
	},
	"map":      {"started", "completed", "reset", "restored"},
	"operator": {"reset", "open", "answer"},
	"mqtt":     {"connected", "disconnected", "command"},
	"system":   {"startup", "shutdown", "error", "startup_restore"},
}

var allowedEvents = func() map[string]struct{} {
	out := make(map[string]struct{})
	for prefix, names := range registered {
		for _, n := range names {
			out[prefix+"."+n] = struct{}{}
		}
	}
	return out
}()

// Validate rejects event names that are not registered.
func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}

// Names returns every registered event name, sorted. With a prefix such as
// "stage." only matching names are returned.
func Names(prefix string) []string {
	var out []string
	for name := range allowedEvents {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
