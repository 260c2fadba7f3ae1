package gamemap

import (
	"strconv"
	"strings"

	"github.com/AaronLay10/GameMap/internal/shared"
)

// EvalContext provides context for condition evaluation.
type EvalContext struct {
	States map[string]shared.State
	Score  float64
}

// EvalCondition evaluates a stage unlock condition.
// Supported patterns:
//   - "" (empty = always true)
//   - "<stageID>.cleared"   stage reached cleared
//   - "<stageID>.completed" stage reached completed or cleared
//   - "<stageID>.opened"    stage has been opened at least once
//   - "score >= <N>"        aggregated map score
//   - any of the above joined with "&&"
func EvalCondition(expr string, ctx *EvalContext) bool {
	expr = strings.TrimSpace(expr)

	if expr == "" {
		return true
	}
	if ctx == nil {
		ctx = &EvalContext{}
	}

	if strings.Contains(expr, "&&") {
		parts := strings.SplitN(expr, "&&", 2)
		return EvalCondition(parts[0], ctx) && EvalCondition(parts[1], ctx)
	}

	if strings.HasPrefix(expr, "score") {
		return evalScore(strings.TrimSpace(strings.TrimPrefix(expr, "score")), ctx.Score)
	}

	stageID, suffix, ok := cutLast(expr, ".")
	if !ok {
		return false
	}
	st, known := ctx.States[stageID]
	if !known {
		return false
	}
	switch suffix {
	case "cleared":
		return st == shared.StateCleared
	case "completed":
		return shared.IsDone(st)
	case "opened":
		return st >= shared.StateOpened
	}

	return false
}

// ValidCondition reports whether expr uses only supported patterns and,
// for stage references, only ids in known.
func ValidCondition(expr string, known map[string]bool) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	for _, part := range strings.Split(expr, "&&") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "score") {
			if _, _, ok := parseComparison(strings.TrimSpace(strings.TrimPrefix(part, "score"))); !ok {
				return false
			}
			continue
		}
		id, suffix, ok := cutLast(part, ".")
		if !ok || !known[id] {
			return false
		}
		switch suffix {
		case "cleared", "completed", "opened":
		default:
			return false
		}
	}
	return true
}

func evalScore(rest string, score float64) bool {
	op, n, ok := parseComparison(rest)
	if !ok {
		return false
	}
	switch op {
	case ">=":
		return score >= n
	case ">":
		return score > n
	case "==":
		return score == n
	}
	return false
}

// parseComparison parses "<op> <number>" for op in >=, >, ==.
func parseComparison(s string) (string, float64, bool) {
	for _, op := range []string{">=", "==", ">"} {
		if strings.HasPrefix(s, op) {
			n, err := strconv.ParseFloat(strings.TrimSpace(s[len(op):]), 64)
			if err != nil {
				return "", 0, false
			}
			return op, n, true
		}
	}
	return "", 0, false
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
