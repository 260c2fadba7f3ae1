package gamemap

import (
	"testing"

	"github.com/AaronLay10/GameMap/internal/shared"
)

func TestConditionEvaluator(t *testing.T) {
	if !EvalCondition("", nil) {
		t.Error("empty condition should return true")
	}

	ctx := &EvalContext{
		States: map[string]shared.State{
			"quiz":  shared.StateCleared,
			"video": shared.StateCompleted,
			"intro": shared.StateOpened,
			"final": shared.StateUnstarted,
		},
		Score: 7,
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"quiz.cleared", true},
		{"video.cleared", false},
		{"video.completed", true},
		{"quiz.completed", true},
		{"intro.completed", false},
		{"intro.opened", true},
		{"final.opened", false},
		{"missing.cleared", false},
		{"quiz.unknown", false},
		{"score >= 7", true},
		{"score >= 8", false},
		{"score > 6.5", true},
		{"score == 7", true},
		{"score >= x", false},
		{"quiz.cleared && video.completed", true},
		{"quiz.cleared && final.opened", false},
		{"quiz.cleared && video.completed && score >= 5", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := EvalCondition(tt.expr, ctx); got != tt.want {
				t.Errorf("EvalCondition(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestValidCondition(t *testing.T) {
	known := map[string]bool{"quiz": true, "video": true}

	valid := []string{"", "quiz.cleared", "video.completed && score >= 3", " quiz.opened "}
	for _, expr := range valid {
		if !ValidCondition(expr, known) {
			t.Errorf("expected %q to be valid", expr)
		}
	}

	invalid := []string{"other.cleared", "quiz.solved", "score", "score <= 3", "quiz"}
	for _, expr := range invalid {
		if ValidCondition(expr, known) {
			t.Errorf("expected %q to be invalid", expr)
		}
	}
}
