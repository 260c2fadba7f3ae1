package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/gamemap"
)

// MapController is the map surface the stage endpoints drive.
type MapController interface {
	ContentID() string
	Stages() []gamemap.StageView
	Score() float64
	MaxScore() float64
	IsCompleted() bool
	OpenStage(id string) error
	ShowSolutions(id string) error
	ShowAllSolutions()
	Answer(id string, score float64) error
	ResetStage(id string) error
	Reset()
}

// Runner runs fn on the goroutine that owns the map.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

var (
	controllerMu sync.RWMutex
	controller   MapController
	runner       Runner
)

// requestTimeout bounds how long a request waits for the map's loop.
const requestTimeout = 5 * time.Second

// SetController sets the map the stage endpoints act on. Every call into c
// is made through r.
func SetController(c MapController, r Runner) {
	controllerMu.Lock()
	defer controllerMu.Unlock()
	controller = c
	runner = r
}

// onMap runs fn against the controller on the map's goroutine.
func onMap(r *http.Request, fn func(c MapController)) error {
	controllerMu.RLock()
	c, run := controller, runner
	controllerMu.RUnlock()
	if c == nil || run == nil {
		return errNoMap
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	return run.Do(ctx, func() { fn(c) })
}

var errNoMap = errors.New("no map loaded")

type StagesResponse struct {
	ContentID string              `json:"content_id"`
	Score     float64             `json:"score"`
	MaxScore  float64             `json:"max_score"`
	Completed bool                `json:"completed"`
	Stages    []gamemap.StageView `json:"stages"`
}

type StageRequest struct {
	StageID string   `json:"stage_id"`
	Score   *float64 `json:"score,omitempty"`
}

type OperatorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, OperatorResponse{OK: false, Error: msg})
}

// statusFor maps map errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gamemap.ErrStageNotFound):
		return http.StatusNotFound
	case errors.Is(err, gamemap.ErrStageLocked),
		errors.Is(err, gamemap.ErrStageUnavailable),
		errors.Is(err, gamemap.ErrStageNotViewed):
		return http.StatusConflict
	case errors.Is(err, gamemap.ErrNotAnswerable):
		return http.StatusBadRequest
	case errors.Is(err, errNoMap):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func stagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var resp StagesResponse
	err := onMap(r, func(c MapController) {
		resp = StagesResponse{
			ContentID: c.ContentID(),
			Score:     c.Score(),
			MaxScore:  c.MaxScore(),
			Completed: c.IsCompleted(),
			Stages:    c.Stages(),
		}
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeStageRequest reads a POST body. requireStage rejects an empty stage_id.
func decodeStageRequest(w http.ResponseWriter, r *http.Request, requireStage bool) (*StageRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	var req StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	if requireStage && req.StageID == "" {
		writeError(w, http.StatusBadRequest, "stage_id required")
		return nil, false
	}
	return &req, true
}

// runStageAction applies action on the map and writes the result.
func runStageAction(w http.ResponseWriter, r *http.Request, action func(c MapController) error) {
	var actionErr error
	if err := onMap(r, func(c MapController) { actionErr = action(c) }); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if actionErr != nil {
		writeError(w, statusFor(actionErr), actionErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func stageOpenHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStageRequest(w, r, true)
	if !ok {
		return
	}
	runStageAction(w, r, func(c MapController) error {
		if err := c.OpenStage(req.StageID); err != nil {
			return err
		}
		events.Emit("info", "operator.open", "", map[string]interface{}{
			"stage_id": req.StageID,
		})
		return nil
	})
}

func stageSolutionsHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStageRequest(w, r, false)
	if !ok {
		return
	}
	runStageAction(w, r, func(c MapController) error {
		if req.StageID == "" {
			c.ShowAllSolutions()
			return nil
		}
		return c.ShowSolutions(req.StageID)
	})
}

func stageAnswerHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStageRequest(w, r, true)
	if !ok {
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "score required")
		return
	}
	runStageAction(w, r, func(c MapController) error {
		if err := c.Answer(req.StageID, *req.Score); err != nil {
			return err
		}
		events.Emit("info", "operator.answer", "", map[string]interface{}{
			"stage_id": req.StageID,
			"score":    *req.Score,
		})
		return nil
	})
}

func operatorResetHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStageRequest(w, r, true)
	if !ok {
		return
	}
	runStageAction(w, r, func(c MapController) error {
		if err := c.ResetStage(req.StageID); err != nil {
			return err
		}
		events.Emit("info", "operator.reset", "", map[string]interface{}{
			"stage_id": req.StageID,
		})
		return nil
	})
}

func operatorResetMapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	runStageAction(w, r, func(c MapController) error {
		c.Reset()
		events.Emit("info", "operator.reset", "", map[string]interface{}{
			"stage_id": "*",
		})
		return nil
	})
}
