package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// readinessState tracks the dependencies /ready reports on.
type readinessState struct {
	mu                sync.RWMutex
	mapReady          bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{
	mqttOptional:     true,
	postgresOptional: true,
}

// CheckResult is the status of one dependency.
type CheckResult struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

// ReadinessResponse is the body of /ready.
type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

// SetMapReady marks whether the map session is built and running.
func SetMapReady(ready bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mapReady = ready
}

// SetMQTTState records the broker connection and whether it is optional.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
}

// SetPostgresState records the event log connection and whether it is optional.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
}

func dependencyCheck(connected, optional bool) (CheckResult, bool) {
	switch {
	case connected:
		return CheckResult{Status: "ok", Optional: optional}, true
	case optional:
		return CheckResult{Status: "unavailable", Optional: true}, true
	default:
		return CheckResult{Status: "not_ready"}, false
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	mapReady := readiness.mapReady
	mqttCheck, mqttOK := dependencyCheck(readiness.mqttConnected, readiness.mqttOptional)
	pgCheck, pgOK := dependencyCheck(readiness.postgresConnected, readiness.postgresOptional)
	readiness.mu.RUnlock()

	resp := ReadinessResponse{
		Ready: true,
		Checks: map[string]CheckResult{
			"mqtt":     mqttCheck,
			"postgres": pgCheck,
		},
	}

	var reasons []string
	if mapReady {
		resp.Checks["map"] = CheckResult{Status: "ok"}
	} else {
		resp.Checks["map"] = CheckResult{Status: "not_ready"}
		reasons = append(reasons, "map not loaded")
	}
	if !mqttOK {
		reasons = append(reasons, "mqtt not connected")
	}
	if !pgOK {
		reasons = append(reasons, "postgres not connected")
	}

	w.Header().Set("Content-Type", "application/json")
	if len(reasons) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
