package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu            sync.RWMutex
	startTime     time.Time
	serviceName   string
	score         float64
	maxScore      float64
	cleared       int
	total         int
	completed     bool
	completions   int64
	lastSavedUnix int64 // -1 until the first progress save
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
	metricsState.lastSavedUnix = -1
}

// SetServiceName sets the service label and the alert sender name.
func SetServiceName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.serviceName = name
}

// GetServiceName returns the current service name.
func GetServiceName() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.serviceName
}

// SetMapProgress records the aggregate map score and how many stages are cleared.
func SetMapProgress(score, maxScore float64, cleared, total int, completed bool) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	if completed && !metricsState.completed {
		metricsState.completions++
	}
	metricsState.score = score
	metricsState.maxScore = maxScore
	metricsState.cleared = cleared
	metricsState.total = total
	metricsState.completed = completed
}

// SetProgressSaved records the time of the last successful progress save.
func SetProgressSaved(ts time.Time) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.lastSavedUnix = ts.Unix()
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metricsState.mu.RLock()
	m := struct {
		start                 time.Time
		name                  string
		score, maxScore       float64
		cleared, total        int
		completed             bool
		completions, lastSave int64
	}{
		metricsState.startTime, metricsState.serviceName,
		metricsState.score, metricsState.maxScore,
		metricsState.cleared, metricsState.total,
		metricsState.completed,
		metricsState.completions, metricsState.lastSavedUnix,
	}
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	mapReady := readiness.mapReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	labels := fmt.Sprintf(`service="%s",instance="%s",version="%s"`, m.name, hostname, version.Version)
	writeMetric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("gamemap_uptime_seconds", "gauge",
		"Number of seconds since the service started", time.Since(m.start).Seconds())
	writeMetric("gamemap_map_ready", "gauge",
		"Whether the map session is running (1) or not (0)", boolGauge(mapReady))
	writeMetric("gamemap_map_score", "gauge",
		"Aggregate score across all stages", m.score)
	writeMetric("gamemap_map_max_score", "gauge",
		"Aggregate maximum score across all stages", m.maxScore)
	writeMetric("gamemap_stages_cleared", "gauge",
		"Number of stages in the cleared state or later", m.cleared)
	writeMetric("gamemap_stages_total", "gauge",
		"Number of stages on the map", m.total)
	writeMetric("gamemap_map_completed", "gauge",
		"Whether the map is completed (1) or not (0)", boolGauge(m.completed))
	writeMetric("gamemap_completions_total", "counter",
		"Number of times the map was completed since startup", m.completions)
	writeMetric("gamemap_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("gamemap_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected))
	writeMetric("gamemap_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected))
	writeMetric("gamemap_events_dropped_total", "counter",
		"Live event deliveries skipped for slow subscribers", events.DroppedCount())
	writeMetric("gamemap_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount())
	writeMetric("gamemap_progress_last_saved_timestamp", "gauge",
		"Unix timestamp of the last progress save (-1 if never)", m.lastSave)
}
