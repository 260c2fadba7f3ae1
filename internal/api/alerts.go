package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert event types
const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
	AlertServiceRestart      = "service_restart"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Service   string                 `json:"service"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertConfig holds alert configuration.
type AlertConfig struct {
	WebhookURL              string
	MQTTDisconnectDelay     time.Duration
	PostgresDisconnectDelay time.Duration
}

// connWatch debounces one connection's outages into a single alert and a
// single recovery notice.
type connWatch struct {
	event    string
	severity string
	label    string
	delay    func() time.Duration

	down      bool
	downSince time.Time
	alerted   bool
}

var (
	alertConfig = &AlertConfig{
		MQTTDisconnectDelay:     30 * time.Second,
		PostgresDisconnectDelay: 5 * time.Second,
	}
	alertMu          sync.Mutex
	alertInitialized bool

	mqttWatch = &connWatch{
		event: AlertMQTTDisconnected, severity: SeverityWarning, label: "MQTT broker",
		delay: func() time.Duration { return alertConfig.MQTTDisconnectDelay },
	}
	postgresWatch = &connWatch{
		event: AlertPostgresUnavailable, severity: SeverityCritical, label: "PostgreSQL",
		delay: func() time.Duration { return alertConfig.PostgresDisconnectDelay },
	}

	// sendAlert is swapped in tests.
	sendAlert = SendAlert
)

// InitAlerts reads GAMEMAP_ALERT_WEBHOOK_URL and the optional
// GAMEMAP_MQTT_ALERT_DELAY / GAMEMAP_POSTGRES_ALERT_DELAY durations.
func InitAlerts() {
	alertMu.Lock()
	defer alertMu.Unlock()

	alertConfig.WebhookURL = os.Getenv("GAMEMAP_ALERT_WEBHOOK_URL")
	for env, dst := range map[string]*time.Duration{
		"GAMEMAP_MQTT_ALERT_DELAY":     &alertConfig.MQTTDisconnectDelay,
		"GAMEMAP_POSTGRES_ALERT_DELAY": &alertConfig.PostgresDisconnectDelay,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			Logger().Warn("ignoring invalid alert delay", zap.String("env", env), zap.String("value", v))
			continue
		}
		*dst = d
	}

	if alertConfig.WebhookURL != "" {
		Logger().Info("alerts enabled",
			zap.Duration("mqtt_delay", alertConfig.MQTTDisconnectDelay),
			zap.Duration("postgres_delay", alertConfig.PostgresDisconnectDelay))
	}

	*mqttWatch = connWatch{event: mqttWatch.event, severity: mqttWatch.severity, label: mqttWatch.label, delay: mqttWatch.delay}
	*postgresWatch = connWatch{event: postgresWatch.event, severity: postgresWatch.severity, label: postgresWatch.label, delay: postgresWatch.delay}
	alertInitialized = true
}

// GetAlertWebhookURL returns the configured webhook URL.
func GetAlertWebhookURL() string {
	alertMu.Lock()
	defer alertMu.Unlock()
	return alertConfig.WebhookURL
}

// SendAlert posts an alert to the webhook in the background. Without a
// webhook the alert is only logged.
func SendAlert(event, severity, message string, details map[string]interface{}) {
	alertMu.Lock()
	webhookURL := alertConfig.WebhookURL
	alertMu.Unlock()

	if webhookURL == "" {
		Logger().Warn("alert",
			zap.String("event", event),
			zap.String("severity", severity),
			zap.String("message", message),
			zap.Any("details", details))
		return
	}

	service := GetServiceName()
	if service == "" {
		service = "unknown"
	}
	payload := AlertPayload{
		Service:   service,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}
	go sendWebhook(webhookURL, payload)
}

func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		Logger().Error("alert: failed to marshal payload", zap.Error(err))
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		Logger().Error("alert: webhook POST failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		Logger().Error("alert: webhook rejected alert", zap.Int("status", resp.StatusCode))
	}
}

// observe updates the watch with the current state at now. Caller holds alertMu.
func (c *connWatch) observe(connected bool, now time.Time) {
	if connected {
		if c.down && c.alerted {
			go sendAlert(c.event, SeverityInfo, c.label+" connection restored", map[string]interface{}{
				"recovered_at": now.UTC().Format(time.RFC3339),
			})
		}
		c.down, c.alerted, c.downSince = false, false, time.Time{}
		return
	}

	if !c.down {
		c.down = true
		c.downSince = now
	}
	if c.alerted {
		return
	}
	if d := now.Sub(c.downSince); d >= c.delay() {
		c.alerted = true
		go sendAlert(c.event, c.severity, c.label+" disconnected", map[string]interface{}{
			"disconnected_since":   c.downSince.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(d.Seconds()),
		})
	}
}

// CheckAndAlertMQTT feeds the broker state into the MQTT watch.
func CheckAndAlertMQTT(connected bool) {
	alertMu.Lock()
	defer alertMu.Unlock()
	if alertInitialized {
		mqttWatch.observe(connected, time.Now())
	}
}

// CheckAndAlertPostgres feeds the event log state into the Postgres watch.
// Only called when Postgres is configured.
func CheckAndAlertPostgres(connected bool) {
	alertMu.Lock()
	defer alertMu.Unlock()
	if alertInitialized {
		postgresWatch.observe(connected, time.Now())
	}
}

// RunAlertMonitor samples readiness every interval until ctx is done.
// Optional dependencies are not watched.
func RunAlertMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		readiness.mu.RLock()
		mqttConnected, mqttOptional := readiness.mqttConnected, readiness.mqttOptional
		pgConnected, pgOptional := readiness.postgresConnected, readiness.postgresOptional
		readiness.mu.RUnlock()

		if !mqttOptional {
			CheckAndAlertMQTT(mqttConnected)
		}
		if !pgOptional {
			CheckAndAlertPostgres(pgConnected)
		}
	}
}
