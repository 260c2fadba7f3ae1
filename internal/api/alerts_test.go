package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type sentAlert struct {
	event, severity, message string
}

func captureAlerts(t *testing.T) chan sentAlert {
	t.Helper()
	ch := make(chan sentAlert, 8)
	prev := sendAlert
	sendAlert = func(event, severity, message string, _ map[string]interface{}) {
		ch <- sentAlert{event, severity, message}
	}
	t.Cleanup(func() { sendAlert = prev })
	return ch
}

func expectAlert(t *testing.T, ch chan sentAlert) sentAlert {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(time.Second):
		t.Fatal("expected an alert")
		return sentAlert{}
	}
}

func expectNoAlert(t *testing.T, ch chan sentAlert) {
	t.Helper()
	select {
	case a := <-ch:
		t.Fatalf("unexpected alert %+v", a)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnWatchDebouncesOutage(t *testing.T) {
	ch := captureAlerts(t)
	w := &connWatch{
		event: AlertMQTTDisconnected, severity: SeverityWarning, label: "MQTT broker",
		delay: func() time.Duration { return 30 * time.Second },
	}
	t0 := time.Unix(1_700_000_000, 0)

	w.observe(false, t0)
	w.observe(false, t0.Add(10*time.Second))
	expectNoAlert(t, ch)

	w.observe(false, t0.Add(31*time.Second))
	a := expectAlert(t, ch)
	if a.event != AlertMQTTDisconnected || a.severity != SeverityWarning {
		t.Errorf("unexpected alert %+v", a)
	}

	// Still down: no repeat.
	w.observe(false, t0.Add(90*time.Second))
	expectNoAlert(t, ch)

	w.observe(true, t0.Add(100*time.Second))
	if a := expectAlert(t, ch); a.severity != SeverityInfo {
		t.Errorf("expected recovery notice, got %+v", a)
	}
}

func TestConnWatchShortBlipIsSilent(t *testing.T) {
	ch := captureAlerts(t)
	w := &connWatch{
		event: AlertPostgresUnavailable, severity: SeverityCritical, label: "PostgreSQL",
		delay: func() time.Duration { return 5 * time.Second },
	}
	t0 := time.Unix(1_700_000_000, 0)

	w.observe(false, t0)
	w.observe(true, t0.Add(2*time.Second))
	expectNoAlert(t, ch)
}

func TestInitAlertsFromEnv(t *testing.T) {
	t.Setenv("GAMEMAP_ALERT_WEBHOOK_URL", "http://hooks.local/alert")
	t.Setenv("GAMEMAP_MQTT_ALERT_DELAY", "2m")
	t.Setenv("GAMEMAP_POSTGRES_ALERT_DELAY", "bogus")
	prev := *alertConfig
	t.Cleanup(func() { *alertConfig = prev })

	InitAlerts()

	if GetAlertWebhookURL() != "http://hooks.local/alert" {
		t.Errorf("webhook = %q", GetAlertWebhookURL())
	}
	if alertConfig.MQTTDisconnectDelay != 2*time.Minute {
		t.Errorf("mqtt delay = %s", alertConfig.MQTTDisconnectDelay)
	}
	if alertConfig.PostgresDisconnectDelay != prev.PostgresDisconnectDelay {
		t.Errorf("invalid delay should be ignored, got %s", alertConfig.PostgresDisconnectDelay)
	}
}

func TestSendAlertPostsPayload(t *testing.T) {
	got := make(chan AlertPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p AlertPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		got <- p
	}))
	defer srv.Close()

	prev := *alertConfig
	alertConfig.WebhookURL = srv.URL
	t.Cleanup(func() { *alertConfig = prev })
	SetServiceName("demo-map")
	t.Cleanup(func() { SetServiceName("") })

	SendAlert(AlertServiceRestart, SeverityInfo, "restarted", nil)

	select {
	case p := <-got:
		if p.Service != "demo-map" || p.Event != AlertServiceRestart {
			t.Errorf("unexpected payload %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}
}
