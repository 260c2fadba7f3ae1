// Package api serves the HTTP surface of a map session: health and
// readiness probes, the event history and live stream, metrics, and the
// stage and operator endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/storage/postgres"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "gamemap",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// eventsHandler returns the in-memory recent events. With ?source=log it
// reads the Postgres event log instead, newest first, up to ?limit rows and
// optionally no older than ?since.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("source") != "log" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events.Snapshot())
		return
	}

	pg := events.GetPostgresClient()
	if pg == nil {
		writeError(w, http.StatusServiceUnavailable, "event log not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	var (
		rows []postgres.EventRow
		err  error
	)
	if since := r.URL.Query().Get("since"); since != "" {
		ts, perr := time.Parse(time.RFC3339, since)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		rows, err = pg.QuerySince(ts, limit)
	} else {
		rows, err = pg.Query(limit)
	}
	if err != nil {
		Logger().Error("event log query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "event log query failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// eventNamesHandler lists the registered event names, for building
// ?prefix= filters on the stream.
func eventNamesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Names(r.URL.Query().Get("prefix")))
}

// NewMux builds the router with every endpoint.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("/events/names", eventNamesHandler)
	mux.HandleFunc("/ws/events", RequireAnyRole(wsEventsHandler))

	mux.HandleFunc("/stages", stagesHandler)
	mux.HandleFunc("/stages/open", RequireAnyRole(stageOpenHandler))
	mux.HandleFunc("/stages/show-solutions", RequireAnyRole(stageSolutionsHandler))
	mux.HandleFunc("/stages/answer", RequireAnyRole(stageAnswerHandler))
	mux.HandleFunc("/operator/reset", RequireAnyRole(operatorResetHandler))
	mux.HandleFunc("/operator/reset-map", RequireAdmin(operatorResetMapHandler))
	return mux
}

// ListenAndServe starts the API server on the given port and shuts it down
// when ctx is done. It uses TLS when configured.
func ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tlsCfg := LoadTLSConfig()
	if tlsCfg != nil {
		srv.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		Logger().Info("api listening", zap.String("addr", srv.Addr), zap.Bool("tls", tlsCfg != nil))
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
