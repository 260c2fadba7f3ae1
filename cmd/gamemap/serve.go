package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/GameMap/internal/api"
	"github.com/AaronLay10/GameMap/internal/config"
	"github.com/AaronLay10/GameMap/internal/events"
	"github.com/AaronLay10/GameMap/internal/gamemap"
	"github.com/AaronLay10/GameMap/internal/mqtt"
	"github.com/AaronLay10/GameMap/internal/schedule"
	"github.com/AaronLay10/GameMap/internal/storage/postgres"
	"github.com/AaronLay10/GameMap/internal/storage/sqlite"
)

var flagFresh bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the map session",
	Long: `Load the map named in the service config and serve it.

Progress is saved to SQLite after every change and resumed on the next
start. When storage.postgres is on, events are also appended to the
Postgres event log, which is used to restore stage states if no local
progress exists. When mqtt.enabled is on, map events are published to
gamemap/<content_id>/events and operator commands are read from
gamemap/<content_id>/commands.

Examples:
  gamemap serve --config examples/config.yaml
  gamemap serve --fresh          # ignore saved progress`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagFresh, "fresh", false, "Start without saved progress")
}

// mapPath resolves the map file relative to the config file.
func mapPath(cfg *config.ServiceConfig) string {
	if filepath.IsAbs(cfg.Map.Path) {
		return cfg.Map.Path
	}
	return filepath.Join(filepath.Dir(flagConfig), cfg.Map.Path)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.LoadServiceConfig(flagConfig)
	if err != nil {
		return err
	}
	def, err := gamemap.LoadDefinition(mapPath(cfg))
	if err != nil {
		return err
	}

	name := cfg.Service.Name
	if name == "" {
		name = cfg.Service.ID
	}
	api.InitMetrics()
	api.SetServiceName(name)
	api.InitTLS(cfg.Network.TLSCert, cfg.Network.TLSKey)
	api.InitAlerts()
	if err := api.InitAuth(); err != nil {
		return err
	}

	session := events.NewSession()
	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "gamemap starting", map[string]interface{}{
		"service":    cfg.Service.ID,
		"content_id": def.ContentID,
		"hostname":   hostname,
		"pid":        os.Getpid(),
		"session_id": session,
	})
	api.SendAlert(api.AlertServiceRestart, api.SeverityInfo, "service started", map[string]interface{}{
		"content_id": def.ContentID,
		"hostname":   hostname,
	})

	store, err := sqlite.Open(cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer store.Close()

	var saved *sqlite.Progress
	if flagFresh {
		if err := store.Clear(def.ContentID); err != nil {
			return err
		}
	} else {
		saved, err = store.Load(def.ContentID)
		if err != nil && !errors.Is(err, sqlite.ErrNoProgress) {
			return err
		}
	}

	pg, restored := openEventLog(cfg, def, saved == nil && !flagFresh, log)
	if pg != nil {
		defer pg.Close()
	}

	loop := schedule.NewLoop()
	tracker := newProgressTracker(store, loop, log, def.ContentID)
	m, err := gamemap.New(def, gamemap.Deps{
		Scheduler:     loop,
		Engine:        cfg.Renderer.Engine,
		PreviousState: toSnapshots(saved),
	}, tracker.Hooks())
	if err != nil {
		return err
	}
	if restored != nil {
		m.ApplyRestored(restored)
	}
	tracker.attach(m)

	api.SetController(m, loop)
	api.SetMapReady(true)
	log.Info("map loaded",
		zap.String("content_id", def.ContentID),
		zap.Bool("resumed", saved != nil),
		zap.Float64("score", m.Score()),
		zap.Float64("max_score", m.MaxScore()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error { return api.ListenAndServe(ctx, cfg.UIPort()) })
	g.Go(func() error {
		api.RunAlertMonitor(ctx, 5*time.Second)
		return nil
	})

	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(cfg.MQTTURL(), cfg.MQTTClientID())
		commands := mqtt.NewCommandSubscriber(client, loop, m, def.ContentID)
		reporter := mqtt.NewReporter(client, def.ContentID)
		g.Go(func() error { return reporter.Run(ctx) })
		g.Go(func() error { return runMQTT(ctx, client, commands) })
	} else {
		api.SetMQTTState(false, true)
	}
	if pg != nil {
		g.Go(func() error { return watchPostgres(ctx, pg) })
	}

	err = g.Wait()
	api.SetMapReady(false)
	events.Emit("info", "system.shutdown", "gamemap stopping", map[string]interface{}{
		"content_id": def.ContentID,
	})
	return err
}

// openEventLog connects the Postgres event log when configured. If restore
// is set, stage states are rebuilt from the log.
func openEventLog(cfg *config.ServiceConfig, def *gamemap.Definition, restore bool, log *zap.Logger) (*postgres.Client, *gamemap.RestoredState) {
	if !cfg.Storage.Postgres {
		api.SetPostgresState(false, true)
		return nil, nil
	}

	pg, err := postgres.New(def.ContentID)
	if err != nil {
		log.Warn("postgres unavailable, continuing without event log", zap.Error(err))
		events.Emit("error", "system.error", "postgres unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		api.SetPostgresState(false, false)
		return nil, nil
	}
	events.SetPostgresClient(pg)
	api.SetPostgresState(true, false)

	if !restore {
		return pg, nil
	}
	state, n, err := gamemap.RestoreFromEvents(pg, def.ContentID, gamemap.DefaultRestoreLimit)
	if err != nil {
		log.Warn("event log restore failed", zap.Error(err))
		return pg, nil
	}
	gamemap.EmitStartupRestore(n, def.ContentID)
	return pg, state
}

// runMQTT keeps the command subscription alive and reports the broker
// connection to readiness until ctx is done.
func runMQTT(ctx context.Context, client *mqtt.Client, commands *mqtt.CommandSubscriber) error {
	subscribed := client.StartWithRetry(commands.Topic(), commands.Handler())

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		connected := client.IsConnected()
		if connected && !subscribed {
			subscribed = commands.Subscribe() == nil
		}
		api.SetMQTTState(connected, false)

		select {
		case <-ctx.Done():
			client.Disconnect()
			return nil
		case <-ticker.C:
		}
	}
}

// watchPostgres pings the event log and reports it to readiness.
func watchPostgres(ctx context.Context, pg *postgres.Client) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := pg.Ping(pingCtx)
		cancel()
		api.SetPostgresState(err == nil, false)
	}
}
