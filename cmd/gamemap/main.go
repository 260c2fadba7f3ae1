// gamemap runs an interactive stage map as a service.
//
// Usage:
//
//	gamemap serve                 - Run the map session with its HTTP API and MQTT bridge
//	gamemap validate <map.json>   - Check a map definition
//	gamemap inspect               - Show saved progress and best completions
//
// Global flags:
//
//	--config <path>  - Service config (default: config.yaml)
//	--debug          - Development logging
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/api"
	"github.com/AaronLay10/GameMap/internal/gamemap"
	"github.com/AaronLay10/GameMap/internal/mqtt"
	"github.com/AaronLay10/GameMap/internal/stage"
	"github.com/AaronLay10/GameMap/internal/version"
)

var (
	flagConfig string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "gamemap",
	Short:   "GameMap - run interactive stage maps",
	Version: version.Version,
	Long: `GameMap hosts a map of interactive stages. Stages unlock as their
neighbors are completed, and progress is saved locally.

Examples:
  gamemap serve --config examples/config.yaml
  gamemap validate examples/maps/demo-map.v1.json
  gamemap inspect --config examples/config.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Path to service config")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable development logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
}

// newLogger builds the process logger and hands it to every package that logs.
func newLogger() (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if flagDebug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	stage.SetLogger(log.Named("stage"))
	gamemap.SetLogger(log.Named("map"))
	mqtt.SetLogger(log.Named("mqtt"))
	api.SetLogger(log.Named("api"))
	return log, nil
}
