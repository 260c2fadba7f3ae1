package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/GameMap/internal/config"
	"github.com/AaronLay10/GameMap/internal/gamemap"
	"github.com/AaronLay10/GameMap/internal/storage/sqlite"
)

var flagInspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show saved progress and best completions",
	Long: `Print the saved stage progress for the configured map and its
best completed runs.

Examples:
  gamemap inspect --config examples/config.yaml
  gamemap inspect --limit 3`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&flagInspectLimit, "limit", 10, "Number of completions to show")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServiceConfig(flagConfig)
	if err != nil {
		return err
	}
	def, err := gamemap.LoadDefinition(mapPath(cfg))
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Progress - %s\n", def.ContentID)

	progress, err := store.Load(def.ContentID)
	switch {
	case errors.Is(err, sqlite.ErrNoProgress):
		fmt.Fprintln(out, "  no saved progress")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "  saved %s\n", progress.UpdatedAt.Local().Format("2006-01-02 15:04"))
		for _, r := range progress.Stages {
			fmt.Fprintf(out, "  %-10s %-10s %6.1f\n", r.StageID, r.State, r.Score)
		}
	}

	best, err := store.BestCompletions(def.ContentID, flagInspectLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nBest completions")
	if len(best) == 0 {
		fmt.Fprintln(out, "  none yet")
		return nil
	}
	for i, c := range best {
		fmt.Fprintf(out, "  %2d. %6.1f / %-6.1f %s\n", i+1, c.Score, c.MaxScore, c.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
