package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/GameMap/internal/content"
	"github.com/AaronLay10/GameMap/internal/gamemap"
)

var validateCmd = &cobra.Command{
	Use:   "validate <map.json>",
	Short: "Check a map definition",
	Long: `Parse and validate a map definition, then list its stages.

Stages whose content library is not registered are reported; they load
as unavailable stages at runtime.

Examples:
  gamemap validate examples/maps/demo-map.v1.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	def, err := gamemap.LoadDefinition(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	lib := content.DefaultLibrary()

	fmt.Fprintf(out, "%s (%s), roaming=%s\n", def.Title, def.ContentID, def.Roaming)
	fmt.Fprintln(out, strings.Repeat("-", 50))

	missing := 0
	for _, s := range def.Stages {
		flags := ""
		if s.Start {
			flags += " start"
		}
		if !lib.Has(s.Content.MachineName()) {
			flags += " UNKNOWN-LIBRARY"
			missing++
		}
		fmt.Fprintf(out, "%-10s %-20s neighbors=%s%s\n",
			s.ID, s.Content.MachineName(), strings.Join(def.Neighbors(s.ID), ","), flags)
		if s.Condition != "" {
			fmt.Fprintf(out, "%-10s condition: %s\n", "", s.Condition)
		}
	}

	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "%d stages, %d with unknown content\n", len(def.Stages), missing)
	return nil
}
