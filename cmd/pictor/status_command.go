package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/deps"
	"pictor/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and queue counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			toolRows := make([][]string, 0, 5)
			for _, status := range deps.CheckBinaries(deps.DefaultRequirements(cfg)) {
				state := "ok"
				if !status.Available {
					state = "missing"
				}
				toolRows = append(toolRows, []string{status.Name, status.Command, state, status.Detail})
			}
			fmt.Fprintln(out, "External tools:")
			printRows(out, []string{"Tool", "Command", "State", "Detail"}, toolRows)

			var aspace preflight.Pinger
			if client, err := ctx.archivesSpaceClient(); err == nil {
				aspace = client
			}
			checkRows := make([][]string, 0, 5)
			for _, result := range preflight.RunAll(cmd.Context(), cfg, aspace) {
				state := "ok"
				if !result.Passed {
					state = "failed"
				}
				checkRows = append(checkRows, []string{result.Name, state, result.Detail})
			}
			fmt.Fprintln(out, "Preflight checks:")
			printRows(out, []string{"Check", "State", "Detail"}, checkRows)

			return ctx.withStore(func(_ *config.Config, store *bags.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				statRows := make([][]string, 0, len(stats))
				for _, status := range bags.AllStatuses() {
					if count := stats[status]; count > 0 {
						statRows = append(statRows, []string{string(status), fmt.Sprintf("%d", count)})
					}
				}
				fmt.Fprintln(out, "Bags by status:")
				if len(statRows) == 0 {
					fmt.Fprintln(out, "  (none)")
					return nil
				}
				printRows(out, []string{"Status", "Count"}, statRows)
				return nil
			})
		},
	}
}
