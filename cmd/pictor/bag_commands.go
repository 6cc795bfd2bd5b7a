package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pictor/internal/bags"
	"pictor/internal/config"
)

func newBagsCommand(ctx *commandContext) *cobra.Command {
	bagsCmd := &cobra.Command{
		Use:   "bags",
		Short: "Inspect and manage bag records",
	}

	bagsCmd.AddCommand(newBagsAddCommand(ctx))
	bagsCmd.AddCommand(newBagsListCommand(ctx))
	bagsCmd.AddCommand(newBagsShowCommand(ctx))
	bagsCmd.AddCommand(newBagsReclaimCommand(ctx))

	return bagsCmd
}

func newBagsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <identifier>...",
		Short: "Register transferred bags for processing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *bags.Store) error {
				out := cmd.OutOrStdout()
				for _, identifier := range args {
					added, err := store.Add(cmd.Context(), &bags.Bag{
						Identifier: identifier,
						Origin:     bags.OriginDigitization,
					})
					if err != nil {
						return fmt.Errorf("add bag %q: %w", identifier, err)
					}
					fmt.Fprintf(out, "Added bag %s (id %d)\n", added.Identifier, added.ID)
				}
				return nil
			})
		},
	}
}

func newBagsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bag records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []bags.Status
			if statusFlag != "" {
				status, ok := bags.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(_ *config.Config, store *bags.Store) error {
				records, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No bags found")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, bag := range records {
					rows = append(rows, []string{
						fmt.Sprintf("%d", bag.ID),
						bag.Identifier,
						string(bag.Status),
						bag.DerivedIdentifier,
						bag.UpdatedAt.Local().Format("2006-01-02 15:04"),
						bag.ErrorMessage,
					})
				}
				printRows(cmd.OutOrStdout(),
					[]string{"ID", "Identifier", "Status", "Derived ID", "Updated", "Error"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Only list bags in this status")
	return cmd
}

func newBagsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <identifier>",
		Short: "Show one bag record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *bags.Store) error {
				bag, err := store.GetByIdentifier(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if bag == nil {
					bag, err = store.GetByDerivedIdentifier(cmd.Context(), args[0])
					if err != nil {
						return err
					}
				}
				if bag == nil {
					return fmt.Errorf("no bag %q", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:                 %d\n", bag.ID)
				fmt.Fprintf(out, "Identifier:         %s\n", bag.Identifier)
				fmt.Fprintf(out, "Origin:             %s\n", bag.Origin)
				fmt.Fprintf(out, "Status:             %s\n", bag.Status)
				fmt.Fprintf(out, "Derived identifier: %s\n", bag.DerivedIdentifier)
				fmt.Fprintf(out, "Title:              %s\n", bag.Title)
				fmt.Fprintf(out, "Display date:       %s\n", bag.DisplayDate)
				fmt.Fprintf(out, "Local path:         %s\n", bag.LocalPath)
				fmt.Fprintf(out, "PDF path:           %s\n", bag.PDFPath)
				fmt.Fprintf(out, "Created:            %s\n", bag.CreatedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Updated:            %s\n", bag.UpdatedAt.Local().Format(time.RFC3339))
				if bag.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:              %s\n", bag.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func newBagsReclaimCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Roll stale in-progress bags back to their stage start status",
		Long: strings.TrimSpace(`
Roll stale in-progress bags back to their stage start status.

A bag stuck in an in-progress status usually means a previous invocation
was killed mid-stage. Reclaiming reverts such bags so the next run can
pick them up again.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return ctx.withStore(func(_ *config.Config, store *bags.Store) error {
				reclaimed, err := store.ReclaimStale(cmd.Context(), time.Now().UTC().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %d bag(s)\n", reclaimed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 6*time.Hour, "Reclaim bags stuck in progress longer than this")
	return cmd
}
