package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/manifests"
)

func newRecreateManifestCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "recreate-manifest [derived-id...]",
		Short: "Rebuild stored manifests from uploaded derivatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("--all cannot be combined with explicit identifiers")
			}
			if !all && len(args) == 0 {
				return errors.New("provide at least one derived identifier or --all")
			}

			return ctx.withPipeline(func(p *pipeline) error {
				gateway, err := ctx.storageClient()
				if err != nil {
					return err
				}
				describe, err := ctx.descriptionClient()
				if err != nil {
					return err
				}
				recreator := manifests.NewRecreator(p.cfg, p.store, gateway, describe, p.logger)
				out := cmd.OutOrStdout()

				if all {
					processed, err := recreator.RunAll(cmd.Context())
					if err != nil {
						return err
					}
					if len(processed) == 0 {
						fmt.Fprintln(out, "No stored manifests found")
						return nil
					}
					fmt.Fprintf(out, "Manifests recreated: %s\n", strings.Join(processed, ", "))
					return nil
				}

				for _, derivedID := range args {
					key, err := recreator.Run(cmd.Context(), derivedID)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Manifest recreated: %s\n", key)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Recreate every manifest present in the remote store")
	return cmd
}
