package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pictor/internal/cleanup"
	"pictor/internal/jp2maker"
	"pictor/internal/manifests"
	"pictor/internal/pdfs"
	"pictor/internal/prepare"
	"pictor/internal/routine"
	"pictor/internal/tiffprep"
	"pictor/internal/uploads"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline stage against the next waiting bag",
	}

	runCmd.AddCommand(newStageCommand(ctx,
		"prepare", "Unpack a transferred bag and fetch its descriptive metadata",
		prepare.Descriptor(),
		func(p *pipeline) (routine.Transform, error) {
			aspace, err := ctx.archivesSpaceClient()
			if err != nil {
				return nil, err
			}
			return prepare.New(p.cfg, aspace, p.logger)
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"prepare-tiff", "Rewrite tiled TIFFs in striped layout",
		tiffprep.Descriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return tiffprep.New(p.cfg, p.tools, p.logger), nil
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"make-jp2", "Encode page TIFFs as JPEG2000 derivatives",
		jp2maker.Descriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return jp2maker.New(p.cfg, p.tools, p.logger), nil
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"make-pdf", "Concatenate JP2 pages into a single PDF",
		pdfs.MakerDescriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return pdfs.NewMaker(p.cfg, p.tools, p.logger), nil
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"compress-pdf", "Compress the concatenated PDF",
		pdfs.CompressorDescriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return pdfs.NewCompressor(p.cfg, p.tools, p.logger), nil
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"ocr-pdf", "Add a searchable text layer to the PDF",
		pdfs.OCRerDescriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return pdfs.NewOCRer(p.cfg, p.tools, p.logger), nil
		}))

	runCmd.AddCommand(newStageCommand(ctx,
		"make-manifest", "Render the IIIF presentation manifest",
		manifests.MakerDescriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return manifests.NewMaker(p.cfg, p.logger), nil
		}))

	runCmd.AddCommand(newUploadCommand(ctx))

	runCmd.AddCommand(newStageCommand(ctx,
		"cleanup", "Remove local artifacts of an uploaded bag",
		cleanup.Descriptor(),
		func(p *pipeline) (routine.Transform, error) {
			return cleanup.New(p.cfg, p.logger), nil
		}))

	return runCmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publish derivatives to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline) error {
				gateway, err := ctx.storageClient()
				if err != nil {
					return err
				}
				stage := uploads.New(gateway, replace, p.logger)
				outcome, err := routine.NewRunner(p.store, p.logger).Run(cmd.Context(), uploads.Descriptor(), stage)
				return printOutcome(cmd, outcome, err)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite objects already present in the remote store")
	return cmd
}

func newStageCommand(ctx *commandContext, use, short string, desc routine.Descriptor, build func(*pipeline) (routine.Transform, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline) error {
				transform, err := build(p)
				if err != nil {
					return err
				}
				outcome, err := routine.NewRunner(p.store, p.logger).Run(cmd.Context(), desc, transform)
				return printOutcome(cmd, outcome, err)
			})
		},
	}
}

func printOutcome(cmd *cobra.Command, outcome routine.Outcome, err error) error {
	if err != nil {
		if len(outcome.Processed) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed: %s\n", strings.Join(outcome.Processed, ", "))
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, outcome.Message)
	if len(outcome.Processed) > 0 {
		fmt.Fprintf(out, "Processed: %s\n", strings.Join(outcome.Processed, ", "))
	}
	return nil
}
