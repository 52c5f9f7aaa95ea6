package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/internal/appconfig"
	"pkt.systems/notetabs/internal/export"
	"pkt.systems/pslog"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var toStdout bool
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write every tab to a plain-text file",
		Long:  "Write every tab to a plain-text file. A directory receives notes-YYYY-MM-DD.txt; without a path export.default_path is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, cfg appconfig.Config) error {
				if toStdout {
					return svc.Export(ctx, cmd.OutOrStdout())
				}
				target := cfg.Export.DefaultPath
				if len(args) == 1 {
					target = args[0]
				}
				path, err := export.ToFile(ctx, svc, target)
				if err != nil {
					return err
				}
				pslog.Ctx(ctx).Info("export wrote", "path", path)
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the export to stdout")
	return cmd
}
