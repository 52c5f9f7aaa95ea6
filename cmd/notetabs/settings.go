package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"pkt.systems/notetabs/internal/appconfig"
	"pkt.systems/notetabs/internal/settings"
	"pkt.systems/pslog"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change editor settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openSettings(cmd, opts)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), prefs.Get())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting; a running serve picks it up",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openSettings(cmd, opts)
			if err != nil {
				return err
			}
			next, err := prefs.Set(args[0], args[1])
			if err != nil {
				return err
			}
			value, _ := next.Lookup(args[0])
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			return err
		},
	})
	return cmd
}

func openSettings(cmd *cobra.Command, opts *rootOptions) (*settings.Manager, error) {
	cfg, err := appconfig.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	return settings.Open(cfg.SettingsFile, pslog.Ctx(cmd.Context()))
}

func printSettings(w io.Writer, s settings.Settings) {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, key := range settings.Keys {
		value, _ := s.Lookup(key)
		tbl.AddRow(bold.Sprint(key), value)
	}
	_, _ = fmt.Fprintln(w, tbl)
}
