package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"pkt.systems/notetabs/core"
	"pkt.systems/notetabs/internal/appconfig"
	"pkt.systems/notetabs/schema"
)

func newTabsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "Inspect and edit tabs",
	}
	cmd.AddCommand(
		newTabsListCmd(opts),
		newTabsAddCmd(opts),
		newTabsRemoveCmd(opts),
		newTabsSelectCmd(opts),
		newTabsShortcutCmd(opts),
		newTabsContentCmd(opts),
		newTabsTitleCmd(opts),
		newTabsColorCmd(opts),
		newTabsLockCmd(opts, true),
		newTabsLockCmd(opts, false),
	)
	return cmd
}

func newTabsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tabs in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
				resp, err := svc.ListTabs(ctx, schema.ListTabsRequest{})
				if err != nil {
					return err
				}
				printTabs(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
}

func printTabs(w io.Writer, resp schema.ListTabsResponse) {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow(bold.Sprint("#"), bold.Sprint("Title"), bold.Sprint("Color"), bold.Sprint("Lock"), bold.Sprint("ID"))
	for i, tab := range resp.Tabs {
		marker := strconv.Itoa(i + 1)
		if tab.ID == resp.Selected {
			marker = "*" + marker
		}
		lock := ""
		if tab.Locked {
			lock = "locked"
		}
		tbl.AddRow(marker, schema.DisplayTitle(tab, i), strconv.FormatFloat(tab.Color, 'f', -1, 64), lock, string(tab.ID))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}

func newTabsAddCmd(opts *rootOptions) *cobra.Command {
	var title string
	var hue float64
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Append a new tab",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			if fromStdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				content = string(data)
			}
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
				resp, err := svc.AddTab(ctx, schema.AddTabRequest{Content: content, Title: title, Color: hue})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", resp.Tab.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "explicit tab title")
	cmd.Flags().Float64Var(&hue, "color", 0, "tab hue in [0, 1)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read content from stdin")
	return cmd
}

func newTabsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <tab>",
		Aliases: []string{"remove"},
		Short:   "Remove a tab (the last tab and locked tabs stay)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
				tab, _, err := resolveTab(ctx, svc, args[0])
				if err != nil {
					return err
				}
				resp, err := svc.RemoveTab(ctx, schema.RemoveTabRequest{TabID: tab.ID})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !resp.Removed {
					reason := "it is the last tab"
					if tab.Locked {
						reason = "it is locked"
					}
					_, err = fmt.Fprintf(out, "kept %s: %s\n", tab.ID, reason)
					return err
				}
				_, err = fmt.Fprintf(out, "removed %s\n", tab.ID)
				return err
			})
		},
	}
}

func newTabsSelectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <tab>",
		Short: "Print a tab as selecting it would",
		Long:  "Print a tab as selecting it would. Selection is not saved; it lasts only for a running serve, where the HTTP API changes it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
				tab, _, err := resolveTab(ctx, svc, args[0])
				if err != nil {
					return err
				}
				resp, err := svc.SelectTab(ctx, schema.SelectTabRequest{TabID: tab.ID})
				if err != nil {
					return err
				}
				return printSelected(ctx, cmd.OutOrStdout(), svc, resp.Selected)
			})
		},
	}
}

func newTabsShortcutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shortcut <1-9>",
		Short: "Print the tab the numeric shortcut selects",
		Long:  "Print the tab the numeric shortcut selects. Selection is not saved; it lasts only for a running serve, where the HTTP API changes it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("shortcut must be a number: %w", err)
			}
			return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
				resp, err := svc.SelectShortcut(ctx, schema.SelectShortcutRequest{Number: n})
				if err != nil {
					return err
				}
				if !resp.Applied {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "shortcut %d has no tab\n", n)
					return err
				}
				return printSelected(ctx, cmd.OutOrStdout(), svc, resp.Selected)
			})
		},
	}
}

const selectionNote = "(selection is not saved; the next start selects the first tab)"

func printSelected(ctx context.Context, w io.Writer, svc core.Service, id schema.TabID) error {
	resp, err := svc.ListTabs(ctx, schema.ListTabsRequest{})
	if err != nil {
		return err
	}
	for i, tab := range resp.Tabs {
		if tab.ID != id {
			continue
		}
		_, _ = fmt.Fprintln(w, color.New(color.Bold).Sprintf("selected %d: %s", i+1, schema.DisplayTitle(tab, i)))
		_, _ = fmt.Fprintln(w, tab.Content)
		_, err = fmt.Fprintln(w, selectionNote)
		return err
	}
	return nil
}

func newTabsContentCmd(opts *rootOptions) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "content <tab> [text]",
		Short: "Replace a tab's content",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case fromStdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				content = string(data)
			case len(args) == 2:
				content = args[1]
			}
			return updateTab(cmd, opts, args[0], func(ctx context.Context, svc core.Service, id schema.TabID) (schema.UpdateTabResponse, error) {
				return svc.UpdateContent(ctx, schema.UpdateContentRequest{TabID: id, Content: content})
			})
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read content from stdin")
	return cmd
}

func newTabsTitleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "title <tab> [title]",
		Short: "Set a tab title; omit it to clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 2 {
				title = args[1]
			}
			return updateTab(cmd, opts, args[0], func(ctx context.Context, svc core.Service, id schema.TabID) (schema.UpdateTabResponse, error) {
				return svc.UpdateTitle(ctx, schema.UpdateTitleRequest{TabID: id, Title: title})
			})
		},
	}
}

func newTabsColorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "color <tab> <hue|palette-index>",
		Short: "Set a tab hue; small integers pick from the palette",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hue, err := parseHue(args[1])
			if err != nil {
				return err
			}
			return updateTab(cmd, opts, args[0], func(ctx context.Context, svc core.Service, id schema.TabID) (schema.UpdateTabResponse, error) {
				return svc.UpdateColor(ctx, schema.UpdateColorRequest{TabID: id, Color: hue})
			})
		},
	}
}

// parseHue accepts a hue in [0, 1) or a palette index written as "#N".
func parseHue(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "#") {
		idx, err := strconv.Atoi(strings.TrimPrefix(value, "#"))
		if err != nil || idx < 0 || idx >= len(schema.Palette) {
			return 0, fmt.Errorf("palette index must be #0..#%d", len(schema.Palette)-1)
		}
		return schema.Palette[idx], nil
	}
	hue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hue %q: %w", value, err)
	}
	return hue, schema.ValidateColor(hue)
}

func newTabsLockCmd(opts *rootOptions, locked bool) *cobra.Command {
	use, short := "lock <tab>", "Lock a tab against removal"
	if !locked {
		use, short = "unlock <tab>", "Allow a tab to be removed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTab(cmd, opts, args[0], func(ctx context.Context, svc core.Service, id schema.TabID) (schema.UpdateTabResponse, error) {
				return svc.UpdateLocked(ctx, schema.UpdateLockedRequest{TabID: id, Locked: locked})
			})
		},
	}
}

func updateTab(cmd *cobra.Command, opts *rootOptions, ref string, fn func(context.Context, core.Service, schema.TabID) (schema.UpdateTabResponse, error)) error {
	return withService(cmd, opts, func(ctx context.Context, svc core.Service, _ appconfig.Config) error {
		tab, idx, err := resolveTab(ctx, svc, ref)
		if err != nil {
			return err
		}
		resp, err := fn(ctx, svc, tab.ID)
		if err != nil {
			return err
		}
		if !resp.Applied {
			return fmt.Errorf("%w: %s", schema.ErrTabNotFound, tab.ID)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %d: %s\n", idx+1, schema.DisplayTitle(resp.Tab, idx))
		return err
	})
}
