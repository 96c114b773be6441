package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tomp4/internal/deps"
	"tomp4/internal/logging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tool availability and conversion history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			tools := deps.Locate(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			toolRows := make([][]string, 0, 2)
			for _, status := range deps.Check(tools) {
				detail := status.Path
				if !status.Available {
					detail = status.Detail
				}
				toolRows = append(toolRows, []string{status.Name, yesNo(status.Available), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Available", "Location"}, toolRows, nil))

			store, err := ctx.openStore(logging.NewNop())
			if err != nil {
				return err
			}
			records := store.Records()
			if len(records) == 0 {
				fmt.Fprintln(out, "No conversions recorded yet.")
				return nil
			}

			sources := make([]string, 0, len(records))
			for src := range records {
				sources = append(sources, src)
			}
			sort.Strings(sources)

			var succeeded int
			rows := make([][]string, 0, len(sources))
			for _, src := range sources {
				rec := records[src]
				size := "-"
				if rec.Signature != nil {
					size = humanize.IBytes(uint64(rec.Signature.Size))
				}
				if rec.Success {
					succeeded++
				}
				rows = append(rows, []string{
					src,
					yesNo(rec.Success),
					size,
					humanize.Time(rec.UpdatedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Converted", "Size", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d recorded, %d successful. Store: %s\n", len(records), succeeded, store.Path())
			return nil
		},
	}
	return cmd
}
