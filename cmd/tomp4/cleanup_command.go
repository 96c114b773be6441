package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tomp4/internal/cleanup"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		all       bool
		types     string
		dryRun    bool
		permanent bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup [scope directories...]",
		Short: "Delete original files whose conversions are verified complete",
		Long: `Cleanup walks the progress store and removes source files that were
successfully converted, still match their recorded signature, and whose
MP4 destination still exists. Scope directories, when given, restrict
deletion to files under them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var policy cleanup.DeletePolicy
			switch {
			case all && types != "":
				return fmt.Errorf("--all and --types are mutually exclusive")
			case all:
				policy = cleanup.DeletePolicy{All: true}
			case types != "":
				var err error
				policy, err = cleanup.ParseDeletePolicy(types)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("nothing selected: pass --all or --types mkv,webm")
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			logger, logPath, err := ctx.buildLogger(uuid.NewString(), true, nil)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}

			summary := cleanup.Pass(store, cleanup.Options{
				Policy:    policy,
				Scope:     args,
				Permanent: permanent,
				DryRun:    dryRun,
			}, logger)

			out := cmd.OutOrStdout()
			removedLabel := "Removed"
			if dryRun {
				removedLabel = "Would remove"
			}
			rows := [][]string{
				{"Candidates", strconv.Itoa(summary.Candidates)},
				{removedLabel, strconv.Itoa(summary.Removed)},
				{"Skipped: extension", strconv.Itoa(summary.SkippedExtension)},
				{"Skipped: outside scope", strconv.Itoa(summary.SkippedScope)},
				{"Skipped: not successful", strconv.Itoa(summary.SkippedNotSuccess)},
				{"Skipped: destination missing", strconv.Itoa(summary.MissingDest)},
				{"Skipped: source missing", strconv.Itoa(summary.MissingSource)},
				{"Skipped: signature mismatch", strconv.Itoa(summary.SignatureMismatch)},
				{"Errors", strconv.Itoa(summary.Errors)},
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			if summary.Errors > 0 {
				fmt.Fprintf(out, "Some removals failed; see %s\n", logPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every recognized extension")
	cmd.Flags().StringVar(&types, "types", "", "Delete only these extensions, e.g. mkv,webm")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without removing anything")
	cmd.Flags().BoolVar(&permanent, "permanent", false, "Delete permanently instead of trashing")

	return cmd
}
