package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tomp4/internal/cleanup"
	"tomp4/internal/convert"
	"tomp4/internal/deps"
	"tomp4/internal/logging"
	"tomp4/internal/progress"
	"tomp4/internal/scan"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		crf       int
		preset    string
		tune      string
		lossless  bool
		force     bool
		dryRun    bool
		permanent bool
		deleteRaw string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "convert [files or directories...]",
		Short: "Convert the given files and directories to MP4",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			inputs, err := scan.CollectInputs(args, cfg.RecognizedExtension)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No convertible files found.")
				return nil
			}

			policy, err := cleanup.ParseDeletePolicy(deleteRaw)
			if err != nil {
				return err
			}

			tools := deps.Locate(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			if tools.FFmpeg == "" {
				return fmt.Errorf("ffmpeg not found next to the executable, in the configured path, or on PATH")
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			interactive := !plain && stderrIsTerminal()
			runID := uuid.NewString()
			var hub *logging.StreamHub
			if interactive {
				// Console logging is off while the bar runs; keep the
				// recent records around for failure reporting.
				hub = logging.NewStreamHub(256)
			}
			logger, logPath, err := ctx.buildLogger(runID, !interactive, hub)
			if err != nil {
				return err
			}

			opts := convert.Options{
				CRF:          cfg.Conversion.CRF,
				Preset:       cfg.Conversion.Preset,
				Tune:         cfg.Conversion.Tune,
				Lossless:     cfg.Conversion.Lossless,
				Force:        force,
				DryRun:       dryRun,
				Permanent:    permanent,
				DeletePolicy: policy,
			}
			if cmd.Flags().Changed("crf") {
				opts.CRF = crf
			}
			if cmd.Flags().Changed("preset") {
				opts.Preset = preset
			}
			if cmd.Flags().Changed("tune") {
				opts.Tune = tune
			}
			if cmd.Flags().Changed("lossless") {
				opts.Lossless = lossless
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			failed := progress.NewFailedList(cfg.FailedListPath())

			events := make(chan convert.Event, len(inputs)+1)
			var consumer sync.WaitGroup
			consumer.Add(1)
			go func() {
				defer consumer.Done()
				consumeEvents(cmd, events, len(inputs), interactive)
			}()

			orch := convert.New(cfg, tools.FFmpeg, tools.FFprobe, store, failed, logger, runID, events)
			summary, err := orch.Run(runCtx, inputs, opts)
			close(events)
			consumer.Wait()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, summary.String())
			if summary.Stopped {
				fmt.Fprintf(out, "Stopped early after %d of %d tasks.\n", summary.Processed, summary.Total)
			}
			if summary.Failed > 0 {
				fmt.Fprintf(out, "%d failed; see %s and %s\n", summary.Failed, failed.Path(), logPath)
				if hub != nil {
					for _, ev := range hub.Tail(10) {
						fmt.Fprintf(out, "  %s %s\n", ev.Level, ev.Message)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&crf, "crf", 0, "Constant rate factor for the transcode path")
	cmd.Flags().StringVar(&preset, "preset", "", "Encoder preset for the transcode path")
	cmd.Flags().StringVar(&tune, "tune", "", "Encoder tune profile (film, animation, ...)")
	cmd.Flags().BoolVar(&lossless, "lossless", false, "Lossless transcode (crf 0)")
	cmd.Flags().BoolVar(&force, "force", false, "Reconvert even when a file is already done")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log deletions without removing anything")
	cmd.Flags().BoolVar(&permanent, "permanent", false, "Delete sources permanently instead of trashing them")
	cmd.Flags().StringVar(&deleteRaw, "delete", "none", "Delete sources after conversion: none, all, or extensions like mkv,webm")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable the interactive progress bar")

	return cmd
}

// consumeEvents renders per-task progress: a live bar on a terminal, one
// line per task otherwise.
func consumeEvents(cmd *cobra.Command, events <-chan convert.Event, total int, interactive bool) {
	var bar *progressbar.ProgressBar
	if interactive {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	for ev := range events {
		switch ev.Kind {
		case convert.EventProgress:
			if bar != nil {
				bar.Describe(filepath.Base(ev.Source))
				_ = bar.Set(ev.Index)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", ev.Index, ev.Total, ev.Outcome, ev.Source)
			}
		case convert.EventDone:
			if bar != nil {
				_ = bar.Finish()
			}
		}
	}
}
