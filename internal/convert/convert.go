// Package convert runs the conversion queue: one task at a time, remux or
// transcode by container, with per-task progress persistence and an
// optional delete-after step.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tomp4/internal/cleanup"
	"tomp4/internal/config"
	"tomp4/internal/ffmpeg"
	"tomp4/internal/fileutil"
	"tomp4/internal/logging"
	"tomp4/internal/media/probe"
	"tomp4/internal/progress"
)

// Outcome classifies what happened to one task.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeConverted Outcome = "converted"
	OutcomeFailed    Outcome = "failed"
)

// Options holds the per-run conversion settings merged from config and CLI
// flags. Quality parameters feed the transcode path only; the remux path
// never re-encodes video.
type Options struct {
	CRF      int
	Preset   string
	Tune     string
	Lossless bool

	Force     bool
	DryRun    bool
	Permanent bool

	DeletePolicy cleanup.DeletePolicy
}

// Summary reports a whole run.
type Summary struct {
	Total     int
	Processed int
	Converted int
	Skipped   int
	Failed    int
	Stopped   bool
}

func (s Summary) String() string {
	return fmt.Sprintf("Converted %d/%d, skipped %d", s.Converted, s.Total, s.Skipped)
}

// EventKind discriminates orchestrator events.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
)

// Event is a message to the run's observer: one progress event after every
// task, one done event with the summary when the run ends.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	Source  string
	Outcome Outcome
	Summary *Summary
}

// Orchestrator drives one conversion run over an input queue.
type Orchestrator struct {
	cfg       *config.Config
	store     *progress.Store
	failed    *progress.FailedList
	inspector *probe.Inspector
	runner    *ffmpeg.Runner
	logger    *slog.Logger
	runID     string
	events    chan<- Event
}

// New assembles an orchestrator. An empty runID gets a fresh one. events
// may be nil; when set, the caller must drain it for the run's lifetime.
func New(cfg *config.Config, ffmpegPath, ffprobePath string, store *progress.Store, failed *progress.FailedList, logger *slog.Logger, runID string, events chan<- Event) *Orchestrator {
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logging.NewComponentLogger(logger, "convert").With(logging.String(logging.FieldRunID, runID))
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		failed:    failed,
		inspector: probe.NewInspector(ffmpegPath, ffprobePath, logger),
		runner:    ffmpeg.NewRunner(ffmpegPath, logger),
		logger:    log,
		runID:     runID,
		events:    events,
	}
}

// RunID returns the correlation ID stamped on this run's log lines.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// DestinationPath maps a source path to its MP4 sibling.
func DestinationPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".mp4"
}

// Run processes inputs strictly in order. The only fatal condition is an
// unresolved ffmpeg binary; every per-task failure is contained, recorded,
// and the run moves on. Cancellation is cooperative: checked before each
// task, never killing an in-flight child.
func (o *Orchestrator) Run(ctx context.Context, inputs []string, opts Options) (Summary, error) {
	summary := Summary{Total: len(inputs)}
	if len(inputs) == 0 {
		o.logger.Info("nothing to convert")
		o.emit(Event{Kind: EventDone, Total: 0, Summary: &summary})
		return summary, nil
	}

	o.logger.Info("conversion run started",
		logging.Int("tasks", len(inputs)),
		logging.Bool("force", opts.Force),
		logging.Bool("dry_run", opts.DryRun),
		logging.String("delete_policy", opts.DeletePolicy.String()))

	for i, src := range inputs {
		if err := ctx.Err(); err != nil {
			summary.Stopped = true
			o.logger.Info("run stopped cooperatively",
				logging.Int("processed", summary.Processed),
				logging.Int("remaining", summary.Total-summary.Processed))
			break
		}

		outcome := o.processTask(ctx, src, opts)
		summary.Processed++
		switch outcome {
		case OutcomeConverted:
			summary.Converted++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}

		if err := o.store.Save(); err != nil {
			o.logger.Error("persisting progress failed",
				logging.String(logging.FieldSource, src),
				logging.Error(err))
		}
		o.emit(Event{Kind: EventProgress, Index: i + 1, Total: summary.Total, Source: src, Outcome: outcome})
	}

	o.logger.Info("conversion run finished",
		logging.Int("converted", summary.Converted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Bool("stopped", summary.Stopped))
	o.emit(Event{Kind: EventDone, Index: summary.Processed, Total: summary.Total, Summary: &summary})
	return summary, nil
}

func (o *Orchestrator) emit(ev Event) {
	if o.events != nil {
		o.events <- ev
	}
}

// processTask runs the per-task state machine. Every error path inside is
// contained to a failed outcome; nothing here aborts the run.
func (o *Orchestrator) processTask(ctx context.Context, src string, opts Options) Outcome {
	dst := DestinationPath(src)
	log := o.logger.With(logging.String(logging.FieldSource, src), logging.String(logging.FieldDest, dst))

	if !opts.Force && o.store.AlreadyDone(src, dst) {
		log.Info("already converted; skipping")
		o.store.Record(src, dst, true)
		return OutcomeSkipped
	}

	var converted bool
	switch strings.ToLower(filepath.Ext(src)) {
	case ".mkv":
		converted = o.remux(ctx, src, dst, log)
	default:
		converted = o.transcode(ctx, src, dst, opts, log)
	}

	o.store.Record(src, dst, converted)
	if !converted {
		log.Warn("conversion failed")
		if err := o.failed.Append(src); err != nil {
			log.Error("recording failed item", logging.Error(err))
		}
		return OutcomeFailed
	}

	log.Info("conversion succeeded")
	o.deleteAfter(src, opts, log)
	return OutcomeConverted
}

// remux runs the MKV path: stream-copy video, copy or transcode audio based
// on what the inspector found, then one fallback attempt with audio forced
// to AAC and subtitles dropped.
func (o *Orchestrator) remux(ctx context.Context, src, dst string, log *slog.Logger) bool {
	codecs := o.inspector.AudioCodecs(ctx, src)
	transcodeAudio := probe.NeedsAudioTranscode(codecs, o.cfg.AudioCompatible)
	log.Info("remuxing",
		logging.String("audio_codecs", strings.Join(codecs, ",")),
		logging.Bool("transcode_audio", transcodeAudio))

	args := ffmpeg.RemuxArgs(src, dst, ffmpeg.RemuxOptions{
		TranscodeAudio: transcodeAudio,
		KeepSubtitles:  o.cfg.Conversion.KeepSubtitles,
		AudioBitrate:   o.cfg.Conversion.AudioBitrate,
	})
	if o.attempt(ctx, args, dst, log) {
		return true
	}

	log.Warn("remux failed; retrying with forced audio transcode and no subtitles")
	fallback := ffmpeg.RemuxFallbackArgs(src, dst, o.cfg.Conversion.AudioBitrate)
	return o.attempt(ctx, fallback, dst, log)
}

// transcode runs the full re-encode path used for containers whose video
// cannot be carried into MP4. No fallback exists here.
func (o *Orchestrator) transcode(ctx context.Context, src, dst string, opts Options, log *slog.Logger) bool {
	log.Info("transcoding",
		logging.Int("crf", opts.CRF),
		logging.String("preset", opts.Preset),
		logging.Bool("lossless", opts.Lossless))

	args := ffmpeg.TranscodeArgs(src, dst, ffmpeg.TranscodeOptions{
		CRF:          opts.CRF,
		Preset:       opts.Preset,
		Tune:         opts.Tune,
		Lossless:     opts.Lossless,
		AudioBitrate: o.cfg.Conversion.AudioBitrate,
	})
	return o.attempt(ctx, args, dst, log)
}

// attempt runs one ffmpeg invocation and applies the single success
// criterion: exit code zero and a non-empty destination.
func (o *Orchestrator) attempt(ctx context.Context, args []string, dst string, log *slog.Logger) bool {
	code, err := o.runner.Run(ctx, args)
	if err != nil {
		log.Error("launching ffmpeg failed", logging.Error(err))
		return false
	}
	if code != 0 {
		log.Warn("ffmpeg exited non-zero", logging.Int("exit_code", code))
		return false
	}
	if !fileutil.NonEmptyFile(dst) {
		log.Warn("ffmpeg exited cleanly but destination is missing or empty")
		return false
	}
	return true
}

func (o *Orchestrator) deleteAfter(src string, opts Options, log *slog.Logger) {
	if !opts.DeletePolicy.Enabled() {
		return
	}
	removed, err := cleanup.RemoveAfterConvert(src, o.store, cleanup.Options{
		Policy:    opts.DeletePolicy,
		Permanent: opts.Permanent,
		DryRun:    opts.DryRun,
	}, o.logger)
	if err != nil {
		log.Error("delete-after failed", logging.Error(err))
		return
	}
	if removed && opts.DryRun {
		log.Info("dry-run: source left in place")
	}
}
