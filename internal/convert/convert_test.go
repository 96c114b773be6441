package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tomp4/internal/cleanup"
	"tomp4/internal/config"
	"tomp4/internal/logging"
	"tomp4/internal/progress"
	"tomp4/internal/testsupport"
)

const aacProbePayload = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"format_name": "matroska"}
}`

type harness struct {
	cfg     *config.Config
	store   *progress.Store
	failed  *progress.FailedList
	logPath string
	binDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &harness{
		cfg:     cfg,
		store:   progress.Open(cfg.ProgressStorePath(), logging.NewNop()),
		failed:  progress.NewFailedList(cfg.FailedListPath()),
		logPath: filepath.Join(t.TempDir(), "invocations.log"),
		binDir:  t.TempDir(),
	}
}

func (h *harness) orchestrator(t *testing.T, ffmpeg, ffprobe string, events chan<- Event) *Orchestrator {
	t.Helper()
	return New(h.cfg, ffmpeg, ffprobe, h.store, h.failed, logging.NewNop(), "", events)
}

func defaultOptions(cfg *config.Config) Options {
	return Options{
		CRF:    cfg.Conversion.CRF,
		Preset: cfg.Conversion.Preset,
		Tune:   cfg.Conversion.Tune,
	}
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)
	ffprobe := testsupport.FFprobeStub(t, h.binDir, aacProbePayload)

	dir := t.TempDir()
	mkv := filepath.Join(dir, "a.mkv")
	webm := filepath.Join(dir, "b.webm")
	testsupport.WriteFile(t, mkv, 1024)
	testsupport.WriteFile(t, webm, 1024)

	orch := h.orchestrator(t, ffmpeg, ffprobe, nil)
	summary, err := orch.Run(context.Background(), []string{mkv, webm}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Converted != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	calls := testsupport.Invocations(t, h.logPath)
	if len(calls) != 2 {
		t.Fatalf("expected one invocation per input, got %d:\n%s", len(calls), strings.Join(calls, "\n"))
	}
	// MKV with AAC audio remuxes with stream copy on both tracks.
	if !strings.Contains(calls[0], "-c:v copy") || !strings.Contains(calls[0], "-c:a copy") {
		t.Errorf("remux invocation = %q", calls[0])
	}
	if strings.Contains(calls[0], "aac") {
		t.Errorf("compatible audio should not be re-encoded: %q", calls[0])
	}
	// WEBM transcodes at the configured quality.
	if !strings.Contains(calls[1], "-c:v libx264") || !strings.Contains(calls[1], "-crf 18") || !strings.Contains(calls[1], "-preset slow") {
		t.Errorf("transcode invocation = %q", calls[1])
	}

	for _, src := range []string{mkv, webm} {
		rec, ok := h.store.Get(src)
		if !ok || !rec.Success {
			t.Errorf("record for %s = %+v ok=%v", src, rec, ok)
		}
		if !strings.HasSuffix(rec.Dest, ".mp4") {
			t.Errorf("dest for %s = %q", src, rec.Dest)
		}
	}

	// Second run with unchanged files skips everything with zero invocations.
	summary, err = orch.Run(context.Background(), []string{mkv, webm}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if summary.Skipped != 2 || summary.Converted != 0 {
		t.Fatalf("second-run summary = %+v", summary)
	}
	if calls := testsupport.Invocations(t, h.logPath); len(calls) != 2 {
		t.Errorf("second run should invoke nothing, log has %d entries", len(calls))
	}
}

func TestRunRemuxFallback(t *testing.T) {
	h := newHarness(t)
	// Primary remux (audio stream copy) fails; the fallback succeeds.
	body := `echo "$@" >> ` + "'" + h.logPath + "'" + `
case " $* " in *" -c:a copy "*) exit 1 ;; esac
for dst; do :; done
printf 'converted' > "$dst"
exit 0
`
	ffmpeg := testsupport.StubScript(t, h.binDir, "ffmpeg", body)
	ffprobe := testsupport.FFprobeStub(t, h.binDir, aacProbePayload)

	mkv := filepath.Join(t.TempDir(), "a.mkv")
	testsupport.WriteFile(t, mkv, 1024)

	orch := h.orchestrator(t, ffmpeg, ffprobe, nil)
	summary, err := orch.Run(context.Background(), []string{mkv}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Converted != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	calls := testsupport.Invocations(t, h.logPath)
	if len(calls) != 2 {
		t.Fatalf("expected primary plus fallback, got %d", len(calls))
	}
	if !strings.Contains(calls[1], "-c:a aac") || strings.Contains(calls[1], "mov_text") {
		t.Errorf("fallback invocation = %q", calls[1])
	}
}

func TestRunBothRemuxAttemptsFail(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.FailingFFmpegStub(t, h.binDir, h.logPath, "1")
	ffprobe := testsupport.FFprobeStub(t, h.binDir, aacProbePayload)

	mkv := filepath.Join(t.TempDir(), "a.mkv")
	testsupport.WriteFile(t, mkv, 1024)

	orch := h.orchestrator(t, ffmpeg, ffprobe, nil)
	summary, err := orch.Run(context.Background(), []string{mkv}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Converted != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if calls := testsupport.Invocations(t, h.logPath); len(calls) != 2 {
		t.Errorf("both attempts should run, got %d", len(calls))
	}

	rec, ok := h.store.Get(mkv)
	if !ok || rec.Success {
		t.Errorf("failed task should be recorded with success=false, got %+v ok=%v", rec, ok)
	}
	failed, err := os.ReadFile(h.failed.Path())
	if err != nil {
		t.Fatalf("read failed list: %v", err)
	}
	if !strings.Contains(string(failed), mkv) {
		t.Errorf("failed list should name the source, got %q", failed)
	}
}

func TestRunEmptyDestinationIsFailure(t *testing.T) {
	h := newHarness(t)
	body := `echo "$@" >> ` + "'" + h.logPath + "'" + `
for dst; do :; done
: > "$dst"
exit 0
`
	ffmpeg := testsupport.StubScript(t, h.binDir, "ffmpeg", body)

	webm := filepath.Join(t.TempDir(), "b.webm")
	testsupport.WriteFile(t, webm, 1024)

	orch := h.orchestrator(t, ffmpeg, "", nil)
	summary, err := orch.Run(context.Background(), []string{webm}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("clean exit with empty destination must fail, summary = %+v", summary)
	}
}

func TestRunForceReconverts(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)

	webm := filepath.Join(t.TempDir(), "b.webm")
	testsupport.WriteFile(t, webm, 1024)

	orch := h.orchestrator(t, ffmpeg, "", nil)
	if _, err := orch.Run(context.Background(), []string{webm}, defaultOptions(h.cfg)); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	opts := defaultOptions(h.cfg)
	opts.Force = true
	summary, err := orch.Run(context.Background(), []string{webm}, opts)
	if err != nil {
		t.Fatalf("forced Run failed: %v", err)
	}
	if summary.Converted != 1 || summary.Skipped != 0 {
		t.Fatalf("forced summary = %+v", summary)
	}
	if calls := testsupport.Invocations(t, h.logPath); len(calls) != 2 {
		t.Errorf("force should reconvert, got %d invocations", len(calls))
	}
}

func TestRunCooperativeStop(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)

	webm := filepath.Join(t.TempDir(), "b.webm")
	testsupport.WriteFile(t, webm, 1024)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := h.orchestrator(t, ffmpeg, "", nil)
	summary, err := orch.Run(ctx, []string{webm}, defaultOptions(h.cfg))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Stopped || summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if calls := testsupport.Invocations(t, h.logPath); len(calls) != 0 {
		t.Errorf("cancelled run should start no tasks, got %d invocations", len(calls))
	}
}

func TestRunDeleteAfterConversion(t *testing.T) {
	h := newHarness(t)
	t.Setenv("XDG_DATA_HOME", filepath.Join(t.TempDir(), "data"))
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)

	webm := filepath.Join(t.TempDir(), "b.webm")
	testsupport.WriteFile(t, webm, 1024)

	opts := defaultOptions(h.cfg)
	opts.DeletePolicy = cleanup.DeletePolicy{All: true}

	orch := h.orchestrator(t, ffmpeg, "", nil)
	summary, err := orch.Run(context.Background(), []string{webm}, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Converted != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(webm); !os.IsNotExist(err) {
		t.Error("source should be removed after a verified conversion")
	}
	if _, err := os.Stat(DestinationPath(webm)); err != nil {
		t.Errorf("destination should remain: %v", err)
	}
}

func TestRunDeleteAfterDryRun(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)

	webm := filepath.Join(t.TempDir(), "b.webm")
	testsupport.WriteFile(t, webm, 1024)

	opts := defaultOptions(h.cfg)
	opts.DeletePolicy = cleanup.DeletePolicy{All: true}
	opts.DryRun = true

	orch := h.orchestrator(t, ffmpeg, "", nil)
	if _, err := orch.Run(context.Background(), []string{webm}, opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(webm); err != nil {
		t.Error("dry-run must leave the source in place")
	}
}

func TestRunEmitsEvents(t *testing.T) {
	h := newHarness(t)
	ffmpeg := testsupport.RecordingFFmpegStub(t, h.binDir, h.logPath)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.webm")
	second := filepath.Join(dir, "b.webm")
	testsupport.WriteFile(t, first, 1024)
	testsupport.WriteFile(t, second, 1024)

	events := make(chan Event, 8)
	orch := h.orchestrator(t, ffmpeg, "", events)
	if _, err := orch.Run(context.Background(), []string{first, second}, defaultOptions(h.cfg)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	close(events)

	var progressEvents, doneEvents int
	var lastIndex int
	for ev := range events {
		switch ev.Kind {
		case EventProgress:
			progressEvents++
			if ev.Index <= lastIndex {
				t.Errorf("progress indices should increase, got %d after %d", ev.Index, lastIndex)
			}
			lastIndex = ev.Index
			if ev.Total != 2 || ev.Outcome != OutcomeConverted {
				t.Errorf("progress event = %+v", ev)
			}
		case EventDone:
			doneEvents++
			if ev.Summary == nil || ev.Summary.Converted != 2 {
				t.Errorf("done event = %+v", ev)
			}
		}
	}
	if progressEvents != 2 || doneEvents != 1 {
		t.Errorf("events = %d progress, %d done", progressEvents, doneEvents)
	}
}

func TestDestinationPath(t *testing.T) {
	tests := []struct{ src, want string }{
		{"/videos/a.mkv", "/videos/a.mp4"},
		{"/videos/b.webm", "/videos/b.mp4"},
		{"/videos/c.ogv", "/videos/c.mp4"},
		{"/videos/dotted.name.mkv", "/videos/dotted.name.mp4"},
	}
	for _, tt := range tests {
		if got := DestinationPath(tt.src); got != tt.want {
			t.Errorf("DestinationPath(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
