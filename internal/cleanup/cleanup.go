// Package cleanup removes original source files whose conversions are
// verified complete, gated by an extension policy, scope containment, and a
// signature re-check against the progress snapshot.
package cleanup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tomp4/internal/fileutil"
	"tomp4/internal/logging"
	"tomp4/internal/progress"
	"tomp4/internal/trash"
)

// deleteFile is swapped out by tests to observe deletion calls.
var deleteFile = trash.Delete

// Options configures one cleanup pass.
type Options struct {
	Policy    DeletePolicy
	Scope     []string
	Permanent bool
	DryRun    bool
}

// Summary tallies what a pass did and why items were left alone.
type Summary struct {
	Candidates        int
	Removed           int
	SkippedExtension  int
	SkippedScope      int
	SkippedNotSuccess int
	MissingDest       int
	MissingSource     int
	SignatureMismatch int
	Errors            int
}

// Pass walks every progress record and deletes the sources that survive all
// safety checks. Per-item failures are counted and logged, never fatal to
// the remaining items.
func Pass(store *progress.Store, opts Options, logger *slog.Logger) Summary {
	log := logging.NewComponentLogger(logger, "cleanup")
	scope := normalizeScope(opts.Scope)

	log.Info("cleanup started",
		logging.String("policy", opts.Policy.String()),
		logging.Int("scope_paths", len(scope)),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("permanent", opts.Permanent))

	var summary Summary
	for src, rec := range store.Records() {
		summary.Candidates++
		switch verdict := evaluate(src, rec, opts.Policy, scope); verdict {
		case verdictEligible:
		case verdictExtension:
			summary.SkippedExtension++
			continue
		case verdictScope:
			summary.SkippedScope++
			continue
		case verdictNotSuccess:
			summary.SkippedNotSuccess++
			continue
		case verdictMissingDest:
			summary.MissingDest++
			continue
		case verdictMissingSource:
			summary.MissingSource++
			continue
		case verdictSignature:
			summary.SignatureMismatch++
			continue
		}

		if opts.DryRun {
			summary.Removed++
			log.Info("would remove source",
				logging.String(logging.FieldSource, src),
				logging.String(logging.FieldDest, rec.Dest))
			continue
		}
		method, err := deleteFile(src, opts.Permanent)
		if err != nil {
			summary.Errors++
			log.Error("source removal failed",
				logging.String(logging.FieldSource, src),
				logging.Error(err))
			continue
		}
		summary.Removed++
		log.Info("removed source",
			logging.String(logging.FieldSource, src),
			logging.String(logging.FieldDest, rec.Dest),
			logging.String("method", string(method)))
	}

	log.Info("cleanup finished",
		logging.Int("candidates", summary.Candidates),
		logging.Int("removed", summary.Removed),
		logging.Int("skipped_extension", summary.SkippedExtension),
		logging.Int("skipped_scope", summary.SkippedScope),
		logging.Int("skipped_not_success", summary.SkippedNotSuccess),
		logging.Int("missing_dest", summary.MissingDest),
		logging.Int("missing_source", summary.MissingSource),
		logging.Int("signature_mismatch", summary.SignatureMismatch),
		logging.Int("errors", summary.Errors),
		logging.Bool("dry_run", opts.DryRun))
	return summary
}

// RemoveAfterConvert applies the same safety checks to a single freshly
// converted source. Scope is not consulted: the caller just produced the
// record. Returns whether the file was removed (or would be, on dry-run).
func RemoveAfterConvert(src string, store *progress.Store, opts Options, logger *slog.Logger) (bool, error) {
	log := logging.NewComponentLogger(logger, "cleanup")

	rec, ok := store.Get(src)
	if !ok {
		return false, fmt.Errorf("no progress record for %s", src)
	}
	if verdict := evaluate(src, rec, opts.Policy, nil); verdict != verdictEligible {
		log.Debug("delete-after skipped",
			logging.String(logging.FieldSource, src),
			logging.String("reason", verdict.String()))
		return false, nil
	}
	if opts.DryRun {
		log.Info("would remove source after conversion",
			logging.String(logging.FieldSource, src))
		return true, nil
	}
	method, err := deleteFile(src, opts.Permanent)
	if err != nil {
		return false, err
	}
	log.Info("removed source after conversion",
		logging.String(logging.FieldSource, src),
		logging.String("method", string(method)))
	return true, nil
}

type verdict int

const (
	verdictEligible verdict = iota
	verdictExtension
	verdictScope
	verdictNotSuccess
	verdictMissingDest
	verdictMissingSource
	verdictSignature
)

func (v verdict) String() string {
	switch v {
	case verdictEligible:
		return "eligible"
	case verdictExtension:
		return "extension not covered"
	case verdictScope:
		return "outside scope"
	case verdictNotSuccess:
		return "not successful"
	case verdictMissingDest:
		return "destination missing"
	case verdictMissingSource:
		return "source missing"
	case verdictSignature:
		return "signature mismatch"
	}
	return "unknown"
}

// evaluate runs the ordered safety checks for one record. The order is
// load-bearing: cheaper policy checks run before any filesystem access, and
// the signature re-check runs last so a changed file is reported as a
// mismatch rather than masked by an earlier verdict.
func evaluate(src string, rec progress.Record, policy DeletePolicy, scope []string) verdict {
	if !policy.Covers(filepath.Ext(src)) {
		return verdictExtension
	}
	if len(scope) > 0 && !withinScope(src, scope) {
		return verdictScope
	}
	if !rec.Success {
		return verdictNotSuccess
	}
	if _, err := os.Stat(rec.Dest); err != nil {
		return verdictMissingDest
	}
	if _, err := os.Stat(src); err != nil {
		return verdictMissingSource
	}
	current, err := fileutil.Stat(src)
	if err != nil || rec.Signature == nil || !rec.Signature.Equal(current) {
		return verdictSignature
	}
	return verdictEligible
}

func normalizeScope(paths []string) []string {
	var out []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		out = append(out, abs)
	}
	return out
}

func withinScope(src string, scope []string) bool {
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = filepath.Clean(src)
	}
	for _, root := range scope {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
