// BYZRA ⸻ internal/fix/fix.go
// main fix orchestration

package fix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photofix/internal/analyse"
	"photofix/internal/config"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

type Options struct {
	// explicit media files instead of scanning the input root
	Paths []string

	// write the arguments file but do not run exiftool
	DryRun bool

	// extra tags; loaded from the configured profile when nil
	Profile map[string]string

	// tag reader for non-JPEG verification; verification of those is skipped when nil
	Reader util.TagReader

	// clock for {{now}}; time.Now when nil
	Now func() time.Time
}

type FixResult struct {
	RunID         string
	Scanned       int
	Counts        sidecar.Counts
	ParseFailures []string
	Unresolved    []string
	Blocks        int
	Batch         *util.BatchResult
	Repair        *RepairResult
	Verification  *VerificationResult
	DryRun        bool
	Elapsed       time.Duration
}

// scans, associates, extracts, and writes every media file through one
// exiftool batch. Per-file problems are logged and reported in the result;
// only setup failures and a batch that cannot run at all are errors.
func Run(ctx context.Context, cfg *config.Config, logger *util.Logger, executor util.Executor, opts *Options) (*FixResult, error) {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}

	result := &FixResult{RunID: logger.RunID(), DryRun: opts.DryRun}

	if err := cfg.Validate(); err != nil {
		return result, fmt.Errorf("invalid config: %w", err)
	}
	table, err := cfg.Table()
	if err != nil {
		return result, err
	}

	// media
	var records []sidecar.MediaRecord
	if len(opts.Paths) > 0 {
		var skipped []string
		records, skipped = analyse.ClassifyPaths(opts.Paths, table)
		for _, p := range skipped {
			logger.WithFile(util.LevelDebug, p, "unsupported extension; skipped")
		}
	} else {
		if err := util.ValidateDir(cfg.Paths.Input); err != nil {
			return result, fmt.Errorf("invalid input directory: %w", err)
		}
		records, err = analyse.ScanMedia(cfg.Paths.Input, table)
		if err != nil {
			return result, err
		}
	}
	result.Scanned = len(records)
	logger.Info(fmt.Sprintf("found %d media files", len(records)))

	if err := util.EnsureDir(cfg.Paths.Output); err != nil {
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	// sidecars
	resolver := sidecar.NewResolver(nil)
	assoc, err := sidecar.BuildAssociations(ctx, resolver, records, sidecar.AssociateOptions{
		Workers: cfg.Run.Workers,
		OnMatch: func(_ sidecar.SidecarMatch, c sidecar.Counts) {
			util.Progress("Found %d JSON files | %d not found", c.Resolved, c.Unresolved)
		},
	})
	if len(records) > 0 {
		util.ProgressDone()
	}
	if err != nil {
		return result, err
	}
	result.Counts = assoc.Counts()

	for _, m := range assoc.Unresolved() {
		result.Unresolved = append(result.Unresolved, m.Media.Path)
		msg := "no sidecar found"
		if m.ProbeErr != nil {
			msg = fmt.Sprintf("no sidecar found (%v)", m.ProbeErr)
		}
		logger.WithFile(util.LevelWarning, m.Media.Path, msg)
	}

	if cfg.Paths.Associations != "" {
		if err := analyse.WriteAssociations(cfg.Paths.Associations, assoc, result.RunID); err != nil {
			logger.Error(err.Error())
		}
	}

	// metadata
	results, err := sidecar.ExtractAll(ctx, assoc, cfg.Run.Workers, nil)
	if err != nil {
		return result, err
	}
	for _, r := range results {
		if r.Failure() == sidecar.FailureParse {
			result.ParseFailures = append(result.ParseFailures, r.Match.Media.Path)
			logger.WithFile(util.LevelWarning, r.Match.Media.Path, r.Err.Error())
		}
	}

	profile := opts.Profile
	if profile == nil {
		profile, err = config.LoadProfile(cfg.Paths.Profile)
		switch {
		case errors.Is(err, config.ErrNoProfile):
		case err != nil:
			return result, err
		}
	}

	argsOpts := ArgsOptions{
		OutputDir:    cfg.Paths.Output,
		WriteZeroGPS: cfg.Run.WriteZeroGPS,
		Profile:      profile,
		Now:          opts.Now,
	}

	args, blocks := BuildBatch(results, argsOpts)
	result.Blocks = blocks
	if cfg.Paths.ArgsFile != "" {
		if err := util.WriteLines(cfg.Paths.ArgsFile, args); err != nil {
			logger.Error(fmt.Sprintf("failed to write arguments file: %v", err))
		}
	}

	if blocks == 0 || opts.DryRun {
		logger.Info(fmt.Sprintf("%d argument blocks; exiftool not run", blocks))
		result.Elapsed = time.Since(start)
		return result, nil
	}

	// exiftool
	batch, err := util.SpinWhile("[~] Executing exiftool; this could take some time...", func() (*util.BatchResult, error) {
		return executor.RunBatch(ctx, args)
	})
	if err != nil {
		logger.Error(err.Error())
		return result, err
	}
	result.Batch = batch
	writeBatchLogs(cfg, batch, "", logger)
	if batch.ExitCode != 0 {
		logger.Warning(fmt.Sprintf("exiftool exited with status %d", batch.ExitCode))
	}

	// second pass
	repair, err := RepairMislabeledPNGs(ctx, batch.Stderr, results, argsOpts, executor, logger)
	result.Repair = repair
	if err != nil {
		logger.Error(err.Error())
	}
	if repair != nil && len(repair.Args) > 0 {
		if cfg.Paths.ArgsFile != "" {
			if werr := util.WriteLines(repairSibling(cfg.Paths.ArgsFile), repair.Args); werr != nil {
				logger.Error(fmt.Sprintf("failed to write repair arguments file: %v", werr))
			}
		}
		if repair.Batch != nil {
			writeBatchLogs(cfg, repair.Batch, "png repair ", logger)
		}
	}

	if cfg.Run.Verify {
		var repaired map[string]string
		if repair != nil {
			repaired = repair.Outputs
		}
		result.Verification = VerifyOutputs(BuildExpectations(results, argsOpts, repaired), opts.Reader)
		if !result.Verification.Success {
			logger.Warning("output verification found problems")
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info(fmt.Sprintf("finished in %s", util.FormatElapsed(result.Elapsed)))
	return result, nil
}

func writeBatchLogs(cfg *config.Config, batch *util.BatchResult, label string, logger *util.Logger) {
	stdoutPath, stderrPath := cfg.Paths.StdoutLog, cfg.Paths.StderrLog
	if label != "" {
		stdoutPath, stderrPath = repairSibling(stdoutPath), repairSibling(stderrPath)
	}

	if stdoutPath != "" {
		if err := util.WriteTextFile(stdoutPath, batch.Stdout); err != nil {
			logger.Error(fmt.Sprintf("failed to write %sexiftool output log: %v", label, err))
		}
	}
	if stderrPath != "" {
		if err := util.WriteTextFile(stderrPath, batch.Stderr); err != nil {
			logger.Error(fmt.Sprintf("failed to write %sexiftool error log: %v", label, err))
		}
	}
}

// report of the fix run
func FormatFixResult(result *FixResult) string {
	var sb strings.Builder

	sb.WriteString(util.NSH.Render(fmt.Sprintf("[i] %d media files scanned", result.Scanned)))
	sb.WriteString("\n")
	sb.WriteString(analyse.RenderCounts(result.Counts))
	sb.WriteString("\n")

	if n := len(result.ParseFailures); n > 0 {
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] %d sidecars could not be parsed", n)))
		sb.WriteString("\n")
	}

	switch {
	case result.DryRun:
		sb.WriteString(util.SEC.Render(fmt.Sprintf("[i] Dry run: %d argument blocks written, exiftool not run", result.Blocks)))
		sb.WriteString("\n")
	case result.Blocks == 0:
		sb.WriteString(util.SEC.Render("[i] Nothing to write"))
		sb.WriteString("\n")
	case result.Batch != nil && result.Batch.ExitCode == 0:
		sb.WriteString(util.SEC.Render(fmt.Sprintf("✓ ExifTool finished (%d files)", result.Blocks)))
		sb.WriteString("\n")
	case result.Batch != nil:
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] ExifTool finished with errors (%d files, exit %d)", result.Blocks, result.Batch.ExitCode)))
		sb.WriteString("\n")
	}

	if r := result.Repair; r != nil && len(r.Found) > 0 {
		sb.WriteString(util.NSH.Render(fmt.Sprintf("[i] %d PNGs that look like JPEGs, %d converted", len(r.Found), len(r.Outputs))))
		sb.WriteString("\n")
	}

	if result.Verification != nil {
		sb.WriteString(FormatVerificationResult(result.Verification))
	}

	if result.Elapsed > 0 {
		sb.WriteString(util.SUB.Render("Total execution time: " + util.FormatElapsed(result.Elapsed)))
		sb.WriteString("\n")
	}

	return sb.String()
}
