// Package launch drives the linear flow shared by the pipeline
// launchers: load config, merge inputs, write the job file, invoke the
// CWL engine, and clean up. The first failing step aborts the rest,
// including cleanup.
package launch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stevetsa/Chiron/internal/cleanup"
	"github.com/stevetsa/Chiron/internal/history"
	"github.com/stevetsa/Chiron/internal/job"
	"github.com/stevetsa/Chiron/internal/runner"
)

// Engine runs the external CWL engine against a generated job file.
// *runner.Runner is the production implementation.
type Engine interface {
	Run(ctx context.Context, jobFile string) error
}

// MergeFunc merges input references into a loaded config document and
// returns the augmented document. Implementations must not mutate doc.
type MergeFunc func(doc job.Document) (job.Document, error)

// Launcher wires the collaborators for one pipeline CLI.
type Launcher struct {
	Logger   *slog.Logger
	Engine   Engine
	Cleaner  cleanup.Cleaner
	History  *history.Store // nil disables run recording
	Pipeline string
	OutDir   string
}

// Run executes the launch flow for configFile. The job file is written
// into the current working directory under job.OutputName(configFile).
func (l *Launcher) Run(ctx context.Context, configFile string, merge MergeFunc) error {
	runID := uuid.NewString()
	logger := l.Logger.With("pipeline", l.Pipeline, "run_id", runID)

	doc, err := job.Load(configFile)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", "config_file", configFile, "keys", len(doc))

	merged, err := merge(doc)
	if err != nil {
		return err
	}

	jobFile := job.OutputName(configFile)
	if err := job.Write(merged, jobFile); err != nil {
		return err
	}
	logger.Info("job file written", "job_file", jobFile)

	startedAt := time.Now().UTC()
	runErr := l.Engine.Run(ctx, jobFile)
	finishedAt := time.Now().UTC()

	l.record(ctx, logger, &history.Run{
		ID:         runID,
		Pipeline:   l.Pipeline,
		ConfigFile: configFile,
		JobFile:    jobFile,
		OutDir:     l.OutDir,
		ExitCode:   exitCode(runErr),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	})

	if runErr != nil {
		return runErr
	}

	// Cleanup is best-effort; its failure never fails the launch.
	if err := l.Cleaner.Clean(ctx); err != nil {
		logger.Debug("cleanup", "error", err)
	}
	return nil
}

// record writes the run to the history ledger, best-effort.
func (l *Launcher) record(ctx context.Context, logger *slog.Logger, run *history.Run) {
	if l.History == nil {
		return
	}
	if err := l.History.Record(ctx, run); err != nil {
		logger.Warn("record run history", "error", err)
	}
}

// exitCode maps an engine error to the recorded exit code: 0 on
// success, the engine's code on nonzero exit, -1 when the engine never
// produced an exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*runner.ExitError); ok {
		return exitErr.Code
	}
	return -1
}
