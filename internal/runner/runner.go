// Package runner invokes the external CWL engine against a generated
// job file and relays its output.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultEngine is the CWL engine binary looked up on PATH.
const DefaultEngine = "cwl-runner"

// Runner builds and executes one CWL engine invocation.
type Runner struct {
	logger *slog.Logger

	Engine   string // engine binary (default: cwl-runner)
	Workflow string // path to the pipeline's CWL workflow document
	OutDir   string // engine --outdir

	// Temp prefixes handed to the engine. Both land in the working
	// directory under tmp*, which is what cleanup sweeps afterwards.
	TmpOutdirPrefix string
	TmpdirPrefix    string

	Stdout io.Writer // destination for the engine's combined output
}

// New creates a Runner for the given workflow document.
func New(workflow, outDir string, logger *slog.Logger) *Runner {
	return &Runner{
		logger:          logger.With("component", "runner"),
		Engine:          DefaultEngine,
		Workflow:        workflow,
		OutDir:          outDir,
		TmpOutdirPrefix: "tmp_out",
		TmpdirPrefix:    "./tmp",
		Stdout:          os.Stdout,
	}
}

// ExitError reports a nonzero engine exit. It carries the exit code and
// the full command line that failed.
type ExitError struct {
	Code    int
	Command []string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command execution failed (exit %d): %s", e.Code, strings.Join(e.Command, " "))
}

// args builds the engine argument list for jobFile.
func (r *Runner) args(jobFile string) []string {
	return []string{
		"--tmp-outdir-prefix=" + r.TmpOutdirPrefix,
		"--tmpdir-prefix=" + r.TmpdirPrefix,
		"--outdir=" + r.OutDir,
		r.Workflow,
		jobFile,
	}
}

// Run executes the engine against jobFile, streaming its combined
// stdout and stderr line by line to r.Stdout as it arrives. The stream
// is drained to EOF before the exit status is inspected; a nonzero
// status is returned as an *ExitError.
func (r *Runner) Run(ctx context.Context, jobFile string) error {
	args := r.args(jobFile)
	cmdline := append([]string{r.Engine}, args...)

	cmd := exec.CommandContext(ctx, r.Engine, args...)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Info("invoking CWL engine", "command", strings.Join(cmdline, " "))

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start %s: %w", r.Engine, err)
	}

	// The child holds its own copy of the write end; closing ours lets
	// the read loop see EOF when the child exits.
	pw.Close()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(r.Stdout, scanner.Text())
	}
	pr.Close()

	switch werr := cmd.Wait().(type) {
	case nil:
		r.logger.Debug("engine finished", "exit_code", 0)
		return nil
	case *exec.ExitError:
		code := werr.ExitCode()
		r.logger.Error("engine failed", "exit_code", code)
		return &ExitError{Code: code, Command: cmdline}
	default:
		return fmt.Errorf("wait for %s: %w", r.Engine, werr)
	}
}

// WorkflowPath resolves a workflow document path relative to the
// directory holding the running executable, where the pipeline CWL
// documents are installed.
func WorkflowPath(rel string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), rel), nil
}
