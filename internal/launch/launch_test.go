package launch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stevetsa/Chiron/internal/history"
	"github.com/stevetsa/Chiron/internal/job"
	"github.com/stevetsa/Chiron/internal/runner"
)

type fakeEngine struct {
	jobFile string
	err     error
}

func (f *fakeEngine) Run(_ context.Context, jobFile string) error {
	f.jobFile = jobFile
	return f.err
}

type fakeCleaner struct {
	called bool
}

func (f *fakeCleaner) Clean(_ context.Context) error {
	f.called = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testHistory(t *testing.T) *history.Store {
	t.Helper()
	st, err := history.Open(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRun_Success(t *testing.T) {
	chdir(t, t.TempDir())

	config := writeConfig(t, "threads: 4\n")
	engine := &fakeEngine{}
	cleaner := &fakeCleaner{}
	st := testHistory(t)

	l := &Launcher{
		Logger:   testLogger(),
		Engine:   engine,
		Cleaner:  cleaner,
		History:  st,
		Pipeline: "qiime2",
		OutDir:   "./cwl_output",
	}

	merge := func(doc job.Document) (job.Document, error) {
		return job.WithStagingDir(doc, "/data/in"), nil
	}
	if err := l.Run(context.Background(), config, merge); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if engine.jobFile != "pipeline.final.yml" {
		t.Errorf("engine job file = %q, want pipeline.final.yml", engine.jobFile)
	}
	if !cleaner.called {
		t.Error("cleaner was not called after success")
	}

	// Job file lands in the working directory.
	if _, err := os.Stat("pipeline.final.yml"); err != nil {
		t.Errorf("job file not written to cwd: %v", err)
	}

	runs, err := st.Recent(context.Background(), "qiime2", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d recorded runs, want 1", len(runs))
	}
	if runs[0].ExitCode != 0 {
		t.Errorf("recorded exit code = %d, want 0", runs[0].ExitCode)
	}
}

func TestRun_EngineFailureSkipsCleanup(t *testing.T) {
	chdir(t, t.TempDir())

	config := writeConfig(t, "threads: 4\n")
	engineErr := &runner.ExitError{Code: 3, Command: []string{"cwl-runner"}}
	engine := &fakeEngine{err: engineErr}
	cleaner := &fakeCleaner{}
	st := testHistory(t)

	l := &Launcher{
		Logger:   testLogger(),
		Engine:   engine,
		Cleaner:  cleaner,
		History:  st,
		Pipeline: "metacompass",
	}

	merge := func(doc job.Document) (job.Document, error) { return doc, nil }
	err := l.Run(context.Background(), config, merge)
	if err == nil {
		t.Fatal("expected engine failure to propagate")
	}
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("error = %v, want ExitError with code 3", err)
	}

	if cleaner.called {
		t.Error("cleanup must not run after an engine failure")
	}

	runs, err := st.Recent(context.Background(), "metacompass", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].ExitCode != 3 {
		t.Errorf("recorded runs = %+v, want one run with exit code 3", runs)
	}
}

func TestRun_MissingConfigSkipsEngine(t *testing.T) {
	chdir(t, t.TempDir())

	engine := &fakeEngine{}
	cleaner := &fakeCleaner{}
	l := &Launcher{
		Logger:   testLogger(),
		Engine:   engine,
		Cleaner:  cleaner,
		Pipeline: "qiime2",
	}

	merge := func(doc job.Document) (job.Document, error) { return doc, nil }
	err := l.Run(context.Background(), "no-such-config.yml", merge)
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if engine.jobFile != "" {
		t.Error("engine must not run when config load fails")
	}
	if cleaner.called {
		t.Error("cleanup must not run when config load fails")
	}
}

func TestRun_MergeFailureSkipsEngine(t *testing.T) {
	chdir(t, t.TempDir())

	config := writeConfig(t, "threads: 4\n")
	engine := &fakeEngine{}
	l := &Launcher{
		Logger:   testLogger(),
		Engine:   engine,
		Cleaner:  &fakeCleaner{},
		Pipeline: "metacompass",
	}

	merge := func(doc job.Document) (job.Document, error) {
		return nil, errors.New("bad list file")
	}
	if err := l.Run(context.Background(), config, merge); err == nil {
		t.Fatal("expected merge error to propagate")
	}
	if engine.jobFile != "" {
		t.Error("engine must not run when merge fails")
	}
}

func TestRun_NilHistoryIsFine(t *testing.T) {
	chdir(t, t.TempDir())

	config := writeConfig(t, "a: 1\n")
	l := &Launcher{
		Logger:   testLogger(),
		Engine:   &fakeEngine{},
		Cleaner:  &fakeCleaner{},
		Pipeline: "qiime2",
	}

	merge := func(doc job.Document) (job.Document, error) { return doc, nil }
	if err := l.Run(context.Background(), config, merge); err != nil {
		t.Fatalf("Run with nil history: %v", err)
	}
}
