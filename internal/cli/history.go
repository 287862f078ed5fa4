// Package cli holds command pieces shared by the pipeline launchers.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/stevetsa/Chiron/internal/history"
	"github.com/stevetsa/Chiron/internal/logging"
)

// NewHistoryCmd returns a "history" subcommand listing recent recorded
// runs of the given pipeline from the local ledger.
func NewHistoryCmd(pipeline string) *cobra.Command {
	var limit int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent " + pipeline + " runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(slog.LevelError)

			path := dbPath
			if path == "" {
				var err error
				path, err = history.DefaultPath()
				if err != nil {
					return err
				}
			}

			st, err := history.Open(path, logger)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate run history: %w", err)
			}

			runs, err := st.Recent(cmd.Context(), pipeline, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			fmt.Printf("%-36s  %-25s  %-5s  %s\n", "RUN", "STARTED", "EXIT", "JOB FILE")
			fmt.Printf("%-36s  %-25s  %-5s  %s\n", "---", "-------", "----", "--------")
			for _, run := range runs {
				fmt.Printf("%-36s  %-25s  %-5d  %s\n",
					run.ID, run.StartedAt.Format("2006-01-02 15:04:05 MST"), run.ExitCode, run.JobFile)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&dbPath, "db", "", "Ledger path (default ~/.chiron/chiron.db)")

	return cmd
}

// OpenHistory opens the run ledger at its default path. Failures only
// disable recording: a warning is logged and nil is returned.
func OpenHistory(ctx context.Context, logger *slog.Logger) *history.Store {
	path, err := history.DefaultPath()
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}

	st, err := history.Open(path, logger)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		logger.Warn("run history disabled", "error", err)
		st.Close()
		return nil
	}

	return st
}
