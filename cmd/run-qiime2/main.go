// run-qiime2 prepares a QIIME2 job file from a YAML config template and
// an input directory, then launches it on the external CWL engine.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/stevetsa/Chiron/internal/cleanup"
	"github.com/stevetsa/Chiron/internal/cli"
	"github.com/stevetsa/Chiron/internal/job"
	"github.com/stevetsa/Chiron/internal/launch"
	"github.com/stevetsa/Chiron/internal/logging"
	"github.com/stevetsa/Chiron/internal/runner"
)

// Workflow document shipped alongside the binary.
const workflowRelPath = "workflows/qiime2/qiime2.cwl"

var (
	inputDir   string
	configFile string
	outDir     string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "run-qiime2",
		Short: "Launch the QIIME2 amplicon pipeline on a CWL engine",
		Long: `run-qiime2 merges the input directory into a QIIME2 config template,
writes the resulting CWL job file, and hands it to cwl-runner.`,
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVarP(&inputDir, "input_dir", "i", "", "Directory of demultiplexed input reads (required)")
	root.Flags().StringVarP(&configFile, "config_file", "c", "", "YAML config template (required)")
	root.Flags().StringVarP(&outDir, "out_dir", "o", "./cwl_output", "Directory for pipeline outputs")
	root.Flags().StringVarP(&logLevel, "debug", "d", "ERROR", "Log level (DEBUG, INFO, WARN, ERROR)")
	root.MarkFlagRequired("input_dir")
	root.MarkFlagRequired("config_file")

	root.AddCommand(cli.NewHistoryCmd("qiime2"))

	return root
}

func run(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(level)

	workflow, err := runner.WorkflowPath(workflowRelPath)
	if err != nil {
		return err
	}

	l := &launch.Launcher{
		Logger:   logger,
		Engine:   runner.New(workflow, outDir, logger),
		Cleaner:  cleanup.NewTempDirs("", logger),
		History:  cli.OpenHistory(cmd.Context(), logger),
		Pipeline: "qiime2",
		OutDir:   outDir,
	}
	if l.History != nil {
		defer l.History.Close()
	}

	return l.Run(cmd.Context(), configFile, func(doc job.Document) (job.Document, error) {
		return job.WithStagingDir(doc, inputDir), nil
	})
}
