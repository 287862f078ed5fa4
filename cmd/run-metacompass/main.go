// run-metacompass prepares a MetaCompass job file from a YAML config
// template and read list files, then launches it on the external CWL
// engine.
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
const workflowRelPath = "workflows/metacompass/metacompass.cwl"

var (
	pairedList   string
	unpairedList string
	configFile   string
	outDir       string
	logLevel     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "run-metacompass",
		Short: "Launch the MetaCompass assembly pipeline on a CWL engine",
		Long: `run-metacompass merges paired and unpaired read lists into a MetaCompass
config template, writes the resulting CWL job file, and hands it to
cwl-runner. Each list file names one read file per line.`,
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVarP(&pairedList, "paired_file_list", "p", "", "List file of paired read paths")
	root.Flags().StringVarP(&unpairedList, "unpaired_file_list", "u", "", "List file of unpaired read paths")
	root.Flags().StringVarP(&configFile, "config_file", "c", "", "YAML config template (required)")
	root.Flags().StringVarP(&outDir, "out_dir", "o", "./cwl_output", "Directory for pipeline outputs")
	root.Flags().StringVarP(&logLevel, "debug", "d", "ERROR", "Log level (DEBUG, INFO, WARN, ERROR)")
	root.MarkFlagRequired("config_file")

	root.AddCommand(cli.NewHistoryCmd("metacompass"))

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
		Pipeline: "metacompass",
		OutDir:   outDir,
	}
	if l.History != nil {
		defer l.History.Close()
	}

	return l.Run(cmd.Context(), configFile, mergeReadLists)
}

// mergeReadLists inserts paired_reads and unpaired_reads keys for the
// list files that were supplied. An absent list file leaves its key out
// of the document entirely.
func mergeReadLists(doc job.Document) (job.Document, error) {
	merged := doc

	if pairedList != "" {
		paths, err := job.ReadList(pairedList)
		if err != nil {
			return nil, err
		}
		merged = job.WithReads(merged, "paired_reads", paths)
	}

	if unpairedList != "" {
		paths, err := job.ReadList(unpairedList)
		if err != nil {
			return nil, err
		}
		merged = job.WithReads(merged, "unpaired_reads", paths)
	}

	return merged, nil
}
