package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/arxiv"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Download paper PDFs without generating reports",
	Long: `Fetch downloads the PDFs for the given arXiv URLs or IDs into a
directory, named after the paper titles. No analysis is run.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("save-dir", "", "directory for downloaded PDFs (default papers/downloads)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more paper identifiers (arXiv URLs or IDs)")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	saveDir := flagOr(cmd, "save-dir", "arxiv.save_dir", "papers/downloads")
	client := arxiv.NewClient(arxivConfig(), logger)
	if err := client.Download(cmd.Context(), args, saveDir); err != nil {
		return err
	}
	fmt.Printf("Downloaded %d paper(s) to %s\n", len(args), saveDir)
	return nil
}
