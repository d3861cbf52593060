// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List and search generated reports",
	Long: `Catalog queries the local report database. Every generate run records
the paper, language, mode, keynote, and output path; list shows recent
runs and search matches titles and keynotes with full-text search.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports, newest first",
	RunE:  runCatalogList,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over report titles and keynotes",
	RunE:  runCatalogSearch,
}

func init() {
	catalogCmd.PersistentFlags().String("catalog-dir", "", "directory holding the reports database (default catalog)")
	catalogCmd.PersistentFlags().Int("limit", 0, "maximum results (0 = use default)")
	catalogCmd.PersistentFlags().Bool("json", false, "output results as JSON")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSearchCmd)

	rootCmd.AddCommand(catalogCmd)
}

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	return catalog.NewStore(flagOr(cmd, "catalog-dir", "catalog.catalog_dir", "catalog"), 0)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCatalogOutput(entries, jsonOutput)
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCatalogOutput(entries, jsonOutput)
}

func formatCatalogOutput(entries []catalog.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No reports found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-12s  %-44s  %-19s  %-8s  %s\n",
		"Date", "Paper", "Title", "Language", "Mode", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, e := range entries {
		title := e.Title
		if len(title) > 44 {
			title = title[:41] + "..."
		}
		lang := e.Language
		if len(lang) > 19 {
			lang = lang[:16] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-12s  %-44s  %-19s  %-8s  %s\n",
			e.CreatedAt.Format("2006-01-02"), e.PaperID, title, lang, e.Mode, e.OutputPath)
	}

	fmt.Fprintf(os.Stdout, "\n%d reports\n", len(entries))
	return nil
}
