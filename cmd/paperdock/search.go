// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdock/internal/connector"
	"github.com/pdiddy/paperdock/internal/merge"
	"github.com/pdiddy/paperdock/internal/stream"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for a scholarly work and resolve download links",
	Long: `Search queries CrossRef and arXiv for works matching a free-text query,
DOI, or arXiv ID and prints the merged, ranked results. With --download,
each result page is resolved to a download link before printing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("extended", false, "search all fields instead of titles only")
	searchCmd.Flags().Bool("download", false, "resolve download links (slower)")
	searchCmd.Flags().Bool("abstract", false, "include abstracts in the output")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	extended, _ := cmd.Flags().GetBool("extended")
	download, _ := cmd.Flags().GetBool("download")
	abstract, _ := cmd.Flags().GetBool("abstract")
	asJSON, _ := cmd.Flags().GetBool("json")

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := cmd.Context()
	q := strings.Join(args, " ")

	gathered := connector.Gather(ctx, q, extended, eng.log, eng.crossref, eng.arxiv)
	arxivSeeded := len(eng.analyzer.ExtractArxivIDs(q, false, false)) > 0
	merged := merge.Merge(arxivSeeded, gathered[0], gathered[1])

	if !download {
		return printRecords(eng.streamer.Batch(merged, abstract), asJSON, os.Stdout)
	}

	return eng.streamer.Stream(ctx, merged, abstract, func(page stream.Page) error {
		return printRecords(page.Records, asJSON, os.Stdout)
	})
}

func printRecords(records []stream.Record, asJSON bool, w io.Writer) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	formatTable(records, w)
	return nil
}

// formatTable writes records as a human-readable table.
func formatTable(records []stream.Record, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-60s  %-30s  %-20s  %s\n", "Title", "DOI", "Authors", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range records {
		link := r.DownloadLink
		if link != "" && !r.LinkGuarantee {
			link += " (?)"
		}
		fmt.Fprintf(w, "%-60s  %-30s  %-20s  %s\n",
			truncate(r.Title, 60), truncate(r.DOI, 30), formatAuthors(r.Authors), link)
	}
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
