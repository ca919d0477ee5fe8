// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/thoughtprint/internal/history"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past prompts and their artifacts",
	Long: `History reads the journal kept in the output directory. Every prompt
that produced a Markdown file is recorded with its provider, model, title,
file paths and conversion status.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List recent artifacts, newest first",
	Long: `List prints recent artifacts. A query matches a substring of the prompt
or title. --status filters by complete or markdown_only.`,
	RunE: runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	switch types.ArtifactStatus(status) {
	case "", types.ArtifactComplete, types.ArtifactMarkdownOnly:
	default:
		return fmt.Errorf("unsupported status %q: use complete or markdown_only", status)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), history.ListOptions{
		Query:  strings.Join(args, " "),
		Status: types.ArtifactStatus(status),
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return formatHistoryOutput(entries, jsonOutput)
}

func formatHistoryOutput(entries []history.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-16s  %-13s  %-40s  %s\n", "ID", "Created", "Status", "Title", "Provider")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, e := range entries {
		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-16s  %-13s  %-40s  %s\n",
			shortID(e.ID), e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, title, e.Provider)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one artifact; a unique id prefix is enough",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		e, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		}
		fmt.Printf("ID:       %s\n", e.ID)
		fmt.Printf("Created:  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider: %s (%s)\n", e.Provider, e.Model)
		fmt.Printf("Title:    %s\n", e.Title)
		fmt.Printf("Status:   %s\n", e.Status)
		fmt.Printf("Markdown: %s\n", e.MarkdownPath)
		if e.PDFPath != "" {
			fmt.Printf("PDF:      %s\n", e.PDFPath)
		}
		if e.Error != "" {
			fmt.Printf("Error:    %s\n", e.Error)
		}
		fmt.Printf("\nPrompt:\n%s\n", e.Prompt)
		return nil
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export the history to YAML or JSON",
	Long: `Export writes every history entry (or those matching the query and
--status) to stdout or --output. Supports the same filters as list.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	status, _ := cmd.Flags().GetString("status")
	outPath, _ := cmd.Flags().GetString("output")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	w := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	opts := history.ListOptions{Query: strings.Join(args, " "), Status: types.ArtifactStatus(status)}
	if err := store.Export(cmd.Context(), w, format, opts); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", outPath)
	}
	return nil
}

// openHistory opens the journal of the effective output directory.
func openHistory() (*history.Store, error) {
	st, err := settingsStore().Load()
	if err != nil {
		return nil, err
	}
	return history.Open(history.DefaultPath(outputDir(st)))
}

func init() {
	historyListCmd.Flags().String("status", "", "filter by status: complete or markdown_only")
	historyListCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyListCmd.Flags().Bool("json", false, "output entries as JSON")
	historyShowCmd.Flags().Bool("json", false, "output the entry as JSON")
	historyExportCmd.Flags().String("format", history.FormatYAML, "export format: yaml or json")
	historyExportCmd.Flags().String("status", "", "filter by status: complete or markdown_only")
	historyExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
