// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/history"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [ids...]",
	Short: "Render PDFs for artifacts whose conversion failed",
	Long: `Render runs the configured converter for every <id>.md in the output
directory that has no <id>.pdf, or only for the given ids. Markdown files
are never modified. The history journal is updated for each PDF produced.`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := settingsStore().Load()
	if err != nil {
		return err
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		st.Converter.Backend = types.ConverterBackend(backend)
	}

	conv, err := convert.New(ctx, st.Converter)
	if err != nil {
		return err
	}

	dir := outputDir(st)
	fmt.Fprintf(os.Stdout, "Rendering with %s in %s\n\n", conv.Name(), dir)
	result, err := convert.RenderMissing(ctx, conv, dir, args, os.Stdout)
	if err != nil {
		return err
	}

	if result.Converted > 0 {
		if err := syncHistory(ctx, dir); err != nil {
			logrus.WithError(err).Warn("updating history after render")
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d artifact(s) failed to render", result.Failed)
	}
	return nil
}

// syncHistory marks markdown_only entries whose PDF now exists as complete.
func syncHistory(ctx context.Context, dir string) error {
	store, err := history.Open(history.DefaultPath(dir))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx, history.ListOptions{Status: types.ArtifactMarkdownOnly, Limit: -1})
	if err != nil {
		return err
	}
	for _, e := range entries {
		pdfPath := filepath.Join(dir, e.ID+".pdf")
		if _, err := os.Stat(pdfPath); err != nil {
			continue
		}
		if err := store.MarkConverted(ctx, e.ID, pdfPath); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	renderCmd.Flags().String("backend", "", "converter backend for this run: pandoc or container")

	rootCmd.AddCommand(renderCmd)
}
