// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/thoughtprint/internal/imagefilter"
)

var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Replace remote images in Markdown with placeholder text",
	Long: `Filter applies the same remote-image rule the PDF converter uses to a
Markdown file (or stdin) and writes the result to stdout or --output.
Images whose source starts with http:// or https:// become
"[Remote image removed: <url>]"; local images are kept unchanged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	writeLua, _ := cmd.Flags().GetString("write-lua")

	if writeLua != "" {
		path, err := imagefilter.WriteScript(writeLua)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		if len(args) == 0 {
			return nil
		}
	}

	var (
		src []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading markdown: %w", err)
	}

	res := imagefilter.RewriteMarkdown(src)
	for _, url := range res.Removed {
		fmt.Fprintf(os.Stderr, "removed: %s\n", url)
	}

	if outPath == "" {
		_, err = os.Stdout.Write(res.Markdown)
		return err
	}
	if err := os.WriteFile(outPath, res.Markdown, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "%d remote image(s) replaced, wrote %s\n", len(res.Removed), outPath)
	return nil
}

func init() {
	filterCmd.Flags().StringP("output", "o", "", "write the filtered Markdown to this file instead of stdout")
	filterCmd.Flags().String("write-lua", "", "also write the Pandoc Lua filter into this directory")

	rootCmd.AddCommand(filterCmd)
}
