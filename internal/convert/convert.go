// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert renders Markdown artifacts to PDF through Pandoc with the
// XeLaTeX engine. Pandoc runs either from the host PATH or inside a
// container image; both backends hand Pandoc the remote-image Lua filter.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Job names the input and output of one conversion.
type Job struct {
	// MarkdownPath is the source document.
	MarkdownPath string
	// PDFPath is where the rendered document is written.
	PDFPath string
	// Title is passed to Pandoc as the title metadata.
	Title string
}

// Converter renders one Markdown file to PDF. Implementations return a
// *ConversionError on failure.
type Converter interface {
	// Name identifies the backend in logs and error messages.
	Name() string
	Convert(ctx context.Context, job Job) error
}

// ErrorKind classifies a ConversionError.
type ErrorKind string

const (
	// KindUnavailable means the converter executable or image could not be found.
	KindUnavailable ErrorKind = "unavailable"
	// KindFailed means the converter ran and exited non-zero.
	KindFailed ErrorKind = "failed"
	// KindTimeout means the converter did not finish within its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindSetup means the conversion could not be prepared (filter script, directories).
	KindSetup ErrorKind = "setup"
)

// ConversionError reports a failed Markdown-to-PDF conversion. The Markdown
// input is never removed when one is returned.
type ConversionError struct {
	Kind     ErrorKind
	Backend  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ConversionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s conversion %s", e.Backend, e.Kind)
	if e.Kind == KindFailed {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\nstderr: %s", s)
	}
	return b.String()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// BatchResult holds the outcome of a RenderMissing run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of Markdown files considered.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any conversion failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RenderMissing converts every <id>.md in dir that has no sibling <id>.pdf.
// Artifacts that already have a PDF are skipped. When ids is non-empty only
// those artifacts are considered. Markdown files are only read, never
// rewritten. Per-file status lines are printed to w.
func RenderMissing(ctx context.Context, c Converter, dir string, ids []string, w io.Writer) (BatchResult, error) {
	names, err := markdownFiles(dir, ids)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		id := strings.TrimSuffix(name, ".md")
		mdPath := filepath.Join(dir, name)
		pdfPath := filepath.Join(dir, id+".pdf")

		if _, err := os.Stat(pdfPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (pdf exists)\n", id)
			result.Skipped++
			continue
		}

		src, err := os.ReadFile(mdPath)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}

		job := Job{MarkdownPath: mdPath, PDFPath: pdfPath, Title: Title(src, id)}
		if err := c.Convert(ctx, job); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "converted: %s\n", id)
		result.Converted++
	}

	fmt.Fprintf(w, "\nRender summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}

func markdownFiles(dir string, ids []string) ([]string, error) {
	if len(ids) > 0 {
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			names = append(names, strings.TrimSuffix(filepath.Base(id), ".md")+".md")
		}
		return names, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
