// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output turns one AI response into an artifact on disk: a
// <id>.md file holding the response verbatim and, when the converter
// succeeds, a sibling <id>.pdf. The Markdown file is written first and is
// never removed, so a failed conversion still leaves the response on disk.
package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// DirName is the folder created inside the documents directory.
const DirName = "ThoughtPrint"

// maxIDAttempts bounds the retries on an identifier collision.
const maxIDAttempts = 5

// WriteError reports that the Markdown file could not be written. The
// converter is not run when one is returned.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// NewID returns a random identifier of 32 lowercase hex characters.
func NewID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// DefaultDir returns <Documents>/ThoughtPrint. The documents directory is
// ~/Documents when it exists, then $XDG_DOCUMENTS_DIR, then the home
// directory, then the working directory.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return filepath.Join(documentsDir(home, os.Getenv("XDG_DOCUMENTS_DIR"), cwd), DirName)
}

func documentsDir(home, xdg, cwd string) string {
	candidates := []string{xdg, home}
	if home != "" {
		candidates = append([]string{filepath.Join(home, "Documents")}, candidates...)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return cwd
}

// Writer writes artifacts into Dir and converts them with Converter.
type Writer struct {
	Dir       string
	Converter convert.Converter

	newID func() string
	now   func() time.Time
}

// NewWriter returns a Writer for dir. A nil converter produces Markdown only.
func NewWriter(dir string, c convert.Converter) *Writer {
	return &Writer{Dir: dir, Converter: c, newID: NewID, now: time.Now}
}

// Write stores text as <id>.md and converts it to <id>.pdf.
//
// A *WriteError means nothing usable was written. A *convert.ConversionError
// is returned together with an artifact whose status is markdown_only; the
// Markdown file is kept in that case.
func (w *Writer) Write(ctx context.Context, text string) (types.Artifact, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return types.Artifact{}, &WriteError{Path: w.Dir, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	id, mdPath, err := w.writeMarkdown(text)
	if err != nil {
		return types.Artifact{}, err
	}

	art := types.Artifact{
		ID:           id,
		Title:        convert.Title([]byte(text), id),
		MarkdownPath: mdPath,
		Status:       types.ArtifactMarkdownOnly,
		CreatedAt:    w.now().UTC(),
	}
	log := logrus.WithField("id", id)
	log.WithField("path", mdPath).Info("markdown saved")

	pdfPath := filepath.Join(w.Dir, id+".pdf")
	if err := w.convert(ctx, convert.Job{MarkdownPath: mdPath, PDFPath: pdfPath, Title: art.Title}); err != nil {
		log.WithError(err).Error("pdf conversion failed; markdown kept")
		return art, err
	}

	art.PDFPath = pdfPath
	art.Status = types.ArtifactComplete
	log.WithField("path", pdfPath).Info("pdf generated")
	return art, nil
}

func (w *Writer) convert(ctx context.Context, job convert.Job) error {
	if w.Converter == nil {
		return &convert.ConversionError{
			Kind:    convert.KindUnavailable,
			Backend: "none",
			Err:     errors.New("no converter configured"),
		}
	}
	return w.Converter.Convert(ctx, job)
}

// writeMarkdown creates <id>.md exclusively, drawing a new id on collision.
func (w *Writer) writeMarkdown(text string) (string, string, error) {
	newID := w.newID
	if newID == nil {
		newID = NewID
	}

	var path string
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := newID()
		path = filepath.Join(w.Dir, id+".md")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", &WriteError{Path: path, Err: err}
		}

		if _, err := f.WriteString(text); err != nil {
			f.Close()
			return "", "", &WriteError{Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", "", &WriteError{Path: path, Err: err}
		}
		return id, path, nil
	}
	return "", "", &WriteError{Path: path, Err: fmt.Errorf("no unused identifier after %d attempts", maxIDAttempts)}
}
