// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thoughtprint/internal/imagefilter"
)

const (
	binPandoc = "pandoc"

	// metadataName is the metadata file written next to the filter script.
	metadataName = "metadata.yaml"

	// DefaultPDFEngine is the LaTeX engine handed to Pandoc.
	DefaultPDFEngine = "xelatex"
	// DefaultTimeout bounds a single conversion.
	DefaultTimeout = 60 * time.Second
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	hideWindow(cmd)
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// PandocOptions configures the host Pandoc backend.
type PandocOptions struct {
	// Path is the pandoc executable; empty means "pandoc" on PATH.
	Path string
	// PDFEngine defaults to DefaultPDFEngine.
	PDFEngine string
	// CJKFont is passed as -V CJKmainfont when non-empty.
	CJKFont string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

func (o PandocOptions) withDefaults() PandocOptions {
	if o.Path == "" {
		o.Path = binPandoc
	}
	if o.PDFEngine == "" {
		o.PDFEngine = DefaultPDFEngine
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// PandocConverter runs the host pandoc executable.
type PandocConverter struct {
	opts PandocOptions
	exec executor
}

// NewPandocConverter returns a converter for the host pandoc installation.
// Availability is checked on each Convert so that a missing executable is
// reported as a ConversionError for that artifact.
func NewPandocConverter(opts PandocOptions) *PandocConverter {
	return &PandocConverter{opts: opts.withDefaults(), exec: defaultExec}
}

func (p *PandocConverter) Name() string { return "pandoc" }

// Convert renders job.MarkdownPath to job.PDFPath. The remote-image filter
// is written to a temporary directory that is removed afterwards.
func (p *PandocConverter) Convert(ctx context.Context, job Job) error {
	bin, err := p.exec.LookPath(p.opts.Path)
	if err != nil {
		return &ConversionError{
			Kind:    KindUnavailable,
			Backend: p.Name(),
			Err:     fmt.Errorf("%s not found: %w", p.opts.Path, err),
		}
	}

	filterDir, err := os.MkdirTemp("", "thoughtprint-filter-")
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: p.Name(), Err: err}
	}
	defer os.RemoveAll(filterDir)

	filterPath, err := imagefilter.WriteScript(filterDir)
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: p.Name(), Err: err}
	}
	metaPath, err := writeMetadata(filterDir, job.Title)
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: p.Name(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	args := pandocArgs(job.MarkdownPath, job.PDFPath, filterPath, metaPath, p.opts.PDFEngine, p.opts.CJKFont)

	var stdout, stderr bytes.Buffer
	if err := p.exec.Run(ctx, bin, args, &stdout, &stderr); err != nil {
		return classify(ctx, p.Name(), err, stdout.String(), stderr.String())
	}
	return nil
}

// pandocArgs builds the pandoc command line: GitHub-flavoured Markdown in,
// standalone PDF out through the given engine, with the title metadata file
// and the Lua filter applied.
func pandocArgs(mdPath, pdfPath, filterPath, metaPath, engine, cjkFont string) []string {
	args := []string{
		"-s",
		"-f", "gfm",
		mdPath,
		"-o", pdfPath,
		"--pdf-engine=" + engine,
		"--metadata-file=" + metaPath,
		"--lua-filter", filterPath,
	}
	if cjkFont != "" {
		args = append(args, "-V", "CJKmainfont="+cjkFont)
	}
	return args
}

// writeMetadata writes the document title into dir as a pandoc metadata
// file. YAML quoting keeps titles such as "true" or "1.0" strings, and
// Markdown punctuation is escaped because pandoc reads metadata strings as
// Markdown.
func writeMetadata(dir, title string) (string, error) {
	data, err := yaml.Marshal(map[string]string{"title": escapeMarkdown(sanitizeTitle(title))})
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	path := filepath.Join(dir, metadataName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata %s: %w", path, err)
	}
	return path, nil
}

func sanitizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMarkdown backslash-escapes every ASCII punctuation character.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// classify maps a failed run onto a ConversionError.
func classify(ctx context.Context, backend string, err error, stdout, stderr string) *ConversionError {
	ce := &ConversionError{Backend: backend, Stdout: stdout, Stderr: stderr, Err: err}

	var coder interface{ ExitCode() int }
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		ce.Kind = KindTimeout
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		ce.Kind = KindUnavailable
	case errors.As(err, &coder):
		ce.Kind = KindFailed
		ce.ExitCode = coder.ExitCode()
	default:
		ce.Kind = KindFailed
		ce.ExitCode = -1
	}
	return ce
}

// Dependency is one line of a dependency check.
type Dependency struct {
	Name   string
	OK     bool
	Detail string
}

// CheckDependencies verifies that pandoc is on PATH and that the PDF engine
// runs. For xelatex the version banner must mention XeTeX.
func CheckDependencies(ctx context.Context, opts PandocOptions) []Dependency {
	return checkDependencies(ctx, opts.withDefaults(), defaultExec)
}

func checkDependencies(ctx context.Context, opts PandocOptions, exec executor) []Dependency {
	var deps []Dependency

	if path, err := exec.LookPath(opts.Path); err != nil {
		deps = append(deps, Dependency{Name: opts.Path, Detail: "not found in PATH"})
	} else {
		deps = append(deps, Dependency{Name: opts.Path, OK: true, Detail: path})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	engine := Dependency{Name: opts.PDFEngine}
	err := exec.Run(ctx, opts.PDFEngine, []string{"--version"}, &out, io.Discard)
	banner := firstLine(out.String())
	switch {
	case err != nil:
		engine.Detail = fmt.Sprintf("not working: %v", err)
	case opts.PDFEngine == DefaultPDFEngine && !strings.Contains(out.String(), "XeTeX"):
		engine.Detail = "unexpected version output; install a TeX distribution with xelatex"
	default:
		engine.OK = true
		engine.Detail = banner
	}
	return append(deps, engine)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
