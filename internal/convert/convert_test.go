// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thoughtprint/internal/container"
	"github.com/pdiddy/thoughtprint/internal/imagefilter"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// mockExecutor implements executor for testing.
type mockExecutor struct {
	paths   map[string]bool
	runFunc func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error

	calls [][]string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.paths[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (m *mockExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args, stdout, stderr)
	}
	return nil
}

// exitError mimics *exec.ExitError.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *exitError) ExitCode() int { return e.code }

func newTestPandoc(exec executor, opts PandocOptions) *PandocConverter {
	return &PandocConverter{opts: opts.withDefaults(), exec: exec}
}

func testJob(t *testing.T) Job {
	t.Helper()
	dir := t.TempDir()
	md := filepath.Join(dir, "abc.md")
	require.NoError(t, os.WriteFile(md, []byte("# Hello\n"), 0o644))
	return Job{MarkdownPath: md, PDFPath: filepath.Join(dir, "abc.pdf"), Title: "Hello"}
}

func TestPandocArgs(t *testing.T) {
	got := pandocArgs("in.md", "out.pdf", "/tmp/f.lua", "/tmp/metadata.yaml", "xelatex", "SimSun")
	want := []string{
		"-s", "-f", "gfm", "in.md", "-o", "out.pdf",
		"--pdf-engine=xelatex",
		"--metadata-file=/tmp/metadata.yaml",
		"--lua-filter", "/tmp/f.lua",
		"-V", "CJKmainfont=SimSun",
	}
	assert.Equal(t, want, got)

	noFont := pandocArgs("in.md", "out.pdf", "f.lua", "m.yaml", "lualatex", "")
	assert.NotContains(t, noFont, "-V")
	assert.Contains(t, noFont, "--pdf-engine=lualatex")
}

func TestPandocConverter_Success(t *testing.T) {
	job := testJob(t)
	var filterSeen, metaSeen string
	exec := &mockExecutor{
		paths: map[string]bool{"pandoc": true},
		runFunc: func(_ context.Context, name string, args []string, _, _ io.Writer) error {
			for i, a := range args {
				if a == "--lua-filter" {
					data, err := os.ReadFile(args[i+1])
					if err != nil {
						return err
					}
					filterSeen = string(data)
				}
				if path, ok := strings.CutPrefix(a, "--metadata-file="); ok {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					metaSeen = string(data)
				}
			}
			return nil
		},
	}

	conv := newTestPandoc(exec, PandocOptions{CJKFont: "SimSun"})
	require.NoError(t, conv.Convert(context.Background(), job))

	require.Len(t, exec.calls, 1)
	call := exec.calls[0]
	assert.Equal(t, "/usr/bin/pandoc", call[0])
	assert.Contains(t, call, job.MarkdownPath)
	assert.Contains(t, call, job.PDFPath)
	assert.Contains(t, call, "--pdf-engine=xelatex")
	assert.Equal(t, imagefilter.LuaScript, filterSeen, "filter script must be on disk during the run")
	assert.Equal(t, "title: Hello\n", metaSeen)

	// The temporary filter directory is cleaned up afterwards.
	for i, a := range call {
		if a == "--lua-filter" {
			_, err := os.Stat(call[i+1])
			assert.True(t, os.IsNotExist(err))
		}
	}
}

func TestWriteMetadata(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "My  Title\n", "My Title"},
		{"boolean-looking", "true", "true"},
		{"number-looking", "1.0", "1\\.0"},
		{"markdown punctuation", "Use *go* [now]", "Use \\*go\\* \\[now\\]"},
		{"colon", "Q: why", "Q\\: why"},
		{"non-ascii", "数据 分析", "数据 分析"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writeMetadata(t.TempDir(), tt.title)
			require.NoError(t, err)
			assert.Equal(t, metadataName, filepath.Base(path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			var meta map[string]any
			require.NoError(t, yaml.Unmarshal(data, &meta))
			title, ok := meta["title"].(string)
			require.True(t, ok, "title must decode as a string, got %T", meta["title"])
			assert.Equal(t, tt.want, title)
		})
	}
}

func TestPandocConverter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		paths    map[string]bool
		runFunc  func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
		timeout  time.Duration
		wantKind ErrorKind
		wantCode int
		wantText string
	}{
		{
			name:     "pandoc missing",
			paths:    map[string]bool{},
			wantKind: KindUnavailable,
			wantText: "pandoc not found",
		},
		{
			name:  "non-zero exit",
			paths: map[string]bool{"pandoc": true},
			runFunc: func(_ context.Context, _ string, _ []string, _, stderr io.Writer) error {
				_, _ = stderr.Write([]byte("xelatex not found. Please select a different --pdf-engine"))
				return &exitError{code: 47}
			},
			wantKind: KindFailed,
			wantCode: 47,
			wantText: "xelatex not found",
		},
		{
			name:  "timeout",
			paths: map[string]bool{"pandoc": true},
			runFunc: func(ctx context.Context, _ string, _ []string, _, _ io.Writer) error {
				<-ctx.Done()
				return ctx.Err()
			},
			timeout:  10 * time.Millisecond,
			wantKind: KindTimeout,
		},
		{
			name:  "binary vanished between lookup and run",
			paths: map[string]bool{"pandoc": true},
			runFunc: func(context.Context, string, []string, io.Writer, io.Writer) error {
				return os.ErrNotExist
			},
			wantKind: KindUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := testJob(t)
			conv := newTestPandoc(&mockExecutor{paths: tt.paths, runFunc: tt.runFunc}, PandocOptions{Timeout: tt.timeout})

			err := conv.Convert(context.Background(), job)
			require.Error(t, err)

			var ce *ConversionError
			require.True(t, errors.As(err, &ce), "want *ConversionError, got %T", err)
			assert.Equal(t, tt.wantKind, ce.Kind)
			assert.Equal(t, "pandoc", ce.Backend)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, ce.ExitCode)
			}
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}

			// The Markdown input is untouched.
			data, readErr := os.ReadFile(job.MarkdownPath)
			require.NoError(t, readErr)
			assert.Equal(t, "# Hello\n", string(data))
		})
	}
}

func TestConversionError_Message(t *testing.T) {
	err := &ConversionError{Kind: KindFailed, Backend: "pandoc", ExitCode: 43, Stderr: "  Error producing PDF.\n", Err: errors.New("exit status 43")}
	msg := err.Error()
	assert.Contains(t, msg, "pandoc conversion failed (exit 43)")
	assert.Contains(t, msg, "stderr: Error producing PDF.")

	inner := errors.New("boom")
	wrapped := &ConversionError{Kind: KindSetup, Backend: "pandoc", Err: inner}
	assert.ErrorIs(t, wrapped, inner)
}

func TestCheckDependencies(t *testing.T) {
	tests := []struct {
		name    string
		paths   map[string]bool
		banner  string
		runErr  error
		wantOK  []bool
		wantMsg string
	}{
		{
			name:   "all present",
			paths:  map[string]bool{"pandoc": true},
			banner: "XeTeX 3.141592653-2.6-0.999995 (TeX Live 2023)\nmore",
			wantOK: []bool{true, true},
		},
		{
			name:    "pandoc missing",
			paths:   map[string]bool{},
			banner:  "XeTeX 3.14",
			wantOK:  []bool{false, true},
			wantMsg: "not found in PATH",
		},
		{
			name:    "xelatex missing",
			paths:   map[string]bool{"pandoc": true},
			runErr:  errors.New("executable file not found"),
			wantOK:  []bool{true, false},
			wantMsg: "not working",
		},
		{
			name:    "wrong banner",
			paths:   map[string]bool{"pandoc": true},
			banner:  "pdfTeX 3.14",
			wantOK:  []bool{true, false},
			wantMsg: "unexpected version output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{
				paths: tt.paths,
				runFunc: func(_ context.Context, _ string, _ []string, stdout, _ io.Writer) error {
					_, _ = stdout.Write([]byte(tt.banner))
					return tt.runErr
				},
			}
			deps := checkDependencies(context.Background(), PandocOptions{}.withDefaults(), exec)
			require.Len(t, deps, 2)
			assert.Equal(t, "pandoc", deps[0].Name)
			assert.Equal(t, "xelatex", deps[1].Name)
			for i, ok := range tt.wantOK {
				assert.Equal(t, ok, deps[i].OK, "dependency %s", deps[i].Name)
			}
			if tt.wantMsg != "" {
				assert.True(t, strings.Contains(deps[0].Detail, tt.wantMsg) || strings.Contains(deps[1].Detail, tt.wantMsg))
			}
		})
	}
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	imageErr error
	runErr   error
	spec     container.RunSpec
}

func (f *fakeRuntime) Name() string                              { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool            { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }
func (f *fakeRuntime) Run(_ context.Context, spec container.RunSpec) error {
	f.spec = spec
	return f.runErr
}

func TestContainerConverter(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		_, err := NewContainerConverter(context.Background(), &fakeRuntime{imageErr: errors.New("no such image")}, ContainerOptions{})
		var ce *ConversionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, KindUnavailable, ce.Kind)
		assert.Contains(t, err.Error(), DefaultImage)
	})

	t.Run("runs pandoc without network", func(t *testing.T) {
		rt := &fakeRuntime{}
		conv, err := NewContainerConverter(context.Background(), rt, ContainerOptions{})
		require.NoError(t, err)
		assert.Equal(t, "container/docker", conv.Name())

		job := testJob(t)
		require.NoError(t, conv.Convert(context.Background(), job))

		assert.Equal(t, DefaultImage, rt.spec.Image)
		assert.Equal(t, "none", rt.spec.Network)
		assert.Contains(t, rt.spec.Args, "/data/in/abc.md")
		assert.Contains(t, rt.spec.Args, "/data/out/abc.pdf")
		assert.Contains(t, rt.spec.Args, "/filters/"+imagefilter.ScriptName)
		assert.Contains(t, rt.spec.Args, "--metadata-file=/filters/"+metadataName)
		require.Len(t, rt.spec.Mounts, 3)
		assert.True(t, rt.spec.Mounts[0].ReadOnly)
		assert.False(t, rt.spec.Mounts[1].ReadOnly)
		assert.Equal(t, filepath.Dir(job.PDFPath), rt.spec.Mounts[1].Source)
	})

	t.Run("run failure", func(t *testing.T) {
		rt := &fakeRuntime{runErr: &exitError{code: 1}}
		conv, err := NewContainerConverter(context.Background(), rt, ContainerOptions{Image: "custom:1"})
		require.NoError(t, err)

		err = conv.Convert(context.Background(), testJob(t))
		var ce *ConversionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, KindFailed, ce.Kind)
		assert.Equal(t, 1, ce.ExitCode)
	})
}

// fakeConverter implements Converter for testing.
type fakeConverter struct {
	err  error
	jobs []Job
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(_ context.Context, job Job) error {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.PDFPath, []byte("%PDF-1.7"), 0o644)
}

func TestRenderMissing(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("aaa.md", "# Alpha\n\nbody")
	write("bbb.md", "no heading")
	write("bbb.pdf", "%PDF")
	write("ccc.md", "plain")
	write("notes.txt", "ignored")

	conv := &fakeConverter{}
	var log bytes.Buffer
	result, err := RenderMissing(context.Background(), conv, dir, nil, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.False(t, result.HasFailures())
	assert.Contains(t, log.String(), "Render summary:")

	titles := map[string]string{}
	for _, j := range conv.jobs {
		titles[filepath.Base(j.MarkdownPath)] = j.Title
	}
	assert.Equal(t, "Alpha", titles["aaa.md"])
	assert.Equal(t, "ccc", titles["ccc.md"])

	data, err := os.ReadFile(filepath.Join(dir, "aaa.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Alpha\n\nbody", string(data))
}

func TestRenderMissing_SelectedIDsAndFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.md"), []byte("y"), 0o644))

	conv := &fakeConverter{err: &ConversionError{Kind: KindUnavailable, Backend: "fake"}}
	var log bytes.Buffer
	result, err := RenderMissing(context.Background(), conv, dir, []string{"one", "missing.md"}, &log)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Converted)
	assert.Equal(t, 2, result.Failed)
	assert.True(t, result.HasFailures())
	require.Len(t, conv.jobs, 1, "missing.md cannot be read so only one.md reaches the converter")
	assert.Equal(t, filepath.Join(dir, "one.md"), conv.jobs[0].MarkdownPath)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"atx heading", "# Hello, 世界!\n\nText", "Hello, 世界!"},
		{"later heading", "Intro paragraph.\n\n## Section *two*\n", "Section two"},
		{"setext heading", "Title Here\n==========\n", "Title Here"},
		{"code in heading", "# Use `go test`\n", "Use go test"},
		{"no heading", "just text", "fallback"},
		{"empty heading skipped", "#\n\n# Real\n", "Real"},
		{"heading in code block ignored", "```\n# not a heading\n```\n", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title([]byte(tt.src), "fallback"))
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), types.ConverterConfig{})
	require.NoError(t, err)
	assert.Equal(t, "pandoc", c.Name())

	c, err = New(context.Background(), types.ConverterConfig{Backend: types.BackendPandoc, PDFEngine: "lualatex"})
	require.NoError(t, err)
	pc, ok := c.(*PandocConverter)
	require.True(t, ok)
	assert.Equal(t, "lualatex", pc.opts.PDFEngine)
	assert.Equal(t, DefaultTimeout, pc.opts.Timeout)

	_, err = New(context.Background(), types.ConverterConfig{Backend: "latexmk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown converter backend")
}
