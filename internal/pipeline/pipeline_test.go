// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/history"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

type fakeClient struct {
	text string
	err  error

	prompt, system string
}

func (f *fakeClient) Complete(_ context.Context, prompt, systemPrompt string) (string, error) {
	f.prompt, f.system = prompt, systemPrompt
	return f.text, f.err
}

type fakeConverter struct{ err error }

func (f fakeConverter) Name() string { return "fake" }

func (f fakeConverter) Convert(_ context.Context, job convert.Job) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.PDFPath, []byte("%PDF"), 0o644)
}

type harness struct {
	p         *Pipeline
	client    *fakeClient
	outDir    string
	providers []types.Provider
}

func newHarness(t *testing.T, conv convert.Converter, convErr error) *harness {
	t.Helper()
	h := &harness{client: &fakeClient{text: "# Answer\n\n42"}, outDir: t.TempDir()}

	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	_, err := store.Load()
	require.NoError(t, err)

	h.p = New(store, t.TempDir())
	h.p.NewClient = func(p types.Provider) (ai.Client, error) {
		h.providers = append(h.providers, p)
		return h.client, nil
	}
	h.p.NewConverter = func(context.Context, types.ConverterConfig) (convert.Converter, error) {
		return conv, convErr
	}
	return h
}

func (h *harness) history(t *testing.T) []history.Entry {
	t.Helper()
	s, err := history.Open(history.DefaultPath(h.outDir))
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	return entries
}

func TestRun_Success(t *testing.T) {
	h := newHarness(t, fakeConverter{}, nil)

	res, err := h.p.Run(context.Background(), "  what is the answer?  ", Options{OutputDir: h.outDir})
	require.NoError(t, err)

	assert.Equal(t, "what is the answer?", h.client.prompt)
	assert.Equal(t, settings.DefaultSystemPrompt, h.client.system)
	assert.Equal(t, types.ArtifactComplete, res.Artifact.Status)
	assert.Equal(t, "Answer", res.Artifact.Title)
	assert.FileExists(t, res.Artifact.PDFPath)

	data, err := os.ReadFile(res.Artifact.MarkdownPath)
	require.NoError(t, err)
	assert.Equal(t, "# Answer\n\n42", string(data))

	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Artifact.ID, entries[0].ID)
	assert.Equal(t, settings.DefaultProviderName, entries[0].Provider)
	assert.Equal(t, "what is the answer?", entries[0].Prompt)
}

func TestRun_ConversionFailureKeepsMarkdown(t *testing.T) {
	convErr := &convert.ConversionError{Kind: convert.KindFailed, Backend: "fake", ExitCode: 43, Stderr: "Error producing PDF."}
	h := newHarness(t, fakeConverter{err: convErr}, nil)

	res, err := h.p.Run(context.Background(), "q", Options{OutputDir: h.outDir})
	var ce *convert.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.ArtifactMarkdownOnly, res.Artifact.Status)
	assert.FileExists(t, res.Artifact.MarkdownPath)

	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, types.ArtifactMarkdownOnly, entries[0].Status)
	assert.Contains(t, entries[0].Error, "Error producing PDF.")
}

func TestRun_ConverterUnavailable(t *testing.T) {
	h := newHarness(t, nil, errors.New("no container runtime available"))

	res, err := h.p.Run(context.Background(), "q", Options{OutputDir: h.outDir})
	var ce *convert.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, convert.KindUnavailable, ce.Kind)
	assert.Contains(t, err.Error(), "no container runtime available")
	assert.FileExists(t, res.Artifact.MarkdownPath)
}

func TestRun_AIErrorWritesNothing(t *testing.T) {
	h := newHarness(t, fakeConverter{}, nil)
	h.client.err = &ai.AIRequestError{Provider: "p", Op: "request", StatusCode: 500, Err: errors.New("HTTP 500")}

	res, err := h.p.Run(context.Background(), "q", Options{OutputDir: h.outDir})
	var reqErr *ai.AIRequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Empty(t, res.Artifact.ID)

	entries, err := os.ReadDir(h.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_EmptyPrompt(t *testing.T) {
	h := newHarness(t, fakeConverter{}, nil)
	_, err := h.p.Run(context.Background(), " \n\t", Options{OutputDir: h.outDir})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, h.providers)
}

func TestRun_ProviderAndModelOverrides(t *testing.T) {
	h := newHarness(t, fakeConverter{}, nil)
	_, err := h.p.Settings.AddProvider(types.Provider{
		Name: "Remote", Type: types.ProviderOpenAICompatible, BaseURL: "https://api.example.com/v1",
		Model: "gpt-4o", APIKeyEnv: "TP_PIPELINE_KEY",
	})
	require.NoError(t, err)
	t.Setenv("TP_PIPELINE_KEY", "sk-env")

	_, err = h.p.Run(context.Background(), "q", Options{Provider: "Remote", Model: "gpt-4o-mini", OutputDir: h.outDir})
	require.NoError(t, err)
	require.Len(t, h.providers, 1)
	assert.Equal(t, "Remote", h.providers[0].Name)
	assert.Equal(t, "gpt-4o-mini", h.providers[0].Model)
	assert.Equal(t, "sk-env", h.providers[0].APIKey)

	_, err = h.p.Run(context.Background(), "q", Options{Provider: "Nope", OutputDir: h.outDir})
	assert.ErrorIs(t, err, settings.ErrProviderNotFound)
}

func TestRun_ConfigErrorFromRealClient(t *testing.T) {
	h := newHarness(t, fakeConverter{}, nil)
	h.p.NewClient = ai.NewClient
	_, err := h.p.Settings.UpdateProvider(settings.DefaultProviderName, types.Provider{
		Name: settings.DefaultProviderName, Type: types.ProviderOllama, BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)

	_, err = h.p.Run(context.Background(), "q", Options{OutputDir: h.outDir})
	var ce *ai.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "model", ce.Field)
}

func TestOutputDir(t *testing.T) {
	assert.Equal(t, "/custom", OutputDir(types.Settings{Output: types.OutputConfig{Dir: "/custom"}}))
	assert.Equal(t, "ThoughtPrint", filepath.Base(OutputDir(types.Settings{})))
}
