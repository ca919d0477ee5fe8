// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one request end to end: load settings, send the
// prompt to the selected provider, write the response as Markdown and PDF,
// and journal the artifact. Each call is synchronous and produces at most
// one artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/history"
	"github.com/pdiddy/thoughtprint/internal/output"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// ErrEmptyPrompt is returned for a prompt that is blank after trimming.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Options overrides settings for a single run.
type Options struct {
	// Provider selects a provider by name instead of the selected one.
	Provider string
	// Model replaces the provider's model.
	Model string
	// OutputDir replaces the configured output directory.
	OutputDir string
}

// Result describes a finished run.
type Result struct {
	Request  types.Request
	Artifact types.Artifact
	Response string
	Duration time.Duration
}

// Pipeline holds the dependencies of a run. The function fields default to
// the real implementations and are replaced in tests.
type Pipeline struct {
	Settings   *settings.Store
	SecretsDir string

	NewClient    func(types.Provider) (ai.Client, error)
	NewConverter func(context.Context, types.ConverterConfig) (convert.Converter, error)
	// OpenHistory opens the journal for an output directory; nil disables it.
	OpenHistory func(outputDir string) (*history.Store, error)
}

// New returns a Pipeline wired to the real AI clients, converters and journal.
func New(store *settings.Store, secretsDir string) *Pipeline {
	return &Pipeline{
		Settings:     store,
		SecretsDir:   secretsDir,
		NewClient:    ai.NewClient,
		NewConverter: convert.New,
		OpenHistory: func(dir string) (*history.Store, error) {
			return history.Open(history.DefaultPath(dir))
		},
	}
}

// OutputDir returns the configured output directory or the default one.
func OutputDir(st types.Settings) string {
	if st.Output.Dir != "" {
		return st.Output.Dir
	}
	return output.DefaultDir()
}

// Run sends prompt and writes the response.
//
// Errors before the Markdown is written (*ai.ConfigError, *ai.AIRequestError,
// *output.WriteError) return an empty Result. A *convert.ConversionError is
// returned together with a Result whose artifact is markdown_only.
func (p *Pipeline) Run(ctx context.Context, prompt string, opts Options) (Result, error) {
	start := time.Now()
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}

	st, err := p.Settings.Load()
	if err != nil {
		return Result{}, err
	}

	provider, err := p.provider(st, opts)
	if err != nil {
		return Result{}, err
	}

	req := types.Request{
		Prompt:       prompt,
		Provider:     provider.Name,
		Model:        provider.Model,
		SystemPrompt: st.SystemPrompt,
	}
	log := logrus.WithFields(logrus.Fields{"provider": provider.Name, "model": provider.Model})

	client, err := p.NewClient(provider)
	if err != nil {
		return Result{}, err
	}

	log.Info("sending prompt")
	text, err := client.Complete(ctx, prompt, st.SystemPrompt)
	if err != nil {
		log.WithError(err).Error("ai request failed")
		return Result{}, err
	}
	log.WithField("chars", len(text)).Info("response received")

	dir := opts.OutputDir
	if dir == "" {
		dir = OutputDir(st)
	}

	conv, convErr := p.NewConverter(ctx, st.Converter)
	if convErr != nil {
		log.WithError(convErr).Warn("converter unavailable")
		conv = unavailable{err: convErr}
	}

	art, err := output.NewWriter(dir, conv).Write(ctx, text)
	var we *output.WriteError
	if errors.As(err, &we) {
		return Result{}, err
	}

	res := Result{Request: req, Artifact: art, Response: text, Duration: time.Since(start)}
	p.record(ctx, dir, res, err)
	return res, err
}

func (p *Pipeline) provider(st types.Settings, opts Options) (types.Provider, error) {
	var (
		provider types.Provider
		err      error
	)
	if opts.Provider != "" {
		provider, err = settings.Find(st, opts.Provider)
	} else {
		provider, err = settings.Selected(st)
	}
	if err != nil {
		return types.Provider{}, err
	}
	if opts.Model != "" {
		provider.Model = opts.Model
	}
	return settings.Resolve(provider, p.SecretsDir)
}

// record journals the run. Journal failures are logged, not returned.
func (p *Pipeline) record(ctx context.Context, dir string, res Result, runErr error) {
	if p.OpenHistory == nil {
		return
	}
	h, err := p.OpenHistory(dir)
	if err != nil {
		logrus.WithError(err).Warn("history unavailable")
		return
	}
	defer h.Close()

	e := history.Entry{Artifact: res.Artifact, Request: res.Request}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if err := h.Record(ctx, e); err != nil {
		logrus.WithError(err).Warn("could not record history")
	}
}

// unavailable is the converter used when the configured backend could not
// be built; it reports that failure for the artifact.
type unavailable struct{ err error }

func (u unavailable) Name() string { return "unavailable" }

func (u unavailable) Convert(context.Context, convert.Job) error {
	var ce *convert.ConversionError
	if errors.As(u.err, &ce) {
		return ce
	}
	return &convert.ConversionError{Kind: convert.KindUnavailable, Backend: "converter", Err: fmt.Errorf("building converter: %w", u.err)}
}
