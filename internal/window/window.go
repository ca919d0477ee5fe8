// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package window is the interactive prompt surface: a single-line terminal
// input that sends each prompt through the pipeline and reports where the
// PDF (or Markdown) was written. Lines starting with "/" are commands that
// inspect or change the settings.
package window

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/output"
	"github.com/pdiddy/thoughtprint/internal/pipeline"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// maxTranscript is the number of result lines kept on screen.
const maxTranscript = 12

// Runner executes one prompt. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, prompt string, opts pipeline.Options) (pipeline.Result, error)
}

// Deps are the collaborators of the window.
type Deps struct {
	Runner     Runner
	Settings   *settings.Store
	SecretsDir string
	// ListModels defaults to ai.ListModels.
	ListModels func(context.Context, types.Provider) ([]string, error)
	Version    string
}

type resultMsg struct {
	res pipeline.Result
	err error
}

type modelsMsg struct {
	provider string
	models   []string
	err      error
}

type settingsMsg settings.Snapshot

type lineKind int

const (
	lineInfo lineKind = iota
	lineSuccess
	lineError
)

type line struct {
	kind lineKind
	text string
}

// Model is the Bubble Tea model of the window.
type Model struct {
	ctx  context.Context
	deps Deps

	input   textinput.Model
	spinner spinner.Model

	st      types.Settings
	busy    bool
	pending string
	lines   []line
}

// New returns a window model with the settings already loaded.
func New(ctx context.Context, deps Deps) (*Model, error) {
	if deps.ListModels == nil {
		deps.ListModels = ai.ListModels
	}
	st, err := deps.Settings.Load()
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = "Ask anything, or /help"
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.Width = 72
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return &Model{ctx: ctx, deps: deps, input: ti, spinner: sp, st: st}, nil
}

// Run shows the window until the user quits. Settings edits made on disk
// while it runs are picked up.
func Run(ctx context.Context, deps Deps) error {
	m, err := New(ctx, deps)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithContext(ctx))
	deps.Settings.Watch(func(s settings.Snapshot) {
		p.Send(settingsMsg(s))
	})
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			return m.submit()
		}

	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		m.finish()
		m.reportResult(msg.res, msg.err)
		return m, textinput.Blink

	case modelsMsg:
		m.finish()
		m.reportModels(msg)
		return m, textinput.Blink

	case settingsMsg:
		if msg.Err != nil {
			m.add(lineError, "Settings reload failed: "+msg.Err.Error())
			return m, nil
		}
		m.st = msg.Settings
		return m, nil
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter on the current input.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()

	cmd, err := ParseCommand(text)
	if err != nil {
		m.add(lineError, err.Error())
		return m, nil
	}

	switch cmd.Kind {
	case CmdQuit:
		return m, tea.Quit
	case CmdHelp:
		m.add(lineInfo, helpText)
	case CmdConfigShow:
		m.add(lineInfo, m.describeSettings())
	case CmdConfigProvider:
		st, err := m.deps.Settings.SelectProvider(cmd.Arg)
		m.applySettings(st, err, "Selected provider: "+cmd.Arg)
	case CmdConfigModel:
		st, err := m.deps.Settings.SetModel(cmd.Arg)
		m.applySettings(st, err, "Model set to "+cmd.Arg)
	case CmdConfigPrompt:
		st, err := m.deps.Settings.SetSystemPrompt(cmd.Arg)
		m.applySettings(st, err, "System prompt updated")
	case CmdModels:
		return m.start("Fetching models", m.fetchModels())
	case CmdPrompt:
		return m.start("Thinking", m.runPrompt(cmd.Arg))
	}
	return m, nil
}

func (m *Model) applySettings(st types.Settings, err error, done string) {
	if err != nil {
		m.add(lineError, err.Error())
		return
	}
	m.st = st
	m.add(lineSuccess, done)
}

func (m *Model) start(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.pending = label
	m.input.Blur()
	return m, tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) finish() {
	m.busy = false
	m.pending = ""
	m.input.Focus()
}

func (m *Model) runPrompt(prompt string) tea.Cmd {
	ctx, runner := m.ctx, m.deps.Runner
	return func() tea.Msg {
		res, err := runner.Run(ctx, prompt, pipeline.Options{})
		return resultMsg{res: res, err: err}
	}
}

func (m *Model) fetchModels() tea.Cmd {
	ctx, st, deps := m.ctx, m.st, m.deps
	return func() tea.Msg {
		p, err := settings.Selected(st)
		if err != nil {
			return modelsMsg{err: err}
		}
		p, err = settings.Resolve(p, deps.SecretsDir)
		if err != nil {
			return modelsMsg{provider: p.Name, err: err}
		}
		models, err := deps.ListModels(ctx, p)
		return modelsMsg{provider: p.Name, models: models, err: err}
	}
}

func (m *Model) reportResult(res pipeline.Result, err error) {
	if err == nil {
		m.add(lineSuccess, "PDF saved: "+res.Artifact.PDFPath)
		return
	}
	if res.Artifact.MarkdownPath != "" {
		m.add(lineError, "Markdown saved: "+res.Artifact.MarkdownPath)
	}
	m.add(lineError, DescribeError(err))
}

func (m *Model) reportModels(msg modelsMsg) {
	if msg.err != nil {
		m.add(lineError, DescribeError(msg.err))
		return
	}
	if len(msg.models) == 0 {
		m.add(lineInfo, fmt.Sprintf("%s offers no models", msg.provider))
		return
	}
	m.add(lineInfo, fmt.Sprintf("Models for %s:\n  %s", msg.provider, strings.Join(msg.models, "\n  ")))
}

func (m *Model) describeSettings() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settings: %s\n", m.deps.Settings.Path())
	p, err := settings.Selected(m.st)
	if err != nil {
		fmt.Fprintf(&b, "Provider: (%v)\n", err)
	} else {
		fmt.Fprintf(&b, "Provider: %s (%s, %s)\n", p.Name, p.Type, p.BaseURL)
		fmt.Fprintf(&b, "Model:    %s\n", p.Model)
	}
	names := make([]string, len(m.st.Providers))
	for i, p := range m.st.Providers {
		names[i] = p.Name
	}
	fmt.Fprintf(&b, "Available: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Output:   %s\n", pipeline.OutputDir(m.st))
	fmt.Fprintf(&b, "System prompt: %s", m.st.SystemPrompt)
	return b.String()
}

func (m *Model) add(kind lineKind, text string) {
	m.lines = append(m.lines, line{kind: kind, text: text})
	if len(m.lines) > maxTranscript {
		m.lines = m.lines[len(m.lines)-maxTranscript:]
	}
}

func (m *Model) View() string {
	var b strings.Builder

	header := "ThoughtPrint"
	if m.deps.Version != "" {
		header += " " + m.deps.Version
	}
	b.WriteString(titleStyle.Render(header))
	if p, err := settings.Selected(m.st); err == nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s · %s", p.Name, p.Model)))
	}
	b.WriteString("\n")

	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " " + m.pending + "...\n")
	}

	for _, l := range m.lines {
		switch l.kind {
		case lineSuccess:
			b.WriteString(successStyle.Render(l.text))
		case lineError:
			b.WriteString(errorStyle.Render(l.text))
		default:
			b.WriteString(l.text)
		}
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("enter send · /help commands · esc quit"))
	b.WriteString("\n")
	return b.String()
}

// DescribeError renders err for the user, naming its kind.
func DescribeError(err error) string {
	var (
		reqErr  *ai.AIRequestError
		cfgErr  *ai.ConfigError
		convErr *convert.ConversionError
		wrErr   *output.WriteError
	)
	switch {
	case errors.As(err, &reqErr):
		return "AI request failed: " + err.Error()
	case errors.As(err, &cfgErr):
		return "Configuration error: " + err.Error()
	case errors.As(err, &convErr):
		return "PDF conversion failed: " + err.Error()
	case errors.As(err, &wrErr):
		return "Could not write output: " + err.Error()
	case errors.Is(err, pipeline.ErrEmptyPrompt):
		return "Nothing to send: the prompt is empty"
	}
	return "Error: " + err.Error()
}
