// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package window

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/output"
	"github.com/pdiddy/thoughtprint/internal/pipeline"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

type fakeRunner struct {
	res pipeline.Result
	err error

	prompts []string
}

func (f *fakeRunner) Run(_ context.Context, prompt string, _ pipeline.Options) (pipeline.Result, error) {
	f.prompts = append(f.prompts, prompt)
	return f.res, f.err
}

func newTestModel(t *testing.T, runner Runner) (*Model, *settings.Store) {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	listModels := func(context.Context, types.Provider) ([]string, error) {
		return []string{"llama3", "mistral"}, nil
	}
	m, err := New(context.Background(), Deps{
		Runner:     runner,
		Settings:   store,
		ListModels: listModels,
		Version:    "test",
	})
	require.NoError(t, err)
	return m, store
}

// enter types text into the input and presses Enter.
func enter(m *Model, text string) tea.Cmd {
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

// collect runs cmd and any batched commands, returning their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func lastLine(m *Model) line {
	if len(m.lines) == 0 {
		return line{}
	}
	return m.lines[len(m.lines)-1]
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr string
	}{
		{input: "what is a monad?", want: Command{Kind: CmdPrompt, Arg: "what is a monad?"}},
		{input: "  padded  ", want: Command{Kind: CmdPrompt, Arg: "padded"}},
		{input: "//etc/hosts explained", want: Command{Kind: CmdPrompt, Arg: "/etc/hosts explained"}},
		{input: "/config", want: Command{Kind: CmdConfigShow}},
		{input: "/config provider OpenAI GPT-4o", want: Command{Kind: CmdConfigProvider, Arg: "OpenAI GPT-4o"}},
		{input: "/config model qwen2", want: Command{Kind: CmdConfigModel, Arg: "qwen2"}},
		{input: "/config prompt Be brief.", want: Command{Kind: CmdConfigPrompt, Arg: "Be brief."}},
		{input: "/config system-prompt Be brief.", want: Command{Kind: CmdConfigPrompt, Arg: "Be brief."}},
		{input: "/models", want: Command{Kind: CmdModels}},
		{input: "/HELP", want: Command{Kind: CmdHelp}},
		{input: "/?", want: Command{Kind: CmdHelp}},
		{input: "/quit", want: Command{Kind: CmdQuit}},
		{input: "/exit", want: Command{Kind: CmdQuit}},
		{input: "/q", want: Command{Kind: CmdQuit}},
		{input: "/frobnicate", wantErr: "unknown command /frobnicate"},
		{input: "/config colour red", wantErr: "unknown /config option"},
		{input: "/config model", wantErr: "needs a value"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptSuccess(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{Artifact: types.Artifact{
		MarkdownPath: "/out/a.md",
		PDFPath:      "/out/a.pdf",
	}}}
	m, _ := newTestModel(t, runner)

	cmd := enter(m, "Explain TCP")
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value(), "input is cleared on submit")
	assert.False(t, m.input.Focused())

	var result tea.Msg
	for _, msg := range collect(cmd) {
		if r, ok := msg.(resultMsg); ok {
			result = r
		}
	}
	require.NotNil(t, result, "submit schedules the pipeline run")
	assert.Equal(t, []string{"Explain TCP"}, runner.prompts)

	m.Update(result)
	assert.False(t, m.busy)
	assert.True(t, m.input.Focused())
	assert.Equal(t, line{kind: lineSuccess, text: "PDF saved: /out/a.pdf"}, lastLine(m))
}

func TestPromptConversionFailureKeepsMarkdown(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	m.busy = true

	m.Update(resultMsg{
		res: pipeline.Result{Artifact: types.Artifact{MarkdownPath: "/out/a.md"}},
		err: &convert.ConversionError{Kind: convert.KindUnavailable, Backend: "pandoc", Err: errors.New("pandoc not found")},
	})

	require.Len(t, m.lines, 2)
	assert.Equal(t, "Markdown saved: /out/a.md", m.lines[0].text)
	assert.Equal(t, lineError, m.lines[1].kind)
	assert.Contains(t, m.lines[1].text, "PDF conversion failed")
}

func TestEnterIgnoredWhileBusy(t *testing.T) {
	runner := &fakeRunner{}
	m, _ := newTestModel(t, runner)
	m.busy = true

	cmd := enter(m, "second prompt")
	assert.Nil(t, cmd)
	assert.Equal(t, "second prompt", m.input.Value())
	assert.Empty(t, runner.prompts)
}

func TestBlankInputIgnored(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	cmd := enter(m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Empty(t, m.lines)
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, &fakeRunner{})
			_, cmd := m.Update(tt.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
		})
	}

	t.Run("/quit", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeRunner{})
		cmd := enter(m, "/quit")
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})
}

func TestConfigCommands(t *testing.T) {
	m, store := newTestModel(t, &fakeRunner{})
	_, err := store.AddProvider(types.Provider{
		Name: "Local vLLM", Type: types.ProviderOpenAICompatible,
		BaseURL: "http://localhost:8000/v1", Model: "qwen2", APIKey: "k",
	})
	require.NoError(t, err)

	enter(m, "/config provider Local vLLM")
	assert.Equal(t, lineSuccess, lastLine(m).kind)
	assert.Equal(t, "Local vLLM", m.st.SelectedProvider)

	enter(m, "/config model qwen2.5")
	enter(m, "/config prompt Answer in French.")

	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "Local vLLM", st.SelectedProvider)
	assert.Equal(t, "Answer in French.", st.SystemPrompt)
	p, err := settings.Selected(st)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", p.Model)

	enter(m, "/config")
	show := lastLine(m).text
	assert.Contains(t, show, "Provider: Local vLLM")
	assert.Contains(t, show, "Model:    qwen2.5")
	assert.Contains(t, show, store.Path())

	enter(m, "/config provider Nope")
	assert.Equal(t, lineError, lastLine(m).kind)
	assert.Equal(t, "Local vLLM", m.st.SelectedProvider)
}

func TestUnknownCommandReported(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	cmd := enter(m, "/bogus")
	assert.Nil(t, cmd)
	assert.Equal(t, lineError, lastLine(m).kind)
	assert.Contains(t, lastLine(m).text, "/bogus")
}

func TestModelsCommand(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})

	cmd := enter(m, "/models")
	assert.True(t, m.busy)

	var got tea.Msg
	for _, msg := range collect(cmd) {
		if mm, ok := msg.(modelsMsg); ok {
			got = mm
		}
	}
	require.NotNil(t, got)
	m.Update(got)

	assert.False(t, m.busy)
	text := lastLine(m).text
	assert.Contains(t, text, settings.DefaultProviderName)
	assert.Contains(t, text, "mistral")
}

func TestModelsCommandFailure(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	m.busy = true
	m.Update(modelsMsg{provider: "x", err: &ai.AIRequestError{Provider: "x", Op: "list models", Err: errors.New("connection refused")}})
	assert.Equal(t, lineError, lastLine(m).kind)
	assert.Contains(t, lastLine(m).text, "AI request failed")
}

func TestSettingsReload(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})

	st := settings.Defaults()
	st.SystemPrompt = "changed on disk"
	m.Update(settingsMsg{Settings: st})
	assert.Equal(t, "changed on disk", m.st.SystemPrompt)

	m.Update(settingsMsg{Err: errors.New("boom")})
	assert.Equal(t, "changed on disk", m.st.SystemPrompt, "a failed reload keeps the last settings")
	assert.Contains(t, lastLine(m).text, "boom")
}

func TestTranscriptBounded(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	for i := 0; i < maxTranscript+5; i++ {
		m.add(lineInfo, "x")
	}
	assert.Len(t, m.lines, maxTranscript)
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	view := m.View()
	assert.Contains(t, view, "ThoughtPrint test")
	assert.Contains(t, view, settings.DefaultProviderName)
	assert.NotContains(t, view, "Thinking")

	enter(m, "hello")
	assert.Contains(t, m.View(), "Thinking...")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"request", &ai.AIRequestError{Provider: "p", Op: "request", StatusCode: 500, Err: errors.New("boom")}, "AI request failed"},
		{"config", &ai.ConfigError{Provider: "p", Field: "base_url", Msg: "base_url is required"}, "Configuration error"},
		{"conversion", &convert.ConversionError{Kind: convert.KindFailed, Backend: "pandoc", ExitCode: 43, Err: errors.New("exit status 43")}, "PDF conversion failed"},
		{"write", &output.WriteError{Path: "/ro/x.md", Err: errors.New("permission denied")}, "Could not write output"},
		{"empty", pipeline.ErrEmptyPrompt, "prompt is empty"},
		{"other", errors.New("odd"), "Error: odd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeError(tt.err)
			assert.True(t, strings.Contains(got, tt.want), "%q should contain %q", got, tt.want)
		})
	}
}
