// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProviderType identifies the wire protocol spoken by an AI backend.
type ProviderType string

const (
	ProviderOllama           ProviderType = "ollama"
	ProviderOpenAICompatible ProviderType = "openai_compatible"
	ProviderAnthropic        ProviderType = "anthropic"
)

// Provider is one configured AI backend. Names are unique within Settings.
type Provider struct {
	// Name is the display name used to select the provider (e.g. "Ollama Local Llama3").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Type selects the request format: ollama, openai_compatible, or anthropic.
	Type ProviderType `json:"type" yaml:"type" mapstructure:"type"`

	// BaseURL is the server root (e.g. "http://localhost:11434" or "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the model identifier passed with every request.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the literal credential. Takes precedence over APIKeyEnv and APIKeySecret.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// APIKeyEnv names an environment variable holding the credential.
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" mapstructure:"api_key_env"`

	// APIKeySecret names a file in the secrets directory holding the credential.
	APIKeySecret string `json:"api_key_secret,omitempty" yaml:"api_key_secret,omitempty" mapstructure:"api_key_secret"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	// Dir is the artifact directory. Empty means <Documents>/ThoughtPrint.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
}

// ConverterBackend selects how Pandoc is run.
type ConverterBackend string

const (
	BackendPandoc    ConverterBackend = "pandoc"
	BackendContainer ConverterBackend = "container"
)

// ConverterConfig holds settings for the Markdown-to-PDF step.
type ConverterConfig struct {
	// Backend is pandoc (host executable) or container (docker/podman image).
	Backend ConverterBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PandocPath overrides the pandoc executable looked up on PATH.
	PandocPath string `json:"pandoc_path,omitempty" yaml:"pandoc_path,omitempty" mapstructure:"pandoc_path"`

	// PDFEngine is passed as --pdf-engine (default xelatex).
	PDFEngine string `json:"pdf_engine" yaml:"pdf_engine" mapstructure:"pdf_engine"`

	// CJKFont is passed as -V CJKmainfont=<font>. Empty omits the variable.
	CJKFont string `json:"cjk_font,omitempty" yaml:"cjk_font,omitempty" mapstructure:"cjk_font"`

	// Timeout bounds a single conversion (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// ContainerImage is the image used by the container backend.
	ContainerImage string `json:"container_image,omitempty" yaml:"container_image,omitempty" mapstructure:"container_image"`
}

// LogConfig controls the session log files.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Dir is the directory for log files. Empty means <config dir>/logs.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
}

// Settings is the full contents of the settings file.
type Settings struct {
	Providers        []Provider      `json:"providers" yaml:"providers" mapstructure:"providers"`
	SelectedProvider string          `json:"selected_provider" yaml:"selected_provider" mapstructure:"selected_provider"`
	SystemPrompt     string          `json:"system_prompt" yaml:"system_prompt" mapstructure:"system_prompt"`
	Output           OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	Converter        ConverterConfig `json:"converter" yaml:"converter" mapstructure:"converter"`
	Log              LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
