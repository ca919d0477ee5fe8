// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package settings reads and writes the ThoughtPrint settings file: the
// provider list, the selected provider, the system prompt, and the output,
// converter and log options. The file is YAML, read through viper so that
// THOUGHTPRINT_* environment variables override scalar keys, and written
// with yaml.Marshal. Every mutation is load, modify, save.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

const (
	// EnvPrefix is the prefix of environment overrides, e.g. THOUGHTPRINT_OUTPUT_DIR.
	EnvPrefix = "THOUGHTPRINT"

	// DefaultProviderName is the provider written into a fresh settings file.
	DefaultProviderName = "Ollama Local Llama3"

	// DefaultSystemPrompt asks for Markdown so the PDF has structure.
	DefaultSystemPrompt = "You are a helpful assistant. Please format your response in Markdown."
)

// requiredKeys must be present in the file; otherwise it is replaced by defaults.
var requiredKeys = []string{"providers", "selected_provider", "system_prompt"}

// ConfigDir returns ~/.config/thoughtprint, or the working directory when
// the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "thoughtprint")
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "settings.yaml")
}

// DefaultCJKFont returns a CJK serif font that ships with the platform.
func DefaultCJKFont() string {
	switch runtime.GOOS {
	case "windows":
		return "SimSun"
	case "darwin":
		return "Songti SC"
	default:
		return "Noto Serif CJK SC"
	}
}

// Defaults returns the settings written when no usable file exists.
func Defaults() types.Settings {
	return types.Settings{
		Providers: []types.Provider{{
			Name:    DefaultProviderName,
			Type:    types.ProviderOllama,
			BaseURL: "http://localhost:11434",
			Model:   "llama3",
		}},
		SelectedProvider: DefaultProviderName,
		SystemPrompt:     DefaultSystemPrompt,
		Converter: types.ConverterConfig{
			Backend:   types.BackendPandoc,
			PDFEngine: convert.DefaultPDFEngine,
			CJKFont:   DefaultCJKFont(),
			Timeout:   convert.DefaultTimeout,
		},
		Log: types.LogConfig{Level: "info"},
	}
}

// Store is the settings file at one path.
type Store struct {
	path string
}

// NewStore returns a Store for path; empty means DefaultPath().
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Load reads the settings with environment overrides applied. A missing file
// is created with defaults. A malformed file, or one missing a required key,
// is moved aside to <path>.bak and replaced by defaults.
func (s *Store) Load() (types.Settings, error) {
	return s.read(true)
}

// Save writes st to the settings file with owner-only permissions.
func (s *Store) Save(st types.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")

	d := Defaults()
	v.SetDefault("output.dir", "")
	v.SetDefault("converter.backend", string(d.Converter.Backend))
	v.SetDefault("converter.pandoc_path", "")
	v.SetDefault("converter.pdf_engine", d.Converter.PDFEngine)
	v.SetDefault("converter.cjk_font", d.Converter.CJKFont)
	v.SetDefault("converter.timeout", d.Converter.Timeout)
	v.SetDefault("converter.container_image", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dir", "")

	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		// Bound explicitly so overrides apply even when the key is absent from the file.
		_ = v.BindEnv("selected_provider")
		_ = v.BindEnv("system_prompt")
	}
	return v
}

func (s *Store) read(withEnv bool) (types.Settings, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		d := Defaults()
		if err := s.Save(d); err != nil {
			return types.Settings{}, err
		}
		logrus.WithField("path", s.path).Info("created default settings")
		if withEnv {
			return s.read(true)
		}
		return d, nil
	}

	v := s.newViper(withEnv)
	if err := v.ReadInConfig(); err != nil {
		return s.reset(fmt.Errorf("reading settings: %w", err), withEnv)
	}
	for _, key := range requiredKeys {
		if !v.InConfig(key) {
			return s.reset(fmt.Errorf("settings missing required key %q", key), withEnv)
		}
	}

	var st types.Settings
	if err := v.Unmarshal(&st); err != nil {
		return s.reset(fmt.Errorf("decoding settings: %w", err), withEnv)
	}
	return st, nil
}

// reset moves the unusable file aside and writes defaults in its place.
func (s *Store) reset(cause error, withEnv bool) (types.Settings, error) {
	logrus.WithField("path", s.path).WithError(cause).Error("unusable settings file, using defaults")

	if err := os.Rename(s.path, s.path+".bak"); err != nil {
		logrus.WithField("path", s.path).Warnf("could not back up settings: %v", err)
	}
	if err := s.Save(Defaults()); err != nil {
		return types.Settings{}, fmt.Errorf("%v; %w", cause, err)
	}
	return s.read(withEnv)
}

// update applies fn to the on-disk settings (without environment overrides)
// and saves the result.
func (s *Store) update(fn func(*types.Settings) error) (types.Settings, error) {
	st, err := s.read(false)
	if err != nil {
		return types.Settings{}, err
	}
	if err := fn(&st); err != nil {
		return types.Settings{}, err
	}
	if err := s.Save(st); err != nil {
		return types.Settings{}, err
	}
	return st, nil
}
