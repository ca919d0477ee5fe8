// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the thoughtprint CLI. Without a
// subcommand it opens the prompt window; each subcommand exposes one stage
// of the pipeline (ask, render, filter) or manages settings and history.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/thoughtprint/internal/logging"
	"github.com/pdiddy/thoughtprint/internal/pipeline"
	"github.com/pdiddy/thoughtprint/internal/secrets"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/internal/window"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// session is the log session of the running command; nil when file logging
// is off.
var session *logging.Session

// rootCmd is the base command for the thoughtprint CLI.
var rootCmd = &cobra.Command{
	Use:   "thoughtprint",
	Short: "Ask an AI model and keep the answer as a PDF",
	Long: `thoughtprint sends a prompt to a configured AI provider, saves the answer
as Markdown and renders it to PDF with Pandoc. Remote images are replaced by
a placeholder naming their URL so rendering never touches the network.

Run without arguments to open the prompt window. Use ask for one-shot
prompts, config to manage providers, and render to retry conversions.`,
	SilenceUsage:      true,
	PersistentPreRunE: startSession,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if session != nil {
			_ = session.Close()
			session = nil
		}
	},
	RunE: runWindow,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "settings file (default: ~/.config/thoughtprint/settings.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", "", "directory of API key files (default: ~/.config/thoughtprint/secrets)")
	rootCmd.PersistentFlags().String("output-dir", "", "artifact directory (default: from settings, else ~/Documents/ThoughtPrint)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: from settings)")
	rootCmd.PersistentFlags().Bool("no-log", false, "do not write session log files")

	for _, name := range []string{"config", "secrets-dir", "output-dir", "log-level", "no-log"} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig loads .env files and wires THOUGHTPRINT_* environment variables
// to the persistent flags.
func initConfig() {
	for _, path := range []string{".env", filepath.Join(settings.ConfigDir(), ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", path, err)
		}
	}

	viper.SetEnvPrefix(settings.EnvPrefix)
	viper.AutomaticEnv()
}

// startSession opens the log files for the command. The window logs to files
// only; other commands also print warnings to stderr.
func startSession(cmd *cobra.Command, args []string) error {
	if viper.GetBool("no_log") {
		logging.Discard(nil)
		return nil
	}

	st, err := settingsStore().Load()
	if err != nil {
		return err
	}

	level := viper.GetString("log_level")
	if level == "" {
		level = st.Log.Level
	}
	dir := st.Log.Dir
	if dir == "" {
		dir = filepath.Join(settings.ConfigDir(), "logs")
	}
	opts := logging.Options{Dir: dir, Level: level}
	if logsToConsole(cmd) {
		opts.Console = os.Stderr
	}

	session, err = logging.Setup(nil, opts)
	if err != nil {
		return err
	}

	for _, err := range unresolvedKeys(st, secretsDir()) {
		logrus.WithError(err).Warn("provider credential unavailable")
	}
	logrus.WithFields(logrus.Fields{"command": cmd.CommandPath(), "version": version}).Info("session started")
	return nil
}

// logsToConsole reports whether cmd mirrors log warnings to stderr. Only the
// bare root command, which opens the window, keeps the terminal quiet.
func logsToConsole(cmd *cobra.Command) bool {
	return cmd.HasParent()
}

// unresolvedKeys returns one error per provider whose configured
// api_key_env or api_key_secret does not yield a credential.
func unresolvedKeys(st types.Settings, dir string) []error {
	var errs []error
	for _, p := range st.Providers {
		if _, err := settings.ResolveAPIKey(p, dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func settingsStore() *settings.Store {
	return settings.NewStore(viper.GetString("config"))
}

func secretsDir() string {
	if dir := viper.GetString("secrets_dir"); dir != "" {
		return dir
	}
	return secrets.DefaultDir()
}

// outputDir returns the --output-dir override or the configured directory.
func outputDir(st types.Settings) string {
	if dir := viper.GetString("output_dir"); dir != "" {
		return dir
	}
	return pipeline.OutputDir(st)
}

// dirRunner applies the --output-dir override to prompts sent from the window.
type dirRunner struct {
	p   *pipeline.Pipeline
	dir string
}

func (r dirRunner) Run(ctx context.Context, prompt string, opts pipeline.Options) (pipeline.Result, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = r.dir
	}
	return r.p.Run(ctx, prompt, opts)
}

func runWindow(cmd *cobra.Command, args []string) error {
	store := settingsStore()
	return window.Run(cmd.Context(), window.Deps{
		Runner:     dirRunner{p: pipeline.New(store, secretsDir()), dir: viper.GetString("output_dir")},
		Settings:   store,
		SecretsDir: secretsDir(),
		Version:    version,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
