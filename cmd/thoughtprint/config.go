// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings (providers, model, system prompt)",
	Long: `Config manages the settings file. Without a subcommand it prints the
current settings. Environment variables prefixed with THOUGHTPRINT_ override
values when reading but are never written back.`,
	RunE: runConfigShow,
}

// --- show / path ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings with API keys masked",
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	st, err := settingsStore().Load()
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSettingsOutput(maskKeys(st), jsonOutput)
}

func formatSettingsOutput(st types.Settings, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// maskKeys hides literal API keys so settings can be shown safely.
func maskKeys(st types.Settings) types.Settings {
	providers := make([]types.Provider, len(st.Providers))
	for i, p := range st.Providers {
		if p.APIKey != "" {
			p.APIKey = mask(p.APIKey)
		}
		providers[i] = p
	}
	st.Providers = providers
	return st
}

func mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settingsStore().Path())
	},
}

// --- provider subcommands ---

var configProviderCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage AI providers (add, update, remove, select, list)",
}

var configProviderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers; * marks the selected one",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settingsStore().Load()
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatProviderOutput(maskKeys(st), jsonOutput)
	},
}

func formatProviderOutput(st types.Settings, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Providers)
	}

	if len(st.Providers) == 0 {
		fmt.Println("No providers configured.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "   %-28s  %-18s  %-20s  %s\n", "Name", "Type", "Model", "Base URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, p := range st.Providers {
		marker := " "
		if p.Name == st.SelectedProvider {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s  %-28s  %-18s  %-20s  %s\n", marker, p.Name, p.Type, p.Model, p.BaseURL)
	}
	return nil
}

var configProviderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a provider",
	Long: `Add appends a provider. --type is ollama, openai_compatible or anthropic.
The API key may be given literally (--api-key), through an environment
variable (--api-key-env) or as a file in the secrets directory
(--api-key-secret). The first provider added to an empty list is selected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := types.Provider{Name: args[0], Type: types.ProviderOllama}
		if err := applyProviderFlags(cmd, &p); err != nil {
			return err
		}
		if p.BaseURL == "" || p.Model == "" {
			return fmt.Errorf("--base-url and --model are required")
		}
		if _, err := settingsStore().AddProvider(p); err != nil {
			return err
		}
		fmt.Printf("Added provider %q\n", p.Name)
		return nil
	},
}

var configProviderUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Change fields of a provider; only the given flags are applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := settingsStore()
		st, err := store.Load()
		if err != nil {
			return err
		}
		p, err := settings.Find(st, args[0])
		if err != nil {
			return err
		}
		if err := applyProviderFlags(cmd, &p); err != nil {
			return err
		}
		if _, err := store.UpdateProvider(args[0], p); err != nil {
			return err
		}
		fmt.Printf("Updated provider %q\n", p.Name)
		return nil
	},
}

// applyProviderFlags copies the flags the user set onto p.
func applyProviderFlags(cmd *cobra.Command, p *types.Provider) error {
	fields := map[string]*string{
		"rename":         &p.Name,
		"base-url":       &p.BaseURL,
		"model":          &p.Model,
		"api-key":        &p.APIKey,
		"api-key-env":    &p.APIKeyEnv,
		"api-key-secret": &p.APIKeySecret,
	}
	for name, dst := range fields {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if cmd.Flags().Changed("type") {
		t, _ := cmd.Flags().GetString("type")
		switch pt := types.ProviderType(t); pt {
		case types.ProviderOllama, types.ProviderOpenAICompatible, types.ProviderAnthropic:
			p.Type = pt
		default:
			return fmt.Errorf("unsupported provider type %q: use ollama, openai_compatible or anthropic", t)
		}
	}
	return nil
}

var configProviderRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a provider; the first remaining one is selected if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settingsStore().RemoveProvider(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Removed provider %q\n", args[0])
		if st.SelectedProvider == "" {
			fmt.Println("No providers left; add one with 'thoughtprint config provider add'.")
		} else {
			fmt.Printf("Selected provider: %s\n", st.SelectedProvider)
		}
		return nil
	},
}

var configProviderSelectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Select the provider used for prompts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := settingsStore().SelectProvider(args[0]); err != nil {
			return err
		}
		fmt.Printf("Selected provider: %s\n", args[0])
		return nil
	},
}

// --- model / system-prompt ---

var configModelCmd = &cobra.Command{
	Use:   "model <name>",
	Short: "Set the model of the selected provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settingsStore().SetModel(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Model for %s set to %s\n", st.SelectedProvider, args[0])
		return nil
	},
}

var configSystemPromptCmd = &cobra.Command{
	Use:   "system-prompt [text...]",
	Short: "Print or replace the system prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := settingsStore()
		if len(args) == 0 {
			st, err := store.Load()
			if err != nil {
				return err
			}
			fmt.Println(st.SystemPrompt)
			return nil
		}
		if _, err := store.SetSystemPrompt(strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Println("System prompt updated")
		return nil
	},
}

func init() {
	configCmd.Flags().Bool("json", false, "output settings as JSON")
	configShowCmd.Flags().Bool("json", false, "output settings as JSON")
	configProviderListCmd.Flags().Bool("json", false, "output providers as JSON")

	for _, c := range []*cobra.Command{configProviderAddCmd, configProviderUpdateCmd} {
		c.Flags().String("type", "ollama", "provider type: ollama, openai_compatible, or anthropic")
		c.Flags().String("base-url", "", "server root, e.g. http://localhost:11434 or https://api.openai.com/v1")
		c.Flags().String("model", "", "model identifier")
		c.Flags().String("api-key", "", "literal API key (stored in the settings file)")
		c.Flags().String("api-key-env", "", "environment variable holding the API key")
		c.Flags().String("api-key-secret", "", "file in the secrets directory holding the API key")
	}
	configProviderUpdateCmd.Flags().String("rename", "", "new provider name")

	configProviderCmd.AddCommand(configProviderListCmd)
	configProviderCmd.AddCommand(configProviderAddCmd)
	configProviderCmd.AddCommand(configProviderUpdateCmd)
	configProviderCmd.AddCommand(configProviderRemoveCmd)
	configProviderCmd.AddCommand(configProviderSelectCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configProviderCmd)
	configCmd.AddCommand(configModelCmd)
	configCmd.AddCommand(configSystemPromptCmd)

	rootCmd.AddCommand(configCmd)
}
