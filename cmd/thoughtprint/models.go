// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/settings"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by a provider",
	Long: `Models asks the selected provider (or --provider) for its model list.
Results are cached for a few minutes; --refresh bypasses the cache.`,
	RunE: runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("provider")
	refresh, _ := cmd.Flags().GetBool("refresh")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := settingsStore().Load()
	if err != nil {
		return err
	}
	p, err := settings.Selected(st)
	if name != "" {
		p, err = settings.Find(st, name)
	}
	if err != nil {
		return err
	}
	if p, err = settings.Resolve(p, secretsDir()); err != nil {
		return err
	}

	if refresh {
		ai.ForgetModels(p)
	}
	models, err := ai.ListModels(cmd.Context(), p)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}
	if len(models) == 0 {
		fmt.Printf("%s offers no models.\n", p.Name)
		return nil
	}
	for _, m := range models {
		marker := " "
		if m == p.Model {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, m)
	}
	return nil
}

func init() {
	modelsCmd.Flags().String("provider", "", "provider name (default: the selected provider)")
	modelsCmd.Flags().Bool("refresh", false, "ignore cached model lists")
	modelsCmd.Flags().Bool("json", false, "output models as JSON")

	rootCmd.AddCommand(modelsCmd)
}
