// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/thoughtprint/internal/ai"
	"github.com/pdiddy/thoughtprint/internal/container"
	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/secrets"
	"github.com/pdiddy/thoughtprint/internal/settings"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the converter and the selected provider are usable",
	Long: `Doctor verifies the external tools needed for PDF output: pandoc on
PATH and a working PDF engine (xelatex must report XeTeX), or, for the
container backend, docker or podman with the configured image. With
--provider it also asks the selected provider for its model list.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	checkProvider, _ := cmd.Flags().GetBool("provider")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := settingsStore().Load()
	if err != nil {
		return err
	}

	var checks []convert.Dependency
	switch st.Converter.Backend {
	case types.BackendContainer:
		checks = append(checks, checkContainer(cmd, st.Converter)...)
	default:
		checks = convert.CheckDependencies(ctx, convert.PandocOptions{
			Path:      st.Converter.PandocPath,
			PDFEngine: st.Converter.PDFEngine,
			CJKFont:   st.Converter.CJKFont,
		})
	}

	checks = append(checks, checkSecrets(st, secretsDir())...)

	if checkProvider {
		checks = append(checks, checkSelectedProvider(cmd, st))
	}

	if err := formatDoctorOutput(checks, jsonOutput); err != nil {
		return err
	}

	var missing []string
	for _, c := range checks {
		if !c.OK {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(missing, ", "))
	}
	return nil
}

func checkContainer(cmd *cobra.Command, cfg types.ConverterConfig) []convert.Dependency {
	rt, err := container.DetectRuntime(cmd.Context())
	if err != nil {
		return []convert.Dependency{{Name: "container runtime", Detail: err.Error()}}
	}
	checks := []convert.Dependency{{Name: "container runtime", OK: true, Detail: rt.Name()}}

	image := cfg.ContainerImage
	if image == "" {
		image = convert.DefaultImage
	}
	if err := rt.ImageExists(cmd.Context(), image); err != nil {
		return append(checks, convert.Dependency{Name: image, Detail: "image not pulled: run '" + rt.Name() + " pull " + image + "'"})
	}
	return append(checks, convert.Dependency{Name: image, OK: true, Detail: "image present"})
}

// checkSecrets reports one check per provider that depends on a file in the
// secrets directory, skipping those already covered by a literal key or a
// set environment variable.
func checkSecrets(st types.Settings, dir string) []convert.Dependency {
	found, err := secrets.Load(dir)
	if err != nil {
		return []convert.Dependency{{Name: "secrets", Detail: err.Error()}}
	}
	var checks []convert.Dependency
	for _, p := range st.Providers {
		if p.APIKeySecret == "" || p.APIKey != "" {
			continue
		}
		if p.APIKeyEnv != "" && strings.TrimSpace(os.Getenv(p.APIKeyEnv)) != "" {
			continue
		}
		check := convert.Dependency{Name: "secret " + p.APIKeySecret}
		if _, ok := found[p.APIKeySecret]; ok {
			check.OK = true
			check.Detail = "used by " + p.Name
		} else {
			check.Detail = fmt.Sprintf("missing or empty in %s (needed by %s)", dir, p.Name)
		}
		checks = append(checks, check)
	}
	return checks
}

func checkSelectedProvider(cmd *cobra.Command, st types.Settings) convert.Dependency {
	p, err := settings.Selected(st)
	if err != nil {
		return convert.Dependency{Name: "provider", Detail: err.Error()}
	}
	check := convert.Dependency{Name: p.Name}
	if p, err = settings.Resolve(p, secretsDir()); err != nil {
		check.Detail = err.Error()
		return check
	}
	ai.ForgetModels(p)
	models, err := ai.ListModels(cmd.Context(), p)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%d models", len(models))
	return check
}

func formatDoctorOutput(checks []convert.Dependency, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(checks)
	}

	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "MISSING"
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-24s  %s\n", status, c.Name, c.Detail)
	}
	return nil
}

func init() {
	doctorCmd.Flags().Bool("provider", false, "also check that the selected provider answers")
	doctorCmd.Flags().Bool("json", false, "output checks as JSON")

	rootCmd.AddCommand(doctorCmd)
}
