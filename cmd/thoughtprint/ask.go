// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/thoughtprint/internal/convert"
	"github.com/pdiddy/thoughtprint/internal/pipeline"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Send one prompt and save the answer as Markdown and PDF",
	Long: `Ask sends a prompt to the selected provider (or --provider) with the
configured system prompt, writes the answer to <id>.md in the output
directory and renders <id>.pdf next to it.

The prompt is taken from the arguments, or from stdin when no arguments are
given or the only argument is "-". When PDF conversion fails the Markdown
file is kept, its path is printed and the command exits non-zero.`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	if len(args) == 0 || prompt == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading prompt from stdin: %w", err)
		}
		prompt = string(data)
	}

	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	p := pipeline.New(settingsStore(), secretsDir())
	res, err := p.Run(cmd.Context(), prompt, pipeline.Options{
		Provider:  providerName,
		Model:     model,
		OutputDir: viper.GetString("output_dir"),
	})
	if res.Artifact.ID == "" {
		return err
	}
	if ferr := formatAskOutput(res, err, jsonOutput); ferr != nil {
		return ferr
	}
	return err
}

// askOutput is the JSON shape of an ask result.
type askOutput struct {
	types.Artifact
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func formatAskOutput(res pipeline.Result, runErr error, jsonOutput bool) error {
	if jsonOutput {
		out := askOutput{
			Artifact:   res.Artifact,
			Provider:   res.Request.Provider,
			Model:      res.Request.Model,
			DurationMS: res.Duration.Milliseconds(),
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(os.Stdout, "Title:    %s\n", res.Artifact.Title)
	fmt.Fprintf(os.Stdout, "Markdown: %s\n", res.Artifact.MarkdownPath)
	if res.Artifact.PDFPath != "" {
		fmt.Fprintf(os.Stdout, "PDF:      %s\n", res.Artifact.PDFPath)
	}
	var ce *convert.ConversionError
	if errors.As(runErr, &ce) {
		fmt.Fprintln(os.Stdout, "PDF:      not created; run 'thoughtprint render' after fixing the converter")
	}
	fmt.Fprintf(os.Stdout, "Took %s with %s (%s)\n", res.Duration.Round(time.Millisecond), res.Request.Provider, res.Request.Model)
	return nil
}

func init() {
	askCmd.Flags().String("provider", "", "provider name to use instead of the selected one")
	askCmd.Flags().String("model", "", "model to use instead of the provider's model")
	askCmd.Flags().Bool("json", false, "output the artifact as JSON")

	rootCmd.AddCommand(askCmd)
}
