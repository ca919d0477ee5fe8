// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai sends a prompt to the selected AI provider and returns the
// response text. Three provider types are supported: a local Ollama server,
// any OpenAI-compatible chat completions API, and the Anthropic Messages API.
// Each request is sent once; failures surface as *AIRequestError.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/thoughtprint/internal/httputil"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// Client sends one prompt with a system prompt and returns the trimmed
// response text.
type Client interface {
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// ModelLister lists the model names a provider offers.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ConfigError reports a provider configuration that cannot be used.
type ConfigError struct {
	Provider string
	Field    string
	Msg      string
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("invalid provider config: %s", e.Msg)
	}
	return fmt.Sprintf("invalid provider config %q: %s", e.Provider, e.Msg)
}

// AIRequestError reports a failed exchange with a provider: transport
// failure, non-2xx status, undecodable body or empty content.
type AIRequestError struct {
	Provider string
	Op       string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *AIRequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *AIRequestError) Unwrap() error { return e.Err }

const (
	opComplete   = "request"
	opListModels = "list models"
)

// NewClient validates p and returns the client for its type. The API key
// must already be resolved into p.APIKey.
func NewClient(p types.Provider) (Client, error) {
	if err := validate(p, true); err != nil {
		return nil, err
	}
	return newBackend(p)
}

// NewModelLister validates the fields needed for listing models (type and
// base URL) and returns the lister for p's type.
func NewModelLister(p types.Provider) (ModelLister, error) {
	if err := validate(p, false); err != nil {
		return nil, err
	}
	return newBackend(p)
}

type backend interface {
	Client
	ModelLister
}

func newBackend(p types.Provider) (backend, error) {
	base := strings.TrimRight(p.BaseURL, "/")
	hc := httputil.NewClient(base, 0)
	switch p.Type {
	case types.ProviderOllama:
		return &ollamaClient{name: p.Name, baseURL: base, model: p.Model, http: hc}, nil
	case types.ProviderOpenAICompatible:
		return &openAIClient{name: p.Name, baseURL: base, model: p.Model, apiKey: p.APIKey, http: hc}, nil
	case types.ProviderAnthropic:
		return &anthropicClient{name: p.Name, baseURL: base, model: p.Model, apiKey: p.APIKey, http: hc}, nil
	}
	return nil, &ConfigError{Provider: p.Name, Field: "type", Msg: fmt.Sprintf("unsupported provider type %q", p.Type)}
}

func validate(p types.Provider, forCompletion bool) error {
	switch p.Type {
	case types.ProviderOllama, types.ProviderOpenAICompatible, types.ProviderAnthropic:
	case "":
		return &ConfigError{Provider: p.Name, Field: "type", Msg: "type is required"}
	default:
		return &ConfigError{Provider: p.Name, Field: "type", Msg: fmt.Sprintf("unsupported provider type %q", p.Type)}
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		return &ConfigError{Provider: p.Name, Field: "base_url", Msg: "base_url is required"}
	}
	if !forCompletion {
		return nil
	}
	if strings.TrimSpace(p.Model) == "" {
		return &ConfigError{Provider: p.Name, Field: "model", Msg: "model is required"}
	}
	if p.Type != types.ProviderOllama && p.APIKey == "" {
		return &ConfigError{Provider: p.Name, Field: "api_key", Msg: fmt.Sprintf("an API key is required for %s providers", p.Type)}
	}
	return nil
}

// do runs one JSON exchange and converts failures into *AIRequestError.
func do(ctx context.Context, hc *http.Client, provider, op, method, url string, header http.Header, body, out any) error {
	err := httputil.DoJSON(ctx, hc, method, url, header, body, out)
	if err == nil {
		return nil
	}
	reqErr := &AIRequestError{Provider: provider, Op: op, Err: err}
	var se *httputil.StatusError
	if errors.As(err, &se) {
		reqErr.StatusCode = se.StatusCode
	}
	return reqErr
}

func emptyContent(provider string) error {
	return &AIRequestError{Provider: provider, Op: opComplete, Err: errors.New("no content in response")}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatMessages(prompt, systemPrompt string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
}
