// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type anthropicClient struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}

func (c *anthropicClient) endpoint(path string) string {
	if strings.HasSuffix(c.baseURL, "/v1") {
		return c.baseURL + path
	}
	return c.baseURL + "/v1" + path
}

// Complete calls the Messages API with the system prompt in the top-level
// system field and returns the first text block.
func (c *anthropicClient) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := anthropicRequest{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}

	var resp anthropicResponse
	if err := do(ctx, c.http, c.name, opComplete, http.MethodPost, c.endpoint("/messages"), c.header(), req, &resp); err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", emptyContent(c.name)
}

// ListModels reads /v1/models, which uses the same shape as the
// OpenAI-compatible list.
func (c *anthropicClient) ListModels(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := do(ctx, c.http, c.name, opListModels, http.MethodGet, c.endpoint("/models"), c.header(), nil, &raw); err != nil {
		return nil, err
	}
	models, err := decodeModelList(raw)
	if err != nil {
		return nil, &AIRequestError{Provider: c.name, Op: opListModels, Err: err}
	}
	return models, nil
}
