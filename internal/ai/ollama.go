// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ollamaClient struct {
	name    string
	baseURL string
	model   string
	http    *http.Client
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Complete posts a non-streaming chat request to /api/chat.
func (c *ollamaClient) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := ollamaChatRequest{Model: c.model, Messages: chatMessages(prompt, systemPrompt)}

	var resp ollamaChatResponse
	if err := do(ctx, c.http, c.name, opComplete, http.MethodPost, c.baseURL+"/api/chat", nil, req, &resp); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", emptyContent(c.name)
	}
	return text, nil
}

// ListModels returns the locally pulled models from /api/tags.
func (c *ollamaClient) ListModels(ctx context.Context) ([]string, error) {
	var resp ollamaTagsResponse
	if err := do(ctx, c.http, c.name, opListModels, http.MethodGet, c.baseURL+"/api/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Models == nil {
		return nil, &AIRequestError{Provider: c.name, Op: opListModels, Err: fmt.Errorf("unexpected response structure")}
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
