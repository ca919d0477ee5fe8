// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type openAIClient struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

type openAIChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIModel struct {
	ID string `json:"id"`
}

func (c *openAIClient) header() http.Header {
	h := http.Header{}
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
	return h
}

// Complete posts to <base>/chat/completions and returns the first choice.
func (c *openAIClient) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := openAIChatRequest{Model: c.model, Messages: chatMessages(prompt, systemPrompt)}

	var resp openAIChatResponse
	if err := do(ctx, c.http, c.name, opComplete, http.MethodPost, c.baseURL+"/chat/completions", c.header(), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", emptyContent(c.name)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", emptyContent(c.name)
	}
	return text, nil
}

// modelsURL appends /models when the base already ends in /v1 and
// /v1/models otherwise.
func (c *openAIClient) modelsURL() string {
	if strings.HasSuffix(c.baseURL, "/v1") {
		return c.baseURL + "/models"
	}
	return c.baseURL + "/v1/models"
}

// ListModels accepts both {"data":[{"id":...}]} and a bare [{"id":...}] list.
func (c *openAIClient) ListModels(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := do(ctx, c.http, c.name, opListModels, http.MethodGet, c.modelsURL(), c.header(), nil, &raw); err != nil {
		return nil, err
	}

	models, err := decodeModelList(raw)
	if err != nil {
		return nil, &AIRequestError{Provider: c.name, Op: opListModels, Err: err}
	}
	return models, nil
}

func decodeModelList(raw json.RawMessage) ([]string, error) {
	var list []openAIModel
	var wrapped struct {
		Data []openAIModel `json:"data"`
	}
	switch {
	case json.Unmarshal(raw, &wrapped) == nil && wrapped.Data != nil:
		list = wrapped.Data
	case json.Unmarshal(raw, &list) == nil && list != nil:
	default:
		return nil, fmt.Errorf("unexpected response structure for models list")
	}

	ids := make([]string, 0, len(list))
	for _, m := range list {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
