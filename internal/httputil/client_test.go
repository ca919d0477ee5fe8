// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocal(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://localhost:11434", true},
		{"http://LOCALHOST:11434/v1", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"https://api.openai.com/v1", false},
		{"http://192.168.1.10:11434", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocal(tt.url))
		})
	}
}

func TestNewClient(t *testing.T) {
	local := NewClient("http://localhost:11434", 0)
	assert.Equal(t, DefaultTimeout, local.Timeout)
	tr, ok := local.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.Proxy, "local URLs must bypass proxies")

	remote := NewClient("https://api.openai.com/v1", 5*time.Second)
	assert.Equal(t, 5*time.Second, remote.Timeout)
	tr, ok = remote.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.Proxy)
}

func TestDoJSON_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer ts.Close()

	var out map[string]string
	err := DoJSON(context.Background(), ts.Client(), http.MethodPost, ts.URL,
		http.Header{"Authorization": {"Bearer k"}}, map[string]string{"msg": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestDoJSON_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer ts.Close()

	err := DoJSON(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Len(t, se.Body, maxErrorBody)
	assert.Contains(t, se.Error(), "HTTP 401 Unauthorized")
}

func TestDoJSON_DecodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	var out map[string]any
	err := DoJSON(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestDoJSON_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := DoJSON(ctx, ts.Client(), http.MethodGet, ts.URL, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
