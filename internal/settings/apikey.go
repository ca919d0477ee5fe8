// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/thoughtprint/internal/secrets"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// ResolveAPIKey returns the provider's credential, trying the literal
// api_key, then the environment variable named by api_key_env, then the
// secret file named by api_key_secret in secretsDir. It returns "" with no
// error when the provider names no credential at all.
func ResolveAPIKey(p types.Provider, secretsDir string) (string, error) {
	if p.APIKey != "" {
		return p.APIKey, nil
	}

	var tried []string
	if p.APIKeyEnv != "" {
		if v := strings.TrimSpace(os.Getenv(p.APIKeyEnv)); v != "" {
			return v, nil
		}
		tried = append(tried, "environment variable "+p.APIKeyEnv+" is not set")
	}
	if p.APIKeySecret != "" {
		v, err := secrets.Get(secretsDir, p.APIKeySecret)
		if err == nil {
			return v, nil
		}
		tried = append(tried, err.Error())
	}

	if len(tried) == 0 {
		return "", nil
	}
	return "", fmt.Errorf("provider %q: no API key: %s", p.Name, strings.Join(tried, "; "))
}

// Resolve returns a copy of p with APIKey filled in from ResolveAPIKey.
func Resolve(p types.Provider, secretsDir string) (types.Provider, error) {
	key, err := ResolveAPIKey(p, secretsDir)
	if err != nil {
		return types.Provider{}, err
	}
	p.APIKey = key
	return p, nil
}
