// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imagefilter removes remote image references from documents before
// they are rendered. The rule is the same in both forms it ships in: an image
// whose source is an http or https URL becomes the text
// "[Remote image removed: <url>]"; every other image is left untouched.
//
// LuaScript is the Pandoc filter used during PDF conversion. RewriteMarkdown
// applies the rule to Markdown source directly.
package imagefilter

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScriptName is the filename used when the Lua filter is written to disk.
const ScriptName = "no-remote-images.lua"

const placeholderPrefix = "[Remote image removed: "

// LuaScript is the Pandoc Lua filter implementing the remote-image rule.
//
//go:embed no-remote-images.lua
var LuaScript string

// Placeholder returns the text that replaces a remote image with source url.
func Placeholder(url string) string {
	return placeholderPrefix + url + "]"
}

// IsRemote reports whether an image source points at an http or https URL.
func IsRemote(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// WriteScript writes the Lua filter into dir and returns its path.
func WriteScript(dir string) (string, error) {
	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, []byte(LuaScript), 0o644); err != nil {
		return "", fmt.Errorf("writing filter script %s: %w", path, err)
	}
	return path, nil
}
