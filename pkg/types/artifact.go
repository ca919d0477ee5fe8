// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArtifactStatus records how far the output pipeline got for an artifact.
type ArtifactStatus string

const (
	// ArtifactComplete means both the Markdown and the PDF exist.
	ArtifactComplete ArtifactStatus = "complete"
	// ArtifactMarkdownOnly means the Markdown was written but conversion failed.
	ArtifactMarkdownOnly ArtifactStatus = "markdown_only"
)

// Artifact is the Markdown/PDF pair produced for one response.
type Artifact struct {
	// ID is the shared base filename of both files (32 hex characters).
	ID string `json:"id" yaml:"id"`

	// Title is the document title passed to the converter.
	Title string `json:"title" yaml:"title"`

	// MarkdownPath is the path of <id>.md.
	MarkdownPath string `json:"markdown_path" yaml:"markdown_path"`

	// PDFPath is the path of <id>.pdf; empty when conversion failed.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	Status    ArtifactStatus `json:"status" yaml:"status"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// Request describes the prompt that produced an artifact. It is recorded in
// the history journal alongside the artifact.
type Request struct {
	Prompt       string `json:"prompt" yaml:"prompt"`
	Provider     string `json:"provider" yaml:"provider"`
	Model        string `json:"model" yaml:"model"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
}
