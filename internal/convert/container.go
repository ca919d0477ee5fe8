// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pdiddy/thoughtprint/internal/container"
	"github.com/pdiddy/thoughtprint/internal/imagefilter"
)

// DefaultImage is the Pandoc image with a LaTeX distribution.
const DefaultImage = "pandoc/extra:latest"

const (
	containerInputDir  = "/data/in"
	containerOutputDir = "/data/out"
	containerFilterDir = "/filters"
)

// ContainerOptions configures the container backend.
type ContainerOptions struct {
	Image     string
	PDFEngine string
	CJKFont   string
	Timeout   time.Duration
}

// ContainerConverter runs Pandoc from an image through docker or podman. The
// container has no network access.
type ContainerConverter struct {
	runtime container.Runtime
	opts    ContainerOptions
}

// NewContainerConverter creates a converter that uses the given container
// runtime. It verifies that the image exists locally before returning.
func NewContainerConverter(ctx context.Context, rt container.Runtime, opts ContainerOptions) (*ContainerConverter, error) {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.PDFEngine == "" {
		opts.PDFEngine = DefaultPDFEngine
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if err := rt.ImageExists(ctx, opts.Image); err != nil {
		return nil, &ConversionError{
			Kind:    KindUnavailable,
			Backend: "container",
			Err:     fmt.Errorf("%s image not available in %s: %w", opts.Image, rt.Name(), err),
		}
	}
	return &ContainerConverter{runtime: rt, opts: opts}, nil
}

func (c *ContainerConverter) Name() string { return "container/" + c.runtime.Name() }

// Convert mounts the Markdown directory read-only, the PDF directory
// read-write and the filter directory read-only, then runs Pandoc inside the
// image with the same arguments as the host backend.
func (c *ContainerConverter) Convert(ctx context.Context, job Job) error {
	filterDir, err := os.MkdirTemp("", "thoughtprint-filter-")
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: c.Name(), Err: err}
	}
	defer os.RemoveAll(filterDir)

	if _, err := imagefilter.WriteScript(filterDir); err != nil {
		return &ConversionError{Kind: KindSetup, Backend: c.Name(), Err: err}
	}
	if _, err := writeMetadata(filterDir, job.Title); err != nil {
		return &ConversionError{Kind: KindSetup, Backend: c.Name(), Err: err}
	}

	inDir, err := filepath.Abs(filepath.Dir(job.MarkdownPath))
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: c.Name(), Err: err}
	}
	outDir, err := filepath.Abs(filepath.Dir(job.PDFPath))
	if err != nil {
		return &ConversionError{Kind: KindSetup, Backend: c.Name(), Err: err}
	}

	args := pandocArgs(
		containerInputDir+"/"+filepath.Base(job.MarkdownPath),
		containerOutputDir+"/"+filepath.Base(job.PDFPath),
		containerFilterDir+"/"+imagefilter.ScriptName,
		containerFilterDir+"/"+metadataName,
		c.opts.PDFEngine, c.opts.CJKFont,
	)

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	spec := container.RunSpec{
		Image:   c.opts.Image,
		Args:    args,
		Network: "none",
		User:    hostUser(),
		Mounts: []container.Mount{
			{Source: inDir, Target: containerInputDir, ReadOnly: true},
			{Source: outDir, Target: containerOutputDir},
			{Source: filterDir, Target: containerFilterDir, ReadOnly: true},
		},
		Stdout: &stdout,
		Stderr: &stderr,
	}
	if err := c.runtime.Run(ctx, spec); err != nil {
		return classify(ctx, c.Name(), err, stdout.String(), stderr.String())
	}
	return nil
}

// hostUser returns "uid:gid" so the PDF is owned by the caller, or "" where
// numeric ids do not apply.
func hostUser() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}
