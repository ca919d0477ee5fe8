// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/thoughtprint/internal/container"
	"github.com/pdiddy/thoughtprint/pkg/types"
)

// New builds the converter selected by cfg.Backend. An empty backend means
// the host pandoc installation.
func New(ctx context.Context, cfg types.ConverterConfig) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendPandoc:
		return NewPandocConverter(PandocOptions{
			Path:      cfg.PandocPath,
			PDFEngine: cfg.PDFEngine,
			CJKFont:   cfg.CJKFont,
			Timeout:   cfg.Timeout,
		}), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, &ConversionError{Kind: KindUnavailable, Backend: "container", Err: err}
		}
		c, err := NewContainerConverter(ctx, rt, ContainerOptions{
			Image:     cfg.ContainerImage,
			PDFEngine: cfg.PDFEngine,
			CJKFont:   cfg.CJKFont,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown converter backend %q (want %q or %q)",
			cfg.Backend, types.BackendPandoc, types.BackendContainer)
	}
}
