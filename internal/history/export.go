// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export writes the entries matching opts to w as YAML or JSON. A zero
// Limit exports every entry.
func (s *Store) Export(ctx context.Context, w io.Writer, format string, opts ListOptions) error {
	if format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if opts.Limit == 0 {
		opts.Limit = -1
	}

	entries, err := s.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	var data []byte
	if format == FormatJSON {
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(entries)
	}
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
