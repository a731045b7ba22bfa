// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

// textDump reads a text file written by Dump. A file without form feeds is
// a single page.
type textDump struct {
	cfg types.SourceConfig
}

func (t *textDump) Name() string { return string(types.BackendText) }

func (t *textDump) Pages(ctx context.Context, path string) ([]types.Page, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	pages := SplitDump(Normalize(string(data)))
	if n := limit(len(pages), t.cfg); n < len(pages) {
		pages = pages[:n]
	}
	logger.DebugKV(ctx, "read text dump", "path", path, "pages", len(pages))
	return pages, nil
}
