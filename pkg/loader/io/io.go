package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/OFFIS-RIT/citegraph/pkg/loader"
)

// IOPageLoader reads saved pages from the local filesystem with caching.
type IOPageLoader struct {
	memo *loader.Memo
}

func NewIOPageLoader() *IOPageLoader {
	return &IOPageLoader{memo: loader.NewMemo(loader.DefaultCacheSize, loader.DefaultCacheTTL)}
}

// Load reads file.Path. A missing file is reported as loader.ErrFetchFailed.
func (l *IOPageLoader) Load(ctx context.Context, file loader.PageFile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.memo.Do(loader.CacheKey(file), func() ([]byte, error) {
		data, err := os.ReadFile(file.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", loader.ErrFetchFailed, err)
		}
		return data, err
	})
}
