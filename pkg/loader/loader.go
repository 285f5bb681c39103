// Package loader defines how raw article pages are obtained.
//
// A PageLoader returns the unprocessed payload of a page (HTML, or whatever
// the source stored). Content and citation extraction happen downstream.
package loader

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrFetchFailed is returned when a page could not be retrieved.
var ErrFetchFailed = errors.New("failed to fetch page")

// PageFile identifies a page to load. Path is a URL for the web loader, an
// object key for the S3 loader and a file path for the io loader.
type PageFile struct {
	ID   string
	Path string
}

// NewPageFile creates a PageFile whose ID equals its path.
func NewPageFile(path string) PageFile {
	return PageFile{ID: path, Path: path}
}

// PageLoader loads the raw payload of a page.
type PageLoader interface {
	Load(ctx context.Context, file PageFile) ([]byte, error)
}

// CacheKey generates a unique cache key for a PageFile based on its ID and path.
func CacheKey(file PageFile) string {
	return file.ID + "|" + file.Path
}

// Defaults for loaders that keep payloads around between calls.
const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 10 * time.Minute
)

// Memo coalesces concurrent loads of the same key into one call and keeps
// successful payloads in a size-bounded cache for ttl. With size or ttl <= 0
// nothing is retained and only loads in flight are shared.
type Memo struct {
	cache *expirable.LRU[string, []byte]
	group singleflight.Group
}

func NewMemo(size int, ttl time.Duration) *Memo {
	m := &Memo{}
	if size > 0 && ttl > 0 {
		m.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
	return m
}

func (m *Memo) get(key string) ([]byte, bool) {
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Get(key)
}

// Do returns the cached payload for key or calls load to produce it.
// Failed loads are not cached.
func (m *Memo) Do(key string, load func() ([]byte, error)) ([]byte, error) {
	if cached, ok := m.get(key); ok {
		return cached, nil
	}

	result, err, _ := m.group.Do(key, func() (any, error) {
		if cached, ok := m.get(key); ok {
			return cached, nil
		}

		data, err := load()
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			m.cache.Add(key, data)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Forget drops key from the cache.
func (m *Memo) Forget(key string) {
	if m.cache != nil {
		m.cache.Remove(key)
	}
}

// Len returns the number of cached payloads.
func (m *Memo) Len() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}
