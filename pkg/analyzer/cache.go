package analyzer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/graph"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the number of analyses a Cache keeps.
const DefaultCacheSize = 256

// Cache memoizes Analyze results by graph content hash and thresholds, keeping
// the most recently used entries. Results handed out are deep copies, so
// callers never share state.
type Cache struct {
	cache *lru.Cache[string, common.AnalysisResult]
	group singleflight.Group
}

func NewCache() *Cache {
	return NewCacheSize(DefaultCacheSize)
}

// NewCacheSize creates a cache holding at most size results.
func NewCacheSize(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, common.AnalysisResult](size)
	return &Cache{cache: cache}
}

// Analyze returns the cached analysis for g, computing it at most once per
// distinct graph content even under concurrent calls.
func (c *Cache) Analyze(g *graph.Graph, t classify.Thresholds) common.AnalysisResult {
	key := cacheKey(g, t)

	if cached, ok := c.cache.Get(key); ok {
		return cloneResult(cached)
	}

	result, _, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
		res := Analyze(g, t)
		c.cache.Add(key, res)
		return res, nil
	})

	return cloneResult(result.(common.AnalysisResult))
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.cache.Len()
}

func cacheKey(g *graph.Graph, t classify.Thresholds) string {
	return fmt.Sprintf("%s|%d|%g|%g", g.Hash(), t.MinCitations, t.BiasThreshold, t.ClusterRiskThreshold)
}

func cloneResult(r common.AnalysisResult) common.AnalysisResult {
	out := r
	out.BiasMetrics.DomainDistribution = maps.Clone(r.BiasMetrics.DomainDistribution)
	out.BiasMetrics.CategoryDistribution = maps.Clone(r.BiasMetrics.CategoryDistribution)
	out.RedFlags = slices.Clone(r.RedFlags)
	out.Recommendations = slices.Clone(r.Recommendations)
	return out
}
