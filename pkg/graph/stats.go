package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

// Stats summarises node and edge counts, category spread and density.
func (g *Graph) Stats() common.GraphStats {
	stats := common.GraphStats{
		TotalNodes:           1 + len(g.sources),
		ArticleNodes:         1,
		SourceNodes:          len(g.sources),
		TotalEdges:           len(g.edges),
		CategoryDistribution: make(map[common.Category]int),
	}

	if len(g.sources) == 0 {
		return stats
	}

	sum := 0.0
	for _, s := range g.sources {
		stats.CategoryDistribution[s.Category]++
		sum += s.Reliability
	}
	stats.AverageReliability = sum / float64(len(g.sources))
	stats.SourceClusters = g.SourceClusters()

	n := float64(stats.TotalNodes)
	stats.Density = float64(stats.TotalEdges) / (n * (n - 1))

	return stats
}

// SourceClusters groups source URLs by "category:domain".
func (g *Graph) SourceClusters() map[string][]string {
	clusters := make(map[string][]string)
	for _, s := range g.sources {
		key := fmt.Sprintf("%s:%s", s.Category, s.Domain)
		clusters[key] = append(clusters[key], s.URL)
	}
	return clusters
}
