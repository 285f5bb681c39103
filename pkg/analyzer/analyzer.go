// Package analyzer derives bias, diversity and quality metrics, red flags
// and recommendations from a citation graph.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/graph"
)

const (
	lowReliability      = 0.4
	perfectCitationSize = 10.0
)

// Red flag types.
const (
	FlagInsufficientCitations   = "insufficient_citations"
	FlagLowReliabilityDominance = "low_reliability_dominance"
	FlagHighSourceConcentration = "high_source_concentration"
	FlagSingleClusterRisk       = "single_cluster_risk"
	FlagMissingViewpoints       = "missing_viewpoint_diversity"
)

var (
	viewpointCategories   = []common.Category{common.CategoryAcademic, common.CategoryGovernment, common.CategoryNews}
	credibilityCategories = []common.Category{common.CategoryAcademic, common.CategoryGovernment}
)

// Analyze computes the full analysis for g. It has no side effects and
// returns freshly allocated slices and maps on every call.
func Analyze(g *graph.Graph, t classify.Thresholds) common.AnalysisResult {
	sources := g.Sources()

	bias := biasMetrics(sources)
	diversity := diversityMetrics(sources)
	quality := qualityScores(sources, diversity)

	return common.AnalysisResult{
		BiasMetrics:      bias,
		DiversityMetrics: diversity,
		RedFlags:         redFlags(sources, bias, t),
		QualityScores:    quality,
		Recommendations:  recommendations(sources, bias, diversity, quality),
	}
}

func biasMetrics(sources []graph.SourceNode) common.BiasMetrics {
	m := common.BiasMetrics{
		DomainDistribution:   make(map[string]int),
		CategoryDistribution: make(map[common.Category]int),
	}
	if len(sources) == 0 {
		return m
	}

	for _, s := range sources {
		m.DomainDistribution[s.Domain]++
		m.CategoryDistribution[s.Category]++
	}

	// ties go to the domain seen first
	topDomainCount := 0
	for _, s := range sources {
		if c := m.DomainDistribution[s.Domain]; c > topDomainCount {
			topDomainCount = c
			m.TopDomain = s.Domain
		}
	}

	topCategoryCount := 0
	for _, c := range m.CategoryDistribution {
		topCategoryCount = max(topCategoryCount, c)
	}

	total := float64(len(sources))
	m.DomainConcentration = float64(topDomainCount) / total
	m.ClusterRisk = float64(topCategoryCount) / total
	m.SourceConcentration = (m.DomainConcentration + m.ClusterRisk) / 2
	m.IdeologicalClusterScore = m.ClusterRisk

	return m
}

func diversityMetrics(sources []graph.SourceNode) common.DiversityMetrics {
	if len(sources) == 0 {
		return common.DiversityMetrics{}
	}

	domains := make(map[string]struct{})
	categories := make(map[common.Category]struct{})
	reliabilities := make([]float64, len(sources))
	for i, s := range sources {
		domains[s.Domain] = struct{}{}
		categories[s.Category] = struct{}{}
		reliabilities[i] = s.Reliability
	}

	total := float64(len(sources))
	m := common.DiversityMetrics{
		UniqueDomains:        len(domains),
		UniqueCategories:     len(categories),
		DomainDiversity:      float64(len(domains)) / total,
		CategoryDiversity:    float64(len(categories)) / total,
		ReliabilityDiversity: classify.Clamp01(variance(reliabilities) * 4),
	}
	m.OverallDiversity = 0.4*m.DomainDiversity + 0.4*m.CategoryDiversity + 0.2*m.ReliabilityDiversity

	return m
}

func qualityScores(sources []graph.SourceNode, diversity common.DiversityMetrics) common.QualityScores {
	if len(sources) == 0 {
		return common.QualityScores{}
	}

	reliabilities := make([]float64, len(sources))
	for i, s := range sources {
		reliabilities[i] = s.Reliability
	}

	q := common.QualityScores{
		SourceReliability:  mean(reliabilities),
		DiversityScore:     diversity.OverallDiversity,
		CitationCountScore: min(1, float64(len(sources))/perfectCitationSize),
	}
	q.OverallQuality = 0.4*q.SourceReliability + 0.3*q.DiversityScore + 0.3*q.CitationCountScore
	q.CitationQuality = q.OverallQuality

	return q
}

// redFlags evaluates every rule independently, in a fixed order.
func redFlags(sources []graph.SourceNode, bias common.BiasMetrics, t classify.Thresholds) []common.RedFlag {
	flags := []common.RedFlag{}

	if len(sources) < t.MinCitations {
		flags = append(flags, common.RedFlag{
			Type:     FlagInsufficientCitations,
			Severity: common.SeverityHigh,
			Message:  fmt.Sprintf("Article has only %d citations (minimum recommended: %d)", len(sources), t.MinCitations),
		})
	}

	low := 0
	for _, s := range sources {
		if s.Reliability < lowReliability {
			low++
		}
	}
	if float64(low) > float64(len(sources))*0.5 {
		flags = append(flags, common.RedFlag{
			Type:     FlagLowReliabilityDominance,
			Severity: common.SeverityMedium,
			Message:  "Over 50% of citations are from low-reliability sources",
		})
	}

	if bias.SourceConcentration > t.BiasThreshold {
		flags = append(flags, common.RedFlag{
			Type:     FlagHighSourceConcentration,
			Severity: common.SeverityHigh,
			Message:  fmt.Sprintf("Over %g%% of citations from top domain: %s", t.BiasThreshold*100, orDefault(bias.TopDomain, "unknown")),
		})
	}

	if bias.ClusterRisk > t.ClusterRiskThreshold {
		flags = append(flags, common.RedFlag{
			Type:     FlagSingleClusterRisk,
			Severity: common.SeverityHigh,
			Message:  fmt.Sprintf("Over %g%% of citations from single source type cluster", t.ClusterRiskThreshold*100),
		})
	}

	if missing := missingCategories(sources, viewpointCategories); len(missing) > 0 {
		flags = append(flags, common.RedFlag{
			Type:     FlagMissingViewpoints,
			Severity: common.SeverityMedium,
			Message:  "Missing citations from: " + strings.Join(missing, ", "),
		})
	}

	return flags
}

func recommendations(
	sources []graph.SourceNode,
	bias common.BiasMetrics,
	diversity common.DiversityMetrics,
	quality common.QualityScores,
) []string {
	recs := []string{}

	if quality.OverallQuality < 0.6 {
		recs = append(recs, "Overall citation quality is below recommended standards. Consider adding more diverse, high-reliability sources.")
	}
	if bias.SourceConcentration > 0.5 {
		recs = append(recs, fmt.Sprintf("High concentration from %s. Diversify sources across multiple domains.", orDefault(bias.TopDomain, "one domain")))
	}
	if diversity.CategoryDiversity < 0.5 {
		recs = append(recs, "Limited source type diversity. Add citations from academic, government, and NGO sources for balance.")
	}
	if quality.SourceReliability < 0.6 {
		recs = append(recs, "Average source reliability is low. Replace low-reliability sources with more authoritative ones.")
	}
	if missing := missingCategories(sources, credibilityCategories); len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Add citations from %s sources to improve credibility.", strings.Join(missing, ", ")))
	}

	return recs
}

func missingCategories(sources []graph.SourceNode, required []common.Category) []string {
	present := make(map[common.Category]bool)
	for _, s := range sources {
		present[s.Category] = true
	}

	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, string(c))
		}
	}
	return missing
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance of values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - avg) * (v - avg)
	}
	return sum / float64(len(values))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
