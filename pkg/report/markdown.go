package report

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Markdown renders the human-readable summary report.
func Markdown(report common.AuditReport, advice ai.Advice, now time.Time) string {
	analysis := report.Analysis
	quality := analysis.QualityScores
	bias := analysis.BiasMetrics

	lines := []string{
		"# Citation Graph Audit Report",
		"",
		"**Article:** " + orDefault(report.Article.Title, "Unknown"),
		"**URL:** " + orDefault(report.Article.ID, "N/A"),
		"**Generated:** " + now.Format("2006-01-02 15:04:05"),
		"",
		"---",
		"",
		"## Executive Summary",
		"",
		advice.Explanation,
		"",
		"---",
		"",
		"## Analysis Results",
		"",
		"### Quality Scores",
		"",
		"- **Overall Quality:** " + pct(quality.OverallQuality),
		"- **Source Reliability:** " + pct(quality.SourceReliability),
		"- **Diversity Score:** " + pct(quality.DiversityScore),
		"- **Citation Count Score:** " + pct(quality.CitationCountScore),
		"",
		"### Bias & Diversity Metrics",
		"",
		"- **Source Concentration:** " + pct(bias.SourceConcentration),
		"- **Single Cluster Risk:** " + pct(bias.ClusterRisk),
		"- **Top Domain:** " + orDefault(bias.TopDomain, "N/A"),
		"- **Domain Diversity:** " + pct(analysis.DiversityMetrics.DomainDiversity),
		"",
	}

	if clusters := report.Stats.SourceClusters; len(clusters) > 0 {
		lines = append(lines, "### Source Clusters", "")
		for _, key := range clusterKeys(clusters) {
			lines = append(lines, fmt.Sprintf("- **%s:** %d sources", key, len(clusters[key])))
		}
		lines = append(lines, "")
	}

	if len(analysis.RedFlags) > 0 {
		lines = append(lines, "### Red Flags", "")
		for _, f := range analysis.RedFlags {
			lines = append(lines, fmt.Sprintf("- **[%s]** %s", strings.ToUpper(string(f.Severity)), f.Message))
		}
		lines = append(lines, "")
	}

	if len(analysis.Recommendations) > 0 {
		lines = append(lines, "### Recommendations", "")
		for i, rec := range analysis.Recommendations {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, rec))
		}
		lines = append(lines, "")
	}

	if len(advice.Suggestions) > 0 {
		lines = append(lines,
			"---",
			"",
			"## Recommended Citations",
			"",
			fmt.Sprintf("The following %d citations are recommended to improve diversity and reliability:", len(advice.Suggestions)),
			"",
		)
		for i, s := range advice.Suggestions {
			lines = append(lines,
				fmt.Sprintf("### %d. %s", i+1, orDefault(s.Title, s.URL)),
				"",
				"- **URL:** "+orDefault(s.URL, "N/A"),
				"- **Source Type:** "+orDefault(string(s.Category), "unknown"),
				"- **Reliability:** "+pct(s.Reliability),
				"- **Reason:** "+orDefault(s.Reason, "Improves citation diversity"),
				"",
			)
		}
	}

	if len(advice.Rewrites) > 0 {
		lines = append(lines, "---", "", "## Recommended Rewrites", "")
		for i, r := range advice.Rewrites {
			lines = append(lines,
				fmt.Sprintf("### Rewrite %d", i+1),
				"",
				"**Original:**",
				"",
				"> "+r.Original,
				"",
				"**Rewritten:**",
				"",
				"> "+r.Rewritten,
				"",
				"**Explanation:** "+r.Explanation,
				"",
			)
		}
	}

	lines = append(lines,
		"---",
		"",
		"## Next Steps",
		"",
		"1. Review the recommended citations and verify their relevance",
		"2. Add the suggested citations to the article",
		"3. Consider applying the recommended rewrites for improved neutrality",
		"4. Submit the edits through the article's editing workflow",
		"",
	)

	return strings.Join(lines, "\n")
}

// clusterKeys orders clusters largest first, then by name.
func clusterKeys(clusters map[string][]string) []string {
	return slices.SortedFunc(maps.Keys(clusters), func(a, b string) int {
		if c := cmp.Compare(len(clusters[b]), len(clusters[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
