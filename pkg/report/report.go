// Package report renders audit results for editors: a JSON edit proposal
// and a Markdown summary, written to a directory or an S3 bucket.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

const ToolVersion = "1.0.0"

const (
	ProposalFile = "edit_proposal.json"
	SummaryFile  = "summary_report.md"

	summaryCitationLimit = 10
)

type Metadata struct {
	ArticleURL   string    `json:"article_url"`
	ArticleTitle string    `json:"article_title"`
	GeneratedAt  time.Time `json:"generated_at"`
	ToolVersion  string    `json:"tool_version"`
}

type AnalysisSummary struct {
	OverallQuality float64 `json:"overall_quality"`
	CitationCount  int     `json:"citation_count"`
	RedFlagsCount  int     `json:"red_flags_count"`
	DiversityScore float64 `json:"diversity_score"`
}

// EditProposal is the machine-readable change request for an article.
type EditProposal struct {
	Metadata             Metadata        `json:"metadata"`
	AnalysisSummary      AnalysisSummary `json:"analysis_summary"`
	RecommendedCitations []ai.Suggestion `json:"recommended_citations"`
	RecommendedRewrites  []ai.Rewrite    `json:"recommended_rewrites"`
	Explanation          string          `json:"explanation"`
	EditInstructions     string          `json:"edit_instructions"`
}

// NewEditProposal assembles the proposal for an audited article.
func NewEditProposal(report common.AuditReport, advice ai.Advice, now time.Time) EditProposal {
	suggestions := advice.Suggestions
	if suggestions == nil {
		suggestions = []ai.Suggestion{}
	}
	rewrites := advice.Rewrites
	if rewrites == nil {
		rewrites = []ai.Rewrite{}
	}

	return EditProposal{
		Metadata: Metadata{
			ArticleURL:   report.Article.ID,
			ArticleTitle: report.Article.Title,
			GeneratedAt:  now,
			ToolVersion:  ToolVersion,
		},
		AnalysisSummary: AnalysisSummary{
			OverallQuality: report.Analysis.QualityScores.OverallQuality,
			CitationCount:  len(report.Citations),
			RedFlagsCount:  len(report.Analysis.RedFlags),
			DiversityScore: report.Analysis.DiversityMetrics.OverallDiversity,
		},
		RecommendedCitations: suggestions,
		RecommendedRewrites:  rewrites,
		Explanation:          advice.Explanation,
		EditInstructions:     EditInstructions(suggestions, rewrites),
	}
}

// JSON renders the proposal with two-space indentation.
func (p EditProposal) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// EditInstructions lists the concrete edits an editor should make.
func EditInstructions(suggestions []ai.Suggestion, rewrites []ai.Rewrite) string {
	var lines []string

	if len(suggestions) > 0 {
		lines = append(lines, fmt.Sprintf("Add %d new citations:", len(suggestions)))
		for i, s := range suggestions {
			lines = append(lines, fmt.Sprintf("  %d. Add citation to: %s (%s)", i+1, orDefault(s.URL, "N/A"), orDefault(s.Reason, "Improves diversity")))
		}
	}

	if len(rewrites) > 0 {
		lines = append(lines, fmt.Sprintf("\nApply %d paragraph rewrites:", len(rewrites)))
		for i := range rewrites {
			lines = append(lines, fmt.Sprintf("  %d. Replace paragraph with rewritten version (see 'recommended_rewrites' section)", i+1))
		}
	}

	return strings.Join(lines, "\n")
}

// CitationSummary lists the first citations as "[category] domain".
func CitationSummary(citations []common.Citation) string {
	if len(citations) == 0 {
		return "No citations found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d citations:\n", len(citations))
	for i, c := range citations {
		if i == summaryCitationLimit {
			break
		}
		fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, c.Category, c.Domain)
	}
	if len(citations) > summaryCitationLimit {
		fmt.Fprintf(&b, "  ... and %d more\n", len(citations)-summaryCitationLimit)
	}
	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
