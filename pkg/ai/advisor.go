package ai

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRewriteTokenBudget = 600

	// UnavailableExplanation replaces the explanation when the model fails.
	UnavailableExplanation = "AI integration unavailable. See analysis results below."
	// SkippedExplanation is used when AI suggestions were not requested.
	SkippedExplanation = "Analysis completed without AI suggestions. See recommendations below."

	maxPromptFlags         = 5
	maxPromptCitations     = 10
	maxFallbackSuggestions = 10
	approxCharsPerToken    = 4
)

var suggestedURLPattern = regexp.MustCompile(`https?://[^\s<>"'\)]+`)

// Suggestion is a proposed new citation, enriched with the same
// classification as extracted citations.
type Suggestion struct {
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Category    common.Category `json:"category"`
	Domain      string          `json:"domain"`
	Reason      string          `json:"reason"`
	Reliability float64         `json:"reliability"`
	Recency     string          `json:"recency,omitempty"`
}

// Rewrite is a proposed neutral rewording of an article paragraph.
type Rewrite struct {
	Original           string   `json:"original"`
	Rewritten          string   `json:"rewritten"`
	Explanation        string   `json:"explanation"`
	SuggestedCitations []string `json:"suggested_citations"`
}

// Advice bundles everything the advisor produced for one report.
type Advice struct {
	Suggestions []Suggestion `json:"suggestions"`
	Rewrites    []Rewrite    `json:"rewrites"`
	Explanation string       `json:"explanation"`
}

type suggestionOut struct {
	URL              string   `json:"url"`
	Title            string   `json:"title"`
	SourceType       string   `json:"source_type"`
	Reason           string   `json:"reason"`
	ReliabilityScore *float64 `json:"reliability_score"`
	Recency          string   `json:"recency"`
}

type suggestionResponse struct {
	Suggestions []suggestionOut `json:"suggestions"`
}

type rewriteResponse struct {
	Rewrites []Rewrite `json:"rewrites"`
}

// Advisor asks a model for improvements to an audited article. Its output
// is advisory and never feeds back into the analysis.
type Advisor struct {
	client        Client
	classifier    *classify.Classifier
	rewriteBudget int
	maxTries      int

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

type NewAdvisorParams struct {
	Client             Client
	Classifier         *classify.Classifier
	RewriteTokenBudget int
	MaxTries           int
}

func NewAdvisor(params NewAdvisorParams) (*Advisor, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("ai client is required")
	}
	if params.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	budget := params.RewriteTokenBudget
	if budget <= 0 {
		budget = DefaultRewriteTokenBudget
	}
	return &Advisor{
		client:        params.Client,
		classifier:    params.Classifier,
		rewriteBudget: budget,
		maxTries:      params.MaxTries,
	}, nil
}

// Advise runs all advisor requests for report. Failures are logged and
// degrade to empty suggestions and a fixed explanation.
func (a *Advisor) Advise(ctx context.Context, report common.AuditReport) Advice {
	var advice Advice

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		suggestions, err := a.SuggestCitations(gctx, report)
		if err != nil {
			logger.Warn("[AI] citation suggestions failed", "url", report.Article.ID, "err", err)
			suggestions = []Suggestion{}
		}
		advice.Suggestions = suggestions
		return nil
	})
	g.Go(func() error {
		rewrites, err := a.SuggestRewrites(gctx, report)
		if err != nil {
			logger.Warn("[AI] rewrites failed", "url", report.Article.ID, "err", err)
			rewrites = []Rewrite{}
		}
		advice.Rewrites = rewrites
		return nil
	})
	_ = g.Wait()

	explanation, err := a.Explain(ctx, report, advice.Suggestions)
	if err != nil {
		logger.Warn("[AI] explanation failed", "url", report.Article.ID, "err", err)
		explanation = UnavailableExplanation
	}
	advice.Explanation = explanation

	return advice
}

// SuggestCitations asks the model for new citations. When structured output
// cannot be obtained the URLs in a plain-text answer are used instead.
func (a *Advisor) SuggestCitations(ctx context.Context, report common.AuditReport) ([]Suggestion, error) {
	prompt := a.citationPrompt(report)
	opts := []GenerateOption{
		WithSystemPrompts(CitationSystemPrompt),
		WithTemperature(0.7),
		WithMaxTokens(2000),
	}

	res, err := util.RetryWithContext(ctx, a.maxTries, func(ctx context.Context) (suggestionResponse, error) {
		var out suggestionResponse
		err := a.client.GenerateCompletionWithFormat(
			ctx,
			"citation_suggestions",
			"New citations that improve source diversity and reliability",
			prompt,
			&out,
			opts...,
		)
		return out, err
	})
	if err == nil {
		return a.enrichSuggestions(res.Suggestions), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger.Debug("[AI] structured suggestions failed, falling back to text", "err", err)
	text, textErr := a.client.GenerateCompletion(ctx, prompt, opts...)
	if textErr != nil {
		return nil, fmt.Errorf("failed to generate citation suggestions: %w", err)
	}
	return a.suggestionsFromText(text), nil
}

func (a *Advisor) enrichSuggestions(items []suggestionOut) []Suggestion {
	suggestions := make([]Suggestion, 0, len(items))
	for _, item := range items {
		u := classify.NormalizeURL(item.URL)
		if !classify.HasScheme(u) {
			continue
		}

		category := common.Category(strings.ToLower(strings.TrimSpace(item.SourceType)))
		if !category.Valid() {
			category = a.classifier.Classify(u)
		}

		reliability := a.classifier.Score(u, category)
		if r := item.ReliabilityScore; r != nil && *r >= 0 && *r <= 1 {
			reliability = *r
		}

		suggestions = append(suggestions, Suggestion{
			URL:         u,
			Title:       item.Title,
			Category:    category,
			Domain:      a.classifier.Domain(u),
			Reason:      item.Reason,
			Reliability: reliability,
			Recency:     item.Recency,
		})
	}
	return suggestions
}

func (a *Advisor) suggestionsFromText(text string) []Suggestion {
	urls := suggestedURLPattern.FindAllString(text, maxFallbackSuggestions)
	suggestions := make([]Suggestion, 0, len(urls))
	for _, raw := range urls {
		u := classify.NormalizeURL(raw)
		category := a.classifier.Classify(u)
		suggestions = append(suggestions, Suggestion{
			URL:         u,
			Title:       "Suggested Source",
			Category:    category,
			Domain:      a.classifier.Domain(u),
			Reason:      "AI-suggested citation",
			Reliability: a.classifier.Score(u, category),
		})
	}
	return suggestions
}

// SuggestRewrites asks for neutral rewrites of biased paragraphs. Only the
// beginning of the article, up to the token budget, is sent.
func (a *Advisor) SuggestRewrites(ctx context.Context, report common.AuditReport) ([]Rewrite, error) {
	bias := report.Analysis.BiasMetrics
	prompt := fmt.Sprintf(
		RewritePrompt,
		report.Article.Title,
		percent(bias.SourceConcentration),
		percent(bias.ClusterRisk),
		a.truncateTokens(report.Article.Body, a.rewriteBudget),
	)

	res, err := util.RetryWithContext(ctx, a.maxTries, func(ctx context.Context) (rewriteResponse, error) {
		var out rewriteResponse
		err := a.client.GenerateCompletionWithFormat(
			ctx,
			"bias_neutral_rewrites",
			"Neutral rewrites of biased or under-cited paragraphs",
			prompt,
			&out,
			WithSystemPrompts(RewriteSystemPrompt),
			WithTemperature(0.5),
			WithMaxTokens(3000),
		)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate rewrites: %w", err)
	}

	rewrites := make([]Rewrite, 0, len(res.Rewrites))
	for _, r := range res.Rewrites {
		if strings.TrimSpace(r.Rewritten) == "" {
			continue
		}
		if r.SuggestedCitations == nil {
			r.SuggestedCitations = []string{}
		}
		rewrites = append(rewrites, r)
	}
	return rewrites, nil
}

// Explain produces an editor-facing explanation of the findings.
func (a *Advisor) Explain(ctx context.Context, report common.AuditReport, suggestions []Suggestion) (string, error) {
	analysis := report.Analysis
	recs := make([]string, 0, len(analysis.Recommendations))
	for _, r := range analysis.Recommendations {
		recs = append(recs, "- "+r)
	}

	prompt := fmt.Sprintf(
		ExplanationPrompt,
		report.Article.Title,
		percent(analysis.QualityScores.OverallQuality),
		percent(analysis.BiasMetrics.SourceConcentration),
		orNA(analysis.BiasMetrics.TopDomain),
		strings.Join(recs, "\n"),
		len(suggestions),
	)

	text, err := util.RetryWithContext(ctx, a.maxTries, func(ctx context.Context) (string, error) {
		return a.client.GenerateCompletion(
			ctx,
			prompt,
			WithSystemPrompts(ExplanationSystemPrompt),
			WithTemperature(0.3),
			WithMaxTokens(1500),
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate explanation: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (a *Advisor) citationPrompt(report common.AuditReport) string {
	analysis := report.Analysis

	var flags []string
	for i, f := range analysis.RedFlags {
		if i == maxPromptFlags {
			break
		}
		flags = append(flags, "- "+f.Message)
	}

	var cites []string
	var categories []string
	for i, c := range report.Citations {
		if !slices.Contains(categories, string(c.Category)) {
			categories = append(categories, string(c.Category))
		}
		if i < maxPromptCitations {
			cites = append(cites, fmt.Sprintf("- [%s] %s: %s", c.Category, c.Domain, c.URL))
		}
	}
	slices.Sort(categories)

	return fmt.Sprintf(
		CitationPrompt,
		report.Article.Title,
		len(report.Citations),
		percent(analysis.BiasMetrics.SourceConcentration),
		orNA(analysis.BiasMetrics.TopDomain),
		percent(analysis.DiversityMetrics.OverallDiversity),
		strings.Join(categories, ", "),
		strings.Join(flags, "\n"),
		strings.Join(cites, "\n"),
	)
}

// truncateTokens cuts text to at most budget o200k tokens. Without the
// encoding it falls back to an approximate character budget.
func (a *Advisor) truncateTokens(text string, budget int) string {
	a.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Warn("[AI] tokenizer unavailable, truncating by characters", "err", err)
			return
		}
		a.enc = enc
	})

	if a.enc == nil {
		return util.Excerpt(text, budget*approxCharsPerToken)
	}

	tokens := a.enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return a.enc.Decode(tokens[:budget]) + "..."
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
