// Package pipeline runs the full audit of an article: load, extract content,
// extract and classify citations, build the graph and analyse it.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/analyzer"
	"github.com/OFFIS-RIT/citegraph/pkg/citation"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/extract"
	"github.com/OFFIS-RIT/citegraph/pkg/graph"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultParallelArticles = 4

// Auditor audits articles. It holds no per-article state and is safe for
// concurrent use.
type Auditor struct {
	loader     loader.PageLoader
	classifier *classify.Classifier
	content    *extract.Extractor
	citations  *citation.Extractor
	analyses   *analyzer.Cache
	parallel   int
}

// NewAuditorParams configures an Auditor. Classifier and Loader are
// required. Content and Citations default to extractors built from the
// classifier.
type NewAuditorParams struct {
	Loader           loader.PageLoader
	Classifier       *classify.Classifier
	Content          *extract.Extractor
	Citations        *citation.Extractor
	Cache            *analyzer.Cache
	ParallelArticles int
}

func NewAuditor(params NewAuditorParams) (*Auditor, error) {
	if params.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if params.Loader == nil {
		return nil, fmt.Errorf("page loader is required")
	}

	a := &Auditor{
		loader:     params.Loader,
		classifier: params.Classifier,
		content:    params.Content,
		citations:  params.Citations,
		analyses:   params.Cache,
		parallel:   params.ParallelArticles,
	}
	if a.content == nil {
		a.content = extract.New(params.Classifier.SourceSite())
	}
	if a.citations == nil {
		a.citations = citation.New(params.Classifier)
	}
	if a.analyses == nil {
		a.analyses = analyzer.NewCache()
	}
	if a.parallel <= 0 {
		a.parallel = defaultParallelArticles
	}
	return a, nil
}

// Classifier returns the classifier used for enrichment.
func (a *Auditor) Classifier() *classify.Classifier {
	return a.classifier
}

// Audit loads pageURL and audits it.
func (a *Auditor) Audit(ctx context.Context, pageURL string) (common.AuditReport, error) {
	raw, err := a.loader.Load(ctx, loader.NewPageFile(pageURL))
	if err != nil {
		return common.AuditReport{}, err
	}
	return a.AuditRaw(ctx, raw, pageURL)
}

// Extract loads pageURL and returns its article and citations without
// building the graph.
func (a *Auditor) Extract(ctx context.Context, pageURL string) (common.Article, []common.Citation, error) {
	raw, err := a.loader.Load(ctx, loader.NewPageFile(pageURL))
	if err != nil {
		return common.Article{}, nil, err
	}
	return a.extract(ctx, raw, pageURL)
}

func (a *Auditor) extract(ctx context.Context, raw []byte, pageURL string) (common.Article, []common.Citation, error) {
	content, err := a.content.Extract(raw, pageURL)
	if err != nil {
		return common.Article{}, nil, err
	}

	article := common.Article{
		ID:        pageURL,
		Title:     content.Title,
		Body:      content.Body,
		WordCount: len(strings.Fields(content.Body)),
	}

	citations, err := a.citations.Extract(ctx, content.Body, raw)
	if err != nil {
		return common.Article{}, nil, err
	}
	return article, citations, nil
}

// AuditRaw audits an already loaded payload.
func (a *Auditor) AuditRaw(ctx context.Context, raw []byte, pageURL string) (common.AuditReport, error) {
	start := time.Now()

	article, citations, err := a.extract(ctx, raw, pageURL)
	if err != nil {
		return common.AuditReport{}, err
	}

	g := graph.Build(article, citations)
	analysis := a.analyses.Analyze(g, a.classifier.Thresholds())

	logger.Info("[Pipeline] audited article",
		"url", pageURL,
		"citations", len(citations),
		"quality", analysis.QualityScores.OverallQuality,
		"red_flags", len(analysis.RedFlags),
		"duration", time.Since(start),
	)

	return common.AuditReport{
		Article:   article,
		Citations: citations,
		Stats:     g.Stats(),
		Analysis:  analysis,
		GraphHash: g.Hash(),
	}, nil
}

// BatchResult is the outcome for one URL of AuditMany.
type BatchResult struct {
	URL    string
	Report common.AuditReport
	Err    error
}

// AuditMany audits urls in parallel. Results are in input order and a
// failing article does not stop the others.
func (a *Auditor) AuditMany(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(a.parallel)
	for i, u := range urls {
		g.Go(func() error {
			results[i].URL = u
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			report, err := a.Audit(ctx, u)
			if err != nil {
				logger.Warn("[Pipeline] audit failed", "url", u, "err", err)
			}
			results[i].Report = report
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AuditTopic audits the first TopicCandidates URL that can be loaded and
// extracted.
func (a *Auditor) AuditTopic(ctx context.Context, baseURL, topic string) (common.AuditReport, error) {
	var lastErr error
	for _, u := range TopicCandidates(baseURL, topic) {
		report, err := a.Audit(ctx, u)
		if err == nil {
			return report, nil
		}
		if ctx.Err() != nil {
			return common.AuditReport{}, ctx.Err()
		}
		lastErr = err
	}
	return common.AuditReport{}, fmt.Errorf("no article found for topic %q: %w", topic, lastErr)
}

// TopicURL builds the canonical page URL for a topic name.
func TopicURL(baseURL, topic string) string {
	return strings.TrimRight(baseURL, "/") + "/page/" + topicSlug(topic)
}

// TopicCandidates lists the URLs a topic may live under, most likely first.
func TopicCandidates(baseURL, topic string) []string {
	base := strings.TrimRight(baseURL, "/")
	slug := topicSlug(topic)
	return slices.Compact([]string{
		base + "/page/" + slug,
		base + "/page/" + strings.ReplaceAll(slug, "_", ""),
		base + "/article/" + slug,
	})
}

func topicSlug(topic string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	return slug
}
