// Package citation finds outbound links in article text and markup and
// turns them into enriched, deduplicated citation records.
package citation

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// linkedLookback is how many bytes before a bare URL are inspected for an
// enclosing markdown or anchor link.
const linkedLookback = 10

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	htmlLinkPattern     = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"']+)["'][^>]*>([^<]+)</a>`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s<>"'\)\[\]]+`)

	excludedPrefixes = []string{"mailto:", "javascript:", "tel:", "#"}
)

// candidate is an accepted, normalized link awaiting enrichment.
type candidate struct {
	url  string
	text string
	typ  common.ExtractionType
}

// Extractor collects citations. It is safe for concurrent use.
type Extractor struct {
	classifier *classify.Classifier
	parallel   int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithParallelism bounds the number of concurrent enrichment workers.
func WithParallelism(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.parallel = n
		}
	}
}

// New creates an extractor that enriches citations with c.
func New(c *classify.Classifier, opts ...Option) *Extractor {
	e := &Extractor{classifier: c, parallel: 4}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the citations found in body, in first-seen order.
// Markdown links are collected first, then HTML anchors, then bare URLs.
// When rawMarkup is non-empty its anchors are scanned last.
func (e *Extractor) Extract(ctx context.Context, body string, rawMarkup []byte) ([]common.Citation, error) {
	found := e.collect(body, rawMarkup)
	if len(found) == 0 {
		return []common.Citation{}, nil
	}

	citations := make([]common.Citation, len(found))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i, cand := range found {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			citations[i] = e.enrich(cand)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to enrich citations: %w", err)
	}

	return citations, nil
}

func (e *Extractor) collect(body string, rawMarkup []byte) []candidate {
	var found []candidate
	seen := make(map[string]struct{})

	add := func(raw, text string, typ common.ExtractionType) {
		u, ok := e.accept(raw)
		if !ok {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		if text == "" {
			text = u
		}
		found = append(found, candidate{url: u, text: text, typ: typ})
	}

	for _, m := range markdownLinkPattern.FindAllStringSubmatch(body, -1) {
		add(m[2], m[1], common.ExtractionMarkdown)
	}

	for _, m := range htmlLinkPattern.FindAllStringSubmatch(body, -1) {
		add(m[1], strings.TrimSpace(m[2]), common.ExtractionHTML)
	}

	for _, loc := range bareURLPattern.FindAllStringIndex(body, -1) {
		if alreadyLinked(body, loc[0]) {
			continue
		}
		raw := body[loc[0]:loc[1]]
		add(raw, classify.NormalizeURL(raw), common.ExtractionBare)
	}

	if len(rawMarkup) > 0 {
		for _, link := range domLinks(rawMarkup) {
			add(link.href, link.text, common.ExtractionDOMLink)
		}
	}

	return found
}

// alreadyLinked reports whether the URL starting at pos sits inside a
// markdown link target or an anchor tag.
func alreadyLinked(text string, pos int) bool {
	start := pos - linkedLookback
	if start < 0 {
		start = 0
	}
	before := text[start:pos]
	return strings.Contains(before, "](") || strings.Contains(strings.ToLower(before), "<a")
}

// accept normalizes raw and decides whether it is a citation.
func (e *Extractor) accept(raw string) (string, bool) {
	u := classify.NormalizeURL(raw)
	if u == "" {
		return "", false
	}
	lower := strings.ToLower(u)
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}
	if !classify.HasScheme(u) {
		return "", false
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return "", false
	}
	if e.classifier.IsSourceSite(u) {
		return "", false
	}
	return u, true
}

// enrich classifies a single candidate. A failure for one URL degrades to
// the default category instead of aborting the batch.
func (e *Extractor) enrich(c candidate) (cit common.Citation) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("[Citation] classification failed, using defaults", "url", c.url, "err", r)
			cit = common.Citation{
				URL:            c.url,
				LinkText:       c.text,
				ExtractionType: c.typ,
				Category:       common.CategoryOther,
				Domain:         classify.Host(c.url),
				Reliability:    e.classifier.Score(c.url, common.CategoryOther),
			}
		}
	}()
	return e.classifier.Enrich(c.url, c.text, c.typ)
}
