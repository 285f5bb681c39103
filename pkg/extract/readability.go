package extract

import (
	"bytes"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

// ReadabilityStrategy uses readability's main-content heuristics. It is the
// last resort for pages without recognisable containers.
type ReadabilityStrategy struct{}

func NewReadabilityStrategy() ReadabilityStrategy {
	return ReadabilityStrategy{}
}

func (ReadabilityStrategy) Name() string { return "readability" }

func (ReadabilityStrategy) Extract(raw []byte, pageURL string) (Result, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Result{}, false
	}

	article, err := readability.FromReader(bytes.NewReader(raw), u)
	if err != nil {
		return Result{}, false
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return Result{}, false
	}
	body := strings.TrimSpace(builder.String())
	if body == "" {
		return Result{}, false
	}

	title := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw)); err == nil {
		title = firstText(doc, titleSelectors)
	}

	return Result{Title: title, Body: body}, true
}
