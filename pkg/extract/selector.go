package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	titleSelectors   = []string{"h1.article-title", "h1", ".title", "title"}
	contentSelectors = []string{".article-content", ".main-content", "article", ".content", "main"}
)

const strippedElements = "script, style, nav, header, footer"

// SelectorStrategy reads title and content from well-known DOM locations,
// most specific selector first, falling back to the document body.
type SelectorStrategy struct {
	titles   []string
	contents []string
}

func NewSelectorStrategy() SelectorStrategy {
	return SelectorStrategy{titles: titleSelectors, contents: contentSelectors}
}

func (SelectorStrategy) Name() string { return "selector" }

func (s SelectorStrategy) Extract(raw []byte, _ string) (Result, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Result{}, false
	}

	title := firstText(doc, s.titles)

	for _, sel := range s.contents {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if body := blockText(node); body != "" {
			return Result{Title: title, Body: body}, true
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return Result{}, false
	}
	text := blockText(body)
	if text == "" {
		return Result{}, false
	}
	return Result{Title: title, Body: text}, true
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// blockText removes non-content subtrees from a copy of sel and joins the
// remaining trimmed text nodes with newlines.
func blockText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find(strippedElements).Remove()

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range clone.Nodes {
		walk(n)
	}

	return strings.Join(parts, "\n")
}
