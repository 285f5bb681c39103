// Package graph assembles the weighted article to source citation graph.
//
// A Graph has exactly one article node and one edge per source node. It is
// built once and never modified; all accessors return copies.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

const (
	diversityBoostFactor = 0.2
	typeBoostPerCategory = 0.02
	maxTypeBoost         = 0.1
)

// NodeType distinguishes article and source nodes.
type NodeType string

const (
	NodeArticle NodeType = "article"
	NodeSource  NodeType = "source"
)

// ArticleNode is the single root of a citation graph.
type ArticleNode struct {
	ID            string   `json:"id"`
	NodeType      NodeType `json:"nodeType"`
	Title         string   `json:"title"`
	WordCount     int      `json:"wordCount"`
	CitationCount int      `json:"citationCount"`
}

// SourceNode is a cited resource keyed by its normalized URL.
type SourceNode struct {
	URL         string          `json:"url"`
	NodeType    NodeType        `json:"nodeType"`
	Domain      string          `json:"domain"`
	Category    common.Category `json:"category"`
	Reliability float64         `json:"reliability"`
}

// Edge links the article to a source.
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Weight   float64 `json:"weight"`
	LinkText string  `json:"linkText"`
}

// Graph is a directed single-article citation graph.
type Graph struct {
	article ArticleNode
	sources []SourceNode
	edges   []Edge
	index   map[string]int
}

// Build creates the citation graph for article. Sources keep the attributes
// of their first citation; a later citation of the same URL only replaces the
// edge weight and link text. All edges share the diversity and category
// boosts computed over the full citation set.
func Build(article common.Article, citations []common.Citation) *Graph {
	g := &Graph{
		article: ArticleNode{
			ID:            article.ID,
			NodeType:      NodeArticle,
			Title:         article.Title,
			WordCount:     article.WordCount,
			CitationCount: len(citations),
		},
		sources: make([]SourceNode, 0, len(citations)),
		edges:   make([]Edge, 0, len(citations)),
		index:   make(map[string]int, len(citations)),
	}

	boost := setBoost(citations)

	for _, c := range citations {
		key := classify.NormalizeURL(c.URL)
		reliability := classify.Clamp01(c.Reliability)
		edge := Edge{
			From:     g.article.ID,
			To:       key,
			Weight:   classify.Clamp01(reliability + boost),
			LinkText: c.LinkText,
		}

		if i, ok := g.index[key]; ok {
			g.edges[i] = edge
			continue
		}

		g.index[key] = len(g.sources)
		g.sources = append(g.sources, SourceNode{
			URL:         key,
			NodeType:    NodeSource,
			Domain:      c.Domain,
			Category:    c.Category,
			Reliability: reliability,
		})
		g.edges = append(g.edges, edge)
	}

	return g
}

// setBoost returns diversityBoost + typeBoost for a citation set.
func setBoost(citations []common.Citation) float64 {
	domains := make([]string, len(citations))
	categories := make(map[common.Category]struct{})
	for i, c := range citations {
		domains[i] = c.Domain
		categories[c.Category] = struct{}{}
	}

	diversityBoost := DomainDiversityScore(domains) * diversityBoostFactor
	typeBoost := min(maxTypeBoost, float64(len(categories))*typeBoostPerCategory)
	return diversityBoost + typeBoost
}

// DomainDiversityScore is unique/total over registrable domains, scaled
// down by half the share of the most frequent domain. An empty list scores 0.
func DomainDiversityScore(domains []string) float64 {
	if len(domains) == 0 {
		return 0
	}

	counts := make(map[string]int)
	top := 0
	for _, d := range domains {
		key := classify.RegistrableDomain(d)
		counts[key]++
		if counts[key] > top {
			top = counts[key]
		}
	}

	total := float64(len(domains))
	diversity := float64(len(counts)) / total
	return diversity * (1 - (float64(top)/total)*0.5)
}

// Article returns the article node.
func (g *Graph) Article() ArticleNode {
	return g.article
}

// Sources returns the source nodes in insertion order.
func (g *Graph) Sources() []SourceNode {
	out := make([]SourceNode, len(g.sources))
	copy(out, g.sources)
	return out
}

// Edges returns the edges in source insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *Graph) SourceCount() int { return len(g.sources) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// Hash returns a hex SHA-256 digest of the graph content. Graphs with equal
// nodes, attributes and edges in the same order hash equally.
func (g *Graph) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "article|%q|%q|%d|%d\n", g.article.ID, g.article.Title, g.article.WordCount, g.article.CitationCount)
	for i, s := range g.sources {
		e := g.edges[i]
		fmt.Fprintf(h, "source|%q|%q|%q|%s|%s|%q\n",
			s.URL, s.Domain, s.Category,
			strconv.FormatFloat(s.Reliability, 'g', -1, 64),
			strconv.FormatFloat(e.Weight, 'g', -1, 64),
			e.LinkText,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
