// Package classify assigns a provenance category, registrable domain and
// reliability score to citation URLs.
//
// A Classifier is safe for concurrent use; its configuration is copied on
// construction and never modified.
package classify

import (
	"slices"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

// Classifier maps URLs to categories and reliability scores.
type Classifier struct {
	cfg Config
}

// New creates a classifier for cfg.
func New(cfg Config) *Classifier {
	own := cfg
	own.Reliability = make(map[common.Category]float64, len(cfg.Reliability))
	for k, v := range cfg.Reliability {
		own.Reliability[k] = v
	}
	own.TrustedSuffixes = slices.Clone(cfg.TrustedSuffixes)
	own.LowTrustHosts = slices.Clone(cfg.LowTrustHosts)
	own.AcademicSuffixes = slices.Clone(cfg.AcademicSuffixes)
	own.Categories = make([]CategoryKeywords, len(cfg.Categories))
	for i, ck := range cfg.Categories {
		own.Categories[i] = CategoryKeywords{Category: ck.Category, Keywords: slices.Clone(ck.Keywords)}
	}
	return &Classifier{cfg: own}
}

// NewDefault creates a classifier using DefaultConfig.
func NewDefault() *Classifier {
	return New(DefaultConfig())
}

// Thresholds returns the configured red flag thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.cfg.Thresholds
}

// SourceSite returns the host of the encyclopedia being audited.
func (c *Classifier) SourceSite() string {
	return c.cfg.SourceSite
}

// Classify returns the category of raw. Suffix rules take precedence over
// keyword lists, which are tried in configured order.
func (c *Classifier) Classify(raw string) common.Category {
	host := Host(raw)
	if host == "" {
		return common.CategoryOther
	}

	suffix := Suffix(host)
	switch {
	case slices.Contains(c.cfg.AcademicSuffixes, suffix):
		return common.CategoryAcademic
	case suffix == "gov" || strings.HasPrefix(suffix, "gov."):
		return common.CategoryGovernment
	case suffix == "org":
		return common.CategoryNGO
	}

	for _, ck := range c.cfg.Categories {
		if ck.Category == common.CategoryOther {
			continue
		}
		for _, kw := range ck.Keywords {
			if kw != "" && strings.Contains(host, kw) {
				return ck.Category
			}
		}
	}

	return common.CategoryOther
}

// Score returns the reliability of raw given its category, clamped to [0,1].
func (c *Classifier) Score(raw string, category common.Category) float64 {
	score, ok := c.cfg.Reliability[category]
	if !ok {
		score = c.cfg.DefaultReliability
	}

	host := Host(raw)
	if slices.Contains(c.cfg.TrustedSuffixes, Suffix(host)) {
		score += c.cfg.TrustedBonus
	}
	for _, s := range c.cfg.LowTrustHosts {
		if s != "" && strings.Contains(host, s) {
			score -= c.cfg.LowTrustPenalty
			break
		}
	}

	return Clamp01(score)
}

// Domain returns the registrable domain of raw.
func (c *Classifier) Domain(raw string) string {
	return RegistrableDomain(raw)
}

// IsSourceSite reports whether raw points at the audited site or one of its
// subdomains.
func (c *Classifier) IsSourceSite(raw string) bool {
	site := strings.ToLower(c.cfg.SourceSite)
	if site == "" {
		return false
	}
	host := strings.TrimPrefix(Host(raw), "www.")
	return host == site || strings.HasSuffix(host, "."+site)
}

// Enrich builds a citation record for an already normalized URL.
func (c *Classifier) Enrich(raw, text string, typ common.ExtractionType) common.Citation {
	category := c.Classify(raw)
	return common.Citation{
		URL:            raw,
		LinkText:       text,
		ExtractionType: typ,
		Category:       category,
		Domain:         c.Domain(raw),
		Reliability:    c.Score(raw, category),
	}
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
