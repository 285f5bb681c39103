package classify

import (
	"errors"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/citegraph/pkg/common"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrReliabilityOutOfRange = errors.New("reliability base scores must be within [0,1]")
	ErrUnknownCategory       = errors.New("unknown category")
	ErrInvalidAdjustment     = errors.New("trustedBonus and lowTrustPenalty must be within [0,1]")
	ErrInvalidMinCitations   = errors.New("thresholds.minCitations must be non-negative")
	ErrThresholdOutOfRange   = errors.New("thresholds must be within [0,1]")
	ErrMissingSourceSite     = errors.New("sourceSite is required")
)

// CategoryKeywords maps a category to the host substrings that select it.
// The list order of Config.Categories is the match order.
type CategoryKeywords struct {
	Category common.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Thresholds drive red flag evaluation.
type Thresholds struct {
	MinCitations         int     `yaml:"minCitations"`
	BiasThreshold        float64 `yaml:"biasThreshold"`
	ClusterRiskThreshold float64 `yaml:"clusterRiskThreshold"`
}

// Config holds the read-only classification tables.
type Config struct {
	SourceSite         string                      `yaml:"sourceSite"`
	Reliability        map[common.Category]float64 `yaml:"reliability"`
	DefaultReliability float64                     `yaml:"defaultReliability"`
	TrustedSuffixes    []string                    `yaml:"trustedSuffixes"`
	TrustedBonus       float64                     `yaml:"trustedBonus"`
	LowTrustHosts      []string                    `yaml:"lowTrustHosts"`
	LowTrustPenalty    float64                     `yaml:"lowTrustPenalty"`
	AcademicSuffixes   []string                    `yaml:"academicSuffixes"`
	Categories         []CategoryKeywords          `yaml:"categories"`
	Thresholds         Thresholds                  `yaml:"thresholds"`
}

// DefaultConfig returns the built-in classification tables.
func DefaultConfig() Config {
	return Config{
		SourceSite: "grokipedia.com",
		Reliability: map[common.Category]float64{
			common.CategoryAcademic:   0.9,
			common.CategoryGovernment: 0.85,
			common.CategoryNGO:        0.7,
			common.CategoryNews:       0.6,
			common.CategoryOther:      0.4,
		},
		DefaultReliability: 0.5,
		TrustedSuffixes:    []string{"edu", "gov", "ac.uk", "edu.au", "int", "mil"},
		TrustedBonus:       0.1,
		LowTrustHosts:      []string{"blogspot", "wordpress", "tumblr", "wix"},
		LowTrustPenalty:    0.2,
		AcademicSuffixes:   []string{"edu", "ac.uk", "edu.au"},
		Categories: []CategoryKeywords{
			{
				Category: common.CategoryAcademic,
				Keywords: []string{
					"nature", "science", "arxiv", "jstor", "springer", "wiley",
					"pubmed", "ncbi", "scholar", "university", "researchgate",
					"sciencedirect", "ieee", "acm",
				},
			},
			{
				Category: common.CategoryGovernment,
				Keywords: []string{"gov", "parliament", "senate", "europa.eu", "who.int", "un.org"},
			},
			{
				Category: common.CategoryNGO,
				Keywords: []string{"foundation", "institute", "amnesty", "redcross", "unicef", "wikimedia"},
			},
			{
				Category: common.CategoryNews,
				Keywords: []string{
					"news", "bbc", "reuters", "apnews", "nytimes", "theguardian",
					"washingtonpost", "cnn", "bloomberg", "wsj", "npr", "aljazeera",
					"economist", "times",
				},
			},
		},
		Thresholds: Thresholds{
			MinCitations:         5,
			BiasThreshold:        0.5,
			ClusterRiskThreshold: 0.7,
		},
	}
}

// LoadConfig reads a YAML file and overlays it on DefaultConfig. Keys absent
// from the file keep their default values. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read classifier config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse classifier config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid classifier config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the scorer cannot use.
func (c Config) Validate() error {
	if c.SourceSite == "" {
		return ErrMissingSourceSite
	}
	for cat, score := range c.Reliability {
		if !cat.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
		}
		if score < 0 || score > 1 {
			return fmt.Errorf("%w: %s=%v", ErrReliabilityOutOfRange, cat, score)
		}
	}
	if c.DefaultReliability < 0 || c.DefaultReliability > 1 {
		return fmt.Errorf("%w: default=%v", ErrReliabilityOutOfRange, c.DefaultReliability)
	}
	for _, ck := range c.Categories {
		if !ck.Category.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, ck.Category)
		}
	}
	if c.TrustedBonus < 0 || c.TrustedBonus > 1 || c.LowTrustPenalty < 0 || c.LowTrustPenalty > 1 {
		return ErrInvalidAdjustment
	}
	if c.Thresholds.MinCitations < 0 {
		return ErrInvalidMinCitations
	}
	if !unit(c.Thresholds.BiasThreshold) || !unit(c.Thresholds.ClusterRiskThreshold) {
		return ErrThresholdOutOfRange
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
