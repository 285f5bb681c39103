package common

// Category is the coarse provenance class of a citation source.
type Category string

const (
	CategoryAcademic   Category = "academic"
	CategoryGovernment Category = "government"
	CategoryNGO        Category = "ngo"
	CategoryNews       Category = "news"
	CategoryOther      Category = "other"
)

// Categories lists every known category in classification order.
var Categories = []Category{
	CategoryAcademic,
	CategoryGovernment,
	CategoryNGO,
	CategoryNews,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ExtractionType records which pass captured a citation.
type ExtractionType string

const (
	ExtractionMarkdown ExtractionType = "markdown"
	ExtractionHTML     ExtractionType = "html"
	ExtractionBare     ExtractionType = "bare"
	ExtractionDOMLink  ExtractionType = "domLink"
)

// Article is a single ingested page. ID is the canonical URL of the page.
//
// Articles are created once per ingestion run and never modified afterwards.
type Article struct {
	ID        string `json:"url"`
	Title     string `json:"title"`
	Body      string `json:"content"`
	WordCount int    `json:"word_count"`
}

// Citation is an outbound link found in an article body, enriched with its
// provenance class, registrable domain and reliability score.
//
// URL is unique within one article's citation set after normalization.
// Reliability is always within [0,1].
type Citation struct {
	URL            string         `json:"url"`
	LinkText       string         `json:"text"`
	ExtractionType ExtractionType `json:"type"`
	Category       Category       `json:"category"`
	Domain         string         `json:"domain"`
	Reliability    float64        `json:"reliability"`
}

// Severity of a red flag.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// RedFlag is a rule-triggered warning about citation quality or bias.
type RedFlag struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// BiasMetrics describe how strongly an article's sources are concentrated
// on a single domain or category.
type BiasMetrics struct {
	SourceConcentration     float64          `json:"sourceConcentration"`
	DomainConcentration     float64          `json:"domainConcentration"`
	ClusterRisk             float64          `json:"clusterRisk"`
	TopDomain               string           `json:"topDomain"`
	DomainDistribution      map[string]int   `json:"domainDistribution"`
	CategoryDistribution    map[Category]int `json:"categoryDistribution"`
	IdeologicalClusterScore float64          `json:"ideologicalClusterScore"`
}

// DiversityMetrics describe the spread of sources.
type DiversityMetrics struct {
	DomainDiversity      float64 `json:"domainDiversity"`
	CategoryDiversity    float64 `json:"categoryDiversity"`
	ReliabilityDiversity float64 `json:"reliabilityDiversity"`
	OverallDiversity     float64 `json:"overallDiversity"`
	UniqueDomains        int     `json:"uniqueDomains"`
	UniqueCategories     int     `json:"uniqueCategories"`
}

// QualityScores combine reliability, diversity and citation count.
type QualityScores struct {
	CitationQuality    float64 `json:"citationQuality"`
	SourceReliability  float64 `json:"sourceReliability"`
	DiversityScore     float64 `json:"diversityScore"`
	CitationCountScore float64 `json:"citationCountScore"`
	OverallQuality     float64 `json:"overallQuality"`
}

// AnalysisResult is the full outcome of analysing one citation graph.
// The JSON field names are consumed by report and prompt builders and must
// stay stable.
type AnalysisResult struct {
	BiasMetrics      BiasMetrics      `json:"biasMetrics"`
	DiversityMetrics DiversityMetrics `json:"diversityMetrics"`
	RedFlags         []RedFlag        `json:"redFlags"`
	QualityScores    QualityScores    `json:"qualityScores"`
	Recommendations  []string         `json:"recommendations"`
}

// GraphStats summarises the shape of a citation graph.
type GraphStats struct {
	TotalNodes           int              `json:"totalNodes"`
	ArticleNodes         int              `json:"articleNodes"`
	SourceNodes          int              `json:"sourceNodes"`
	TotalEdges           int              `json:"totalEdges"`
	CategoryDistribution map[Category]int `json:"categoryDistribution"`
	AverageReliability   float64          `json:"averageReliability"`
	Density              float64          `json:"density"`
	// SourceClusters groups source URLs by "category:domain".
	SourceClusters map[string][]string `json:"sourceClusters,omitempty"`
}

// AuditReport bundles everything produced for a single article so that
// report writers, prompt builders and persistence can consume it as one value.
type AuditReport struct {
	Article   Article        `json:"article"`
	Citations []Citation     `json:"citations"`
	Stats     GraphStats     `json:"stats"`
	Analysis  AnalysisResult `json:"analysis"`
	GraphHash string         `json:"graphHash"`
}
