package store

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

var ErrNotFound = errors.New("audit not found")

// AuditRecord is one persisted audit run.
type AuditRecord struct {
	ID             int64                 `json:"id"`
	ArticleURL     string                `json:"url"`
	Title          string                `json:"title"`
	WordCount      int                   `json:"wordCount"`
	CitationCount  int                   `json:"citationCount"`
	OverallQuality float64               `json:"overallQuality"`
	Citations      []common.Citation     `json:"citations"`
	Analysis       common.AnalysisResult `json:"analysis"`
	Stats          common.GraphStats     `json:"stats"`
	GraphHash      string                `json:"graphHash"`
	Advice         *ai.Advice            `json:"advice,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// RecordFromReport flattens an audit report and its optional advice into a
// record ready to be saved.
func RecordFromReport(report common.AuditReport, advice *ai.Advice) AuditRecord {
	citations := report.Citations
	if citations == nil {
		citations = []common.Citation{}
	}
	return AuditRecord{
		ArticleURL:     report.Article.ID,
		Title:          report.Article.Title,
		WordCount:      report.Article.WordCount,
		CitationCount:  len(report.Citations),
		OverallQuality: report.Analysis.QualityScores.OverallQuality,
		Citations:      citations,
		Analysis:       report.Analysis,
		Stats:          report.Stats,
		GraphHash:      report.GraphHash,
		Advice:         advice,
	}
}

// AuditStore persists audit runs. ListAudits returns the newest runs first;
// an empty articleURL lists runs for every article.
type AuditStore interface {
	SaveAudit(ctx context.Context, record AuditRecord) (int64, error)
	GetAudit(ctx context.Context, id int64) (AuditRecord, error)
	ListAudits(ctx context.Context, articleURL string, limit int) ([]AuditRecord, error)
}
