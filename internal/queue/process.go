package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/extract"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/report"
)

// LinkFunc turns stored report keys into links for the completion message.
type LinkFunc func(ctx context.Context, keys []string) ([]string, error)

type Processor struct {
	service *audit.Service
	pub     publisher
	reports *report.Writer
	format  report.Format
	links   LinkFunc
}

// NewProcessorParams wires a Processor. Reports and Links are optional.
type NewProcessorParams struct {
	Service   *audit.Service
	Publisher publisher
	Reports   *report.Writer
	Format    report.Format
	Links     LinkFunc
}

func NewProcessor(params NewProcessorParams) (*Processor, error) {
	if params.Service == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	format := params.Format
	if format == "" {
		format = report.FormatBoth
	}
	return &Processor{
		service: params.Service,
		pub:     params.Publisher,
		reports: params.Reports,
		format:  format,
		links:   params.Links,
	}, nil
}

// ProcessAuditMessage runs one audit job and announces the result.
// Undecodable jobs, invalid requests and pages without extractable content
// fail with a *PermanentError.
func (p *Processor) ProcessAuditMessage(ctx context.Context, body []byte) error {
	job, err := ParseAuditJob(body)
	if err != nil {
		return err
	}
	logger.Info("[Queue] processing audit", "url", job.URL, "topic", job.Topic, "request_id", job.RequestID)

	res, err := p.service.Run(ctx, job.Request)
	if err != nil {
		// the same page would fail the same way on every retry
		if errors.Is(err, extract.ErrExtractionFailed) || errors.Is(err, audit.ErrInvalidRequest) {
			return &PermanentError{Err: err}
		}
		return err
	}

	done := AuditCompletedMsg{
		RequestID:      job.RequestID,
		AuditID:        res.ID,
		URL:            res.Report.Article.ID,
		Title:          res.Report.Article.Title,
		CitationCount:  len(res.Report.Citations),
		OverallQuality: res.Report.Analysis.QualityScores.OverallQuality,
		RedFlags:       len(res.Report.Analysis.RedFlags),
		GraphHash:      res.Report.GraphHash,
	}

	if p.reports != nil {
		var advice ai.Advice
		if res.Advice != nil {
			advice = *res.Advice
		} else {
			advice.Explanation = ai.SkippedExplanation
		}
		written, err := p.reports.Write(ctx, p.format, res.Report, advice)
		if err != nil {
			logger.Error("[Queue] failed to write reports", "url", done.URL, "err", err)
		} else {
			done.Reports = written.Files
			if p.links != nil {
				links, err := p.links(ctx, written.Files)
				if err != nil {
					logger.Warn("[Queue] failed to create report links", "err", err)
				} else {
					done.Reports = links
				}
			}
		}
	}

	msg, err := json.Marshal(done)
	if err != nil {
		return err
	}
	if err := PublishTopic(p.pub, CompletedTopic, msg); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}
	return nil
}
