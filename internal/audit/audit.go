// Package audit runs one complete audit request: locate the article, audit
// it, optionally ask the AI advisor and persist the result.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/extract"
	"github.com/OFFIS-RIT/citegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"
	"github.com/OFFIS-RIT/citegraph/pkg/store"
)

var ErrInvalidRequest = errors.New("either url or topic is required")

// Request names the article by URL or by topic. URL wins when both are set.
type Request struct {
	URL    string `json:"url,omitempty"`
	Topic  string `json:"topic,omitempty"`
	SkipAI bool   `json:"skipAi,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Topic) == "" {
		return ErrInvalidRequest
	}
	return nil
}

type Result struct {
	ID     int64              `json:"id"`
	Report common.AuditReport `json:"report"`
	Advice *ai.Advice         `json:"advice,omitempty"`
}

// Locker serialises audits of the same article.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

type Service struct {
	auditor  *pipeline.Auditor
	advisor  *ai.Advisor
	store    store.AuditStore
	locker   Locker
	baseURL  string
	leaseTTL time.Duration
}

// NewServiceParams wires a Service. Advisor, Store and Locker are optional;
// without them advice is skipped, results are not persisted and concurrent
// audits of one article are allowed.
type NewServiceParams struct {
	Auditor  *pipeline.Auditor
	Advisor  *ai.Advisor
	Store    store.AuditStore
	Locker   Locker
	BaseURL  string
	LeaseTTL time.Duration
}

func NewService(params NewServiceParams) (*Service, error) {
	if params.Auditor == nil {
		return nil, fmt.Errorf("auditor is required")
	}
	return &Service{
		auditor:  params.Auditor,
		advisor:  params.Advisor,
		store:    params.Store,
		locker:   params.Locker,
		baseURL:  params.BaseURL,
		leaseTTL: params.LeaseTTL,
	}, nil
}

func (s *Service) Auditor() *pipeline.Auditor {
	return s.auditor
}

// BaseURL is the source site root topics are resolved against.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// Run audits the requested article. Topic requests try every candidate page
// in turn, each under the lease of the URL actually audited. The result ID is
// zero when no store is configured.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if u := strings.TrimSpace(req.URL); u != "" {
		return s.runURL(ctx, u, req.SkipAI)
	}

	var lastErr error
	for _, u := range pipeline.TopicCandidates(s.baseURL, req.Topic) {
		res, err := s.runURL(ctx, u, req.SkipAI)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if !errors.Is(err, loader.ErrFetchFailed) && !errors.Is(err, extract.ErrExtractionFailed) {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("no article found for topic %q: %w", req.Topic, lastErr)
}

func (s *Service) runURL(ctx context.Context, pageURL string, skipAI bool) (Result, error) {
	if s.locker == nil {
		return s.run(ctx, pageURL, skipAI)
	}

	var res Result
	key := leaselock.ArticleKey(pageURL)
	err := s.locker.WithLease(ctx, key, leaselock.Options{TTL: s.leaseTTL}, func(ctx context.Context) error {
		var err error
		res, err = s.run(ctx, pageURL, skipAI)
		return err
	})
	return res, err
}

func (s *Service) run(ctx context.Context, pageURL string, skipAI bool) (Result, error) {
	report, err := s.auditor.Audit(ctx, pageURL)
	if err != nil {
		return Result{}, err
	}

	res := Result{Report: report}
	if s.advisor != nil && !skipAI {
		advice := s.advisor.Advise(ctx, report)
		res.Advice = &advice
	}

	if s.store != nil {
		id, err := s.store.SaveAudit(ctx, store.RecordFromReport(report, res.Advice))
		if err != nil {
			return Result{}, fmt.Errorf("failed to save audit: %w", err)
		}
		res.ID = id
	}

	logger.Info("[Audit] finished",
		"url", report.Article.ID,
		"id", res.ID,
		"quality", report.Analysis.QualityScores.OverallQuality,
		"advice", res.Advice != nil,
	)
	return res, nil
}
