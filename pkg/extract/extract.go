// Package extract turns raw page payloads into an article title and body.
//
// Extraction runs an ordered list of strategies. Each strategy either
// produces a result or skips; the first result with a non-empty body wins.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/logger"
)

// UntitledArticle is used when no title can be found.
const UntitledArticle = "Untitled Article"

// ErrExtractionFailed is returned when no strategy yields body text.
var ErrExtractionFailed = errors.New("no extraction strategy produced body text")

// Result is the outcome of a successful extraction.
type Result struct {
	Title    string
	Body     string
	Strategy string
}

// Strategy extracts title and body from a raw payload. ok is false when the
// strategy does not apply to the payload.
type Strategy interface {
	Name() string
	Extract(raw []byte, pageURL string) (res Result, ok bool)
}

// Extractor runs strategies in priority order.
type Extractor struct {
	strategies []Strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// New creates an extractor. By default it tries the selector strategy,
// then the embedded payload strategy for sourceSite, then readability.
func New(sourceSite string, opts ...Option) *Extractor {
	e := &Extractor{
		strategies: []Strategy{
			NewSelectorStrategy(),
			NewPayloadStrategy(sourceSite),
			NewReadabilityStrategy(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the first non-empty strategy result, or ErrExtractionFailed.
func (e *Extractor) Extract(raw []byte, pageURL string) (Result, error) {
	for _, s := range e.strategies {
		res, ok := s.Extract(raw, pageURL)
		if !ok || strings.TrimSpace(res.Body) == "" {
			logger.Debug("[Extract] strategy skipped", "strategy", s.Name(), "url", pageURL)
			continue
		}
		if res.Title == "" {
			res.Title = UntitledArticle
		}
		res.Strategy = s.Name()
		logger.Debug("[Extract] strategy succeeded", "strategy", s.Name(), "url", pageURL)
		return res, nil
	}

	return Result{}, fmt.Errorf("%w: %s", ErrExtractionFailed, pageURL)
}
