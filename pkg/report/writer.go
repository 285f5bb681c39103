package report

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Format selects which report files are written.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatBoth     Format = "both"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatMarkdown, FormatBoth:
		return f, nil
	case "":
		return FormatBoth, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json, markdown or both)", s)
	}
}

// Writer renders reports and hands them to a sink.
type Writer struct {
	sink Sink
	now  func() time.Time
}

func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink, now: time.Now}
}

// Written lists where one run's files were stored.
type Written struct {
	RunID string   `json:"run_id"`
	Files []string `json:"files"`
}

// Write renders report in the requested format under a fresh run ID.
func (w *Writer) Write(ctx context.Context, format Format, report common.AuditReport, advice ai.Advice) (Written, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return Written{}, fmt.Errorf("nanoid: %w", err)
	}
	now := w.now()
	out := Written{RunID: runID}

	if format == FormatJSON || format == FormatBoth {
		data, err := NewEditProposal(report, advice, now).JSON()
		if err != nil {
			return out, fmt.Errorf("failed to render edit proposal: %w", err)
		}
		loc, err := w.sink.Write(ctx, runID, ProposalFile, data)
		if err != nil {
			return out, err
		}
		out.Files = append(out.Files, loc)
	}

	if format == FormatMarkdown || format == FormatBoth {
		loc, err := w.sink.Write(ctx, runID, SummaryFile, []byte(Markdown(report, advice, now)))
		if err != nil {
			return out, err
		}
		out.Files = append(out.Files, loc)
	}

	logger.Info("[Report] written", "run", runID, "files", len(out.Files))
	return out, nil
}
