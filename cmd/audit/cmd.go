package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/citegraph/internal/setup"
	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	ioloader "github.com/OFFIS-RIT/citegraph/pkg/loader/io"
	"github.com/OFFIS-RIT/citegraph/pkg/loader/web"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"
	"github.com/OFFIS-RIT/citegraph/pkg/report"

	"github.com/spf13/cobra"
)

type auditOptions struct {
	url       string
	topic     string
	file      string
	outputDir string
	format    string
	skipAI    bool
	config    string
}

func newRootCmd() *cobra.Command {
	opts := &auditOptions{}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit the citations of an encyclopedia article",
		Long: `audit extracts an article's citations, classifies every source, builds
the citation graph and scores bias, diversity and reliability. Results are
written as an edit proposal (JSON) and a summary report (Markdown).`,
		Example: `  audit --topic "Climate change"
  audit --url https://grokipedia.com/page/Climate_change --format markdown
  audit --file saved.html --url https://grokipedia.com/page/Climate_change --skip-ai`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "article URL")
	f.StringVar(&opts.topic, "topic", "", "article topic, resolved against SOURCE_BASE_URL")
	f.StringVar(&opts.file, "file", "", "audit a saved page instead of fetching it")
	f.StringVar(&opts.outputDir, "output-dir", util.GetEnvString("REPORT_DIR", "reports"), "directory for report files")
	f.StringVar(&opts.format, "format", string(report.FormatBoth), "report format: json, markdown or both")
	f.BoolVar(&opts.skipAI, "skip-ai", false, "skip AI citation suggestions and rewrites")
	f.StringVar(&opts.config, "config", "", "classifier config (YAML), defaults to CLASSIFIER_CONFIG")
	cmd.MarkFlagsMutuallyExclusive("url", "topic")
	cmd.MarkFlagsOneRequired("url", "topic", "file")

	return cmd
}

func runAudit(ctx context.Context, opts *auditOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	classifier, err := setup.NewClassifier(opts.config)
	if err != nil {
		return err
	}
	baseURL := setup.SourceBaseURL(classifier)

	rep, err := auditArticle(ctx, opts, classifier, baseURL)
	if err != nil {
		return err
	}

	advice := ai.Advice{Explanation: ai.SkippedExplanation}
	if !opts.skipAI {
		advice = advise(ctx, classifier, rep)
	}

	written, err := report.NewWriter(report.DirSink{Dir: opts.outputDir}).Write(ctx, format, rep, advice)
	if err != nil {
		return err
	}

	printSummary(out, rep, advice, written)
	return nil
}

func auditArticle(ctx context.Context, opts *auditOptions, c *classify.Classifier, baseURL string) (common.AuditReport, error) {
	if opts.file != "" {
		auditor, err := setup.NewAuditorWith(c, ioloader.NewIOPageLoader())
		if err != nil {
			return common.AuditReport{}, err
		}
		raw, err := ioloader.NewIOPageLoader().Load(ctx, loader.NewPageFile(opts.file))
		if err != nil {
			return common.AuditReport{}, err
		}
		return auditor.AuditRaw(ctx, raw, fileArticleURL(opts, baseURL))
	}

	auditor, err := setup.NewAuditorWith(c, web.NewWebPageLoader(web.NewWebPageLoaderParams{
		UserAgent: util.GetEnv("FETCH_USER_AGENT"),
	}))
	if err != nil {
		return common.AuditReport{}, err
	}
	if opts.url != "" {
		return auditor.Audit(ctx, opts.url)
	}
	return auditor.AuditTopic(ctx, baseURL, opts.topic)
}

// fileArticleURL is the URL a saved page is reported under: --url, the
// topic page, or the page named after the file.
func fileArticleURL(opts *auditOptions, baseURL string) string {
	switch {
	case opts.url != "":
		return opts.url
	case opts.topic != "":
		return pipeline.TopicURL(baseURL, opts.topic)
	}
	name := strings.TrimSuffix(filepath.Base(opts.file), filepath.Ext(opts.file))
	return pipeline.TopicURL(baseURL, name)
}

func advise(ctx context.Context, c *classify.Classifier, rep common.AuditReport) ai.Advice {
	client, err := setup.NewAIClient()
	if err != nil {
		if errors.Is(err, setup.ErrAIDisabled) {
			logger.Warn("AI suggestions skipped", "reason", err)
		} else {
			logger.Error("Could not create AI client", "err", err)
		}
		return ai.Advice{Explanation: ai.UnavailableExplanation}
	}
	advisor, err := setup.NewAdvisor(client, c)
	if err != nil {
		logger.Error("Could not create AI advisor", "err", err)
		return ai.Advice{Explanation: ai.UnavailableExplanation}
	}

	advice := advisor.Advise(ctx, rep)
	m := client.GetMetrics()
	logger.Info("AI Metrics", "input_tokens", m.InputTokens, "output_tokens", m.OutputTokens, "duration_ms", m.DurationMs)
	return advice
}

func printSummary(out io.Writer, rep common.AuditReport, advice ai.Advice, written report.Written) {
	q := rep.Analysis.QualityScores
	fmt.Fprintf(out, "Article:          %s\n", rep.Article.Title)
	fmt.Fprintf(out, "URL:              %s\n", rep.Article.ID)
	fmt.Fprintf(out, "Citations:        %d\n", len(rep.Citations))
	fmt.Fprintf(out, "Overall quality:  %.1f%%\n", q.OverallQuality*100)
	fmt.Fprintf(out, "Red flags:        %d\n", len(rep.Analysis.RedFlags))
	fmt.Fprintln(out)
	fmt.Fprint(out, report.CitationSummary(rep.Citations))
	fmt.Fprintln(out)
	if len(advice.Suggestions) > 0 {
		fmt.Fprintf(out, "AI suggestions:   %d\n", len(advice.Suggestions))
	}
	for _, f := range written.Files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}
}
