package report

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
)

var fixedNow = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func sampleReport() common.AuditReport {
	return common.AuditReport{
		Article: common.Article{ID: "https://grokipedia.com/page/Go", Title: "Go"},
		Citations: []common.Citation{
			{URL: "https://www.bbc.co.uk/news/1", Category: common.CategoryNews, Domain: "bbc.co.uk"},
		},
		Analysis: common.AnalysisResult{
			BiasMetrics:      common.BiasMetrics{SourceConcentration: 1, TopDomain: "bbc.co.uk"},
			DiversityMetrics: common.DiversityMetrics{OverallDiversity: 0.25},
			QualityScores:    common.QualityScores{OverallQuality: 0.4567},
			RedFlags: []common.RedFlag{
				{Type: "insufficient_citations", Severity: common.SeverityHigh, Message: "Only 1 citations found (minimum recommended: 5)"},
			},
			Recommendations: []string{"Add more citations"},
		},
	}
}

func sampleAdvice() ai.Advice {
	return ai.Advice{
		Suggestions: []ai.Suggestion{{URL: "https://www.nasa.gov/x", Title: "NASA", Category: common.CategoryGovernment, Reliability: 0.95, Reason: "primary data"}},
		Rewrites:    []ai.Rewrite{{Original: "biased", Rewritten: "neutral", Explanation: "tone"}},
		Explanation: "The article needs more sources.",
	}
}

func TestNewEditProposal(t *testing.T) {
	p := NewEditProposal(sampleReport(), sampleAdvice(), fixedNow)

	if p.AnalysisSummary.CitationCount != 1 || p.AnalysisSummary.RedFlagsCount != 1 {
		t.Fatalf("unexpected summary %+v", p.AnalysisSummary)
	}
	if p.Metadata.ToolVersion != ToolVersion || p.Metadata.ArticleURL != "https://grokipedia.com/page/Go" {
		t.Fatalf("unexpected metadata %+v", p.Metadata)
	}

	wantInstructions := "Add 1 new citations:\n" +
		"  1. Add citation to: https://www.nasa.gov/x (primary data)\n" +
		"\nApply 1 paragraph rewrites:\n" +
		"  1. Replace paragraph with rewritten version (see 'recommended_rewrites' section)"
	if p.EditInstructions != wantInstructions {
		t.Fatalf("got instructions %q want %q", p.EditInstructions, wantInstructions)
	}

	data, err := p.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"metadata", "analysis_summary", "recommended_citations", "recommended_rewrites", "explanation", "edit_instructions"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
}

func TestNewEditProposalWithoutAdvice(t *testing.T) {
	p := NewEditProposal(sampleReport(), ai.Advice{}, fixedNow)
	data, err := p.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"recommended_citations": []`) {
		t.Fatalf("expected empty citation list, got %s", data)
	}
	if p.EditInstructions != "" {
		t.Fatalf("expected no instructions, got %q", p.EditInstructions)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport(), sampleAdvice(), fixedNow)

	for _, s := range []string{
		"# Citation Graph Audit Report",
		"**Generated:** 2025-03-01 12:30:00",
		"- **Overall Quality:** 45.7%",
		"- **Source Concentration:** 100.0%",
		"- **[HIGH]** Only 1 citations found",
		"1. Add more citations",
		"### 1. NASA",
		"- **Reliability:** 95.0%",
		"### Rewrite 1",
		"> neutral",
		"## Next Steps",
	} {
		if !strings.Contains(md, s) {
			t.Fatalf("expected markdown to contain %q\n%s", s, md)
		}
	}

	if strings.Contains(md, "### Source Clusters") {
		t.Fatalf("expected no cluster section without graph stats")
	}

	plain := Markdown(sampleReport(), ai.Advice{}, fixedNow)
	if strings.Contains(plain, "## Recommended Citations") || strings.Contains(plain, "## Recommended Rewrites") {
		t.Fatalf("expected no advice sections without advice")
	}
}

func TestMarkdownSourceClusters(t *testing.T) {
	rep := sampleReport()
	rep.Stats.SourceClusters = map[string][]string{
		"news:bbc.co.uk":      {"https://bbc.co.uk/1"},
		"academic:nature.com": {"https://nature.com/a", "https://nature.com/b"},
		"academic:arxiv.org":  {"https://arxiv.org/abs/1"},
	}
	md := Markdown(rep, ai.Advice{}, fixedNow)

	want := "### Source Clusters\n\n" +
		"- **academic:nature.com:** 2 sources\n" +
		"- **academic:arxiv.org:** 1 sources\n" +
		"- **news:bbc.co.uk:** 1 sources\n"
	if !strings.Contains(md, want) {
		t.Fatalf("expected ordered cluster section\n%s", md)
	}
}

func TestCitationSummary(t *testing.T) {
	if got := CitationSummary(nil); got != "No citations found" {
		t.Fatalf("got %q", got)
	}

	var cites []common.Citation
	for range 12 {
		cites = append(cites, common.Citation{Category: common.CategoryAcademic, Domain: "arxiv.org"})
	}
	got := CitationSummary(cites)
	if !strings.HasPrefix(got, "Found 12 citations:\n  1. [academic] arxiv.org\n") {
		t.Fatalf("unexpected summary %q", got)
	}
	if strings.Count(got, "[academic]") != 10 || !strings.HasSuffix(got, "  ... and 2 more\n") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: "markdown", want: FormatMarkdown},
		{in: "both", want: FormatBoth},
		{in: "", want: FormatBoth},
		{in: "html", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriterDirSink(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(DirSink{Dir: dir})
	w.now = func() time.Time { return fixedNow }

	written, err := w.Write(context.Background(), FormatBoth, sampleReport(), sampleAdvice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written.RunID == "" || len(written.Files) != 2 {
		t.Fatalf("unexpected result %+v", written)
	}
	for _, name := range []string{ProposalFile, SummaryFile} {
		if _, err := os.Stat(filepath.Join(dir, written.RunID, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}

	written, err = w.Write(context.Background(), FormatMarkdown, sampleReport(), sampleAdvice())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written.Files) != 1 || filepath.Base(written.Files[0]) != SummaryFile {
		t.Fatalf("unexpected files %v", written.Files)
	}
}

type fakePutter struct {
	keys   []string
	bodies []string
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.keys = append(f.keys, *in.Key)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	putter := &fakePutter{}
	sink := S3Sink{Client: putter, Bucket: "reports", Prefix: "audits"}

	loc, err := sink.Write(context.Background(), "run1", ProposalFile, []byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != "audits/run1/edit_proposal.json" || putter.keys[0] != loc {
		t.Fatalf("unexpected key %q", loc)
	}
	if putter.bodies[0] != "{}" {
		t.Fatalf("unexpected body %q", putter.bodies[0])
	}
}
