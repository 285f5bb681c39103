// Package setup builds the audit components shared by the binaries from
// environment variables.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/storage"
	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	oai "github.com/OFFIS-RIT/citegraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/citegraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/citegraph/pkg/citation"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	s3loader "github.com/OFFIS-RIT/citegraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/citegraph/pkg/loader/web"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"
)

var ErrAIDisabled = errors.New("AI_CHAT_MODEL is not set")

// NewClassifier loads the classifier tables from path, or from
// CLASSIFIER_CONFIG when path is empty. SOURCE_SITE overrides the file.
func NewClassifier(path string) (*classify.Classifier, error) {
	if path == "" {
		path = util.GetEnv("CLASSIFIER_CONFIG")
	}
	cfg, err := classify.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if site := util.GetEnv("SOURCE_SITE"); site != "" {
		cfg.SourceSite = strings.ToLower(site)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	return classify.New(cfg), nil
}

// SourceBaseURL is SOURCE_BASE_URL or https://<source site>.
func SourceBaseURL(c *classify.Classifier) string {
	return util.GetEnvString("SOURCE_BASE_URL", "https://"+c.SourceSite())
}

// NewPageLoader returns the loader selected by PAGE_LOADER: "web" (default)
// fetches live pages, "s3" reads stored snapshots from AWS_BUCKET.
func NewPageLoader(ctx context.Context) (loader.PageLoader, error) {
	switch kind := util.GetEnvString("PAGE_LOADER", "web"); kind {
	case "web":
		return web.NewWebPageLoader(web.NewWebPageLoaderParams{
			UserAgent: util.GetEnv("FETCH_USER_AGENT"),
			CacheTTL:  time.Duration(util.GetEnvInt("FETCH_CACHE_SECONDS", 0)) * time.Second,
		}), nil
	case "s3":
		cfg := storage.LoadConfig()
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s3loader.NewS3PageLoaderWithClient(cfg.Bucket, client), nil
	default:
		return nil, fmt.Errorf("unknown PAGE_LOADER %q", kind)
	}
}

// NewAuditorWith builds an auditor on top of an existing classifier and
// loader, honouring PARALLEL_ARTICLES and PARALLEL_CLASSIFY.
func NewAuditorWith(c *classify.Classifier, l loader.PageLoader) (*pipeline.Auditor, error) {
	return pipeline.NewAuditor(pipeline.NewAuditorParams{
		Loader:           l,
		Classifier:       c,
		Citations:        citation.New(c, citation.WithParallelism(util.GetEnvInt("PARALLEL_CLASSIFY", 0))),
		ParallelArticles: util.GetEnvInt("PARALLEL_ARTICLES", 4),
	})
}

func NewAuditor(ctx context.Context) (*pipeline.Auditor, error) {
	c, err := NewClassifier("")
	if err != nil {
		return nil, err
	}
	l, err := NewPageLoader(ctx)
	if err != nil {
		return nil, err
	}
	return NewAuditorWith(c, l)
}

// NewAIClient creates the chat client chosen by AI_ADAPTER ("openai", the
// default, or "ollama"). It returns ErrAIDisabled when no model is set.
func NewAIClient() (ai.Client, error) {
	model := util.GetEnv("AI_CHAT_MODEL")
	if model == "" {
		return nil, ErrAIDisabled
	}

	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		return oai.NewOllamaClient(oai.NewOllamaClientParams{
			Model:                 model,
			BaseURL:               util.GetEnv("AI_CHAT_URL"),
			ApiKey:                util.GetEnv("AI_CHAT_KEY"),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	case "openai":
		return gai.NewOpenAIClient(gai.NewOpenAIClientParams{
			Model:   model,
			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

func NewAdvisor(client ai.Client, c *classify.Classifier) (*ai.Advisor, error) {
	advisor, err := ai.NewAdvisor(ai.NewAdvisorParams{
		Client:             client,
		Classifier:         c,
		RewriteTokenBudget: util.GetEnvInt("AI_REWRITE_TOKENS", ai.DefaultRewriteTokenBudget),
		MaxTries:           util.GetEnvInt("AI_MAX_TRIES", 3),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("[Setup] AI advisor enabled", "adapter", util.GetEnvString("AI_ADAPTER", "openai"))
	return advisor, nil
}
