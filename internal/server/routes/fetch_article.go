package routes

import (
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"

	"github.com/labstack/echo/v4"
)

type fetchArticleResponse struct {
	Success       bool              `json:"success"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	URL           string            `json:"url"`
	Citations     []common.Citation `json:"citations"`
	WordCount     int               `json:"word_count"`
	CitationCount int               `json:"citation_count"`
}

// FetchArticleHandler extracts one article without analysing it. The article
// is named by ?url= (must be on the source site) or ?topic=.
func FetchArticleHandler(c echo.Context) error {
	pageURL := strings.TrimSpace(c.QueryParam("url"))
	topic := strings.TrimSpace(c.QueryParam("topic"))
	if pageURL == "" && topic == "" {
		return badRequest(c, "url or topic is required")
	}

	svc := app(c).Service
	auditor := svc.Auditor()
	ctx := c.Request().Context()

	candidates := []string{pageURL}
	if pageURL != "" {
		if !auditor.Classifier().IsSourceSite(pageURL) {
			return badRequest(c, "url must point to "+auditor.Classifier().SourceSite())
		}
	} else {
		candidates = pipeline.TopicCandidates(svc.BaseURL(), topic)
	}

	var lastErr error
	for _, u := range candidates {
		article, citations, err := auditor.Extract(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if citations == nil {
			citations = []common.Citation{}
		}
		return c.JSON(http.StatusOK, fetchArticleResponse{
			Success:       true,
			Title:         article.Title,
			Content:       article.Body,
			URL:           article.ID,
			Citations:     citations,
			WordCount:     article.WordCount,
			CitationCount: len(citations),
		})
	}

	logger.Debug("[API] article not found", "url", pageURL, "topic", topic, "err", lastErr)
	return jsonError(c, http.StatusNotFound, "article not found")
}
