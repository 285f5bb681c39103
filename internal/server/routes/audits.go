package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/internal/queue"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/common"
	"github.com/OFFIS-RIT/citegraph/pkg/extract"
	"github.com/OFFIS-RIT/citegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/report"
	"github.com/OFFIS-RIT/citegraph/pkg/store"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type auditRequest struct {
	URL    string `json:"url" validate:"omitempty,url"`
	Topic  string `json:"topic" validate:"omitempty,max=200"`
	SkipAI bool   `json:"skipAi"`
}

func (r auditRequest) toRequest() audit.Request {
	return audit.Request{URL: strings.TrimSpace(r.URL), Topic: strings.TrimSpace(r.Topic), SkipAI: r.SkipAI}
}

// CreateAuditHandler audits an article synchronously and returns the full
// report. The audit is persisted when a store is configured.
func CreateAuditHandler(c echo.Context) error {
	data := new(auditRequest)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, err.Error())
	}
	req := data.toRequest()
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	svc := app(c).Service
	if req.URL != "" && !svc.Auditor().Classifier().IsSourceSite(req.URL) {
		return badRequest(c, "url must point to "+svc.Auditor().Classifier().SourceSite())
	}

	res, err := svc.Run(c.Request().Context(), req)
	if err != nil {
		return auditError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func auditError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loader.ErrFetchFailed), errors.Is(err, extract.ErrExtractionFailed):
		return jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, leaselock.ErrBusy):
		return jsonError(c, http.StatusConflict, "article is already being audited")
	case errors.Is(err, audit.ErrInvalidRequest):
		return badRequest(c, err.Error())
	}
	logger.Error("[API] audit failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "audit failed")
}

func storeUnavailable(c echo.Context) error {
	return jsonError(c, http.StatusServiceUnavailable, "audit storage is not configured")
}

func auditID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func GetAuditHandler(c echo.Context) error {
	st := app(c).Store
	if st == nil {
		return storeUnavailable(c)
	}
	id, ok := auditID(c)
	if !ok {
		return badRequest(c, "invalid audit id")
	}

	rec, err := st.GetAudit(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "audit not found")
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func ListAuditsHandler(c echo.Context) error {
	st := app(c).Store
	if st == nil {
		return storeUnavailable(c)
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return badRequest(c, "invalid limit")
		}
	}

	recs, err := st.ListAudits(c.Request().Context(), strings.TrimSpace(c.QueryParam("url")), limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recs)
}

// GetAuditReportHandler renders a stored audit as the edit proposal JSON
// (?format=json, default) or as the Markdown summary (?format=markdown).
func GetAuditReportHandler(c echo.Context) error {
	st := app(c).Store
	if st == nil {
		return storeUnavailable(c)
	}
	id, ok := auditID(c)
	if !ok {
		return badRequest(c, "invalid audit id")
	}
	format := report.Format(c.QueryParam("format"))
	if format == "" {
		format = report.FormatJSON
	}
	if format != report.FormatJSON && format != report.FormatMarkdown {
		return badRequest(c, "format must be json or markdown")
	}

	rec, err := st.GetAudit(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "audit not found")
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	rep := common.AuditReport{
		Article:   common.Article{ID: rec.ArticleURL, Title: rec.Title, WordCount: rec.WordCount},
		Citations: rec.Citations,
		Stats:     rec.Stats,
		Analysis:  rec.Analysis,
		GraphHash: rec.GraphHash,
	}
	advice := ai.Advice{Explanation: ai.SkippedExplanation}
	if rec.Advice != nil {
		advice = *rec.Advice
	}

	if format == report.FormatMarkdown {
		return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(rep, advice, rec.CreatedAt)))
	}
	data, err := report.NewEditProposal(rep, advice, rec.CreatedAt).JSON()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, data)
}

type queueRequest struct {
	URL    string `json:"url" validate:"required,url"`
	SkipAI bool   `json:"skipAi"`
}

// QueueAuditHandler hands an audit to the worker and answers 202 with the
// request ID that the completion message will carry.
func QueueAuditHandler(c echo.Context) error {
	pub := app(c).Queue
	if pub == nil {
		return jsonError(c, http.StatusServiceUnavailable, "queue is not configured")
	}

	data := new(queueRequest)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, err.Error())
	}
	classifier := app(c).Service.Auditor().Classifier()
	if !classifier.IsSourceSite(data.URL) {
		return badRequest(c, "url must point to "+classifier.SourceSite())
	}

	requestID, err := gonanoid.New()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	msg, err := json.Marshal(queue.AuditJobMsg{
		Request:   audit.Request{URL: strings.TrimSpace(data.URL), SkipAI: data.SkipAI},
		RequestID: requestID,
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if err := queue.PublishFIFO(pub, queue.AuditQueue, msg); err != nil {
		logger.Error("[API] failed to enqueue audit", "err", err)
		return jsonError(c, http.StatusServiceUnavailable, "failed to enqueue audit")
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"status":    "queued",
		"requestId": requestID,
		"url":       data.URL,
	})
}
