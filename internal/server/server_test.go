package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/internal/queue"
	mid "github.com/OFFIS-RIT/citegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"
	"github.com/OFFIS-RIT/citegraph/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"
)

const oceanPage = `<html><head><title>Ocean</title></head><body>
<h1>Ocean</h1>
<article>
<p>The ocean covers most of the planet, see https://www.noaa.gov/ocean for data.</p>
<p><a href="https://www.nature.com/articles/ocean">Nature</a></p>
</article>
</body></html>`

type mapLoader map[string]string

func (m mapLoader) Load(ctx context.Context, file loader.PageFile) ([]byte, error) {
	p, ok := m[file.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", loader.ErrFetchFailed, file.Path)
	}
	return []byte(p), nil
}

type memStore struct {
	mu      sync.Mutex
	records []store.AuditRecord
}

func (m *memStore) SaveAudit(ctx context.Context, r store.AuditRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.records) + 1)
	r.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.records = append(m.records, r)
	return r.ID, nil
}

func (m *memStore) GetAudit(ctx context.Context, id int64) (store.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.records) {
		return store.AuditRecord{}, store.ErrNotFound
	}
	return m.records[id-1], nil
}

func (m *memStore) ListAudits(ctx context.Context, url string, limit int) ([]store.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.AuditRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if url == "" || m.records[i].ArticleURL == url {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

type fakePublisher struct {
	keys   []string
	bodies [][]byte
}

func (f *fakePublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
}

func newApp(t *testing.T) *mid.App {
	t.Helper()
	auditor, err := pipeline.NewAuditor(pipeline.NewAuditorParams{
		Loader:     mapLoader{"https://grokipedia.com/page/Ocean": oceanPage},
		Classifier: classify.NewDefault(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := &memStore{}
	svc, err := audit.NewService(audit.NewServiceParams{Auditor: auditor, Store: st, BaseURL: "https://grokipedia.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &mid.App{Service: svc, Store: st}
}

func do(t *testing.T, app *mid.App, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	New(app).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newApp(t), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestFetchArticle(t *testing.T) {
	app := newApp(t)
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "by url", target: "/api/fetch-article?url=https://grokipedia.com/page/Ocean", want: http.StatusOK},
		{name: "by topic", target: "/api/fetch-article?topic=Ocean", want: http.StatusOK},
		{name: "missing params", target: "/api/fetch-article", want: http.StatusBadRequest},
		{name: "foreign site", target: "/api/fetch-article?url=https://example.com/page/Ocean", want: http.StatusBadRequest},
		{name: "unknown topic", target: "/api/fetch-article?topic=Nothing_Here", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, app, http.MethodGet, tt.target, "", "")
			if rec.Code != tt.want {
				t.Fatalf("got status %d want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := do(t, app, http.MethodGet, "/api/fetch-article?topic=Ocean", "", "")
	var body struct {
		Success       bool   `json:"success"`
		Title         string `json:"title"`
		URL           string `json:"url"`
		CitationCount int    `json:"citation_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !body.Success || body.Title != "Ocean" || body.URL != "https://grokipedia.com/page/Ocean" || body.CitationCount != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuditLifecycle(t *testing.T) {
	app := newApp(t)

	rec := do(t, app, http.MethodPost, "/api/audits", `{"url":"https://grokipedia.com/page/Ocean","skipAi":true}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	var created audit.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.ID != 1 || len(created.Report.Citations) != 2 {
		t.Fatalf("unexpected result %+v", created)
	}

	rec = do(t, app, http.MethodGet, "/api/audits/1", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"graphHash"`) {
		t.Fatalf("get: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, app, http.MethodGet, "/api/audits?url=https://grokipedia.com/page/Ocean", "", "")
	var list []store.AuditRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list: got %d records (%v): %s", len(list), err, rec.Body.String())
	}

	rec = do(t, app, http.MethodGet, "/api/audits/1/report?format=markdown", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ocean") {
		t.Fatalf("markdown: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, app, http.MethodGet, "/api/audits/1/report", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"metadata"`) {
		t.Fatalf("proposal: got %d: %s", rec.Code, rec.Body.String())
	}

	for target, want := range map[string]int{
		"/api/audits/9":                 http.StatusNotFound,
		"/api/audits/abc":               http.StatusBadRequest,
		"/api/audits/1/report?format=x": http.StatusBadRequest,
	} {
		if rec := do(t, app, http.MethodGet, target, "", ""); rec.Code != want {
			t.Fatalf("%s: got %d want %d", target, rec.Code, want)
		}
	}
}

func TestCreateAudit_Errors(t *testing.T) {
	app := newApp(t)
	tests := []struct {
		body string
		want int
	}{
		{body: `{}`, want: http.StatusBadRequest},
		{body: `{"url":"not a url"}`, want: http.StatusBadRequest},
		{body: `{"url":"https://example.com/page/Ocean"}`, want: http.StatusBadRequest},
		{body: `{"url":"https://grokipedia.com/page/Missing"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := do(t, app, http.MethodPost, "/api/audits", tt.body, ""); rec.Code != tt.want {
			t.Fatalf("%s: got %d want %d: %s", tt.body, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestQueueAudit(t *testing.T) {
	app := newApp(t)
	if rec := do(t, app, http.MethodPost, "/api/audits/queue", `{"url":"https://grokipedia.com/page/Ocean"}`, ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a queue, got %d", rec.Code)
	}

	pub := &fakePublisher{}
	app.Queue = pub
	rec := do(t, app, http.MethodPost, "/api/audits/queue", `{"url":"https://grokipedia.com/page/Ocean"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if len(pub.keys) != 1 || pub.keys[0] != queue.AuditQueue {
		t.Fatalf("unexpected publishes %v", pub.keys)
	}
	job, err := queue.ParseAuditJob(pub.bodies[0])
	if err != nil || job.URL != "https://grokipedia.com/page/Ocean" || job.RequestID == "" {
		t.Fatalf("unexpected job %+v (%v)", job, err)
	}
}

func TestAuth(t *testing.T) {
	secret := []byte("test-secret")
	app := newApp(t)
	app.MasterAPIKey = "master"
	app.Keyfunc = func(token *jwt.Token) (any, error) { return secret, nil }

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "role": "editor"}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "editor"}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "garbage", token: "abc", want: http.StatusUnauthorized},
		{name: "master key", token: "master", want: http.StatusOK},
		{name: "jwt", token: signed, want: http.StatusOK},
		{name: "jwt without subject", token: noSubject, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, app, http.MethodGet, "/api/audits", "", tt.token)
			if rec.Code != tt.want {
				t.Fatalf("got %d want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := do(t, app, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}
}
