package audit

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/classify"
	"github.com/OFFIS-RIT/citegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/pipeline"
	"github.com/OFFIS-RIT/citegraph/pkg/store"
)

const page = `<html><head><title>Ocean</title></head><body>
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
	return nil, nil
}

type keyLocker struct {
	keys []string
	err  error
	busy string
}

func (l *keyLocker) WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	if key == l.busy {
		return leaselock.ErrBusy
	}
	return fn(ctx)
}

type downClient struct{}

func (downClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("model offline")
}

func (downClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("model offline")
}

func (downClient) ResetMetrics()               {}
func (downClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func newService(t *testing.T, st store.AuditStore, locker Locker, withAI bool) *Service {
	t.Helper()
	c := classify.NewDefault()
	auditor, err := pipeline.NewAuditor(pipeline.NewAuditorParams{
		Loader: mapLoader{
			"https://grokipedia.com/page/Ocean":     page,
			"https://grokipedia.com/article/Trench": page,
		},
		Classifier: c,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var advisor *ai.Advisor
	if withAI {
		advisor, err = ai.NewAdvisor(ai.NewAdvisorParams{Client: downClient{}, Classifier: c, MaxTries: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	s, err := NewService(NewServiceParams{
		Auditor: auditor,
		Advisor: advisor,
		Store:   st,
		Locker:  locker,
		BaseURL: "https://grokipedia.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestRun_ByURL(t *testing.T) {
	st := &memStore{}
	locker := &keyLocker{}
	s := newService(t, st, locker, false)

	res, err := s.Run(context.Background(), Request{URL: "https://grokipedia.com/page/Ocean"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 1 || len(st.records) != 1 {
		t.Fatalf("expected one saved audit, got id=%d records=%d", res.ID, len(st.records))
	}
	if res.Advice != nil {
		t.Fatalf("expected no advice without an advisor")
	}
	if res.Report.GraphHash == "" || st.records[0].GraphHash != res.Report.GraphHash {
		t.Fatalf("expected graph hash to be stored, got %q", st.records[0].GraphHash)
	}
	if len(locker.keys) != 1 || locker.keys[0] != "audit:https://grokipedia.com/page/Ocean" {
		t.Fatalf("unexpected lock keys %v", locker.keys)
	}
}

func TestRun_ByTopic(t *testing.T) {
	locker := &keyLocker{}
	s := newService(t, nil, locker, false)

	res, err := s.Run(context.Background(), Request{Topic: "Ocean"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Report.Article.ID != "https://grokipedia.com/page/Ocean" {
		t.Fatalf("got article %q", res.Report.Article.ID)
	}
	if res.ID != 0 {
		t.Fatalf("expected no id without a store, got %d", res.ID)
	}
}

func TestRun_TopicLeasesResolvedPage(t *testing.T) {
	locker := &keyLocker{}
	s := newService(t, nil, locker, false)

	res, err := s.Run(context.Background(), Request{Topic: "Trench"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Report.Article.ID != "https://grokipedia.com/article/Trench" {
		t.Fatalf("got article %q", res.Report.Article.ID)
	}
	want := []string{"audit:https://grokipedia.com/page/Trench", "audit:https://grokipedia.com/article/Trench"}
	if !reflect.DeepEqual(locker.keys, want) {
		t.Fatalf("got lease keys %v want %v", locker.keys, want)
	}

	// a URL audit of the same page holds the same lease
	held := &keyLocker{busy: "audit:https://grokipedia.com/article/Trench"}
	s = newService(t, nil, held, false)
	if _, err := s.Run(context.Background(), Request{Topic: "Trench"}); !errors.Is(err, leaselock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := s.Run(context.Background(), Request{URL: "https://grokipedia.com/article/Trench"}); !errors.Is(err, leaselock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestRun_AdvisorDown(t *testing.T) {
	s := newService(t, &memStore{}, nil, true)

	res, err := s.Run(context.Background(), Request{URL: "https://grokipedia.com/page/Ocean"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Advice == nil {
		t.Fatal("expected advice to be present")
	}
	if res.Advice.Explanation != ai.UnavailableExplanation || len(res.Advice.Suggestions) != 0 {
		t.Fatalf("expected degraded advice, got %+v", res.Advice)
	}

	skipped, err := s.Run(context.Background(), Request{URL: "https://grokipedia.com/page/Ocean", SkipAI: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped.Advice != nil {
		t.Fatal("expected skipAi to suppress advice")
	}
}

func TestRun_Errors(t *testing.T) {
	s := newService(t, nil, &keyLocker{}, false)

	if _, err := s.Run(context.Background(), Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := s.Run(context.Background(), Request{URL: "https://grokipedia.com/page/Missing"}); !errors.Is(err, loader.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}

	busy := newService(t, nil, &keyLocker{err: leaselock.ErrBusy}, false)
	if _, err := busy.Run(context.Background(), Request{URL: "https://grokipedia.com/page/Ocean"}); !errors.Is(err, leaselock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}
