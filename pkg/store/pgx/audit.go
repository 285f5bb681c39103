package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// AuditDBStore implements store.AuditStore on PostgreSQL. Citations, analysis,
// stats and advice are kept as JSONB documents next to a few flat columns
// used for listing.
type AuditDBStore struct {
	conn pgxIConn
}

var _ store.AuditStore = (*AuditDBStore)(nil)

func NewAuditDBStore(pool *pgxpool.Pool) *AuditDBStore {
	return &AuditDBStore{conn: pool}
}

func NewAuditDBStoreWithConnection(conn pgxIConn) *AuditDBStore {
	return &AuditDBStore{conn: conn}
}

func (s *AuditDBStore) SaveAudit(ctx context.Context, record store.AuditRecord) (int64, error) {
	citations, err := json.Marshal(record.Citations)
	if err != nil {
		return 0, fmt.Errorf("marshal citations: %w", err)
	}
	analysis, err := json.Marshal(record.Analysis)
	if err != nil {
		return 0, fmt.Errorf("marshal analysis: %w", err)
	}
	stats, err := json.Marshal(record.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshal stats: %w", err)
	}
	var advice any
	if record.Advice != nil {
		b, err := json.Marshal(record.Advice)
		if err != nil {
			return 0, fmt.Errorf("marshal advice: %w", err)
		}
		advice = util.SanitizePostgresText(string(b))
	}

	var id int64
	err = s.conn.QueryRow(ctx, insertAuditSQL,
		util.SanitizePostgresText(record.ArticleURL),
		util.SanitizePostgresText(record.Title),
		record.WordCount,
		record.CitationCount,
		record.OverallQuality,
		record.GraphHash,
		util.SanitizePostgresText(string(citations)),
		string(analysis),
		string(stats),
		advice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit: %w", err)
	}
	return id, nil
}

func (s *AuditDBStore) GetAudit(ctx context.Context, id int64) (store.AuditRecord, error) {
	rec, err := scanAudit(s.conn.QueryRow(ctx, getAuditSQL, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return store.AuditRecord{}, store.ErrNotFound
		}
		return store.AuditRecord{}, fmt.Errorf("get audit %d: %w", id, err)
	}
	return rec, nil
}

func (s *AuditDBStore) ListAudits(ctx context.Context, articleURL string, limit int) ([]store.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := s.conn.Query(ctx, listAuditsSQL, articleURL, limit)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	records := make([]store.AuditRecord, 0)
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(row scanner) (store.AuditRecord, error) {
	var (
		rec                                store.AuditRecord
		citations, analysis, stats, advice []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.ArticleURL,
		&rec.Title,
		&rec.WordCount,
		&rec.CitationCount,
		&rec.OverallQuality,
		&rec.GraphHash,
		&citations,
		&analysis,
		&stats,
		&advice,
		&rec.CreatedAt,
	)
	if err != nil {
		return store.AuditRecord{}, err
	}
	if err := json.Unmarshal(citations, &rec.Citations); err != nil {
		return store.AuditRecord{}, fmt.Errorf("decode citations: %w", err)
	}
	if err := json.Unmarshal(analysis, &rec.Analysis); err != nil {
		return store.AuditRecord{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := json.Unmarshal(stats, &rec.Stats); err != nil {
		return store.AuditRecord{}, fmt.Errorf("decode stats: %w", err)
	}
	if len(advice) > 0 {
		var a ai.Advice
		if err := json.Unmarshal(advice, &a); err != nil {
			return store.AuditRecord{}, fmt.Errorf("decode advice: %w", err)
		}
		rec.Advice = &a
	}
	return rec, nil
}

const insertAuditSQL = `
INSERT INTO audits (
    article_url, title, word_count, citation_count, overall_quality,
    graph_hash, citations, analysis, stats, advice
)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10::jsonb)
RETURNING id;
`

const auditColumns = `
    id, article_url, title, word_count, citation_count, overall_quality,
    graph_hash, citations, analysis, stats, advice, created_at
`

const getAuditSQL = `SELECT` + auditColumns + `FROM audits WHERE id = $1;`

const listAuditsSQL = `SELECT` + auditColumns + `FROM audits
WHERE ($1 = '' OR article_url = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2;`
