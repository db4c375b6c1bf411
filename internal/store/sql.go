package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/naka-gawa/talentrank/internal/config"
	"github.com/naka-gawa/talentrank/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analyses (
		subject TEXT PRIMARY KEY,
		score DOUBLE PRECISION NOT NULL,
		nation TEXT NOT NULL,
		nation_confidence DOUBLE PRECISION NOT NULL,
		computed_at BIGINT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS analyses_rank_idx ON analyses (score DESC, computed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analysis_domains (
		subject TEXT NOT NULL,
		label TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (subject, label)
	)`,
}

// SQL stores records in a relational database (sqlite3 or postgres). The full
// record is kept as a JSON payload; the columns beside it exist for filtering
// and ordering.
type SQL struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ Store = (*SQL)(nil)

// OpenSQL connects to the database and creates the schema when missing.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == config.DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY under concurrent commits
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	s := NewSQL(db, driver)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database. The placeholder format follows driver.
func NewSQL(db *sql.DB, driver string) *SQL {
	var format sq.PlaceholderFormat = sq.Question
	if driver == config.DriverPostgres {
		format = sq.Dollar
	}
	return &SQL{db: db, sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("migrate", err)
		}
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, subject domain.Subject) (domain.AnalysisRecord, bool, error) {
	query, args, err := s.sb.Select("payload").From("analyses").Where(sq.Eq{"subject": subject.Key()}).ToSql()
	if err != nil {
		return domain.AnalysisRecord{}, false, fmt.Errorf("build select: %w", err)
	}
	var payload string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisRecord{}, false, nil
	}
	if err != nil {
		return domain.AnalysisRecord{}, false, unavailable("select analysis", err)
	}
	r, err := decodeRecord(payload)
	if err != nil {
		return domain.AnalysisRecord{}, false, err
	}
	return r, true, nil
}

// Put upserts the record and replaces its domain rows in one transaction.
func (s *SQL) Put(ctx context.Context, record domain.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	key := record.Subject.Key()

	upsert, upsertArgs, err := s.sb.Insert("analyses").
		Columns("subject", "score", "nation", "nation_confidence", "computed_at", "payload").
		Values(key, record.TalentRank.Score, record.Nation.CountryCode, record.Nation.Confidence, record.ComputedAt.UnixNano(), string(payload)).
		Suffix(`ON CONFLICT (subject) DO UPDATE SET
			score = excluded.score,
			nation = excluded.nation,
			nation_confidence = excluded.nation_confidence,
			computed_at = excluded.computed_at,
			payload = excluded.payload`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	del, delArgs, err := s.sb.Delete("analysis_domains").Where(sq.Eq{"subject": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsert, upsertArgs...); err != nil {
		return unavailable("upsert analysis", err)
	}
	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return unavailable("delete domains", err)
	}
	if labels := record.Domains.Labels(); len(labels) > 0 {
		insert := s.sb.Insert("analysis_domains").Columns("subject", "label", "weight")
		for _, label := range labels {
			insert = insert.Values(key, label, record.Domains[label])
		}
		stmt, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build domain insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return unavailable("insert domains", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (s *SQL) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	where := s.filters(q)

	countQuery, countArgs, err := s.sb.Select("COUNT(*)").From("analyses a").Where(where).ToSql()
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return domain.SearchResult{}, unavailable("count analyses", err)
	}

	sel := s.sb.Select("a.payload").From("analyses a").Where(where).
		OrderBy("a.score DESC", "a.computed_at DESC", "a.subject ASC")
	switch {
	case q.Limit > 0:
		sel = sel.Limit(uint64(q.Limit)).Offset(uint64(max(q.Offset, 0)))
	case q.Offset > 0:
		// sqlite rejects OFFSET without LIMIT
		sel = sel.Limit(math.MaxInt64).Offset(uint64(q.Offset))
	}
	records, err := s.queryRecords(ctx, sel)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return domain.SearchResult{Total: total, Records: records}, nil
}

// filters mirrors domain.Query.Matches in SQL.
func (s *SQL) filters(q domain.Query) sq.And {
	where := sq.And{}
	if q.MinRank != nil {
		where = append(where, sq.GtOrEq{"a.score": *q.MinRank})
	}
	if q.Nation != "" {
		where = append(where,
			sq.Eq{"UPPER(a.nation)": strings.ToUpper(q.Nation)},
			sq.NotEq{"a.nation": domain.UnknownCountryCode},
			sq.Gt{"a.nation_confidence": 0},
			sq.GtOrEq{"a.nation_confidence": q.NationThreshold},
		)
	}
	if q.Domain != "" {
		where = append(where, sq.Expr(
			"EXISTS (SELECT 1 FROM analysis_domains d WHERE d.subject = a.subject AND LOWER(d.label) = ? AND d.weight > 0)",
			strings.ToLower(q.Domain)))
	}
	return where
}

func (s *SQL) Stats(ctx context.Context, nationThreshold float64) (domain.Stats, error) {
	b := domain.NewStatsBuilder(nationThreshold)
	records, err := s.queryRecords(ctx, s.sb.Select("a.payload").From("analyses a"))
	if err != nil {
		return domain.Stats{}, err
	}
	for _, r := range records {
		b.Add(r)
	}
	return b.Build(), nil
}

func (s *SQL) queryRecords(ctx context.Context, sel sq.SelectBuilder) ([]domain.AnalysisRecord, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query analyses", err)
	}
	defer rows.Close()

	records := make([]domain.AnalysisRecord, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, unavailable("scan analysis", err)
		}
		r, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows iteration", err)
	}
	return records, nil
}

func (s *SQL) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *SQL) Close() error { return s.db.Close() }

func decodeRecord(payload string) (domain.AnalysisRecord, error) {
	var r domain.AnalysisRecord
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("%w: decode analysis: %v", domain.ErrCacheUnavailable, err)
	}
	return r, nil
}
