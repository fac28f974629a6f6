package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ahogan/jobhunter/internal/job"
)

// SQLite backs the Store interface with a single-file database. Uniqueness of
// the identity hash is enforced by the primary key, which is what makes
// overlapping ingest runs safe without in-process locking.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	job_hash      TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	external_id   TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	title         TEXT NOT NULL,
	company       TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	salary_range  TEXT NOT NULL DEFAULT '',
	posted_at     TEXT NOT NULL,
	captured_at   TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	company_size  TEXT NOT NULL DEFAULT '',
	role_category TEXT NOT NULL DEFAULT '',
	freshness     TEXT NOT NULL DEFAULT 'hot',
	processed     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS scored_postings (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	job_hash             TEXT NOT NULL UNIQUE REFERENCES postings(job_hash),
	fit_score            INTEGER NOT NULL,
	ghost_job_likelihood INTEGER NOT NULL,
	role_category        TEXT NOT NULL,
	priority_tier        TEXT NOT NULL,
	ai_reasoning         TEXT NOT NULL DEFAULT '',
	key_requirements     TEXT NOT NULL DEFAULT '[]',
	cover_letter_draft   TEXT NOT NULL DEFAULT '',
	approved             INTEGER NOT NULL DEFAULT 0,
	notified             INTEGER NOT NULL DEFAULT 0,
	scored_at            TEXT NOT NULL
);
`

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) InsertIfAbsent(ctx context.Context, p *job.Posting) (bool, error) {
	if p.Hash == "" {
		p.ComputeHash()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO postings
			(job_hash, source, external_id, url, title, company, location,
			 salary_range, posted_at, captured_at, description, company_size,
			 role_category, freshness, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		p.Hash, string(p.Source), p.ExternalID, p.URL, p.Title, p.Company,
		p.Location, p.SalaryRange, encodeTime(p.PostedAt), encodeTime(p.CapturedAt),
		p.Description, p.CompanySize, string(p.RoleCategory), string(p.Freshness),
	)
	if err != nil {
		return false, fmt.Errorf("inserting posting %s: %w", p.Hash, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result for %s: %w", p.Hash, err)
	}
	return n > 0, nil
}

const postingColumns = `job_hash, source, external_id, url, title, company, location,
	salary_range, posted_at, captured_at, description, company_size,
	role_category, freshness, processed`

func (s *SQLite) ListPostings(ctx context.Context) ([]*job.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM postings ORDER BY captured_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (s *SQLite) UpdateFreshness(ctx context.Context, hash string, tier job.FreshnessTier) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE postings SET freshness = ? WHERE job_hash = ?`, string(tier), hash)
	if err != nil {
		return fmt.Errorf("updating freshness for %s: %w", hash, err)
	}
	return nil
}

func (s *SQLite) ListUnprocessed(ctx context.Context, limit int) ([]*job.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE processed = 0 ORDER BY captured_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (s *SQLite) MarkProcessed(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE postings SET processed = 1 WHERE job_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("marking posting %s processed: %w", hash, err)
	}
	return nil
}

func (s *SQLite) InsertScored(ctx context.Context, sp *job.ScoredPosting) error {
	reqs, err := json.Marshal(sp.KeyRequirements)
	if err != nil {
		return fmt.Errorf("encoding key requirements: %w", err)
	}

	if sp.ScoredAt.IsZero() {
		sp.ScoredAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO scored_postings
			(job_hash, fit_score, ghost_job_likelihood, role_category,
			 priority_tier, ai_reasoning, key_requirements, cover_letter_draft,
			 approved, notified, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		sp.JobHash, sp.FitScore, sp.GhostJobLikelihood, string(sp.RoleCategory),
		string(sp.PriorityTier), sp.AIReasoning, string(reqs),
		sp.CoverLetterDraft, encodeTime(sp.ScoredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting scored posting for %s: %w", sp.JobHash, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result for %s: %w", sp.JobHash, err)
	}
	if n == 0 {
		// A verdict already exists: a prior run stored it but died before
		// flipping processed. First write wins, same as posting dedup.
		row := s.db.QueryRowContext(ctx,
			`SELECT id FROM scored_postings WHERE job_hash = ?`, sp.JobHash)
		if err := row.Scan(&sp.ID); err != nil {
			return fmt.Errorf("looking up existing verdict for %s: %w", sp.JobHash, err)
		}
		return nil
	}

	sp.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading scored posting id: %w", err)
	}
	return nil
}

const scoredJoin = `
	SELECT sp.id, sp.job_hash, sp.fit_score, sp.ghost_job_likelihood,
	       sp.role_category, sp.priority_tier, sp.ai_reasoning,
	       sp.key_requirements, sp.cover_letter_draft, sp.approved,
	       sp.notified, sp.scored_at,
	       p.source, p.external_id, p.url, p.title, p.company, p.location,
	       p.salary_range, p.posted_at, p.captured_at, p.description,
	       p.company_size, p.role_category, p.freshness, p.processed
	FROM scored_postings sp
	JOIN postings p ON p.job_hash = sp.job_hash`

func (s *SQLite) ListUnnotified(ctx context.Context, minScore int) ([]*job.ScoredPosting, error) {
	rows, err := s.db.QueryContext(ctx, scoredJoin+`
		WHERE sp.notified = 0 AND sp.fit_score >= ?
		ORDER BY sp.fit_score DESC`, minScore)
	if err != nil {
		return nil, fmt.Errorf("listing unnotified postings: %w", err)
	}
	defer rows.Close()
	return scanScored(rows)
}

func (s *SQLite) MarkNotified(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scored_postings SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking scored posting %d notified: %w", id, err)
	}
	return nil
}

func (s *SQLite) ListSince(ctx context.Context, since time.Time) ([]*job.ScoredPosting, error) {
	rows, err := s.db.QueryContext(ctx, scoredJoin+`
		WHERE p.captured_at > ?
		ORDER BY sp.fit_score DESC`, encodeTime(since))
	if err != nil {
		return nil, fmt.Errorf("listing scored postings since %s: %w", since, err)
	}
	defer rows.Close()
	return scanScored(rows)
}

func (s *SQLite) ListPendingReview(ctx context.Context, minScore int) ([]*job.ScoredPosting, error) {
	rows, err := s.db.QueryContext(ctx, scoredJoin+`
		WHERE sp.approved = 0 AND sp.fit_score >= ?
		ORDER BY sp.fit_score DESC`, minScore)
	if err != nil {
		return nil, fmt.Errorf("listing postings pending review: %w", err)
	}
	defer rows.Close()
	return scanScored(rows)
}

func (s *SQLite) ListApprovedWithoutDraft(ctx context.Context) ([]*job.ScoredPosting, error) {
	rows, err := s.db.QueryContext(ctx, scoredJoin+`
		WHERE sp.approved = 1 AND sp.cover_letter_draft = ''
		ORDER BY sp.fit_score DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing approved postings: %w", err)
	}
	defer rows.Close()
	return scanScored(rows)
}

func (s *SQLite) MarkApproved(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scored_postings SET approved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking scored posting %d approved: %w", id, err)
	}
	return nil
}

func (s *SQLite) SetCoverLetter(ctx context.Context, id int64, draft string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scored_postings SET cover_letter_draft = ? WHERE id = ?`, draft, id)
	if err != nil {
		return fmt.Errorf("storing cover letter for %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanPostings(rows *sql.Rows) ([]*job.Posting, error) {
	var postings []*job.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func scanPosting(rows *sql.Rows) (*job.Posting, error) {
	var (
		p                    job.Posting
		source, category     string
		freshness            string
		postedAt, capturedAt string
		processed            int
	)
	if err := rows.Scan(&p.Hash, &source, &p.ExternalID, &p.URL, &p.Title,
		&p.Company, &p.Location, &p.SalaryRange, &postedAt, &capturedAt,
		&p.Description, &p.CompanySize, &category, &freshness, &processed,
	); err != nil {
		return nil, fmt.Errorf("scanning posting: %w", err)
	}

	p.Source = job.Source(source)
	p.RoleCategory = job.RoleCategory(category)
	p.Freshness = job.FreshnessTier(freshness)
	p.Processed = processed != 0
	p.PostedAt = decodeTime(postedAt)
	p.CapturedAt = decodeTime(capturedAt)
	return &p, nil
}

func scanScored(rows *sql.Rows) ([]*job.ScoredPosting, error) {
	var scored []*job.ScoredPosting
	for rows.Next() {
		var (
			sp                    job.ScoredPosting
			p                     job.Posting
			spCategory, tier      string
			reqs, scoredAt        string
			approved, notified    int
			pSource, pCategory    string
			pFreshness            string
			postedAt, capturedAt  string
			processed             int
		)
		if err := rows.Scan(&sp.ID, &sp.JobHash, &sp.FitScore,
			&sp.GhostJobLikelihood, &spCategory, &tier, &sp.AIReasoning,
			&reqs, &sp.CoverLetterDraft, &approved, &notified, &scoredAt,
			&pSource, &p.ExternalID, &p.URL, &p.Title, &p.Company,
			&p.Location, &p.SalaryRange, &postedAt, &capturedAt,
			&p.Description, &p.CompanySize, &pCategory, &pFreshness,
			&processed,
		); err != nil {
			return nil, fmt.Errorf("scanning scored posting: %w", err)
		}

		sp.RoleCategory = job.RoleCategory(spCategory)
		sp.PriorityTier = job.PriorityTier(tier)
		sp.Approved = approved != 0
		sp.Notified = notified != 0
		sp.ScoredAt = decodeTime(scoredAt)
		if err := json.Unmarshal([]byte(reqs), &sp.KeyRequirements); err != nil {
			return nil, fmt.Errorf("decoding key requirements for %d: %w", sp.ID, err)
		}

		p.Hash = sp.JobHash
		p.Source = job.Source(pSource)
		p.RoleCategory = job.RoleCategory(pCategory)
		p.Freshness = job.FreshnessTier(pFreshness)
		p.Processed = processed != 0
		p.PostedAt = decodeTime(postedAt)
		p.CapturedAt = decodeTime(capturedAt)
		sp.Posting = &p

		scored = append(scored, &sp)
	}
	return scored, rows.Err()
}

// Times are stored as UTC RFC3339 with second precision so that string
// comparison in SQL matches chronological order.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
