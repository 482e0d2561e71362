package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/solresol/haruspex/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS papers (
    bibcode TEXT PRIMARY KEY,
    title TEXT,
    authors TEXT,  -- JSON array
    year INTEGER,
    publication TEXT,
    abstract TEXT,
    doi TEXT,
    url TEXT,
    citation_count INTEGER,
    reference_count INTEGER,
    keywords TEXT,  -- JSON array
    fetched_at TIMESTAMP
);

-- REFUTING is stronger than CONTRASTING: the citing paper provides evidence
-- that definitively rules out the cited paper's hypothesis.
-- A NULL classification is a pending stub awaiting a budgeted run.
CREATE TABLE IF NOT EXISTS citations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    citing_bibcode TEXT NOT NULL,
    cited_bibcode TEXT NOT NULL,
    classification TEXT CHECK(classification IS NULL OR classification IN
        ('SUPPORTING', 'CONTRASTING', 'REFUTING', 'CONTEXTUAL', 'METHODOLOGICAL', 'NEUTRAL')),
    confidence REAL CHECK(confidence >= 0 AND confidence <= 1),
    weight REAL DEFAULT 1.0,
    context_text TEXT,
    reasoning TEXT,
    analyzed_at TIMESTAMP,
    analyzed_by TEXT,
    CHECK(citing_bibcode <> cited_bibcode),
    UNIQUE(citing_bibcode, cited_bibcode)
);

CREATE TABLE IF NOT EXISTS research_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    started_at TIMESTAMP,
    completed_at TIMESTAMP,
    summary TEXT,
    consensus_score REAL CHECK(consensus_score >= -1 AND consensus_score <= 1)
);

CREATE TABLE IF NOT EXISTS session_papers (
    session_id INTEGER,
    bibcode TEXT,
    depth INTEGER DEFAULT 0,
    is_seed BOOLEAN DEFAULT FALSE,
    PRIMARY KEY (session_id, bibcode)
);

CREATE TABLE IF NOT EXISTS hypotheses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    status TEXT CHECK(status IN ('ACTIVE', 'SUPPORTED', 'RULED_OUT')) DEFAULT 'ACTIVE',
    origin_bibcode TEXT,
    ruling_bibcode TEXT,
    reason TEXT,
    created_at TIMESTAMP,
    updated_at TIMESTAMP,
    UNIQUE(name, origin_bibcode)
);

CREATE TABLE IF NOT EXISTS hypothesis_links (
    hypothesis_id INTEGER,
    bibcode TEXT,
    stance TEXT CHECK(stance IN ('SUPPORTS', 'REFUTES')),
    weight REAL DEFAULT 1.0,
    PRIMARY KEY (hypothesis_id, bibcode)
);

CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_bibcode);
CREATE INDEX IF NOT EXISTS idx_citations_cited ON citations(cited_bibcode);
CREATE INDEX IF NOT EXISTS idx_citations_classification ON citations(classification);
CREATE INDEX IF NOT EXISTS idx_hypotheses_status ON hypotheses(status);
CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year);
`

// SQLiteStore is the default embedded backend. Each statement runs in its
// own implicit transaction, which gives the per-record atomicity the store
// contract requires without any global lock.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func jsonText(v []string) any {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

func fromJSONText(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

func (s *SQLiteStore) PutPaper(ctx context.Context, p *model.Paper) error {
	if p.Bibcode == "" {
		return fmt.Errorf("%w: paper requires a bibcode", model.ErrValidation)
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO papers
		(bibcode, title, authors, year, publication, abstract, doi, url,
		 citation_count, reference_count, keywords, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bibcode) DO UPDATE SET
		 title = excluded.title,
		 authors = excluded.authors,
		 year = excluded.year,
		 publication = excluded.publication,
		 abstract = excluded.abstract,
		 doi = excluded.doi,
		 url = excluded.url,
		 citation_count = excluded.citation_count,
		 reference_count = excluded.reference_count,
		 keywords = excluded.keywords,
		 fetched_at = excluded.fetched_at`,
		p.Bibcode, p.Title, jsonText(p.Authors), p.Year, p.Publication,
		p.Abstract, p.DOI, p.URL, p.CitationCount, p.ReferenceCount,
		jsonText(p.Keywords), p.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert paper %s: %w", p.Bibcode, err)
	}
	return nil
}

func (s *SQLiteStore) GetPaper(ctx context.Context, bibcode string) (*model.Paper, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bibcode, title, authors, year, publication, abstract, doi, url,
		       citation_count, reference_count, keywords, fetched_at
		FROM papers WHERE bibcode = ?`, bibcode)
	return scanPaper(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*model.Paper, error) {
	var p model.Paper
	var title, authors, publication, abstract, doi, url, keywords sql.NullString
	var year, citationCount, referenceCount sql.NullInt64
	var fetchedAt sql.NullTime

	err := row.Scan(&p.Bibcode, &title, &authors, &year, &publication,
		&abstract, &doi, &url, &citationCount, &referenceCount, &keywords, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("paper: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan paper: %w", err)
	}

	p.Title = title.String
	p.Authors = fromJSONText(authors)
	p.Year = int(year.Int64)
	p.Publication = publication.String
	p.Abstract = abstract.String
	p.DOI = doi.String
	p.URL = url.String
	p.CitationCount = int(citationCount.Int64)
	p.ReferenceCount = int(referenceCount.Int64)
	p.Keywords = fromJSONText(keywords)
	p.FetchedAt = fetchedAt.Time
	return &p, nil
}

func (s *SQLiteStore) ListPapers(ctx context.Context, year, limit int) ([]model.Paper, error) {
	query := `
		SELECT bibcode, title, authors, year, publication, abstract, doi, url,
		       citation_count, reference_count, keywords, fetched_at
		FROM papers`
	var args []any
	if year > 0 {
		query += " WHERE year = ?"
		args = append(args, year)
	}
	query += " ORDER BY citation_count DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

func (s *SQLiteStore) CountPapers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM papers").Scan(&n)
	return n, err
}

func (s *SQLiteStore) PutEdge(ctx context.Context, c *model.Citation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AnalyzedAt.IsZero() {
		c.AnalyzedAt = time.Now().UTC()
	}
	if c.Weight == 0 {
		c.Weight = 1.0
	}

	if c.IsPending() {
		// Stubs never clobber settled classifications.
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO citations
			(citing_bibcode, cited_bibcode, classification, confidence, weight,
			 context_text, reasoning, analyzed_at, analyzed_by)
			VALUES (?, ?, NULL, 0, ?, ?, '', ?, ?)
			ON CONFLICT(citing_bibcode, cited_bibcode) DO NOTHING`,
			c.Citing, c.Cited, c.Weight, c.ContextText, c.AnalyzedAt, c.AnalyzedBy)
		if err != nil {
			return fmt.Errorf("failed to insert pending edge %s -> %s: %w", c.Citing, c.Cited, err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citations
		(citing_bibcode, cited_bibcode, classification, confidence, weight,
		 context_text, reasoning, analyzed_at, analyzed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(citing_bibcode, cited_bibcode) DO UPDATE SET
		 classification = excluded.classification,
		 confidence = excluded.confidence,
		 weight = excluded.weight,
		 context_text = excluded.context_text,
		 reasoning = excluded.reasoning,
		 analyzed_at = excluded.analyzed_at,
		 analyzed_by = excluded.analyzed_by`,
		c.Citing, c.Cited, string(c.Classification), c.Confidence, c.Weight,
		c.ContextText, c.Reasoning, c.AnalyzedAt, c.AnalyzedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert edge %s -> %s: %w", c.Citing, c.Cited, err)
	}
	return nil
}

func (s *SQLiteStore) GetEdge(ctx context.Context, citing, cited string) (*model.Citation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT citing_bibcode, cited_bibcode, classification, confidence, weight,
		       context_text, reasoning, analyzed_at, analyzed_by
		FROM citations WHERE citing_bibcode = ? AND cited_bibcode = ?`, citing, cited)
	return scanEdge(row)
}

func scanEdge(row rowScanner) (*model.Citation, error) {
	var c model.Citation
	var classification, contextText, reasoning, analyzedBy sql.NullString
	var confidence, weight sql.NullFloat64
	var analyzedAt sql.NullTime

	err := row.Scan(&c.Citing, &c.Cited, &classification, &confidence, &weight,
		&contextText, &reasoning, &analyzedAt, &analyzedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("citation: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan citation: %w", err)
	}

	c.Classification = model.Classification(classification.String)
	c.Confidence = confidence.Float64
	c.Weight = weight.Float64
	c.ContextText = contextText.String
	c.Reasoning = reasoning.String
	c.AnalyzedAt = analyzedAt.Time
	c.AnalyzedBy = analyzedBy.String
	return &c, nil
}

func (s *SQLiteStore) ListEdges(ctx context.Context, f model.EdgeFilter) ([]model.Citation, error) {
	query := `
		SELECT citing_bibcode, cited_bibcode, classification, confidence, weight,
		       context_text, reasoning, analyzed_at, analyzed_by
		FROM citations WHERE 1=1`
	var args []any

	if f.Either != "" {
		query += " AND (citing_bibcode = ? OR cited_bibcode = ?)"
		args = append(args, f.Either, f.Either)
	}
	if f.Citing != "" {
		query += " AND citing_bibcode = ?"
		args = append(args, f.Citing)
	}
	if f.Cited != "" {
		query += " AND cited_bibcode = ?"
		args = append(args, f.Cited)
	}
	if f.Classification != model.Pending {
		query += " AND classification = ?"
		args = append(args, string(f.Classification))
	} else if !f.IncludePending {
		query += " AND classification IS NOT NULL"
	}

	query += " ORDER BY id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list citations: %w", err)
	}
	defer rows.Close()

	var edges []model.Citation
	for rows.Next() {
		c, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *c)
	}
	return edges, rows.Err()
}

func (s *SQLiteStore) CountEdges(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM citations").Scan(&n)
	return n, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, question string) (int64, error) {
	if question == "" {
		return 0, fmt.Errorf("%w: session requires a question", model.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO research_sessions (question, started_at) VALUES (?, ?)",
		question, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.question, s.started_at, s.completed_at, s.summary, s.consensus_score,
		       (SELECT COUNT(*) FROM session_papers WHERE session_id = s.id)
		FROM research_sessions s WHERE s.id = ?`, id)
	return scanSession(row)
}

func scanSession(row rowScanner) (*model.Session, error) {
	var sess model.Session
	var startedAt, completedAt sql.NullTime
	var summary sql.NullString
	var score sql.NullFloat64

	err := row.Scan(&sess.ID, &sess.Question, &startedAt, &completedAt,
		&summary, &score, &sess.PaperCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	sess.StartedAt = startedAt.Time
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	sess.Summary = summary.String
	if score.Valid {
		v := score.Float64
		sess.ConsensusScore = &v
	}
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.question, s.started_at, s.completed_at, s.summary, s.consensus_score,
		       (SELECT COUNT(*) FROM session_papers WHERE session_id = s.id)
		FROM research_sessions s
		ORDER BY s.started_at DESC, s.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id int64, summary string, score *float64) error {
	if score != nil && (*score < -1 || *score > 1) {
		return fmt.Errorf("%w: consensus score %.3f outside [-1,1]", model.ErrValidation, *score)
	}

	// The completed_at guard makes the transition single-shot even under
	// concurrent callers.
	res, err := s.db.ExecContext(ctx, `
		UPDATE research_sessions
		SET completed_at = ?, summary = ?, consensus_score = ?
		WHERE id = ? AND completed_at IS NULL`,
		time.Now().UTC(), summary, score, id)
	if err != nil {
		return fmt.Errorf("failed to complete session %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %d: %w", id, model.ErrAlreadyComplete)
	}
	return nil
}

func (s *SQLiteStore) MarkVisited(ctx context.Context, sessionID int64, bibcode string, depth int, isSeed bool) (bool, error) {
	if depth < 0 {
		return false, fmt.Errorf("%w: negative depth %d", model.ErrValidation, depth)
	}

	// The conditional upsert keeps the stored depth at the minimum ever
	// seen; RowsAffected tells us whether this call improved the record.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO session_papers (session_id, bibcode, depth, is_seed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, bibcode) DO UPDATE SET
		 depth = excluded.depth,
		 is_seed = session_papers.is_seed OR excluded.is_seed
		WHERE excluded.depth < session_papers.depth`,
		sessionID, bibcode, depth, isSeed)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s visited in session %d: %w", bibcode, sessionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) IsVisited(ctx context.Context, sessionID int64, bibcode string) (int, bool, error) {
	var depth int
	err := s.db.QueryRowContext(ctx,
		"SELECT depth FROM session_papers WHERE session_id = ? AND bibcode = ?",
		sessionID, bibcode).Scan(&depth)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query visited set: %w", err)
	}
	return depth, true, nil
}

func (s *SQLiteStore) ListVisited(ctx context.Context, sessionID int64) ([]model.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, bibcode, depth, is_seed
		FROM session_papers WHERE session_id = ? ORDER BY depth ASC, bibcode ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visited papers: %w", err)
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		var v model.Visit
		if err := rows.Scan(&v.SessionID, &v.Bibcode, &v.Depth, &v.IsSeed); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (s *SQLiteStore) PutHypothesis(ctx context.Context, h *model.Hypothesis) (int64, error) {
	if h.Name == "" {
		return 0, fmt.Errorf("%w: hypothesis requires a name", model.ErrValidation)
	}
	if h.Status == "" {
		h.Status = model.HypothesisActive
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hypotheses
		(name, description, status, origin_bibcode, ruling_bibcode, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, origin_bibcode) DO NOTHING`,
		h.Name, h.Description, string(h.Status), h.OriginBibcode,
		h.RulingBibcode, h.Reason, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record hypothesis %q: %w", h.Name, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM hypotheses WHERE name = ? AND origin_bibcode = ?",
		h.Name, h.OriginBibcode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve hypothesis id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetHypothesis(ctx context.Context, id int64) (*model.Hypothesis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, origin_bibcode, ruling_bibcode,
		       reason, created_at, updated_at
		FROM hypotheses WHERE id = ?`, id)
	return scanHypothesis(row)
}

func scanHypothesis(row rowScanner) (*model.Hypothesis, error) {
	var h model.Hypothesis
	var description, origin, ruling, reason sql.NullString
	var createdAt, updatedAt sql.NullTime
	var status string

	err := row.Scan(&h.ID, &h.Name, &description, &status, &origin,
		&ruling, &reason, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hypothesis: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan hypothesis: %w", err)
	}

	h.Description = description.String
	h.Status = model.HypothesisStatus(status)
	h.OriginBibcode = origin.String
	h.RulingBibcode = ruling.String
	h.Reason = reason.String
	h.CreatedAt = createdAt.Time
	h.UpdatedAt = updatedAt.Time
	return &h, nil
}

func (s *SQLiteStore) ListHypotheses(ctx context.Context, status model.HypothesisStatus) ([]model.Hypothesis, error) {
	query := `
		SELECT id, name, description, status, origin_bibcode, ruling_bibcode,
		       reason, created_at, updated_at
		FROM hypotheses`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hypotheses: %w", err)
	}
	defer rows.Close()

	var hypotheses []model.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, err
		}
		hypotheses = append(hypotheses, *h)
	}
	return hypotheses, rows.Err()
}

func (s *SQLiteStore) UpdateHypothesisStatus(ctx context.Context, id int64, status model.HypothesisStatus, rulingBibcode, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE hypotheses
		SET status = ?, ruling_bibcode = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		string(status), rulingBibcode, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update hypothesis %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("hypothesis %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) LinkHypothesis(ctx context.Context, link model.HypothesisLink) error {
	if _, err := model.ParseStance(string(link.Stance)); err != nil {
		return err
	}
	if link.Weight == 0 {
		link.Weight = 1.0
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hypothesis_links (hypothesis_id, bibcode, stance, weight)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hypothesis_id, bibcode) DO UPDATE SET
		 stance = excluded.stance,
		 weight = excluded.weight`,
		link.HypothesisID, link.Bibcode, string(link.Stance), link.Weight)
	if err != nil {
		return fmt.Errorf("failed to link %s to hypothesis %d: %w", link.Bibcode, link.HypothesisID, err)
	}
	return nil
}

func (s *SQLiteStore) ListHypothesisLinks(ctx context.Context, hypothesisID int64) ([]model.HypothesisLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hypothesis_id, bibcode, stance, weight
		FROM hypothesis_links WHERE hypothesis_id = ? ORDER BY bibcode ASC`, hypothesisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hypothesis links: %w", err)
	}
	defer rows.Close()

	var links []model.HypothesisLink
	for rows.Next() {
		var l model.HypothesisLink
		var stance string
		if err := rows.Scan(&l.HypothesisID, &l.Bibcode, &stance, &l.Weight); err != nil {
			return nil, err
		}
		l.Stance = model.Stance(stance)
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByClassification: make(map[model.Classification]int),
		ByStatus:         make(map[model.HypothesisStatus]int),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM papers", &stats.Papers},
		{"SELECT COUNT(*) FROM citations", &stats.Citations},
		{"SELECT COUNT(*) FROM research_sessions", &stats.Sessions},
		{"SELECT COUNT(*) FROM hypotheses", &stats.Hypotheses},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to gather stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT classification, COUNT(*) FROM citations
		WHERE classification IS NOT NULL GROUP BY classification`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		stats.ByClassification[model.Classification(label)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM hypotheses GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var n int
		if err := statusRows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[model.HypothesisStatus(status)] = n
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	topRows, err := s.db.QueryContext(ctx, `
		SELECT bibcode, title, year, citation_count
		FROM papers ORDER BY citation_count DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer topRows.Close()
	for topRows.Next() {
		var p model.PaperSummary
		var title sql.NullString
		var year sql.NullInt64
		if err := topRows.Scan(&p.Bibcode, &title, &year, &p.CitationCount); err != nil {
			return nil, err
		}
		p.Title = title.String
		p.Year = int(year.Int64)
		stats.TopCited = append(stats.TopCited, p)
	}
	return stats, topRows.Err()
}

func (s *SQLiteStore) Export(ctx context.Context, sessionID int64) (*Export, error) {
	out := &Export{ExportedAt: time.Now().UTC()}

	if sessionID > 0 {
		sess, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		out.Session = sess

		visits, err := s.ListVisited(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(visits))
		for _, v := range visits {
			seen[v.Bibcode] = true
			p, err := s.GetPaper(ctx, v.Bibcode)
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out.Papers = append(out.Papers, *p)
		}

		edges, err := s.ListEdges(ctx, model.EdgeFilter{IncludePending: true})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if seen[e.Citing] || seen[e.Cited] {
				out.Citations = append(out.Citations, e)
			}
		}
		return out, nil
	}

	papers, err := s.ListPapers(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	out.Papers = papers

	edges, err := s.ListEdges(ctx, model.EdgeFilter{IncludePending: true})
	if err != nil {
		return nil, err
	}
	out.Citations = edges
	return out, nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	tables := []string{
		"citations", "session_papers", "research_sessions",
		"hypothesis_links", "hypotheses", "papers",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to reset table %s: %w", t, err)
		}
	}
	return nil
}
