package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/solresol/haruspex/internal/model"
)

// MemgraphStore keeps the knowledge base as a property graph: Paper nodes,
// CITES relationships carrying the classification, Session nodes with
// VISITED relationships, Hypothesis nodes with STANCE relationships. It is
// selected with backend = "memgraph" and mirrors the SQLite backend's
// contract; edge listing order follows analysis timestamps rather than
// rowids, which satisfies the stable-order requirement for a single writer.
type MemgraphStore struct {
	driver neo4j.DriverWithContext
}

func OpenMemgraph(ctx context.Context, uri, username, password string) (*MemgraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	s := &MemgraphStore{driver: driver}
	s.buildIndices(ctx)
	log.Println("Connected to Memgraph")
	return s, nil
}

func (s *MemgraphStore) buildIndices(ctx context.Context) {
	queries := []string{
		"CREATE INDEX ON :Paper(bibcode);",
		"CREATE INDEX ON :Session(id);",
		"CREATE INDEX ON :Hypothesis(id);",
	}
	for _, q := range queries {
		if _, err := s.run(ctx, q, nil); err != nil {
			// Index may already exist.
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}
}

func (s *MemgraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *MemgraphStore) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return result, nil
}

func (s *MemgraphStore) nextID(ctx context.Context, name string) (int64, error) {
	res, err := s.run(ctx, nextIDQuery, map[string]any{"name": name})
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, fmt.Errorf("sequence %s returned no value", name)
	}
	v, _ := res.Records[0].Get("value")
	return asInt64(v), nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func asStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, asString(item))
	}
	return out
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func (s *MemgraphStore) PutPaper(ctx context.Context, p *model.Paper) error {
	if p.Bibcode == "" {
		return fmt.Errorf("%w: paper requires a bibcode", model.ErrValidation)
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now().UTC()
	}

	_, err := s.run(ctx, savePaperQuery, map[string]any{
		"bibcode":         p.Bibcode,
		"title":           p.Title,
		"authors":         p.Authors,
		"year":            p.Year,
		"publication":     p.Publication,
		"abstract":        p.Abstract,
		"doi":             p.DOI,
		"url":             p.URL,
		"citation_count":  p.CitationCount,
		"reference_count": p.ReferenceCount,
		"keywords":        p.Keywords,
		"fetched_at":      p.FetchedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert paper %s: %w", p.Bibcode, err)
	}
	return nil
}

func paperFromRecord(rec *neo4j.Record) model.Paper {
	get := func(key string) any {
		v, _ := rec.Get(key)
		return v
	}
	return model.Paper{
		Bibcode:        asString(get("bibcode")),
		Title:          asString(get("title")),
		Authors:        asStrings(get("authors")),
		Year:           int(asInt64(get("year"))),
		Publication:    asString(get("publication")),
		Abstract:       asString(get("abstract")),
		DOI:            asString(get("doi")),
		URL:            asString(get("url")),
		CitationCount:  int(asInt64(get("citation_count"))),
		ReferenceCount: int(asInt64(get("reference_count"))),
		Keywords:       asStrings(get("keywords")),
		FetchedAt:      asTime(get("fetched_at")),
	}
}

func (s *MemgraphStore) GetPaper(ctx context.Context, bibcode string) (*model.Paper, error) {
	res, err := s.run(ctx, getPaperQuery, map[string]any{"bibcode": bibcode})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("paper: %w", model.ErrNotFound)
	}
	p := paperFromRecord(res.Records[0])
	return &p, nil
}

func (s *MemgraphStore) ListPapers(ctx context.Context, year, limit int) ([]model.Paper, error) {
	query := "MATCH (p:Paper)"
	params := map[string]any{}
	if year > 0 {
		query += " WHERE p.year = $year"
		params["year"] = year
	}
	query += `
		RETURN p.bibcode AS bibcode, p.title AS title, p.authors AS authors,
		       p.year AS year, p.publication AS publication, p.abstract AS abstract,
		       p.doi AS doi, p.url AS url, p.citation_count AS citation_count,
		       p.reference_count AS reference_count, p.keywords AS keywords,
		       p.fetched_at AS fetched_at
		ORDER BY p.citation_count DESC`
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}

	res, err := s.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	papers := make([]model.Paper, 0, len(res.Records))
	for _, rec := range res.Records {
		papers = append(papers, paperFromRecord(rec))
	}
	return papers, nil
}

func (s *MemgraphStore) CountPapers(ctx context.Context) (int, error) {
	return s.count(ctx, "MATCH (p:Paper) RETURN count(p) AS n")
}

func (s *MemgraphStore) count(ctx context.Context, query string) (int, error) {
	res, err := s.run(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	v, _ := res.Records[0].Get("n")
	return int(asInt64(v)), nil
}

func (s *MemgraphStore) PutEdge(ctx context.Context, c *model.Citation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AnalyzedAt.IsZero() {
		c.AnalyzedAt = time.Now().UTC()
	}
	if c.Weight == 0 {
		c.Weight = 1.0
	}

	params := map[string]any{
		"citing":       c.Citing,
		"cited":        c.Cited,
		"weight":       c.Weight,
		"context_text": c.ContextText,
		"analyzed_at":  c.AnalyzedAt.Format(time.RFC3339Nano),
		"analyzed_by":  c.AnalyzedBy,
	}

	query := savePendingEdgeQuery
	if !c.IsPending() {
		query = saveEdgeQuery
		params["classification"] = string(c.Classification)
		params["confidence"] = c.Confidence
		params["reasoning"] = c.Reasoning
	}

	if _, err := s.run(ctx, query, params); err != nil {
		return fmt.Errorf("failed to upsert edge %s -> %s: %w", c.Citing, c.Cited, err)
	}
	return nil
}

func edgeFromRecord(rec *neo4j.Record) model.Citation {
	get := func(key string) any {
		v, _ := rec.Get(key)
		return v
	}
	return model.Citation{
		Citing:         asString(get("citing")),
		Cited:          asString(get("cited")),
		Classification: model.Classification(asString(get("classification"))),
		Confidence:     asFloat(get("confidence")),
		Weight:         asFloat(get("weight")),
		ContextText:    asString(get("context_text")),
		Reasoning:      asString(get("reasoning")),
		AnalyzedAt:     asTime(get("analyzed_at")),
		AnalyzedBy:     asString(get("analyzed_by")),
	}
}

func (s *MemgraphStore) GetEdge(ctx context.Context, citing, cited string) (*model.Citation, error) {
	res, err := s.run(ctx, getEdgeQuery, map[string]any{"citing": citing, "cited": cited})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("citation: %w", model.ErrNotFound)
	}
	c := edgeFromRecord(res.Records[0])
	return &c, nil
}

func (s *MemgraphStore) ListEdges(ctx context.Context, f model.EdgeFilter) ([]model.Citation, error) {
	query := `MATCH (a:Paper)-[e:CITES]->(b:Paper) WHERE 1 = 1`
	params := map[string]any{}

	if f.Either != "" {
		query += " AND (a.bibcode = $either OR b.bibcode = $either)"
		params["either"] = f.Either
	}
	if f.Citing != "" {
		query += " AND a.bibcode = $citing"
		params["citing"] = f.Citing
	}
	if f.Cited != "" {
		query += " AND b.bibcode = $cited"
		params["cited"] = f.Cited
	}
	if f.Classification != model.Pending {
		query += " AND e.classification = $classification"
		params["classification"] = string(f.Classification)
	} else if !f.IncludePending {
		query += " AND e.classification <> ''"
	}

	query += `
		RETURN a.bibcode AS citing, b.bibcode AS cited, e.classification AS classification,
		       e.confidence AS confidence, e.weight AS weight,
		       e.context_text AS context_text, e.reasoning AS reasoning,
		       e.analyzed_at AS analyzed_at, e.analyzed_by AS analyzed_by
		ORDER BY e.analyzed_at ASC, a.bibcode ASC, b.bibcode ASC`
	if f.Limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = f.Limit
	}

	res, err := s.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	edges := make([]model.Citation, 0, len(res.Records))
	for _, rec := range res.Records {
		edges = append(edges, edgeFromRecord(rec))
	}
	return edges, nil
}

func (s *MemgraphStore) CountEdges(ctx context.Context) (int, error) {
	return s.count(ctx, "MATCH ()-[e:CITES]->() RETURN count(e) AS n")
}

func (s *MemgraphStore) CreateSession(ctx context.Context, question string) (int64, error) {
	if question == "" {
		return 0, fmt.Errorf("%w: session requires a question", model.ErrValidation)
	}
	id, err := s.nextID(ctx, "session")
	if err != nil {
		return 0, err
	}
	_, err = s.run(ctx, createSessionQuery, map[string]any{
		"id":         id,
		"question":   question,
		"started_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

func sessionFromRecord(rec *neo4j.Record) model.Session {
	get := func(key string) any {
		v, _ := rec.Get(key)
		return v
	}
	sess := model.Session{
		ID:         asInt64(get("id")),
		Question:   asString(get("question")),
		StartedAt:  asTime(get("started_at")),
		Summary:    asString(get("summary")),
		PaperCount: int(asInt64(get("paper_count"))),
	}
	if v, _ := rec.Get("completed_at"); v != nil {
		t := asTime(v)
		sess.CompletedAt = &t
	}
	if v, _ := rec.Get("consensus_score"); v != nil {
		score := asFloat(v)
		sess.ConsensusScore = &score
	}
	return sess
}

func (s *MemgraphStore) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	res, err := s.run(ctx, getSessionQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("session: %w", model.ErrNotFound)
	}
	sess := sessionFromRecord(res.Records[0])
	return &sess, nil
}

func (s *MemgraphStore) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	res, err := s.run(ctx, `
		MATCH (s:Session)
		OPTIONAL MATCH (s)-[v:VISITED]->(:Paper)
		WITH s, count(v) AS paper_count
		RETURN s.id AS id, s.question AS question, s.started_at AS started_at,
		       s.completed_at AS completed_at, s.summary AS summary,
		       s.consensus_score AS consensus_score, paper_count
		ORDER BY s.started_at DESC, s.id DESC LIMIT $limit`,
		map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	sessions := make([]model.Session, 0, len(res.Records))
	for _, rec := range res.Records {
		sessions = append(sessions, sessionFromRecord(rec))
	}
	return sessions, nil
}

func (s *MemgraphStore) CompleteSession(ctx context.Context, id int64, summary string, score *float64) error {
	if score != nil && (*score < -1 || *score > 1) {
		return fmt.Errorf("%w: consensus score %.3f outside [-1,1]", model.ErrValidation, *score)
	}

	var scoreParam any
	if score != nil {
		scoreParam = *score
	}
	res, err := s.run(ctx, completeSessionQuery, map[string]any{
		"id":           id,
		"completed_at": time.Now().UTC().Format(time.RFC3339Nano),
		"summary":      summary,
		"score":        scoreParam,
	})
	if err != nil {
		return fmt.Errorf("failed to complete session %d: %w", id, err)
	}
	if len(res.Records) == 0 {
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %d: %w", id, model.ErrAlreadyComplete)
	}
	return nil
}

func (s *MemgraphStore) MarkVisited(ctx context.Context, sessionID int64, bibcode string, depth int, isSeed bool) (bool, error) {
	if depth < 0 {
		return false, fmt.Errorf("%w: negative depth %d", model.ErrValidation, depth)
	}
	res, err := s.run(ctx, markVisitedQuery, map[string]any{
		"session_id": sessionID,
		"bibcode":    bibcode,
		"depth":      depth,
		"is_seed":    isSeed,
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark %s visited in session %d: %w", bibcode, sessionID, err)
	}
	if len(res.Records) == 0 {
		return false, fmt.Errorf("session %d: %w", sessionID, model.ErrNotFound)
	}
	v, _ := res.Records[0].Get("improved")
	return asBool(v), nil
}

func (s *MemgraphStore) IsVisited(ctx context.Context, sessionID int64, bibcode string) (int, bool, error) {
	res, err := s.run(ctx, isVisitedQuery, map[string]any{
		"session_id": sessionID,
		"bibcode":    bibcode,
	})
	if err != nil {
		return 0, false, err
	}
	if len(res.Records) == 0 {
		return 0, false, nil
	}
	v, _ := res.Records[0].Get("depth")
	return int(asInt64(v)), true, nil
}

func (s *MemgraphStore) ListVisited(ctx context.Context, sessionID int64) ([]model.Visit, error) {
	res, err := s.run(ctx, listVisitedQuery, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	visits := make([]model.Visit, 0, len(res.Records))
	for _, rec := range res.Records {
		get := func(key string) any {
			v, _ := rec.Get(key)
			return v
		}
		visits = append(visits, model.Visit{
			SessionID: asInt64(get("session_id")),
			Bibcode:   asString(get("bibcode")),
			Depth:     int(asInt64(get("depth"))),
			IsSeed:    asBool(get("is_seed")),
		})
	}
	return visits, nil
}

func (s *MemgraphStore) PutHypothesis(ctx context.Context, h *model.Hypothesis) (int64, error) {
	if h.Name == "" {
		return 0, fmt.Errorf("%w: hypothesis requires a name", model.ErrValidation)
	}
	if h.Status == "" {
		h.Status = model.HypothesisActive
	}

	// Pre-allocated ids are discarded when the hypothesis already exists;
	// gaps in the sequence are harmless.
	id, err := s.nextID(ctx, "hypothesis")
	if err != nil {
		return 0, err
	}
	res, err := s.run(ctx, saveHypothesisQuery, map[string]any{
		"id":          id,
		"name":        h.Name,
		"origin":      h.OriginBibcode,
		"description": h.Description,
		"status":      string(h.Status),
		"ruling":      h.RulingBibcode,
		"reason":      h.Reason,
		"now":         time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record hypothesis %q: %w", h.Name, err)
	}
	if len(res.Records) == 0 {
		return 0, fmt.Errorf("hypothesis upsert returned no id")
	}
	v, _ := res.Records[0].Get("id")
	return asInt64(v), nil
}

func hypothesisFromRecord(rec *neo4j.Record) model.Hypothesis {
	get := func(key string) any {
		v, _ := rec.Get(key)
		return v
	}
	return model.Hypothesis{
		ID:            asInt64(get("id")),
		Name:          asString(get("name")),
		Description:   asString(get("description")),
		Status:        model.HypothesisStatus(asString(get("status"))),
		OriginBibcode: asString(get("origin_bibcode")),
		RulingBibcode: asString(get("ruling_bibcode")),
		Reason:        asString(get("reason")),
		CreatedAt:     asTime(get("created_at")),
		UpdatedAt:     asTime(get("updated_at")),
	}
}

func (s *MemgraphStore) GetHypothesis(ctx context.Context, id int64) (*model.Hypothesis, error) {
	res, err := s.run(ctx, getHypothesisQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("hypothesis: %w", model.ErrNotFound)
	}
	h := hypothesisFromRecord(res.Records[0])
	return &h, nil
}

func (s *MemgraphStore) ListHypotheses(ctx context.Context, status model.HypothesisStatus) ([]model.Hypothesis, error) {
	query := "MATCH (h:Hypothesis)"
	params := map[string]any{}
	if status != "" {
		query += " WHERE h.status = $status"
		params["status"] = string(status)
	}
	query += `
		RETURN h.id AS id, h.name AS name, h.description AS description,
		       h.status AS status, h.origin_bibcode AS origin_bibcode,
		       h.ruling_bibcode AS ruling_bibcode, h.reason AS reason,
		       h.created_at AS created_at, h.updated_at AS updated_at
		ORDER BY h.updated_at DESC`

	res, err := s.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	hypotheses := make([]model.Hypothesis, 0, len(res.Records))
	for _, rec := range res.Records {
		hypotheses = append(hypotheses, hypothesisFromRecord(rec))
	}
	return hypotheses, nil
}

func (s *MemgraphStore) UpdateHypothesisStatus(ctx context.Context, id int64, status model.HypothesisStatus, rulingBibcode, reason string) error {
	res, err := s.run(ctx, updateHypothesisQuery, map[string]any{
		"id":     id,
		"status": string(status),
		"ruling": rulingBibcode,
		"reason": reason,
		"now":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to update hypothesis %d: %w", id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("hypothesis %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *MemgraphStore) LinkHypothesis(ctx context.Context, link model.HypothesisLink) error {
	if _, err := model.ParseStance(string(link.Stance)); err != nil {
		return err
	}
	if link.Weight == 0 {
		link.Weight = 1.0
	}
	res, err := s.run(ctx, linkHypothesisQuery, map[string]any{
		"hypothesis_id": link.HypothesisID,
		"bibcode":       link.Bibcode,
		"stance":        string(link.Stance),
		"weight":        link.Weight,
	})
	if err != nil {
		return fmt.Errorf("failed to link %s to hypothesis %d: %w", link.Bibcode, link.HypothesisID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("hypothesis %d: %w", link.HypothesisID, model.ErrNotFound)
	}
	return nil
}

func (s *MemgraphStore) ListHypothesisLinks(ctx context.Context, hypothesisID int64) ([]model.HypothesisLink, error) {
	res, err := s.run(ctx, listHypothesisLinksQuery, map[string]any{"hypothesis_id": hypothesisID})
	if err != nil {
		return nil, err
	}
	links := make([]model.HypothesisLink, 0, len(res.Records))
	for _, rec := range res.Records {
		get := func(key string) any {
			v, _ := rec.Get(key)
			return v
		}
		links = append(links, model.HypothesisLink{
			HypothesisID: asInt64(get("hypothesis_id")),
			Bibcode:      asString(get("bibcode")),
			Stance:       model.Stance(asString(get("stance"))),
			Weight:       asFloat(get("weight")),
		})
	}
	return links, nil
}

func (s *MemgraphStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByClassification: make(map[model.Classification]int),
		ByStatus:         make(map[model.HypothesisStatus]int),
	}

	var err error
	if stats.Papers, err = s.CountPapers(ctx); err != nil {
		return nil, err
	}
	if stats.Citations, err = s.CountEdges(ctx); err != nil {
		return nil, err
	}
	if stats.Sessions, err = s.count(ctx, "MATCH (s:Session) RETURN count(s) AS n"); err != nil {
		return nil, err
	}
	if stats.Hypotheses, err = s.count(ctx, "MATCH (h:Hypothesis) RETURN count(h) AS n"); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, `
		MATCH ()-[e:CITES]->() WHERE e.classification <> ''
		RETURN e.classification AS label, count(e) AS n`, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Records {
		label, _ := rec.Get("label")
		n, _ := rec.Get("n")
		stats.ByClassification[model.Classification(asString(label))] = int(asInt64(n))
	}

	res, err = s.run(ctx, `
		MATCH (h:Hypothesis) RETURN h.status AS label, count(h) AS n`, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Records {
		label, _ := rec.Get("label")
		n, _ := rec.Get("n")
		stats.ByStatus[model.HypothesisStatus(asString(label))] = int(asInt64(n))
	}

	res, err = s.run(ctx, `
		MATCH (p:Paper)
		RETURN p.bibcode AS bibcode, p.title AS title, p.year AS year,
		       p.citation_count AS citation_count
		ORDER BY p.citation_count DESC LIMIT 5`, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Records {
		get := func(key string) any {
			v, _ := rec.Get(key)
			return v
		}
		stats.TopCited = append(stats.TopCited, model.PaperSummary{
			Bibcode:       asString(get("bibcode")),
			Title:         asString(get("title")),
			Year:          int(asInt64(get("year"))),
			CitationCount: int(asInt64(get("citation_count"))),
		})
	}
	return stats, nil
}

func (s *MemgraphStore) Export(ctx context.Context, sessionID int64) (*Export, error) {
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
			if err != nil {
				continue
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
	sort.Slice(papers, func(i, j int) bool { return papers[i].Bibcode < papers[j].Bibcode })
	out.Papers = papers

	edges, err := s.ListEdges(ctx, model.EdgeFilter{IncludePending: true})
	if err != nil {
		return nil, err
	}
	out.Citations = edges
	return out, nil
}

func (s *MemgraphStore) Reset(ctx context.Context) error {
	if _, err := s.run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}
