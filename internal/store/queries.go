package store

// Cypher used by the Memgraph backend. All upserts are MERGE-based so every
// write is idempotent, and each query touches one logical record.
const (
	savePaperQuery = `
		MERGE (p:Paper {bibcode: $bibcode})
		SET p.title = $title,
			p.authors = $authors,
			p.year = $year,
			p.publication = $publication,
			p.abstract = $abstract,
			p.doi = $doi,
			p.url = $url,
			p.citation_count = $citation_count,
			p.reference_count = $reference_count,
			p.keywords = $keywords,
			p.fetched_at = $fetched_at
		RETURN p.bibcode AS bibcode
	`

	getPaperQuery = `
		MATCH (p:Paper {bibcode: $bibcode})
		RETURN p.bibcode AS bibcode, p.title AS title, p.authors AS authors,
		       p.year AS year, p.publication AS publication, p.abstract AS abstract,
		       p.doi AS doi, p.url AS url, p.citation_count AS citation_count,
		       p.reference_count AS reference_count, p.keywords AS keywords,
		       p.fetched_at AS fetched_at
	`

	saveEdgeQuery = `
		MERGE (a:Paper {bibcode: $citing})
		MERGE (b:Paper {bibcode: $cited})
		MERGE (a)-[e:CITES]->(b)
		SET e.classification = $classification,
			e.confidence = $confidence,
			e.weight = $weight,
			e.context_text = $context_text,
			e.reasoning = $reasoning,
			e.analyzed_at = $analyzed_at,
			e.analyzed_by = $analyzed_by
		RETURN e.classification AS classification
	`

	// Pending stubs only set properties on creation, so a stub written
	// after a classified edge for the same pair is a no-op.
	savePendingEdgeQuery = `
		MERGE (a:Paper {bibcode: $citing})
		MERGE (b:Paper {bibcode: $cited})
		MERGE (a)-[e:CITES]->(b)
		ON CREATE SET e.classification = '',
			e.confidence = 0.0,
			e.weight = $weight,
			e.context_text = $context_text,
			e.reasoning = '',
			e.analyzed_at = $analyzed_at,
			e.analyzed_by = $analyzed_by
		RETURN e.classification AS classification
	`

	getEdgeQuery = `
		MATCH (a:Paper {bibcode: $citing})-[e:CITES]->(b:Paper {bibcode: $cited})
		RETURN a.bibcode AS citing, b.bibcode AS cited, e.classification AS classification,
		       e.confidence AS confidence, e.weight AS weight,
		       e.context_text AS context_text, e.reasoning AS reasoning,
		       e.analyzed_at AS analyzed_at, e.analyzed_by AS analyzed_by
	`

	nextIDQuery = `
		MERGE (s:Sequence {name: $name})
		ON CREATE SET s.value = 0
		SET s.value = s.value + 1
		RETURN s.value AS value
	`

	createSessionQuery = `
		CREATE (s:Session {id: $id, question: $question, started_at: $started_at,
			completed_at: NULL, summary: '', consensus_score: NULL})
		RETURN s.id AS id
	`

	getSessionQuery = `
		MATCH (s:Session {id: $id})
		OPTIONAL MATCH (s)-[v:VISITED]->(:Paper)
		RETURN s.id AS id, s.question AS question, s.started_at AS started_at,
		       s.completed_at AS completed_at, s.summary AS summary,
		       s.consensus_score AS consensus_score, count(v) AS paper_count
	`

	completeSessionQuery = `
		MATCH (s:Session {id: $id})
		WHERE s.completed_at IS NULL
		SET s.completed_at = $completed_at,
			s.summary = $summary,
			s.consensus_score = $score
		RETURN s.id AS id
	`

	// improved is computed against the stored depth before the depth is
	// lowered, so the caller learns whether this call changed anything.
	markVisitedQuery = `
		MATCH (s:Session {id: $session_id})
		MERGE (p:Paper {bibcode: $bibcode})
		MERGE (s)-[v:VISITED]->(p)
		ON CREATE SET v.depth = $depth, v.is_seed = $is_seed, v.improved = true
		ON MATCH SET v.improved = $depth < v.depth,
			v.depth = CASE WHEN $depth < v.depth THEN $depth ELSE v.depth END,
			v.is_seed = v.is_seed OR $is_seed
		RETURN v.improved AS improved
	`

	isVisitedQuery = `
		MATCH (:Session {id: $session_id})-[v:VISITED]->(:Paper {bibcode: $bibcode})
		RETURN v.depth AS depth
	`

	listVisitedQuery = `
		MATCH (s:Session {id: $session_id})-[v:VISITED]->(p:Paper)
		RETURN s.id AS session_id, p.bibcode AS bibcode, v.depth AS depth, v.is_seed AS is_seed
		ORDER BY v.depth ASC, p.bibcode ASC
	`

	saveHypothesisQuery = `
		MERGE (h:Hypothesis {name: $name, origin_bibcode: $origin})
		ON CREATE SET h.id = $id, h.description = $description, h.status = $status,
			h.ruling_bibcode = $ruling, h.reason = $reason,
			h.created_at = $now, h.updated_at = $now
		RETURN h.id AS id
	`

	getHypothesisQuery = `
		MATCH (h:Hypothesis {id: $id})
		RETURN h.id AS id, h.name AS name, h.description AS description,
		       h.status AS status, h.origin_bibcode AS origin_bibcode,
		       h.ruling_bibcode AS ruling_bibcode, h.reason AS reason,
		       h.created_at AS created_at, h.updated_at AS updated_at
	`

	updateHypothesisQuery = `
		MATCH (h:Hypothesis {id: $id})
		SET h.status = $status, h.ruling_bibcode = $ruling,
			h.reason = $reason, h.updated_at = $now
		RETURN h.id AS id
	`

	linkHypothesisQuery = `
		MATCH (h:Hypothesis {id: $hypothesis_id})
		MERGE (p:Paper {bibcode: $bibcode})
		MERGE (h)-[l:STANCE]->(p)
		SET l.stance = $stance, l.weight = $weight
		RETURN l.stance AS stance
	`

	listHypothesisLinksQuery = `
		MATCH (h:Hypothesis {id: $hypothesis_id})-[l:STANCE]->(p:Paper)
		RETURN h.id AS hypothesis_id, p.bibcode AS bibcode,
		       l.stance AS stance, l.weight AS weight
		ORDER BY p.bibcode ASC
	`
)
