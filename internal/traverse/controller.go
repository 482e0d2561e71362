package traverse

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/solresol/haruspex/internal/classify"
	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/source"
	"github.com/solresol/haruspex/internal/store"
)

// NodeState is the lifecycle of one paper inside a run.
type NodeState string

const (
	StatePending   NodeState = "PENDING"
	StateFetching  NodeState = "FETCHING"
	StateExpanding NodeState = "EXPANDING"
	StateDone      NodeState = "DONE"
	StateSkipped   NodeState = "SKIPPED"
	StateErrored   NodeState = "ERRORED"
)

// Controller drives the bounded expansion of the citation graph. All
// cross-worker coordination goes through the store; the controller itself
// only holds the run-local budget counter.
type Controller struct {
	Store  store.Store
	Source source.PaperSource
	Engine *classify.Engine
	Config config.TraversalConfig
}

func NewController(st store.Store, src source.PaperSource, engine *classify.Engine, cfg config.TraversalConfig) *Controller {
	return &Controller{Store: st, Source: src, Engine: engine, Config: cfg}
}

// Result reports what one run did. Deferred edges are pending stubs left
// behind when the budget ran out; a later run picks them up.
type Result struct {
	RunID      string `json:"run_id"`
	SessionID  int64  `json:"session_id"`
	Expanded   int    `json:"expanded"`
	Skipped    int    `json:"skipped"`
	Errored    int    `json:"errored"`
	Classified int    `json:"classified"`
	Reused     int    `json:"reused"`
	Deferred   int    `json:"deferred"`
	BudgetLeft int    `json:"budget_left"`
}

type runState struct {
	mu     sync.Mutex
	budget int
	result *Result
}

// takeBudget reserves one oracle call. When it returns false the caller
// must defer the edge instead of classifying it.
func (r *runState) takeBudget() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.budget <= 0 {
		return false
	}
	r.budget--
	return true
}

func (r *runState) note(fn func(*Result)) {
	r.mu.Lock()
	fn(r.result)
	r.mu.Unlock()
}

// Run expands every seed to the configured depth limit, sharing one
// classification budget across the whole run. Seeds are walked in
// parallel when Workers > 1; a failing node never aborts its siblings.
func (c *Controller) Run(ctx context.Context, sessionID int64, seeds []string) (*Result, error) {
	if _, err := c.Store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rs := &runState{
		budget: c.Config.Budget,
		result: &Result{RunID: uuid.NewString(), SessionID: sessionID},
	}

	workers := c.Config.Workers
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, seed := range seeds {
		wg.Add(1)
		sem <- struct{}{}
		go func(bibcode string) {
			defer wg.Done()
			defer func() { <-sem }()
			c.expand(ctx, rs, sessionID, bibcode, 0, true)
		}(seed)
	}
	wg.Wait()

	rs.mu.Lock()
	rs.result.BudgetLeft = rs.budget
	out := *rs.result
	rs.mu.Unlock()
	return &out, nil
}

// candidate is a neighbor considered for recursion, carrying the edge
// verdict so the relevance gate can rank it.
type candidate struct {
	paper model.Paper
	label model.Classification
	conf  float64
	order int
}

func (c *Controller) expand(ctx context.Context, rs *runState, sessionID int64, bibcode string, depth int, isSeed bool) NodeState {
	if ctx.Err() != nil {
		return StateErrored
	}

	// Cycles and re-discoveries terminate here: a paper already seen at
	// this depth or shallower is settled for this session.
	if seen, ok, err := c.Store.IsVisited(ctx, sessionID, bibcode); err != nil {
		log.Printf("traverse: visited lookup for %s failed: %v", bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return StateErrored
	} else if ok && seen <= depth {
		rs.note(func(r *Result) { r.Skipped++ })
		return StateSkipped
	}

	if _, err := c.Store.MarkVisited(ctx, sessionID, bibcode, depth, isSeed); err != nil {
		log.Printf("traverse: mark visited for %s failed: %v", bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return StateErrored
	}

	paper, err := c.fetchPaper(ctx, bibcode)
	if err != nil {
		log.Printf("traverse: fetch of %s failed, continuing past it: %v", bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return StateErrored
	}

	references, err := c.Source.GetReferences(ctx, bibcode, c.Config.ReferenceLimit)
	if err != nil {
		log.Printf("traverse: reference list for %s failed: %v", bibcode, err)
	}
	citing, err := c.Source.GetCiting(ctx, bibcode, c.Config.CitingLimit)
	if err != nil {
		log.Printf("traverse: citing list for %s failed: %v", bibcode, err)
	}

	candidates := make([]candidate, 0, len(references)+len(citing))
	order := 0
	for _, ref := range references {
		if cand, ok := c.processEdge(ctx, rs, paper, &ref, true); ok {
			cand.order = order
			order++
			candidates = append(candidates, cand)
		}
	}
	for _, citer := range citing {
		if cand, ok := c.processEdge(ctx, rs, paper, &citer, false); ok {
			cand.order = order
			order++
			candidates = append(candidates, cand)
		}
	}

	if depth < c.Config.DepthLimit {
		for _, next := range selectFanout(candidates, c.Config.Fanout) {
			c.expand(ctx, rs, sessionID, next.paper.Bibcode, depth+1, false)
		}
	}

	rs.note(func(r *Result) { r.Expanded++ })
	return StateDone
}

func (c *Controller) fetchPaper(ctx context.Context, bibcode string) (*model.Paper, error) {
	paper, err := c.Store.GetPaper(ctx, bibcode)
	if err == nil {
		return paper, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	paper, err = c.Source.GetAbstract(ctx, bibcode)
	if err != nil {
		return nil, err
	}
	if err := c.Store.PutPaper(ctx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// processEdge settles the edge between the current paper and one neighbor:
// reuse, classify, or defer. Returns the neighbor as a recursion candidate.
func (c *Controller) processEdge(ctx context.Context, rs *runState, current *model.Paper, neighbor *model.Paper, isReference bool) (candidate, bool) {
	if neighbor.Bibcode == "" || neighbor.Bibcode == current.Bibcode {
		return candidate{}, false
	}

	citing, cited := current, neighbor
	if !isReference {
		citing, cited = neighbor, current
	}

	cand := candidate{paper: *neighbor, conf: 0}

	if c.Config.SkipAnalyzed {
		existing, err := c.Store.GetEdge(ctx, citing.Bibcode, cited.Bibcode)
		if err == nil && !existing.IsPending() {
			rs.note(func(r *Result) { r.Reused++ })
			cand.label = existing.Classification
			cand.conf = existing.Confidence
			return cand, true
		}
	}

	// Neighbor metadata is already in hand from the list fetch; store it
	// so a deferred edge can resume without another catalog call.
	if err := c.Store.PutPaper(ctx, neighbor); err != nil {
		log.Printf("traverse: store of neighbor %s failed: %v", neighbor.Bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return candidate{}, false
	}

	if !rs.takeBudget() {
		stub := &model.Citation{
			Citing: citing.Bibcode,
			Cited:  cited.Bibcode,
		}
		if err := c.Store.PutEdge(ctx, stub); err != nil {
			log.Printf("traverse: pending stub %s -> %s failed: %v", citing.Bibcode, cited.Bibcode, err)
		}
		rs.note(func(r *Result) { r.Deferred++ })
		return cand, true
	}

	edge, err := c.Engine.Classify(ctx, citing, cited, "")
	if err != nil {
		log.Printf("traverse: classification %s -> %s failed, continuing: %v", citing.Bibcode, cited.Bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return cand, true
	}
	if err := c.Store.PutEdge(ctx, edge); err != nil {
		log.Printf("traverse: store of edge %s -> %s failed: %v", citing.Bibcode, cited.Bibcode, err)
		rs.note(func(r *Result) { r.Errored++ })
		return cand, true
	}

	rs.note(func(r *Result) { r.Classified++ })
	cand.label = edge.Classification
	cand.conf = edge.Confidence
	return cand, true
}

// selectFanout ranks candidates for recursion: disputed edges first,
// since they are where consensus is decided, then raw citation count.
// Ties keep source order so single-worker runs stay reproducible.
func selectFanout(candidates []candidate, fanout int) []candidate {
	if fanout <= 0 {
		return nil
	}
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := disputeRank(ranked[i]), disputeRank(ranked[j])
		if di != dj {
			return di > dj
		}
		if ranked[i].paper.CitationCount != ranked[j].paper.CitationCount {
			return ranked[i].paper.CitationCount > ranked[j].paper.CitationCount
		}
		return ranked[i].order < ranked[j].order
	})
	if len(ranked) > fanout {
		ranked = ranked[:fanout]
	}
	return ranked
}

func disputeRank(c candidate) float64 {
	switch c.label {
	case model.Refuting:
		return 2 + c.conf
	case model.Contrasting:
		return 1 + c.conf
	default:
		return 0
	}
}
