package traverse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/classify"
	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

type fakeSource struct {
	mu       sync.Mutex
	papers   map[string]model.Paper
	refs     map[string][]string
	citers   map[string][]string
	failFor  map[string]bool
	fetches  int
}

func (f *fakeSource) paperList(ids []string, limit int) []model.Paper {
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]model.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.papers[id]; ok {
			out = append(out, p)
		} else {
			out = append(out, model.Paper{Bibcode: id})
		}
	}
	return out
}

func (f *fakeSource) Search(ctx context.Context, query string, limit int) ([]model.Paper, error) {
	return nil, nil
}

func (f *fakeSource) GetReferences(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paperList(f.refs[bibcode], limit), nil
}

func (f *fakeSource) GetCiting(ctx context.Context, bibcode string, limit int) ([]model.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paperList(f.citers[bibcode], limit), nil
}

func (f *fakeSource) GetAbstract(ctx context.Context, bibcode string) (*model.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failFor[bibcode] {
		return nil, fmt.Errorf("%w: catalog timeout for %s", model.ErrExternalFetch, bibcode)
	}
	p, ok := f.papers[bibcode]
	if !ok {
		p = model.Paper{Bibcode: bibcode}
	}
	return &p, nil
}

type countingOracle struct {
	mu    sync.Mutex
	calls int
	label model.Classification
}

func (o *countingOracle) Name() string { return "counting" }

func (o *countingOracle) Classify(ctx context.Context, p classify.Pair) (classify.Judgement, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	label := o.label
	if label == "" {
		label = model.Supporting
	}
	return classify.Judgement{Label: label, Confidence: 0.8, Reasoning: "test"}, nil
}

func (o *countingOracle) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func newTestController(t *testing.T, src *fakeSource, oracle classify.Oracle, cfg config.TraversalConfig) (*Controller, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "traverse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	policy := config.ClassifyConfig{RefuteThreshold: 0.7, AggregateWeight: 2.0, SingleWeight: 0.5, DefaultWeight: 1.0}
	engine := classify.NewEngine(oracle, policy, 1)
	return NewController(st, src, engine, cfg), st
}

func edgeSet(t *testing.T, st store.Store) map[string]model.Classification {
	t.Helper()
	edges, err := st.ListEdges(context.Background(), model.EdgeFilter{IncludePending: true})
	require.NoError(t, err)
	out := make(map[string]model.Classification, len(edges))
	for _, e := range edges {
		out[e.Citing+"->"+e.Cited] = e.Classification
	}
	return out
}

func TestBudgetZeroDefersThenResumes(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{
			"S":  {Bibcode: "S", Abstract: "seed"},
			"C1": {Bibcode: "C1", Abstract: "we confirm"},
			"C2": {Bibcode: "C2", Abstract: "ruled out"},
		},
		citers: map[string][]string{"S": {"C1", "C2"}},
	}
	oracle := &countingOracle{}
	cfg := config.TraversalConfig{
		DepthLimit: 0, Budget: 0, Fanout: 5,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	first, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err := ctrl.Run(ctx, first, []string{"S"})
	require.NoError(t, err)
	assert.Equal(t, 0, oracle.count(), "budget zero must not invoke the oracle")
	assert.Equal(t, 2, result.Deferred)

	for _, e := range edgeSet(t, st) {
		assert.Equal(t, model.Pending, e)
	}

	// A fresh run with budget picks up the deferred pairs.
	ctrl.Config.Budget = 100
	second, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err = ctrl.Run(ctx, second, []string{"S"})
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.count())
	assert.Equal(t, 2, result.Classified)

	resumed := edgeSet(t, st)

	// And a third run reuses every settled edge without new oracle calls.
	third, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err = ctrl.Run(ctx, third, []string{"S"})
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.count(), "settled edges must never be re-judged")
	assert.Equal(t, 2, result.Reused)

	// The deferred-then-resumed store matches a single unbounded run.
	freshOracle := &countingOracle{}
	freshCfg := cfg
	freshCfg.Budget = 100
	freshCtrl, freshStore := newTestController(t, src, freshOracle, freshCfg)
	session, err := freshStore.CreateSession(ctx, "q")
	require.NoError(t, err)
	_, err = freshCtrl.Run(ctx, session, []string{"S"})
	require.NoError(t, err)
	assert.Equal(t, edgeSet(t, freshStore), resumed)
}

func TestFanoutCapLimitsRecursion(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{"S": {Bibcode: "S"}},
		citers: map[string][]string{"S": {"C1", "C2", "C3", "C4", "C5"}},
	}
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("C%d", i)
		src.papers[id] = model.Paper{Bibcode: id, CitationCount: 10 - i}
	}
	oracle := &countingOracle{}
	cfg := config.TraversalConfig{
		DepthLimit: 1, Budget: 100, Fanout: 2,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err := ctrl.Run(ctx, id, []string{"S"})
	require.NoError(t, err)

	// Seed plus two chosen neighbors are expanded; the rest are recorded
	// in the store but never recursed into.
	assert.Equal(t, 3, result.Expanded)

	visits, err := st.ListVisited(ctx, id)
	require.NoError(t, err)
	require.Len(t, visits, 3)
	assert.Equal(t, "S", visits[0].Bibcode)
	assert.Equal(t, 0, visits[0].Depth)
	assert.Equal(t, "C1", visits[1].Bibcode, "the two highest citation counts win the gate")
	assert.Equal(t, "C2", visits[2].Bibcode)

	n, err := st.CountPapers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "every discovered paper is stored")
}

func TestDisputedEdgesWinTheFanoutGate(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{
			"S":  {Bibcode: "S"},
			"C1": {Bibcode: "C1", CitationCount: 1000, Abstract: "we confirm these findings"},
			"C2": {Bibcode: "C2", CitationCount: 1, Abstract: "this scenario is excluded by our data"},
		},
		citers: map[string][]string{"S": {"C1", "C2"}},
	}
	oracle := &scriptedOracle{refuteMarker: "excluded"}
	cfg := config.TraversalConfig{
		DepthLimit: 1, Budget: 100, Fanout: 1,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	_, err = ctrl.Run(ctx, id, []string{"S"})
	require.NoError(t, err)

	_, visited, err := st.IsVisited(ctx, id, "C2")
	require.NoError(t, err)
	assert.True(t, visited, "the refuting paper outranks the popular one")

	_, visited, err = st.IsVisited(ctx, id, "C1")
	require.NoError(t, err)
	assert.False(t, visited)
}

// scriptedOracle refutes when the citing abstract carries the marker and
// supports otherwise.
type scriptedOracle struct {
	refuteMarker string
}

func (o *scriptedOracle) Name() string { return "scripted" }

func (o *scriptedOracle) Classify(ctx context.Context, p classify.Pair) (classify.Judgement, error) {
	if strings.Contains(p.CitingAbstract, o.refuteMarker) {
		return classify.Judgement{Label: model.Refuting, Confidence: 0.9, Reasoning: "test"}, nil
	}
	return classify.Judgement{Label: model.Supporting, Confidence: 0.8, Reasoning: "test"}, nil
}

func TestCitationCycleTerminates(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{"A": {Bibcode: "A"}, "B": {Bibcode: "B"}},
		refs:   map[string][]string{"A": {"B"}, "B": {"A"}},
	}
	oracle := &countingOracle{}
	cfg := config.TraversalConfig{
		DepthLimit: 5, Budget: 100, Fanout: 5,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err := ctrl.Run(ctx, id, []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Expanded)
	assert.GreaterOrEqual(t, result.Skipped, 1, "the back-edge to A is skipped, not re-expanded")
	assert.Equal(t, 2, oracle.count(), "one call per directed edge")
}

func TestSelfCitationDiscarded(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{"A": {Bibcode: "A"}},
		refs:   map[string][]string{"A": {"A"}},
	}
	oracle := &countingOracle{}
	cfg := config.TraversalConfig{
		DepthLimit: 1, Budget: 100, Fanout: 5,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	_, err = ctrl.Run(ctx, id, []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, 0, oracle.count())
	n, err := st.CountEdges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFetchFailureIsolatedPerNode(t *testing.T) {
	src := &fakeSource{
		papers: map[string]model.Paper{
			"GOOD": {Bibcode: "GOOD"},
			"C1":   {Bibcode: "C1"},
		},
		citers:  map[string][]string{"GOOD": {"C1"}},
		failFor: map[string]bool{"BAD": true},
	}
	oracle := &countingOracle{}
	cfg := config.TraversalConfig{
		DepthLimit: 0, Budget: 100, Fanout: 5,
		ReferenceLimit: 10, CitingLimit: 10, SkipAnalyzed: true,
	}
	ctrl, st := newTestController(t, src, oracle, cfg)
	ctx := context.Background()

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	result, err := ctrl.Run(ctx, id, []string{"BAD", "GOOD"})
	require.NoError(t, err, "a failing seed never aborts the run")

	assert.Equal(t, 1, result.Errored)
	assert.Equal(t, 1, result.Expanded)

	_, err = st.GetPaper(ctx, "GOOD")
	assert.NoError(t, err)
}

func TestRunUnknownSession(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeSource{}, &countingOracle{}, config.TraversalConfig{})
	_, err := ctrl.Run(context.Background(), 12345, []string{"S"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
