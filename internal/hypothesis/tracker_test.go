package hypothesis

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

func newTestTracker(t *testing.T) (*Tracker, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "hypothesis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	policy := config.HypothesisConfig{RulingWeight: 2.0, RulingCount: 2, SupportMargin: 1.0}
	return NewTracker(st, policy), st
}

func seedPapers(t *testing.T, st store.Store, bibcodes ...string) {
	t.Helper()
	ctx := context.Background()
	for _, bib := range bibcodes {
		require.NoError(t, st.PutPaper(ctx, &model.Paper{Bibcode: bib, Title: bib}))
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN")

	id, err := tr.Record(ctx, "decaying dark matter", "a candidate explanation", "ORIGIN")
	require.NoError(t, err)
	again, err := tr.Record(ctx, "decaying dark matter", "reworded description", "ORIGIN")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	h, err := st.GetHypothesis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisActive, h.Status)
}

func TestEvaluateRulesOutOnSingleStrongRefutation(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN", "META")

	id, err := tr.Record(ctx, "h", "", "ORIGIN")
	require.NoError(t, err)
	require.NoError(t, tr.LinkStance(ctx, id, "META", model.StanceRefutes, 2.0))

	status, err := tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisRuledOut, status)

	h, err := st.GetHypothesis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisRuledOut, h.Status)
	assert.Equal(t, "META", h.RulingBibcode)
	assert.Contains(t, h.Reason, "weight 2.0")
}

func TestEvaluateRulesOutOnCorroboratedRefutations(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN", "R1", "R2")

	id, err := tr.Record(ctx, "h", "", "ORIGIN")
	require.NoError(t, err)

	// One ordinary refutation is not enough on its own.
	require.NoError(t, tr.LinkStance(ctx, id, "R1", model.StanceRefutes, 1.0))
	status, err := tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisActive, status)

	// A second independent one closes the case.
	require.NoError(t, tr.LinkStance(ctx, id, "R2", model.StanceRefutes, 1.0))
	status, err = tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisRuledOut, status)

	h, err := st.GetHypothesis(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, h.Reason, "2 independent refuting papers")
}

func TestEvaluateSupportedNeedsMargin(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN", "S1", "S2", "R1")

	id, err := tr.Record(ctx, "h", "", "ORIGIN")
	require.NoError(t, err)
	require.NoError(t, tr.LinkStance(ctx, id, "S1", model.StanceSupports, 1.0))
	require.NoError(t, tr.LinkStance(ctx, id, "R1", model.StanceRefutes, 1.0))

	// Support 1.0 vs refute 1.0: inside the margin, still open.
	status, err := tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisActive, status)

	require.NoError(t, tr.LinkStance(ctx, id, "S2", model.StanceSupports, 1.5))
	status, err = tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisSupported, status)
}

func TestEvaluateDefaultStanceWeight(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN", "R1", "R2")

	id, err := tr.Record(ctx, "h", "", "ORIGIN")
	require.NoError(t, err)

	// Weight 0 is stored as 1.0, so two bare links still corroborate.
	require.NoError(t, tr.LinkStance(ctx, id, "R1", model.StanceRefutes, 0))
	require.NoError(t, tr.LinkStance(ctx, id, "R2", model.StanceRefutes, 0))

	status, err := tr.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.HypothesisRuledOut, status)
}

func TestRuledOutListing(t *testing.T) {
	tr, st := newTestTracker(t)
	ctx := context.Background()
	seedPapers(t, st, "ORIGIN", "META")

	closed, err := tr.Record(ctx, "closed", "", "ORIGIN")
	require.NoError(t, err)
	_, err = tr.Record(ctx, "open", "", "ORIGIN")
	require.NoError(t, err)

	require.NoError(t, tr.LinkStance(ctx, closed, "META", model.StanceRefutes, 2.0))
	_, err = tr.Evaluate(ctx, closed)
	require.NoError(t, err)

	out, err := tr.RuledOut(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "closed", out[0].Name)
}

func TestEvaluateUnknownHypothesis(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Evaluate(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
