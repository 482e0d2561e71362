package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/model"
)

// These tests need a live Memgraph. Set MEMGRAPH_URI (for example
// bolt://localhost:7687) to run them; they reset the database.
func newMemgraphStore(t *testing.T) *MemgraphStore {
	t.Helper()
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("MEMGRAPH_URI not set")
	}
	ctx := context.Background()
	st, err := OpenMemgraph(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"))
	require.NoError(t, err)
	require.NoError(t, st.Reset(ctx))
	t.Cleanup(func() { st.Close(ctx) })
	return st
}

func TestMemgraphPaperRoundtrip(t *testing.T) {
	st := newMemgraphStore(t)
	ctx := context.Background()

	in := &model.Paper{
		Bibcode:       "2023ApJ...100..200X",
		Title:         "A Decaying Dark Matter Candidate",
		Authors:       []string{"Vex, A.", "Ondrel, B."},
		Year:          2023,
		Abstract:      "We report a 3.5 keV line.",
		CitationCount: 42,
		Keywords:      []string{"dark matter"},
		FetchedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.PutPaper(ctx, in))

	out, err := st.GetPaper(ctx, in.Bibcode)
	require.NoError(t, err)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Authors, out.Authors)
	assert.Equal(t, in.CitationCount, out.CitationCount)

	_, err = st.GetPaper(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemgraphEdgeAndVisitedSemantics(t *testing.T) {
	st := newMemgraphStore(t)
	ctx := context.Background()

	for _, bib := range []string{"A", "B"} {
		require.NoError(t, st.PutPaper(ctx, &model.Paper{Bibcode: bib, Title: bib}))
	}

	classified := &model.Citation{
		Citing: "A", Cited: "B",
		Classification: model.Supporting, Confidence: 0.9, Weight: 1.0,
		AnalyzedBy: "test", AnalyzedAt: time.Now().UTC(),
	}
	require.NoError(t, st.PutEdge(ctx, classified))

	// A later pending stub must not clobber the stored verdict.
	require.NoError(t, st.PutEdge(ctx, &model.Citation{Citing: "A", Cited: "B"}))
	got, err := st.GetEdge(ctx, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, model.Supporting, got.Classification)

	id, err := st.CreateSession(ctx, "q")
	require.NoError(t, err)
	improved, err := st.MarkVisited(ctx, id, "A", 2, false)
	require.NoError(t, err)
	assert.True(t, improved)
	improved, err = st.MarkVisited(ctx, id, "A", 3, false)
	require.NoError(t, err)
	assert.False(t, improved, "deeper rediscovery keeps the minimum depth")

	depth, ok, err := st.IsVisited(ctx, id, "A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, depth)

	require.NoError(t, st.CompleteSession(ctx, id, "done", nil))
	err = st.CompleteSession(ctx, id, "again", nil)
	assert.ErrorIs(t, err, model.ErrAlreadyComplete)
}
