package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/model"
)

func TestKeywordOracleEmptyText(t *testing.T) {
	oracle := NewKeywordOracle()

	j, err := oracle.Classify(context.Background(), Pair{})
	require.NoError(t, err)
	assert.Equal(t, model.Neutral, j.Label)
	assert.Zero(t, j.Confidence)
}

func TestKeywordOracleNoSignals(t *testing.T) {
	oracle := NewKeywordOracle()

	j, err := oracle.Classify(context.Background(), Pair{
		CitingAbstract: "We present photometry of twelve galaxies.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Neutral, j.Label)
	assert.Zero(t, j.Confidence)
}

func TestKeywordOracleSupporting(t *testing.T) {
	oracle := NewKeywordOracle()

	j, err := oracle.Classify(context.Background(), Pair{
		CitingAbstract: "Our measurements confirm the earlier result and are consistent with their model.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Supporting, j.Label)
	assert.Greater(t, j.Confidence, 0.0)
}

func TestKeywordOracleRefutingOutweighsContrast(t *testing.T) {
	oracle := NewKeywordOracle()

	// One refuting match scores double, so it beats one contrasting match.
	j, err := oracle.Classify(context.Background(), Pair{
		CitingAbstract: "This scenario is ruled out by the new data, in tension with previous claims.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Refuting, j.Label)
}

func TestKeywordOracleRefutingBoost(t *testing.T) {
	oracle := NewKeywordOracle()

	j, err := oracle.Classify(context.Background(), Pair{
		CitingAbstract: "The model is firmly excluded; the hypothesis is refuted and no longer viable.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Refuting, j.Label)
	assert.LessOrEqual(t, j.Confidence, 0.95)
	assert.Greater(t, j.Confidence, 0.5)
}

func TestKeywordOracleMixedSignalsLowerConfidence(t *testing.T) {
	oracle := NewKeywordOracle()
	ctx := context.Background()

	clean, err := oracle.Classify(ctx, Pair{
		CitingAbstract: "We confirm the reported relation.",
	})
	require.NoError(t, err)

	mixed, err := oracle.Classify(ctx, Pair{
		CitingAbstract: "We confirm part of the relation although we disagree with the slope they found.",
	})
	require.NoError(t, err)
	assert.Less(t, mixed.Confidence, clean.Confidence)
}

func TestKeywordOracleUsesContextText(t *testing.T) {
	oracle := NewKeywordOracle()

	j, err := oracle.Classify(context.Background(), Pair{
		ContextText: "as implemented in the public pipeline",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Methodological, j.Label)
}
