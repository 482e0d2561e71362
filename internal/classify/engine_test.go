package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
)

type mockOracle struct {
	Queue []Judgement
	Calls int
	Err   error
}

func (m *mockOracle) Name() string { return "mock" }

func (m *mockOracle) Classify(ctx context.Context, p Pair) (Judgement, error) {
	m.Calls++
	if m.Err != nil {
		return Judgement{}, m.Err
	}
	j := m.Queue[0]
	if len(m.Queue) > 1 {
		m.Queue = m.Queue[1:]
	}
	return j, nil
}

func testPolicy() config.ClassifyConfig {
	return config.ClassifyConfig{
		RefuteThreshold: 0.7,
		AggregateWeight: 2.0,
		SingleWeight:    0.5,
		DefaultWeight:   1.0,
	}
}

func TestEngineStoresConfidentRefutation(t *testing.T) {
	oracle := &mockOracle{Queue: []Judgement{{Label: model.Refuting, Confidence: 0.9, Reasoning: "excluded at 5 sigma"}}}
	engine := NewEngine(oracle, testPolicy(), 1)

	edge, err := engine.Classify(context.Background(),
		&model.Paper{Bibcode: "C1"}, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, model.Refuting, edge.Classification)
	assert.Equal(t, 0.9, edge.Confidence)
	assert.Equal(t, "mock", edge.AnalyzedBy)
}

func TestEngineDemotesWeakRefutation(t *testing.T) {
	oracle := &mockOracle{Queue: []Judgement{{Label: model.Refuting, Confidence: 0.55, Reasoning: "possibly excluded"}}}
	engine := NewEngine(oracle, testPolicy(), 1)

	edge, err := engine.Classify(context.Background(),
		&model.Paper{Bibcode: "C1"}, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, model.Contrasting, edge.Classification)
	assert.Contains(t, edge.Reasoning, "REFUTING")
	assert.Contains(t, edge.Reasoning, "possibly excluded")
}

func TestEngineWeightsFromStudyType(t *testing.T) {
	oracle := &mockOracle{Queue: []Judgement{{Label: model.Supporting, Confidence: 0.8}}}
	engine := NewEngine(oracle, testPolicy(), 1)

	survey := &model.Paper{Bibcode: "C1", Title: "A deep all-sky survey of quasars"}
	edge, err := engine.Classify(context.Background(), survey, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2.0, edge.Weight)

	oracle.Queue = []Judgement{{Label: model.Supporting, Confidence: 0.8}}
	single := &model.Paper{Bibcode: "C2", Title: "A case study of one transient"}
	edge, err = engine.Classify(context.Background(), single, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 0.5, edge.Weight)

	oracle.Queue = []Judgement{{Label: model.Supporting, Confidence: 0.8}}
	plain := &model.Paper{Bibcode: "C3", Title: "Spectroscopy of NGC 1275"}
	edge, err = engine.Classify(context.Background(), plain, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, edge.Weight)
}

func TestEngineMajorityVote(t *testing.T) {
	oracle := &mockOracle{Queue: []Judgement{
		{Label: model.Supporting, Confidence: 0.8, Reasoning: "agrees"},
		{Label: model.Contrasting, Confidence: 0.6, Reasoning: "tension"},
		{Label: model.Supporting, Confidence: 0.6, Reasoning: "agrees"},
	}}
	engine := NewEngine(oracle, testPolicy(), 3)

	edge, err := engine.Classify(context.Background(),
		&model.Paper{Bibcode: "C1"}, &model.Paper{Bibcode: "P1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, oracle.Calls)
	assert.Equal(t, model.Supporting, edge.Classification)
	assert.InDelta(t, 0.7, edge.Confidence, 1e-9, "mean confidence of the winning votes")
}

func TestEnginePropagatesOracleError(t *testing.T) {
	oracle := &mockOracle{Err: errors.New("oracle offline")}
	engine := NewEngine(oracle, testPolicy(), 1)

	_, err := engine.Classify(context.Background(),
		&model.Paper{Bibcode: "C1"}, &model.Paper{Bibcode: "P1"}, "")
	assert.Error(t, err)
}

func TestDetectStudyType(t *testing.T) {
	assert.Equal(t, model.StudyAggregate, DetectStudyType(&model.Paper{Title: "The SDSS catalog of galaxies"}))
	assert.Equal(t, model.StudyAggregate, DetectStudyType(&model.Paper{Keywords: []string{"meta-analysis"}}))
	assert.Equal(t, model.StudySingle, DetectStudyType(&model.Paper{Title: "A single object monitoring campaign"}))
	assert.Equal(t, model.StudyUnknown, DetectStudyType(&model.Paper{Title: "On the origin of spiral arms"}))
}
