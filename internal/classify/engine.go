package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
)

// Engine wraps an oracle with the policy layer: evidentiary weighting,
// the refute confidence gate, and optional majority voting.
type Engine struct {
	Oracle Oracle
	Policy config.ClassifyConfig
	Votes  int
}

func NewEngine(oracle Oracle, policy config.ClassifyConfig, votes int) *Engine {
	if votes < 1 {
		votes = 1
	}
	return &Engine{Oracle: oracle, Policy: policy, Votes: votes}
}

// Classify produces the stored edge for citing -> cited. Oracle errors are
// returned untouched; the caller owns fallback and retry policy.
func (e *Engine) Classify(ctx context.Context, citing, cited *model.Paper, contextText string) (*model.Citation, error) {
	pair := Pair{
		CitingAbstract: citing.Abstract,
		CitedAbstract:  cited.Abstract,
		CitedTitle:     cited.Title,
		ContextText:    contextText,
	}

	judgement, err := e.judge(ctx, pair)
	if err != nil {
		return nil, err
	}

	label := judgement.Label
	reasoning := judgement.Reasoning

	// A refutation is a strong claim. Below the confidence gate it is
	// recorded as CONTRASTING, with the original verdict kept visible.
	if label == model.Refuting && judgement.Confidence < e.Policy.RefuteThreshold {
		label = model.Contrasting
		reasoning = fmt.Sprintf("demoted from REFUTING (confidence %.2f below %.2f): %s",
			judgement.Confidence, e.Policy.RefuteThreshold, reasoning)
	}

	edge := &model.Citation{
		Citing:         citing.Bibcode,
		Cited:          cited.Bibcode,
		Classification: label,
		Confidence:     judgement.Confidence,
		Weight:         e.WeightFor(citing),
		ContextText:    contextText,
		Reasoning:      reasoning,
		AnalyzedAt:     time.Now().UTC(),
		AnalyzedBy:     e.Oracle.Name(),
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

// judge runs the oracle once, or Votes times with a majority decision.
// Confidence of a voted verdict is the mean confidence of the winning
// votes, and the winner on a tie is the label seen first.
func (e *Engine) judge(ctx context.Context, pair Pair) (Judgement, error) {
	if e.Votes <= 1 {
		return e.Oracle.Classify(ctx, pair)
	}

	votes := make([]Judgement, 0, e.Votes)
	for i := 0; i < e.Votes; i++ {
		j, err := e.Oracle.Classify(ctx, pair)
		if err != nil {
			if len(votes) == 0 {
				return Judgement{}, err
			}
			// Partial ballots still decide; one flaky call should not
			// void the votes already cast.
			break
		}
		votes = append(votes, j)
	}

	tally := make(map[model.Classification]int)
	order := make([]model.Classification, 0, len(votes))
	for _, v := range votes {
		if tally[v.Label] == 0 {
			order = append(order, v.Label)
		}
		tally[v.Label]++
	}

	winner := order[0]
	for _, label := range order {
		if tally[label] > tally[winner] {
			winner = label
		}
	}

	var sum float64
	var n int
	reasons := make([]string, 0, len(votes))
	for _, v := range votes {
		if v.Label == winner {
			sum += v.Confidence
			n++
			reasons = append(reasons, v.Reasoning)
		}
	}

	return Judgement{
		Label:      winner,
		Confidence: sum / float64(n),
		Reasoning:  fmt.Sprintf("majority %d/%d: %s", n, len(votes), strings.Join(reasons[:1], "")),
	}, nil
}

// WeightFor maps a paper's study character to its evidentiary weight.
// Aggregate evidence (surveys, catalogs, meta-analyses) counts more than a
// single-object result.
func (e *Engine) WeightFor(p *model.Paper) float64 {
	switch DetectStudyType(p) {
	case model.StudyAggregate:
		return e.Policy.AggregateWeight
	case model.StudySingle:
		return e.Policy.SingleWeight
	default:
		return e.Policy.DefaultWeight
	}
}

var aggregateMarkers = []string{
	"meta-analysis", "systematic review", "survey", "catalog", "catalogue",
	"census", "population study", "statistical sample", "all-sky",
}

var singleMarkers = []string{
	"case study", "single object", "single source", "individual object",
	"one object", "serendipitous",
}

// DetectStudyType inspects the title and keywords for markers of aggregate
// or single-object evidence. Unknown is the common case.
func DetectStudyType(p *model.Paper) model.StudyType {
	text := strings.ToLower(p.Title + " " + strings.Join(p.Keywords, " "))
	for _, m := range aggregateMarkers {
		if strings.Contains(text, m) {
			return model.StudyAggregate
		}
	}
	for _, m := range singleMarkers {
		if strings.Contains(text, m) {
			return model.StudySingle
		}
	}
	return model.StudyUnknown
}
