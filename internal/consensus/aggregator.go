package consensus

import (
	"context"

	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

// Breakdown is the weighted mass behind one score, kept so callers can
// show their working.
type Breakdown struct {
	Support          float64 `json:"support"`
	AggregateSupport float64 `json:"aggregate_support"`
	Contrast         float64 `json:"contrast"`
	Refute           float64 `json:"refute"`
	NonEvaluative    float64 `json:"non_evaluative"`
	Total            float64 `json:"total"`
	Edges            int     `json:"edges"`
}

// Aggregator turns stored edges into a consensus score. Pending stubs are
// never counted; non-evaluative classes enter only the denominator.
type Aggregator struct {
	Store store.Store

	// AggregateWeight is the weight at or above which a supporting edge
	// counts as aggregate-grade evidence.
	AggregateWeight float64
}

func NewAggregator(st store.Store, aggregateWeight float64) *Aggregator {
	return &Aggregator{Store: st, AggregateWeight: aggregateWeight}
}

// ForPaper scores the reception of one paper from the edges citing it.
// A nil score means no classified evidence exists yet, which is not the
// same thing as a neutral reception.
func (a *Aggregator) ForPaper(ctx context.Context, bibcode string) (*float64, Breakdown, error) {
	edges, err := a.Store.ListEdges(ctx, model.EdgeFilter{Cited: bibcode})
	if err != nil {
		return nil, Breakdown{}, err
	}
	return Score(edges, a.AggregateWeight)
}

// ForSession scores every classified edge touching a session's visited
// papers.
func (a *Aggregator) ForSession(ctx context.Context, sessionID int64) (*float64, Breakdown, error) {
	visits, err := a.Store.ListVisited(ctx, sessionID)
	if err != nil {
		return nil, Breakdown{}, err
	}
	seen := make(map[string]bool, len(visits))
	for _, v := range visits {
		seen[v.Bibcode] = true
	}

	all, err := a.Store.ListEdges(ctx, model.EdgeFilter{})
	if err != nil {
		return nil, Breakdown{}, err
	}
	edges := make([]model.Citation, 0, len(all))
	for _, e := range all {
		if seen[e.Citing] || seen[e.Cited] {
			edges = append(edges, e)
		}
	}
	return Score(edges, a.AggregateWeight)
}

// Score computes
//
//	(support + aggregateSupport - contrast - 2*refute) / total
//
// over classified edges, clamped to [-1,1]. The result is nil when total
// weight is zero: no data is reported as no data, not as zero consensus.
func Score(edges []model.Citation, aggregateWeight float64) (*float64, Breakdown, error) {
	var b Breakdown
	for _, e := range edges {
		if e.IsPending() {
			continue
		}
		w := e.Weight
		b.Total += w
		b.Edges++
		switch e.Classification {
		case model.Supporting:
			if aggregateWeight > 0 && w >= aggregateWeight {
				b.AggregateSupport += w
			} else {
				b.Support += w
			}
		case model.Contrasting:
			b.Contrast += w
		case model.Refuting:
			b.Refute += w
		default:
			b.NonEvaluative += w
		}
	}

	if b.Total == 0 {
		return nil, b, nil
	}

	score := (b.Support + b.AggregateSupport - b.Contrast - 2*b.Refute) / b.Total
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return &score, b, nil
}

// Describe maps a score onto the phrasing used in reports.
func Describe(score *float64) string {
	switch {
	case score == nil:
		return "Insufficient evaluative data"
	case *score > 0.5:
		return "Strong support in the literature"
	case *score > 0.2:
		return "Generally supported"
	case *score < -0.5:
		return "Significant disagreement/refutation in the literature"
	case *score < -0.2:
		return "Some disagreement present"
	default:
		return "Mixed or neutral reception"
	}
}
