package classify

import (
	"context"

	"github.com/solresol/haruspex/internal/model"
)

// Pair is the evidence an oracle sees for one citation edge. The citing
// abstract is the primary signal; the cited title and abstract give the
// oracle something to classify the stance against.
type Pair struct {
	CitingAbstract string
	CitedAbstract  string
	CitedTitle     string
	ContextText    string
}

type Judgement struct {
	Label      model.Classification
	Confidence float64
	Reasoning  string
}

// Oracle classifies the relationship of a citing paper to a cited paper.
// Implementations must be safe for concurrent use.
type Oracle interface {
	Classify(ctx context.Context, p Pair) (Judgement, error)
	Name() string
}
