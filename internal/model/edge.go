package model

import (
	"fmt"
	"strings"
	"time"
)

// Classification is the stance a citing paper takes toward the cited paper.
// REFUTING is stronger than CONTRASTING: it means the citing paper provides
// evidence that definitively rules out the cited work's hypothesis.
type Classification string

const (
	Supporting     Classification = "SUPPORTING"
	Contrasting    Classification = "CONTRASTING"
	Refuting       Classification = "REFUTING"
	Contextual     Classification = "CONTEXTUAL"
	Methodological Classification = "METHODOLOGICAL"
	Neutral        Classification = "NEUTRAL"

	// Pending marks an edge discovered during traversal but not yet
	// classified (budget ran out). Stubs never enter consensus totals.
	Pending Classification = ""
)

// Classifications lists every storable label, in the order the original
// schema declares them.
var Classifications = []Classification{
	Supporting, Contrasting, Refuting, Contextual, Methodological, Neutral,
}

// ParseClassification normalizes and validates a label string.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Classifications {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown classification %q", ErrValidation, s)
}

// Citation is a directed, classified citing->cited edge. There is exactly
// one current classification per (citing, cited) pair; writing the pair
// again overwrites it.
type Citation struct {
	Citing         string         `json:"citing_bibcode"`
	Cited          string         `json:"cited_bibcode"`
	Classification Classification `json:"classification"`
	Confidence     float64        `json:"confidence"`
	Weight         float64        `json:"weight"`
	ContextText    string         `json:"context_text,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
	AnalyzedBy     string         `json:"analyzed_by,omitempty"`
}

// IsPending reports whether the edge is an unclassified stub.
func (c Citation) IsPending() bool { return c.Classification == Pending }

// Validate rejects malformed edges before they reach the store. Pending
// stubs skip the label check but still may not be self-citations.
func (c Citation) Validate() error {
	if c.Citing == "" || c.Cited == "" {
		return fmt.Errorf("%w: citation requires both citing and cited bibcodes", ErrValidation)
	}
	if c.Citing == c.Cited {
		return fmt.Errorf("%w: self-citation %s", ErrSelfCitation, c.Citing)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.3f outside [0,1]", ErrValidation, c.Confidence)
	}
	if c.Weight < 0 {
		return fmt.Errorf("%w: negative weight %.3f", ErrValidation, c.Weight)
	}
	if c.IsPending() {
		return nil
	}
	if _, err := ParseClassification(string(c.Classification)); err != nil {
		return err
	}
	return nil
}

// EdgeFilter selects citations from the store. Zero values match everything.
type EdgeFilter struct {
	Citing         string
	Cited          string
	Either         string // matches citing OR cited
	Classification Classification
	IncludePending bool
	Limit          int
}
