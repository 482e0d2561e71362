package hypothesis

import (
	"context"
	"fmt"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

// Tracker owns the hypothesis ruling policy. Recording and linking are
// thin store passthroughs; Evaluate is where the rules live.
type Tracker struct {
	Store  store.Store
	Policy config.HypothesisConfig
}

func NewTracker(st store.Store, policy config.HypothesisConfig) *Tracker {
	return &Tracker{Store: st, Policy: policy}
}

// Record registers a hypothesis, idempotent by (name, origin paper).
// Calling it again with the same pair returns the existing id.
func (t *Tracker) Record(ctx context.Context, name, description, originBibcode string) (int64, error) {
	h := &model.Hypothesis{
		Name:          name,
		Description:   description,
		OriginBibcode: originBibcode,
		Status:        model.HypothesisActive,
	}
	return t.Store.PutHypothesis(ctx, h)
}

// LinkStance attaches a paper's stance toward a hypothesis. Weight 0 is
// stored as 1.0.
func (t *Tracker) LinkStance(ctx context.Context, hypothesisID int64, bibcode string, stance model.Stance, weight float64) error {
	return t.Store.LinkHypothesis(ctx, model.HypothesisLink{
		HypothesisID: hypothesisID,
		Bibcode:      bibcode,
		Stance:       stance,
		Weight:       weight,
	})
}

// Evaluate applies the ruling rules and persists any status change:
//
//   - RULED_OUT when one REFUTES link reaches the ruling weight, or when
//     independent refutations reach the ruling count; corroboration
//     substitutes for single strong evidence.
//   - SUPPORTED when supporting mass exceeds refuting mass by the margin.
//   - ACTIVE otherwise.
func (t *Tracker) Evaluate(ctx context.Context, hypothesisID int64) (model.HypothesisStatus, error) {
	h, err := t.Store.GetHypothesis(ctx, hypothesisID)
	if err != nil {
		return "", err
	}

	links, err := t.Store.ListHypothesisLinks(ctx, hypothesisID)
	if err != nil {
		return "", err
	}

	var supportMass, refuteMass float64
	var refuteCount int
	var strongest model.HypothesisLink
	for _, link := range links {
		switch link.Stance {
		case model.StanceSupports:
			supportMass += link.Weight
		case model.StanceRefutes:
			refuteMass += link.Weight
			refuteCount++
			if link.Weight > strongest.Weight {
				strongest = link
			}
		}
	}

	status := model.HypothesisActive
	ruling := ""
	reason := ""

	switch {
	case strongest.Weight >= t.Policy.RulingWeight && refuteCount > 0:
		status = model.HypothesisRuledOut
		ruling = strongest.Bibcode
		reason = fmt.Sprintf("refuted by %s with weight %.1f (ruling threshold %.1f)",
			strongest.Bibcode, strongest.Weight, t.Policy.RulingWeight)
	case refuteCount >= t.Policy.RulingCount:
		status = model.HypothesisRuledOut
		ruling = strongest.Bibcode
		reason = fmt.Sprintf("%d independent refuting papers (threshold %d)",
			refuteCount, t.Policy.RulingCount)
	case supportMass > refuteMass+t.Policy.SupportMargin:
		status = model.HypothesisSupported
		reason = fmt.Sprintf("supporting mass %.1f exceeds refuting mass %.1f by more than %.1f",
			supportMass, refuteMass, t.Policy.SupportMargin)
	}

	if status != h.Status {
		if err := t.Store.UpdateHypothesisStatus(ctx, hypothesisID, status, ruling, reason); err != nil {
			return "", err
		}
	}
	return status, nil
}

// RuledOut lists every hypothesis the accumulated evidence has closed.
func (t *Tracker) RuledOut(ctx context.Context) ([]model.Hypothesis, error) {
	return t.Store.ListHypotheses(ctx, model.HypothesisRuledOut)
}
