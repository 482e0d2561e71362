package model

import (
	"fmt"
	"strings"
	"time"
)

type HypothesisStatus string

const (
	HypothesisActive    HypothesisStatus = "ACTIVE"
	HypothesisSupported HypothesisStatus = "SUPPORTED"
	HypothesisRuledOut  HypothesisStatus = "RULED_OUT"
)

// Hypothesis tracks a claim extracted from the literature and whether
// accumulated REFUTING evidence has ruled it out. Status only changes
// through an explicit transition that records the ruling paper and reason.
type Hypothesis struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Status        HypothesisStatus `json:"status"`
	OriginBibcode string           `json:"origin_bibcode,omitempty"`
	RulingBibcode string           `json:"ruling_bibcode,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Stance is how a linked paper bears on a hypothesis.
type Stance string

const (
	StanceSupports Stance = "SUPPORTS"
	StanceRefutes  Stance = "REFUTES"
)

func ParseStance(s string) (Stance, error) {
	st := Stance(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StanceSupports, StanceRefutes:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown stance %q", ErrValidation, s)
}

// HypothesisLink ties a paper to a hypothesis with a stance and the
// evidentiary weight the paper carried when it was linked.
type HypothesisLink struct {
	HypothesisID int64   `json:"hypothesis_id"`
	Bibcode      string  `json:"bibcode"`
	Stance       Stance  `json:"stance"`
	Weight       float64 `json:"weight"`
}
