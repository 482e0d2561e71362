package model

import "time"

type SessionStatus string

const (
	SessionOpen     SessionStatus = "OPEN"
	SessionComplete SessionStatus = "COMPLETE"
)

// Session groups one research question with the papers visited while
// answering it. A session transitions OPEN -> COMPLETE exactly once and is
// immutable afterwards.
type Session struct {
	ID             int64      `json:"id"`
	Question       string     `json:"question"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	ConsensusScore *float64   `json:"consensus_score,omitempty"`
	PaperCount     int        `json:"paper_count"`
}

func (s Session) Status() SessionStatus {
	if s.CompletedAt != nil {
		return SessionComplete
	}
	return SessionOpen
}

// Visit is one row of the session-visited set. At most one row exists per
// (session, paper); Depth holds the minimum depth ever recorded for it.
type Visit struct {
	SessionID int64  `json:"session_id"`
	Bibcode   string `json:"bibcode"`
	Depth     int    `json:"depth"`
	IsSeed    bool   `json:"is_seed"`
}
