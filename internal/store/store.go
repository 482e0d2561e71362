package store

import (
	"context"
	"fmt"
	"time"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
)

// Store is the single shared mutable resource in the system. Every write is
// an atomic single-record operation; there are no cross-record transactions.
// Concurrent writers to different records never block each other; writers
// racing on the same record resolve last-write-wins, which is acceptable
// because every write is an idempotent function of its inputs.
type Store interface {
	// PutPaper upserts a paper by bibcode. Identity never changes;
	// metadata reflects the latest write.
	PutPaper(ctx context.Context, p *model.Paper) error
	GetPaper(ctx context.Context, bibcode string) (*model.Paper, error)
	ListPapers(ctx context.Context, year, limit int) ([]model.Paper, error)
	CountPapers(ctx context.Context) (int, error)

	// PutEdge upserts the current classification for a (citing, cited)
	// pair. A classified write overwrites any prior row, including pending
	// stubs; a pending write never overwrites a classified row. Concurrent
	// reclassification of the same pair is last-write-wins.
	PutEdge(ctx context.Context, c *model.Citation) error
	GetEdge(ctx context.Context, citing, cited string) (*model.Citation, error)
	// ListEdges returns matching edges in insertion order.
	ListEdges(ctx context.Context, f model.EdgeFilter) ([]model.Citation, error)
	CountEdges(ctx context.Context) (int, error)

	CreateSession(ctx context.Context, question string) (int64, error)
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	ListSessions(ctx context.Context, limit int) ([]model.Session, error)
	// CompleteSession transitions OPEN -> COMPLETE exactly once. A second
	// call fails with model.ErrAlreadyComplete and leaves the stored
	// summary unchanged.
	CompleteSession(ctx context.Context, id int64, summary string, score *float64) error

	// MarkVisited records the visit and reports whether the call improved
	// the record: a new insert, or a depth strictly lower than the stored
	// minimum. The stored depth is monotonically non-increasing.
	MarkVisited(ctx context.Context, sessionID int64, bibcode string, depth int, isSeed bool) (bool, error)
	// IsVisited returns the minimum recorded depth, or ok=false if the
	// paper has never been visited in this session.
	IsVisited(ctx context.Context, sessionID int64, bibcode string) (depth int, ok bool, err error)
	ListVisited(ctx context.Context, sessionID int64) ([]model.Visit, error)

	// PutHypothesis is idempotent by (name, origin): re-recording an
	// existing hypothesis returns its id without modifying it.
	PutHypothesis(ctx context.Context, h *model.Hypothesis) (int64, error)
	GetHypothesis(ctx context.Context, id int64) (*model.Hypothesis, error)
	ListHypotheses(ctx context.Context, status model.HypothesisStatus) ([]model.Hypothesis, error)
	UpdateHypothesisStatus(ctx context.Context, id int64, status model.HypothesisStatus, rulingBibcode, reason string) error
	LinkHypothesis(ctx context.Context, link model.HypothesisLink) error
	ListHypothesisLinks(ctx context.Context, hypothesisID int64) ([]model.HypothesisLink, error)

	Stats(ctx context.Context) (*Stats, error)
	Export(ctx context.Context, sessionID int64) (*Export, error)
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

// Stats summarizes the knowledge base.
type Stats struct {
	Papers           int                              `json:"papers"`
	Citations        int                              `json:"citations"`
	Sessions         int                              `json:"sessions"`
	Hypotheses       int                              `json:"hypotheses"`
	ByClassification map[model.Classification]int     `json:"by_classification"`
	ByStatus         map[model.HypothesisStatus]int   `json:"by_hypothesis_status"`
	TopCited         []model.PaperSummary             `json:"top_cited,omitempty"`
}

// Export is a point-in-time dump, optionally restricted to one session's
// papers and the edges touching them.
type Export struct {
	ExportedAt time.Time        `json:"exported_at"`
	Session    *model.Session   `json:"session,omitempty"`
	Papers     []model.Paper    `json:"papers"`
	Citations  []model.Citation `json:"citations"`
}

// Open constructs the configured backend. The store is opened once per
// process and shared; callers must Close it on shutdown.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "memgraph":
		return OpenMemgraph(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
