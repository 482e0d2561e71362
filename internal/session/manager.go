package session

import (
	"context"

	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

// Manager groups a research question with the papers its traversal
// touched and the final synthesis. Completion happens exactly once; the
// store enforces that, this layer just exposes it.
type Manager struct {
	Store store.Store
}

func NewManager(st store.Store) *Manager {
	return &Manager{Store: st}
}

func (m *Manager) Create(ctx context.Context, question string) (int64, error) {
	return m.Store.CreateSession(ctx, question)
}

func (m *Manager) Get(ctx context.Context, id int64) (*model.Session, error) {
	return m.Store.GetSession(ctx, id)
}

func (m *Manager) List(ctx context.Context, limit int) ([]model.Session, error) {
	return m.Store.ListSessions(ctx, limit)
}

// AddPaper records a paper in the session's visited set. Re-adding at a
// greater depth is a no-op; the visited set keeps the minimum.
func (m *Manager) AddPaper(ctx context.Context, id int64, bibcode string, depth int, isSeed bool) (bool, error) {
	return m.Store.MarkVisited(ctx, id, bibcode, depth, isSeed)
}

func (m *Manager) Papers(ctx context.Context, id int64) ([]model.Visit, error) {
	return m.Store.ListVisited(ctx, id)
}

// Complete closes the session with its summary and score. Completing a
// session twice fails; the first summary is never overwritten.
func (m *Manager) Complete(ctx context.Context, id int64, summary string, score *float64) error {
	return m.Store.CompleteSession(ctx, id, summary, score)
}
