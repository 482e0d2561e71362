package source

import (
	"context"

	"github.com/solresol/haruspex/internal/model"
)

// PaperSource is the external catalog the traversal pulls papers from.
// Implementations return partial records when the catalog has gaps; a
// missing abstract is data, not an error.
type PaperSource interface {
	// Search runs a free-text query and returns matches, best first.
	Search(ctx context.Context, query string, limit int) ([]model.Paper, error)

	// GetReferences returns papers the given paper cites, most cited first.
	GetReferences(ctx context.Context, bibcode string, limit int) ([]model.Paper, error)

	// GetCiting returns papers that cite the given paper, most cited first.
	GetCiting(ctx context.Context, bibcode string, limit int) ([]model.Paper, error)

	// GetAbstract fetches the full record for one paper.
	GetAbstract(ctx context.Context, bibcode string) (*model.Paper, error)
}
