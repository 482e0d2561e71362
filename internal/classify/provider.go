package classify

import (
	"context"
	"strings"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/llm"
)

// NewOracle builds the configured oracle. The keyword oracle is the
// default; everything else is routed through the llm client factory.
func NewOracle(ctx context.Context, cfg config.OracleConfig) (Oracle, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "keyword", "regex":
		return NewKeywordOracle(), nil
	default:
		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewLLMOracle(client, cfg.Model), nil
	}
}
