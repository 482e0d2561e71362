package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/classify"
	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/consensus"
	"github.com/solresol/haruspex/internal/session"
	"github.com/solresol/haruspex/internal/source"
	"github.com/solresol/haruspex/internal/store"
	"github.com/solresol/haruspex/internal/traverse"
)

var (
	resQuestion string
	resSeeds    []string
	resDepth    int
	resBudget   int
	resFanout   int
	resComplete bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run a full research session: traverse, classify, score",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		if resDepth >= 0 {
			cfg.Traversal.DepthLimit = resDepth
		}
		if resBudget >= 0 {
			cfg.Traversal.Budget = resBudget
		}
		if resFanout > 0 {
			cfg.Traversal.Fanout = resFanout
		}

		oracle, err := classify.NewOracle(ctx, cfg.Oracle)
		if err != nil {
			return err
		}
		engine := classify.NewEngine(oracle, cfg.Classify, cfg.Oracle.Votes)

		ads, err := source.NewADSClient(cfg.Source)
		if err != nil {
			return err
		}
		src := source.WithRetries(ads, cfg.Source.Retries)

		sessions := session.NewManager(st)
		sessionID, err := sessions.Create(ctx, resQuestion)
		if err != nil {
			return err
		}
		fmt.Printf("Session %d: %s\n", sessionID, resQuestion)

		controller := traverse.NewController(st, src, engine, cfg.Traversal)
		result, err := controller.Run(ctx, sessionID, resSeeds)
		if err != nil {
			return err
		}
		if err := printJSON(result); err != nil {
			return err
		}

		agg := consensus.NewAggregator(st, cfg.Classify.AggregateWeight)
		score, breakdown, err := agg.ForSession(ctx, sessionID)
		if err != nil {
			return err
		}
		verdict := consensus.Describe(score)
		fmt.Printf("Consensus: %s\n", verdict)
		if score != nil {
			fmt.Printf("Score: %+.3f over %d classified edges\n", *score, breakdown.Edges)
		}

		if resComplete {
			summary := fmt.Sprintf("%s (run %s)", verdict, result.RunID)
			if err := sessions.Complete(ctx, sessionID, summary, score); err != nil {
				return err
			}
			fmt.Printf("Session %d completed\n", sessionID)
		}
		return nil
	}),
}

func init() {
	researchCmd.Flags().StringVarP(&resQuestion, "question", "q", "", "research question")
	researchCmd.Flags().StringSliceVar(&resSeeds, "seeds", nil, "seed bibcodes")
	researchCmd.Flags().IntVar(&resDepth, "depth", -1, "override traversal depth limit")
	researchCmd.Flags().IntVar(&resBudget, "budget", -1, "override classification budget")
	researchCmd.Flags().IntVar(&resFanout, "fanout", 0, "override recursion fan-out")
	researchCmd.Flags().BoolVar(&resComplete, "complete", false, "complete the session after the run")
	researchCmd.MarkFlagRequired("question")
	researchCmd.MarkFlagRequired("seeds")
}
