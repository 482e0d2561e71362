package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/classify"
	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

var (
	reclassAll    bool
	reclassLimit  int
	reclassDryRun bool
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Re-run classification over stored edges",
	Long:  "Classifies pending edge stubs left by budget-exhausted runs. With --all,\nevery stored edge is re-judged with the current oracle; each overwrite is\naudited through the analyzed_by and analyzed_at fields.",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		oracle, err := classify.NewOracle(ctx, cfg.Oracle)
		if err != nil {
			return err
		}
		engine := classify.NewEngine(oracle, cfg.Classify, cfg.Oracle.Votes)

		edges, err := st.ListEdges(ctx, model.EdgeFilter{IncludePending: true, Limit: reclassLimit})
		if err != nil {
			return err
		}

		var done, skipped, failed int
		for _, edge := range edges {
			if !edge.IsPending() && !reclassAll {
				skipped++
				continue
			}

			citing, err := st.GetPaper(ctx, edge.Citing)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					skipped++
					continue
				}
				return err
			}
			cited, err := st.GetPaper(ctx, edge.Cited)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					skipped++
					continue
				}
				return err
			}

			fresh, err := engine.Classify(ctx, citing, cited, edge.ContextText)
			if err != nil {
				log.Printf("reclassify: %s -> %s failed: %v", edge.Citing, edge.Cited, err)
				failed++
				continue
			}
			if reclassDryRun {
				fmt.Printf("%s -> %s: %s (%.2f)\n",
					fresh.Citing, fresh.Cited, fresh.Classification, fresh.Confidence)
				done++
				continue
			}
			if err := st.PutEdge(ctx, fresh); err != nil {
				return err
			}
			done++
		}

		fmt.Printf("Reclassified %d edge(s), skipped %d, failed %d\n", done, skipped, failed)
		return nil
	}),
}

func init() {
	reclassifyCmd.Flags().BoolVar(&reclassAll, "all", false, "re-judge classified edges too, not just pending stubs")
	reclassifyCmd.Flags().IntVarP(&reclassLimit, "limit", "n", 0, "stop after this many edges (0 = no limit)")
	reclassifyCmd.Flags().BoolVar(&reclassDryRun, "dry-run", false, "print the new verdicts without storing them")
}
