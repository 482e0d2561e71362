package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/consensus"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "Citation commands",
}

var (
	citCiting         string
	citCited          string
	citEither         string
	citClassification string
	citConfidence     float64
	citWeight         float64
	citContext        string
	citReasoning      string
	citAgent          string
	citLimit          int
)

var citationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a classified citation edge",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		label, err := model.ParseClassification(citClassification)
		if err != nil {
			return err
		}
		edge := &model.Citation{
			Citing:         citCiting,
			Cited:          citCited,
			Classification: label,
			Confidence:     citConfidence,
			Weight:         citWeight,
			ContextText:    citContext,
			Reasoning:      citReasoning,
			AnalyzedBy:     citAgent,
		}
		if err := st.PutEdge(ctx, edge); err != nil {
			return err
		}
		fmt.Printf("Stored %s -> %s as %s\n", edge.Citing, edge.Cited, edge.Classification)
		return nil
	}),
}

var citationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List citation edges",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		filter := model.EdgeFilter{
			Citing: citCiting,
			Cited:  citCited,
			Either: citEither,
			Limit:  citLimit,
		}
		if citClassification != "" {
			label, err := model.ParseClassification(citClassification)
			if err != nil {
				return err
			}
			filter.Classification = label
		}
		edges, err := st.ListEdges(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(edges)
	}),
}

var citationsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Classification summary and consensus for a paper",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		agg := consensus.NewAggregator(st, cfg.Classify.AggregateWeight)
		score, breakdown, err := agg.ForPaper(ctx, citEither)
		if err != nil {
			return err
		}

		edges, err := st.ListEdges(ctx, model.EdgeFilter{Cited: citEither})
		if err != nil {
			return err
		}
		counts := make(map[model.Classification]int)
		for _, e := range edges {
			counts[e.Classification]++
		}

		return printJSON(map[string]any{
			"bibcode":   citEither,
			"score":     score,
			"verdict":   consensus.Describe(score),
			"counts":    counts,
			"breakdown": breakdown,
		})
	}),
}

var citationsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count citation edges",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		n, err := st.CountEdges(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}),
}

func init() {
	citationsAddCmd.Flags().StringVar(&citCiting, "citing", "", "citing paper bibcode")
	citationsAddCmd.Flags().StringVar(&citCited, "cited", "", "cited paper bibcode")
	citationsAddCmd.Flags().StringVarP(&citClassification, "classification", "c", "", "SUPPORTING | CONTRASTING | REFUTING | CONTEXTUAL | METHODOLOGICAL | NEUTRAL")
	citationsAddCmd.Flags().Float64Var(&citConfidence, "confidence", 0.5, "confidence score 0-1")
	citationsAddCmd.Flags().Float64Var(&citWeight, "weight", 1.0, "evidentiary weight")
	citationsAddCmd.Flags().StringVar(&citContext, "context", "", "citation context text")
	citationsAddCmd.Flags().StringVar(&citReasoning, "reasoning", "", "classification reasoning")
	citationsAddCmd.Flags().StringVar(&citAgent, "agent", "manual", "who classified this edge")
	citationsAddCmd.MarkFlagRequired("citing")
	citationsAddCmd.MarkFlagRequired("cited")
	citationsAddCmd.MarkFlagRequired("classification")

	citationsListCmd.Flags().StringVarP(&citEither, "bibcode", "b", "", "filter by paper (citing or cited)")
	citationsListCmd.Flags().StringVar(&citCiting, "citing", "", "filter by citing paper")
	citationsListCmd.Flags().StringVar(&citCited, "cited", "", "filter by cited paper")
	citationsListCmd.Flags().StringVarP(&citClassification, "classification", "c", "", "filter by classification")
	citationsListCmd.Flags().IntVarP(&citLimit, "limit", "n", 50, "limit results")

	citationsSummaryCmd.Flags().StringVarP(&citEither, "bibcode", "b", "", "paper bibcode")
	citationsSummaryCmd.MarkFlagRequired("bibcode")

	citationsCmd.AddCommand(citationsAddCmd, citationsListCmd, citationsSummaryCmd, citationsCountCmd)
}
