package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/consensus"
	"github.com/solresol/haruspex/internal/session"
	"github.com/solresol/haruspex/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Research session commands",
}

var (
	sessQuestion string
	sessID       int64
	sessSummary  string
	sessScore    float64
	sessBibcode  string
	sessDepth    int
	sessSeed     bool
	sessLimit    int
)

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		id, err := session.NewManager(st).Create(ctx, sessQuestion)
		if err != nil {
			return err
		}
		fmt.Printf("Created session %d\n", id)
		return nil
	}),
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		sessions, err := session.NewManager(st).List(ctx, sessLimit)
		if err != nil {
			return err
		}
		return printJSON(sessions)
	}),
}

var sessionAddPaperCmd = &cobra.Command{
	Use:   "add-paper",
	Short: "Add a paper to a session's visited set",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		improved, err := session.NewManager(st).AddPaper(ctx, sessID, sessBibcode, sessDepth, sessSeed)
		if err != nil {
			return err
		}
		if improved {
			fmt.Printf("Recorded %s at depth %d\n", sessBibcode, sessDepth)
		} else {
			fmt.Printf("%s already recorded at depth <= %d\n", sessBibcode, sessDepth)
		}
		return nil
	}),
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete a session",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		score := &sessScore
		if sessScore < -1 || sessScore > 1 {
			return fmt.Errorf("consensus score must be in [-1,1]")
		}
		// Unset flag means compute the score from the stored edges.
		if sessScore == 0 {
			computed, _, err := consensus.NewAggregator(st, cfg.Classify.AggregateWeight).ForSession(ctx, sessID)
			if err != nil {
				return err
			}
			score = computed
		}
		if err := session.NewManager(st).Complete(ctx, sessID, sessSummary, score); err != nil {
			return err
		}
		if score != nil {
			fmt.Printf("Completed session %d with consensus %.3f\n", sessID, *score)
		} else {
			fmt.Printf("Completed session %d (no evaluative data)\n", sessID)
		}
		return nil
	}),
}

func init() {
	sessionCreateCmd.Flags().StringVarP(&sessQuestion, "question", "q", "", "research question")
	sessionCreateCmd.MarkFlagRequired("question")

	sessionListCmd.Flags().IntVarP(&sessLimit, "limit", "n", 20, "limit results")

	sessionAddPaperCmd.Flags().Int64Var(&sessID, "session-id", 0, "session id")
	sessionAddPaperCmd.Flags().StringVarP(&sessBibcode, "bibcode", "b", "", "paper bibcode")
	sessionAddPaperCmd.Flags().IntVar(&sessDepth, "depth", 0, "analysis depth")
	sessionAddPaperCmd.Flags().BoolVar(&sessSeed, "seed", false, "mark as seed paper")
	sessionAddPaperCmd.MarkFlagRequired("session-id")
	sessionAddPaperCmd.MarkFlagRequired("bibcode")

	sessionCompleteCmd.Flags().Int64Var(&sessID, "id", 0, "session id")
	sessionCompleteCmd.Flags().StringVarP(&sessSummary, "summary", "s", "", "session summary")
	sessionCompleteCmd.Flags().Float64Var(&sessScore, "consensus-score", 0, "consensus score -1 to 1 (computed when omitted)")
	sessionCompleteCmd.MarkFlagRequired("id")

	sessionCmd.AddCommand(sessionCreateCmd, sessionListCmd, sessionAddPaperCmd, sessionCompleteCmd)
}
