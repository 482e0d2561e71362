package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/hypothesis"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

var hypothesisCmd = &cobra.Command{
	Use:   "hypothesis",
	Short: "Hypothesis tracking commands",
}

var (
	hypName    string
	hypDesc    string
	hypOrigin  string
	hypRuling  string
	hypReason  string
	hypStatus  string
	hypID      int64
	hypBibcode string
	hypStance  string
	hypWeight  float64
)

var hypothesisAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a hypothesis",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		tracker := hypothesis.NewTracker(st, cfg.Hypothesis)
		id, err := tracker.Record(ctx, hypName, hypDesc, hypOrigin)
		if err != nil {
			return err
		}
		fmt.Printf("Hypothesis %d: %s\n", id, hypName)
		return nil
	}),
}

var hypothesisListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hypotheses",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		hypotheses, err := st.ListHypotheses(ctx, model.HypothesisStatus(hypStatus))
		if err != nil {
			return err
		}
		return printJSON(hypotheses)
	}),
}

var hypothesisUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update hypothesis status",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		switch model.HypothesisStatus(hypStatus) {
		case model.HypothesisActive, model.HypothesisSupported, model.HypothesisRuledOut:
		default:
			return fmt.Errorf("%w: unknown hypothesis status %q", model.ErrValidation, hypStatus)
		}
		return st.UpdateHypothesisStatus(ctx, hypID, model.HypothesisStatus(hypStatus), hypRuling, hypReason)
	}),
}

var hypothesisLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link a paper's stance to a hypothesis",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		stance, err := model.ParseStance(hypStance)
		if err != nil {
			return err
		}
		tracker := hypothesis.NewTracker(st, cfg.Hypothesis)
		if err := tracker.LinkStance(ctx, hypID, hypBibcode, stance, hypWeight); err != nil {
			return err
		}
		status, err := tracker.Evaluate(ctx, hypID)
		if err != nil {
			return err
		}
		fmt.Printf("Linked %s (%s); hypothesis %d is now %s\n", hypBibcode, stance, hypID, status)
		return nil
	}),
}

var hypothesisRuledOutCmd = &cobra.Command{
	Use:   "ruled-out",
	Short: "List ruled-out hypotheses",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		closed, err := hypothesis.NewTracker(st, cfg.Hypothesis).RuledOut(ctx)
		if err != nil {
			return err
		}
		return printJSON(closed)
	}),
}

var hypothesisEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Re-evaluate a hypothesis against its linked evidence",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		status, err := hypothesis.NewTracker(st, cfg.Hypothesis).Evaluate(ctx, hypID)
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	}),
}

func init() {
	hypothesisAddCmd.Flags().StringVarP(&hypName, "name", "n", "", "hypothesis name")
	hypothesisAddCmd.Flags().StringVarP(&hypDesc, "description", "d", "", "description")
	hypothesisAddCmd.Flags().StringVar(&hypOrigin, "origin", "", "bibcode of originating paper")
	hypothesisAddCmd.MarkFlagRequired("name")

	hypothesisListCmd.Flags().StringVarP(&hypStatus, "status", "s", "", "filter by status")

	hypothesisUpdateCmd.Flags().Int64Var(&hypID, "id", 0, "hypothesis id")
	hypothesisUpdateCmd.Flags().StringVarP(&hypStatus, "status", "s", "", "new status")
	hypothesisUpdateCmd.Flags().StringVar(&hypRuling, "ruling", "", "bibcode of ruling paper")
	hypothesisUpdateCmd.Flags().StringVar(&hypReason, "reason", "", "reason for the change")
	hypothesisUpdateCmd.MarkFlagRequired("id")
	hypothesisUpdateCmd.MarkFlagRequired("status")

	hypothesisLinkCmd.Flags().Int64Var(&hypID, "hypothesis-id", 0, "hypothesis id")
	hypothesisLinkCmd.Flags().StringVarP(&hypBibcode, "bibcode", "b", "", "paper bibcode")
	hypothesisLinkCmd.Flags().StringVar(&hypStance, "stance", "", "SUPPORTS | REFUTES")
	hypothesisLinkCmd.Flags().Float64Var(&hypWeight, "weight", 1.0, "evidentiary weight")
	hypothesisLinkCmd.MarkFlagRequired("hypothesis-id")
	hypothesisLinkCmd.MarkFlagRequired("bibcode")
	hypothesisLinkCmd.MarkFlagRequired("stance")

	hypothesisEvaluateCmd.Flags().Int64Var(&hypID, "id", 0, "hypothesis id")
	hypothesisEvaluateCmd.MarkFlagRequired("id")

	hypothesisCmd.AddCommand(hypothesisAddCmd, hypothesisListCmd, hypothesisUpdateCmd,
		hypothesisLinkCmd, hypothesisRuledOutCmd, hypothesisEvaluateCmd)
}
