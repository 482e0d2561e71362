package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	}),
}

var resetConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete everything in the knowledge base",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to reset without --confirm")
		}
		if err := st.Reset(ctx); err != nil {
			return err
		}
		fmt.Println("Knowledge base reset")
		return nil
	}),
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "confirm", false, "confirm deletion")
}
