package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "haruspex",
	Short:         "Citation knowledge base for literature consensus analysis",
	Long:          "haruspex builds a knowledge base of research-paper citation relationships\nand answers what the literature's consensus is on a topic.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.toml")

	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(citationsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(hypothesisCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("HARUSPEX_CONFIG")
	}
	if path == "" {
		path = "config/config.toml"
	}
	return config.Load(path)
}

// withStore handles the config/store lifecycle shared by every command.
func withStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
		return fn(ctx, cfg, st)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
