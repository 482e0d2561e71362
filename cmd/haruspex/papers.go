package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/model"
	"github.com/solresol/haruspex/internal/store"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Paper commands",
}

var (
	paperBibcode string
	paperTitle   string
	paperJSON    string
	paperYear    int
	paperLimit   int
)

var papersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a paper",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		var p model.Paper
		if paperJSON != "" {
			if err := json.Unmarshal([]byte(paperJSON), &p); err != nil {
				return fmt.Errorf("invalid paper JSON: %w", err)
			}
		}
		if paperBibcode != "" {
			p.Bibcode = paperBibcode
		}
		if paperTitle != "" {
			p.Title = paperTitle
		}
		if paperYear != 0 {
			p.Year = paperYear
		}
		if err := st.PutPaper(ctx, &p); err != nil {
			return err
		}
		fmt.Printf("Stored paper %s\n", p.Bibcode)
		return nil
	}),
}

var papersGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Get paper details",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		p, err := st.GetPaper(ctx, paperBibcode)
		if err != nil {
			return err
		}
		return printJSON(p)
	}),
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		papers, err := st.ListPapers(ctx, paperYear, paperLimit)
		if err != nil {
			return err
		}
		return printJSON(papers)
	}),
}

var papersCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count papers",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		n, err := st.CountPapers(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}),
}

func init() {
	papersAddCmd.Flags().StringVarP(&paperBibcode, "bibcode", "b", "", "paper bibcode")
	papersAddCmd.Flags().StringVarP(&paperTitle, "title", "t", "", "paper title")
	papersAddCmd.Flags().IntVarP(&paperYear, "year", "y", 0, "publication year")
	papersAddCmd.Flags().StringVarP(&paperJSON, "json", "j", "", "full paper record as JSON")

	papersGetCmd.Flags().StringVarP(&paperBibcode, "bibcode", "b", "", "paper bibcode")
	papersGetCmd.MarkFlagRequired("bibcode")

	papersListCmd.Flags().IntVarP(&paperYear, "year", "y", 0, "filter by year")
	papersListCmd.Flags().IntVarP(&paperLimit, "limit", "n", 20, "limit results")

	papersCmd.AddCommand(papersAddCmd, papersGetCmd, papersListCmd, papersCountCmd)
}
