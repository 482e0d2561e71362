package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/config"
	"github.com/solresol/haruspex/internal/store"
)

var (
	exportSessionID int64
	exportFormat    string
	exportOutput    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base",
	RunE: withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		dump, err := st.Export(ctx, exportSessionID)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		switch exportFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		case "csv":
			w := csv.NewWriter(out)
			if err := w.Write([]string{"citing", "cited", "classification", "confidence", "weight", "analyzed_at", "analyzed_by"}); err != nil {
				return err
			}
			for _, e := range dump.Citations {
				record := []string{
					e.Citing,
					e.Cited,
					string(e.Classification),
					strconv.FormatFloat(e.Confidence, 'f', 3, 64),
					strconv.FormatFloat(e.Weight, 'f', 2, 64),
					e.AnalyzedAt.Format("2006-01-02T15:04:05Z07:00"),
					e.AnalyzedBy,
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		default:
			return fmt.Errorf("unknown export format %q", exportFormat)
		}
	}),
}

func init() {
	exportCmd.Flags().Int64Var(&exportSessionID, "session-id", 0, "export one session's papers and edges")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json | csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}
