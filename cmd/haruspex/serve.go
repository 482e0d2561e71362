package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/solresol/haruspex/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.NewServer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer srv.Store.Close(cmd.Context())

		r := srv.SetupRouter()
		log.Printf("Starting server on port %d", cfg.Server.Port)
		return r.Run(fmt.Sprintf(":%d", cfg.Server.Port))
	},
}
