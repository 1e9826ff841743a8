// Package serve starts the HTTP API server.
package serve

import (
	"net/http"

	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
	"mhagen/fintrack/internal/api"
	"mhagen/fintrack/internal/ingest"
	"mhagen/fintrack/internal/store"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start the HTTP API server exposing ingestion, transaction queries, and the deduplication actions.`,
	Run:   serveFunc,
}

func serveFunc(cmd *cobra.Command, args []string) {
	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	log := root.Logger()
	svc := ingest.NewService(db, log)
	svc.SetAliases(root.Aliases)
	router := api.NewRouter(
		store.NewTransactionRepo(db),
		store.NewStatementRepo(db),
		svc,
		root.NewEngine(db),
		log,
	)

	root.Log.Infof("Listening on %s", root.Cfg.Server.Addr)
	if err := http.ListenAndServe(root.Cfg.Server.Addr, router); err != nil {
		root.Log.Fatalf("Server stopped: %v", err)
	}
}
