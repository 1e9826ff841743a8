// Package ingest loads a parsed statement JSON file into the database.
package ingest

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
	ingestsvc "mhagen/fintrack/internal/ingest"
	"mhagen/fintrack/internal/models"
)

var inputFile string

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a parsed statement JSON file",
	Long: `Ingest reads a parsed statement (institution, month, transactions) from a
JSON file, normalizes merchant names, assigns identity keys, and persists the
transactions. Re-ingesting the same statement is safe: existing rows are
skipped and the statement revision is bumped.`,
	Run: ingestFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Parsed statement JSON file")
	Cmd.MarkFlagRequired("input")
}

func ingestFunc(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		root.Log.Fatalf("Error reading %s: %v", inputFile, err)
	}

	var parsed models.ParsedStatement
	if err := json.Unmarshal(data, &parsed); err != nil {
		root.Log.Fatalf("Error parsing statement: %v", err)
	}

	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	svc := ingestsvc.NewService(db, root.Logger())
	svc.SetAliases(root.Aliases)
	result, err := svc.Ingest(parsed)
	if err != nil {
		root.Log.Fatalf("Ingestion failed: %v", err)
	}

	for _, rej := range result.Rejected {
		root.Log.Warnf("Rejected record %d (%s): %s", rej.Index, rej.Description, rej.Reason)
	}
	root.Log.Infof("Statement %d rev %d: %d inserted, %d skipped, %d deleted",
		result.StatementID, result.RevisionNumber, result.Inserted, result.Skipped, result.Deleted)
}
