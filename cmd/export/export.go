// Package export writes stored transactions to a CSV file.
package export

import (
	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
	exportsvc "mhagen/fintrack/internal/export"
	"mhagen/fintrack/internal/models"
	"mhagen/fintrack/internal/store"
)

var (
	outputFile string
	category   string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions to CSV",
	Long:  `Export writes stored transactions to a CSV file, optionally filtered by category.`,
	Run:   exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "transactions.csv", "Output CSV file")
	Cmd.Flags().StringVarP(&category, "category", "c", "", "Only export transactions in this category")
}

func exportFunc(cmd *cobra.Command, args []string) {
	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	repo := store.NewTransactionRepo(db)
	var txns []models.Transaction
	if category != "" {
		txns, err = repo.ListByCategory(category)
	} else {
		txns, err = repo.ListAll()
	}
	if err != nil {
		root.Log.Fatalf("Error loading transactions: %v", err)
	}

	opts := exportsvc.DefaultOptions()
	if root.Cfg.Export.Delimiter != "" {
		opts.Delimiter = []rune(root.Cfg.Export.Delimiter)[0]
	}
	opts.IncludeHeaders = root.Cfg.Export.IncludeHeaders

	if err := exportsvc.WriteCSVFile(outputFile, txns, opts, root.Logger()); err != nil {
		root.Log.Fatalf("Export failed: %v", err)
	}
	root.Log.Infof("Exported %d transaction(s) to %s", len(txns), outputFile)
}
