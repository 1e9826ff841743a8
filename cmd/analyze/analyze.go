// Package analyze runs a read-only duplicate analysis over stored merchants.
package analyze

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
)

// Cmd represents the analyze command
var Cmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report probable duplicate merchants",
	Long: `Analyze scores every pair of stored merchant names and reports clusters
likely to denote the same payee, with per-algorithm scores and a
recommendation. Nothing is modified.`,
	Run: analyzeFunc,
}

func analyzeFunc(cmd *cobra.Command, args []string) {
	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	analysis, err := root.NewEngine(db).Analyze(root.Cfg.Dedup.Threshold)
	if err != nil {
		root.Log.Fatalf("Analysis failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis); err != nil {
		root.Log.Fatalf("Error writing report: %v", err)
	}

	root.Log.Infof("Found %d duplicate group(s) across %d merchant(s)",
		len(analysis.Groups), analysis.MerchantsScanned)
}
