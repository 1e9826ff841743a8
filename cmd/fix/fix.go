// Package fix applies operator-reviewed merchant merges from a JSON file.
package fix

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
	"mhagen/fintrack/internal/models"
)

var inputFile string

// Cmd represents the fix command
var Cmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply explicit merchant merges from a JSON file",
	Long: `Fix applies a reviewed list of merges. The input file holds an array of
{groupId, canonicalMerchant, transactionIds} objects, typically edited down
from the analyze report.`,
	Run: fixFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "JSON file with the fixes to apply")
	Cmd.MarkFlagRequired("input")
}

func fixFunc(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		root.Log.Fatalf("Error reading %s: %v", inputFile, err)
	}

	var fixes []models.Fix
	if err := json.Unmarshal(data, &fixes); err != nil {
		root.Log.Fatalf("Error parsing fixes: %v", err)
	}

	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	summary, err := root.NewEngine(db).Fix(fixes)
	if err != nil {
		root.Log.Fatalf("Fix failed: %v", err)
	}

	for _, res := range summary.Results {
		if res.Error != "" {
			root.Log.Warnf("Fix %d (%s) failed: %s", res.GroupID, res.Canonical, res.Error)
			continue
		}
		root.Log.Infof("Fix %d -> %s: %d updated, %d deleted",
			res.GroupID, res.Canonical, res.Updated, res.Deleted)
	}
	root.Log.Infof("Applied %d fix(es): %d updated, %d deleted",
		summary.GroupsProcessed, summary.Updated, summary.Deleted)
}
