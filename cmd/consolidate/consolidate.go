// Package consolidate merges high-confidence duplicate merchant groups.
package consolidate

import (
	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
)

// Cmd represents the consolidate command
var Cmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Automatically merge high-confidence duplicate merchants",
	Long: `Consolidate clusters stored merchant names and merges the groups where
every pairwise score clears the high-confidence floor. Ambiguous groups are
skipped and left for manual review via the fix command.`,
	Run: consolidateFunc,
}

func consolidateFunc(cmd *cobra.Command, args []string) {
	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	summary, err := root.NewEngine(db).Consolidate(root.Cfg.Dedup.Threshold)
	if err != nil {
		root.Log.Fatalf("Consolidation failed: %v", err)
	}

	for _, res := range summary.Results {
		if res.Error != "" {
			root.Log.Warnf("Group %d (%s) failed: %s", res.GroupID, res.Canonical, res.Error)
			continue
		}
		root.Log.Infof("Group %d -> %s: %d updated, %d deleted",
			res.GroupID, res.Canonical, res.Updated, res.Deleted)
	}
	root.Log.Infof("Consolidation complete: %d group(s), %d updated, %d deleted",
		summary.GroupsProcessed, summary.Updated, summary.Deleted)
}
