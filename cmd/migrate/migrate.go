// Package migrate rewrites legacy transaction keys to the canonical scheme.
package migrate

import (
	"github.com/spf13/cobra"

	"mhagen/fintrack/cmd/root"
)

var confirm bool

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate legacy transaction identity keys",
	Long: `Migrate rewrites every transaction key from the old truncated encoding to
the canonical one. Keys already canonical are left alone. The operation is
destructive to the old keys, so it requires --confirm.`,
	Run: migrateFunc,
}

func init() {
	Cmd.Flags().BoolVar(&confirm, "confirm", false, "Acknowledge that keys will be rewritten")
}

func migrateFunc(cmd *cobra.Command, args []string) {
	if !confirm {
		root.Log.Fatal("Migration rewrites every legacy key; re-run with --confirm to proceed")
	}

	db, err := root.OpenStore()
	if err != nil {
		root.Log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	report, err := root.NewEngine(db).MigrateIdentities()
	if err != nil {
		root.Log.Fatalf("Migration failed: %v", err)
	}

	root.Log.Infof("Migration complete: %d scanned, %d migrated, %d already canonical, %d suffixed",
		report.Scanned, report.Migrated, report.Skipped, report.Suffixed)
}
