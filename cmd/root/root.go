// Package root contains the root command for the application
package root

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mhagen/fintrack/internal/alias"
	"mhagen/fintrack/internal/cluster"
	"mhagen/fintrack/internal/config"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/recon"
	"mhagen/fintrack/internal/store"
)

// CommonFlags represents the flags shared by multiple commands.
type CommonFlags struct {
	Database  string
	Threshold float64
}

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// Cfg is the loaded application configuration, populated before any
	// subcommand runs.
	Cfg *config.Config

	// SharedFlags holds flag values common to multiple commands.
	SharedFlags = CommonFlags{}

	// Aliases is the learned variant-to-canonical merchant mapping, loaded
	// before any subcommand runs and saved back when a run changed it.
	Aliases *alias.Store

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "fintrack",
		Short: "A personal-finance tracker with a merchant deduplication engine.",
		Long: `fintrack stores parsed bank-statement transactions and recognizes when
differently spelled merchant strings denote the same real-world payee,
consolidating records without ever silently merging distinct merchants.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to fintrack!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			Log = config.ConfigureLogging()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg

			// Flags override file and environment configuration.
			if SharedFlags.Database != "" {
				Cfg.Database.Path = SharedFlags.Database
			}
			if cmd.Flags().Changed("threshold") {
				Cfg.Dedup.Threshold = SharedFlags.Threshold
			}

			if Cfg.Dedup.AliasFile != "" {
				aliases, err := alias.Load(Cfg.Dedup.AliasFile)
				if err != nil {
					return fmt.Errorf("load alias file %s: %w", Cfg.Dedup.AliasFile, err)
				}
				Aliases = aliases
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if Aliases == nil || !Aliases.Dirty() {
				return
			}
			if err := Aliases.Save(); err != nil {
				Log.WithError(err).Warn("Failed to save merchant alias mappings")
			}
		},
	}
)

// Init wires the persistent flags. Called from main before subcommands are
// attached.
func Init() {
	Cmd.PersistentFlags().StringVar(&SharedFlags.Database, "db", "", "Path to the SQLite database (overrides config)")
	Cmd.PersistentFlags().Float64Var(&SharedFlags.Threshold, "threshold", 0.75, "Similarity threshold for duplicate detection")
}

// Logger adapts the shared logrus instance to the application Logger.
func Logger() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(Log)
}

// OpenStore opens the configured SQLite database.
func OpenStore() (*sql.DB, error) {
	db, err := store.InitDB(Cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", Cfg.Database.Path, err)
	}
	return db, nil
}

// CanonicalMode maps the configured canonical-selection mode.
func CanonicalMode() cluster.CanonicalMode {
	if Cfg.Dedup.CanonicalMode == "history" {
		return cluster.CanonicalMostHistory
	}
	return cluster.CanonicalShortest
}

// NewEngine builds a reconciliation engine over db with the configured
// canonical mode and review margin.
func NewEngine(db *sql.DB) *recon.Engine {
	engine := recon.NewEngine(db, CanonicalMode(), Logger())
	engine.SetReviewMargin(Cfg.Dedup.ReviewMarginChars)
	engine.SetAutoConsolidateFloor(Cfg.Dedup.AutoConsolidateFloor)
	engine.SetAliases(Aliases)
	return engine
}
