package recon

import (
	"fmt"

	"mhagen/fintrack/internal/identity"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/store"
)

// MigrationReport summarizes a one-time identity migration run.
type MigrationReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Suffixed int `json:"suffixed"`
}

// MigrateIdentities rewrites every transaction key from the legacy truncated
// scheme to the canonical one. Rows already carrying a canonical key (or one
// of its suffix variants) are left alone. When two legacy rows collapse onto
// one canonical key they are distinct charges that the lossy old scheme
// happened to separate, so the later row gets a suffix rather than being
// dropped. The whole migration is one database transaction.
func (e *Engine) MigrateIdentities() (*MigrationReport, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	repo := store.NewTransactionRepo(e.db).WithTx(tx)
	rows, err := repo.ListAll()
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{Scanned: len(rows)}
	for _, row := range rows {
		base := e.ids.Key(row.Date, row.Merchant, row.Amount)
		if identity.IsVariantOf(row.ID, base) {
			report.Skipped++
			continue
		}

		newID := identity.Disambiguate(base, func(candidate string) bool {
			existing, lookErr := repo.GetByID(candidate)
			if lookErr != nil {
				err = lookErr
				return true
			}
			return existing != nil
		})
		if err != nil {
			return nil, err
		}
		if newID != base {
			report.Suffixed++
		}

		if err := repo.Rekey(row.ID, newID, ""); err != nil {
			return nil, err
		}
		report.Migrated++
		e.log.Debug("migrated transaction key",
			logging.Field{Key: logging.FieldTransactionID, Value: newID})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit migration: %w", err)
	}

	e.log.Info("identity migration complete",
		logging.Field{Key: logging.FieldCount, Value: report.Migrated})
	return report, nil
}
