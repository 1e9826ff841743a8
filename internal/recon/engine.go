// Package recon applies duplicate-group decisions to the transaction store:
// analysis reports, automatic high-confidence consolidation, manual fixes,
// and the one-time identity-scheme migration.
package recon

import (
	"database/sql"
	"fmt"

	"mhagen/fintrack/internal/alias"
	"mhagen/fintrack/internal/cluster"
	"mhagen/fintrack/internal/identity"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/models"
	"mhagen/fintrack/internal/similarity"
	"mhagen/fintrack/internal/store"
)

// Request is the tagged union of deduplication requests. Exactly one concrete
// type exists per action; callers dispatch with a type switch instead of
// branching on action strings.
type Request interface{ isRequest() }

// AnalyzeRequest asks for a read-only duplicate report at a threshold.
type AnalyzeRequest struct {
	Threshold float64 `json:"threshold"`
}

// ConsolidateRequest asks for automatic consolidation of groups where every
// pair clears the high-confidence floor. Confirm must be true; consolidation
// deletes rows.
type ConsolidateRequest struct {
	Threshold float64 `json:"threshold"`
	Confirm   bool    `json:"confirm"`
}

// FixRequest applies explicit, operator-reviewed merges. Confirm must be true.
type FixRequest struct {
	Fixes   []models.Fix `json:"fixes"`
	Confirm bool         `json:"confirm"`
}

func (AnalyzeRequest) isRequest()     {}
func (ConsolidateRequest) isRequest() {}
func (FixRequest) isRequest()         {}

// Engine coordinates clustering with store mutations. It assumes exclusive
// access to the store for the duration of a consolidation pass.
type Engine struct {
	db           *sql.DB
	ids          identity.Generator
	mode         cluster.CanonicalMode
	reviewMargin int
	autoFloor    float64
	aliases      *alias.Store
	log          logging.Logger
}

// NewEngine returns an engine writing via db under the canonical identity
// scheme. mode selects how group canonicals are chosen.
func NewEngine(db *sql.DB, mode cluster.CanonicalMode, log logging.Logger) *Engine {
	return &Engine{
		db:        db,
		ids:       identity.NewGenerator(identity.SchemeCanonical),
		mode:      mode,
		autoFloor: similarity.HighConfidenceFloor,
		log:       log,
	}
}

// SetReviewMargin overrides the edit-distance margin beyond which a group is
// flagged for review instead of auto-applied.
func (e *Engine) SetReviewMargin(chars int) {
	e.reviewMargin = chars
}

// SetAutoConsolidateFloor overrides the minimum pairwise score required for
// automatic consolidation. Values below the high-confidence floor are
// rejected by configuration validation upstream.
func (e *Engine) SetAutoConsolidateFloor(floor float64) {
	if floor > 0 {
		e.autoFloor = floor
	}
}

// SetAliases attaches a variant-to-canonical mapping store. Applied merges
// are recorded so later ingests resolve the variants directly.
func (e *Engine) SetAliases(aliases *alias.Store) {
	e.aliases = aliases
}

// GroupReport is one duplicate group in an analysis, enriched with the live
// transaction count it would touch.
type GroupReport struct {
	GroupID          int                `json:"groupId"`
	Canonical        string             `json:"canonical"`
	Variants         []string           `json:"variants"`
	TransactionCount int                `json:"transactionCount"`
	Pairs            []models.PairMatch `json:"pairs"`
	NeedsReview      bool               `json:"needsReview"`
	ReviewReason     string             `json:"reviewReason,omitempty"`
	Recommendation   string             `json:"recommendation"`
}

// Analysis is the read-only result of an analyze run. Nothing is mutated.
type Analysis struct {
	Threshold        float64       `json:"threshold"`
	MerchantsScanned int           `json:"merchantsScanned"`
	Groups           []GroupReport `json:"groups"`
}

// GroupResult records the outcome of mutating one group. A failed group
// carries its error here; it does not fail the whole batch.
type GroupResult struct {
	GroupID   int    `json:"groupId"`
	Canonical string `json:"canonical"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
	Error     string `json:"error,omitempty"`
}

// MutationSummary aggregates a consolidate or fix run.
type MutationSummary struct {
	GroupsProcessed int           `json:"groupsProcessed"`
	Updated         int           `json:"updated"`
	Deleted         int           `json:"deleted"`
	Results         []GroupResult `json:"results"`
}

// Analyze clusters every stored merchant at the given threshold and reports
// the groups without touching the store.
func (e *Engine) Analyze(threshold float64) (*Analysis, error) {
	groups, merchants, err := e.clusterStored(threshold)
	if err != nil {
		return nil, err
	}

	hist, err := store.NewTransactionRepo(e.db).MerchantHistogram()
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Threshold: threshold, MerchantsScanned: len(merchants), Groups: []GroupReport{}}
	for i, g := range groups {
		count := 0
		for _, v := range g.Variants {
			count += hist[v]
		}
		analysis.Groups = append(analysis.Groups, GroupReport{
			GroupID:          i + 1,
			Canonical:        g.Canonical,
			Variants:         g.Variants,
			TransactionCount: count,
			Pairs:            g.Pairs,
			NeedsReview:      g.NeedsReview,
			ReviewReason:     g.ReviewReason,
			Recommendation:   e.recommendGroup(g),
		})
	}

	e.log.Info("duplicate analysis complete",
		logging.Field{Key: logging.FieldThreshold, Value: threshold},
		logging.Field{Key: logging.FieldCount, Value: len(analysis.Groups)})
	return analysis, nil
}

// Consolidate clusters stored merchants and merges the groups that qualify
// for automatic application: not flagged for review, and every justifying
// pair at or above the high-confidence floor. Each group's mutations run in
// one database transaction; a failed group is recorded per item and the rest
// of the batch continues.
func (e *Engine) Consolidate(threshold float64) (*MutationSummary, error) {
	groups, _, err := e.clusterStored(threshold)
	if err != nil {
		return nil, err
	}

	summary := &MutationSummary{Results: []GroupResult{}}
	for i, g := range groups {
		if g.NeedsReview || !allAboveFloor(g.Pairs, e.autoFloor) {
			e.log.Info("group skipped, needs review",
				logging.Field{Key: logging.FieldGroupID, Value: i + 1},
				logging.Field{Key: logging.FieldCanonical, Value: g.Canonical},
				logging.Field{Key: logging.FieldReason, Value: g.ReviewReason})
			continue
		}

		result := GroupResult{GroupID: i + 1, Canonical: g.Canonical}
		updated, deleted, err := e.applyGroup(g.Canonical, g.Variants)
		if err != nil {
			result.Error = err.Error()
			e.log.WithError(err).Error("group consolidation failed",
				logging.Field{Key: logging.FieldCanonical, Value: g.Canonical})
		} else {
			result.Updated = updated
			result.Deleted = deleted
			summary.Updated += updated
			summary.Deleted += deleted
		}
		summary.GroupsProcessed++
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// Fix applies explicit operator-approved merges. The fix list must be
// non-empty and every fix complete; validation failures reject the whole
// request before any mutation.
func (e *Engine) Fix(fixes []models.Fix) (*MutationSummary, error) {
	if len(fixes) == 0 {
		return nil, fmt.Errorf("fix list is empty")
	}
	for i, f := range fixes {
		if f.CanonicalMerchant == "" {
			return nil, fmt.Errorf("fix %d is missing a canonical merchant", i)
		}
		if len(f.TransactionIDs) == 0 {
			return nil, fmt.Errorf("fix %d (%s) lists no transactions", i, f.CanonicalMerchant)
		}
	}

	summary := &MutationSummary{Results: []GroupResult{}}
	for i, f := range fixes {
		result := GroupResult{GroupID: i + 1, Canonical: f.CanonicalMerchant}
		updated, deleted, err := e.applyFix(f)
		if err != nil {
			result.Error = err.Error()
			e.log.WithError(err).Error("fix failed",
				logging.Field{Key: logging.FieldCanonical, Value: f.CanonicalMerchant})
		} else {
			result.Updated = updated
			result.Deleted = deleted
			summary.Updated += updated
			summary.Deleted += deleted
		}
		summary.GroupsProcessed++
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// clusterStored loads the distinct merchant set and clusters it, feeding the
// transaction histogram in when canonical selection wants history.
func (e *Engine) clusterStored(threshold float64) ([]models.DuplicateGroup, []string, error) {
	if err := similarity.ValidateThreshold(threshold); err != nil {
		return nil, nil, err
	}

	txns := store.NewTransactionRepo(e.db)
	merchants, err := txns.DistinctMerchants()
	if err != nil {
		return nil, nil, err
	}

	opts := cluster.Options{Mode: e.mode, ReviewMargin: e.reviewMargin}
	if e.mode == cluster.CanonicalMostHistory {
		hist, err := txns.MerchantHistogram()
		if err != nil {
			return nil, nil, err
		}
		opts.History = hist
	}

	groups, err := cluster.Cluster(merchants, threshold, opts)
	if err != nil {
		return nil, nil, err
	}
	return groups, merchants, nil
}

// applyGroup renames every transaction of every non-canonical variant onto
// the canonical merchant, inside one transaction boundary.
func (e *Engine) applyGroup(canonical string, variants []string) (updated, deleted int, err error) {
	tx, err := e.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin group: %w", err)
	}
	defer tx.Rollback()

	repo := store.NewTransactionRepo(e.db).WithTx(tx)
	lost := make(map[int64]struct{})
	for _, variant := range variants {
		if variant == canonical {
			continue
		}
		rows, err := repo.ListByMerchant(variant)
		if err != nil {
			return 0, 0, err
		}
		for _, row := range rows {
			u, d, err := e.renameRow(repo, row, canonical)
			if err != nil {
				return 0, 0, err
			}
			updated += u
			deleted += d
			if d > 0 && row.StatementID != nil {
				lost[*row.StatementID] = struct{}{}
			}
		}
	}

	if err := refreshStatementCounts(store.NewStatementRepo(e.db).WithTx(tx), lost); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit group: %w", err)
	}

	if e.aliases != nil {
		for _, variant := range variants {
			e.aliases.Record(variant, canonical)
		}
	}

	e.log.Info("group consolidated",
		logging.Field{Key: logging.FieldCanonical, Value: canonical},
		logging.Field{Key: "updated", Value: updated},
		logging.Field{Key: "deleted", Value: deleted})
	return updated, deleted, nil
}

func (e *Engine) applyFix(f models.Fix) (updated, deleted int, err error) {
	tx, err := e.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin fix: %w", err)
	}
	defer tx.Rollback()

	var variants []string
	repo := store.NewTransactionRepo(e.db).WithTx(tx)
	lost := make(map[int64]struct{})
	for _, id := range f.TransactionIDs {
		row, err := repo.GetByID(id)
		if err != nil {
			return 0, 0, err
		}
		if row == nil {
			continue
		}
		u, d, err := e.renameRow(repo, *row, f.CanonicalMerchant)
		if err != nil {
			return 0, 0, err
		}
		updated += u
		deleted += d
		if d > 0 && row.StatementID != nil {
			lost[*row.StatementID] = struct{}{}
		}
		variants = append(variants, row.Merchant)
	}

	if err := refreshStatementCounts(store.NewStatementRepo(e.db).WithTx(tx), lost); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit fix: %w", err)
	}

	if e.aliases != nil {
		for _, variant := range variants {
			e.aliases.Record(variant, f.CanonicalMerchant)
		}
	}
	return updated, deleted, nil
}

// renameRow moves one transaction onto the canonical merchant, rewriting its
// identity key. When the target key is already held by another row the two
// rows describe the same charge, so the older row is deleted instead of
// renamed.
func (e *Engine) renameRow(repo *store.TransactionRepo, row models.Transaction, canonical string) (updated, deleted int, err error) {
	newID := e.ids.Key(row.Date, canonical, row.Amount)
	if newID == row.ID {
		if row.Merchant != canonical {
			if err := repo.UpdateMerchant(row.ID, canonical); err != nil {
				return 0, 0, err
			}
			return 1, 0, nil
		}
		return 0, 0, nil
	}

	existing, err := repo.GetByID(newID)
	if err != nil {
		return 0, 0, err
	}
	if existing != nil {
		if err := repo.Delete(row.ID); err != nil {
			return 0, 0, err
		}
		e.log.Info("duplicate row removed after rename collision",
			logging.Field{Key: logging.FieldTransactionID, Value: row.ID},
			logging.Field{Key: logging.FieldCanonical, Value: canonical})
		return 0, 1, nil
	}

	if err := repo.Rekey(row.ID, newID, canonical); err != nil {
		return 0, 0, err
	}
	return 1, 0, nil
}

func (e *Engine) recommendGroup(g models.DuplicateGroup) string {
	if g.NeedsReview {
		return "Manual review recommended"
	}
	lowest := 1.0
	for _, p := range g.Pairs {
		if p.Score.Combined < lowest {
			lowest = p.Score.Combined
		}
	}
	return similarity.Recommendation(lowest)
}

// refreshStatementCounts re-syncs transaction_count on statements that lost
// rows to a rename-collision delete, keeping the stored count equal to the
// live row count.
func refreshStatementCounts(stmts *store.StatementRepo, ids map[int64]struct{}) error {
	for id := range ids {
		n, err := stmts.CountTransactions(id)
		if err != nil {
			return err
		}
		if err := stmts.SetTransactionCount(id, n); err != nil {
			return err
		}
	}
	return nil
}

func allAboveFloor(pairs []models.PairMatch, floor float64) bool {
	for _, p := range pairs {
		if p.Score.Combined < floor {
			return false
		}
	}
	return true
}
