// Package ingest turns parsed statements into persisted transactions. It is
// the write path that assigns identity keys, skips rows already stored, and
// reconciles occurrence counts for repeated charges.
package ingest

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mhagen/fintrack/internal/alias"
	"mhagen/fintrack/internal/identity"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/models"
	"mhagen/fintrack/internal/normalizer"
	"mhagen/fintrack/internal/store"
)

// Service ingests parsed statements. All writes for one statement land in a
// single database transaction.
type Service struct {
	db      *sql.DB
	ids     identity.Generator
	aliases *alias.Store
	log     logging.Logger
	clock   func() time.Time
}

// NewService returns an ingestion service using the canonical identity scheme.
func NewService(db *sql.DB, log logging.Logger) *Service {
	return &Service{
		db:    db,
		ids:   identity.NewGenerator(identity.SchemeCanonical),
		log:   log,
		clock: time.Now,
	}
}

// SetAliases attaches a learned merchant-alias store. Normalized merchants
// with a known canonical spelling are stored under that spelling directly.
func (s *Service) SetAliases(aliases *alias.Store) {
	s.aliases = aliases
}

// Rejection records one upstream record that failed input validation.
type Rejection struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// Result summarizes one ingestion run.
type Result struct {
	StatementID    int64       `json:"statementId"`
	RevisionNumber int         `json:"revisionNumber"`
	Inserted       int         `json:"inserted"`
	Skipped        int         `json:"skipped"`
	Deleted        int         `json:"deleted"`
	Rejected       []Rejection `json:"rejected,omitempty"`
}

// Ingest validates, normalizes, and persists a parsed statement. Re-uploading
// the same (institution, month) bumps the statement's revision; rows already
// stored are skipped; repeated (date, merchant, amount) tuples get suffixed
// keys so the stored occurrence count matches the statement exactly.
func (s *Service) Ingest(parsed models.ParsedStatement) (*Result, error) {
	if parsed.Institution == "" || parsed.Month == "" {
		return nil, fmt.Errorf("statement requires institution and month")
	}

	valid, rejected := s.validate(parsed.Transactions)
	res := &Result{Rejected: rejected}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	txns := store.NewTransactionRepo(s.db).WithTx(tx)
	stmts := store.NewStatementRepo(s.db).WithTx(tx)

	stmtID, revision, isNew, err := s.getOrCreateStatement(stmts, parsed.Institution, parsed.Month)
	if err != nil {
		return nil, err
	}
	res.StatementID = stmtID
	res.RevisionNumber = revision

	lost := make(map[int64]struct{})
	for baseKey, occurrences := range s.groupByIdentity(valid) {
		if err := s.reconcileKey(txns, stmtID, baseKey, occurrences, res, lost); err != nil {
			return nil, err
		}
	}

	// Surplus deletes can remove rows owned by other statements; their stored
	// counts must track the live rows. This statement's own count is written
	// by finalizeStatement.
	delete(lost, stmtID)
	for id := range lost {
		n, err := stmts.CountTransactions(id)
		if err != nil {
			return nil, err
		}
		if err := stmts.SetTransactionCount(id, n); err != nil {
			return nil, err
		}
	}

	if err := s.finalizeStatement(txns, stmts, stmtID, isNew, res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingest: %w", err)
	}

	s.log.Info("statement ingested",
		logging.Field{Key: logging.FieldStatementID, Value: res.StatementID},
		logging.Field{Key: logging.FieldInstitution, Value: parsed.Institution},
		logging.Field{Key: logging.FieldMonth, Value: parsed.Month},
		logging.Field{Key: logging.FieldCount, Value: res.Inserted},
	)
	return res, nil
}

func (s *Service) validate(records []models.ParsedTransaction) ([]models.ParsedTransaction, []Rejection) {
	var valid []models.ParsedTransaction
	var rejected []Rejection
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			rejected = append(rejected, Rejection{Index: i, Description: rec.Description, Reason: err.Error()})
			s.log.Warn("rejected transaction record",
				logging.Field{Key: logging.FieldReason, Value: err.Error()})
			continue
		}
		if normalizer.Contaminated(rec.Description) {
			s.log.Debug("description carries address contamination",
				logging.Field{Key: logging.FieldMerchant, Value: rec.Description})
		}
		valid = append(valid, rec)
	}
	return valid, rejected
}

// resolvedRecord is a validated input record with its merchant resolved
// through normalization and the alias store.
type resolvedRecord struct {
	rec      models.ParsedTransaction
	merchant string
}

// resolveMerchant normalizes a raw description and applies any learned
// canonical spelling.
func (s *Service) resolveMerchant(description string) string {
	merchant := normalizer.Normalize(description)
	if s.aliases != nil {
		if canonical, ok := s.aliases.Canonical(merchant); ok {
			return canonical
		}
	}
	return merchant
}

// groupByIdentity buckets records by their canonical identity key. Every
// record in one bucket is the same logical (date, merchant, amount) tuple;
// the bucket size is that tuple's occurrence count in the statement.
func (s *Service) groupByIdentity(records []models.ParsedTransaction) map[string][]resolvedRecord {
	groups := make(map[string][]resolvedRecord)
	for _, rec := range records {
		merchant := s.resolveMerchant(rec.Description)
		key := s.ids.Key(rec.Date, merchant, rec.Amount)
		groups[key] = append(groups[key], resolvedRecord{rec: rec, merchant: merchant})
	}
	return groups
}

// reconcileKey makes the persisted occurrence count for one identity key
// match the statement's count: missing rows are inserted with the next unused
// suffix, surplus rows (highest suffix first) are deleted.
func (s *Service) reconcileKey(txns *store.TransactionRepo, stmtID int64, baseKey string, occurrences []resolvedRecord, res *Result, lost map[int64]struct{}) error {
	existing, err := txns.ListKeyOccurrences(baseKey)
	if err != nil {
		return err
	}
	sortOccurrenceKeys(existing, baseKey)

	want := len(occurrences)
	have := len(existing)

	switch {
	case have < want:
		res.Skipped += have
		taken := make(map[string]bool, have)
		for _, id := range existing {
			taken[id] = true
		}
		for i := have; i < want; i++ {
			id := identity.Disambiguate(baseKey, func(candidate string) bool { return taken[candidate] })
			taken[id] = true
			occ := occurrences[i]
			inserted, err := txns.Insert(&models.Transaction{
				ID:          id,
				StatementID: &stmtID,
				Date:        occ.rec.Date,
				Description: occ.rec.Description,
				Address:     occ.rec.Address,
				Amount:      occ.rec.Amount,
				Merchant:    occ.merchant,
				Category:    occ.rec.Category,
			})
			if err != nil {
				return err
			}
			if inserted {
				res.Inserted++
			} else {
				res.Skipped++
			}
		}
	case have > want:
		res.Skipped += want
		for _, id := range existing[want:] {
			row, err := txns.GetByID(id)
			if err != nil {
				return err
			}
			if err := txns.Delete(id); err != nil {
				return err
			}
			if row != nil && row.StatementID != nil {
				lost[*row.StatementID] = struct{}{}
			}
			res.Deleted++
			s.log.Info("removed surplus occurrence",
				logging.Field{Key: logging.FieldTransactionID, Value: id})
		}
	default:
		res.Skipped += want
	}
	return nil
}

func (s *Service) getOrCreateStatement(stmts *store.StatementRepo, institution, month string) (id int64, revision int, isNew bool, err error) {
	uploadDate := s.clock().Format("2006-01-02")

	existing, err := stmts.GetByInstitutionMonth(institution, month)
	if err != nil {
		return 0, 0, false, err
	}
	if existing != nil {
		if err := stmts.BumpRevision(existing.ID, uploadDate); err != nil {
			return 0, 0, false, err
		}
		return existing.ID, existing.RevisionNumber + 1, false, nil
	}

	newID, err := stmts.Insert(institution, month, uploadDate)
	if err != nil {
		return 0, 0, false, err
	}
	return newID, 0, true, nil
}

// finalizeStatement records the live transaction count, or removes a brand-new
// statement that ended up owning no rows (everything was already stored).
func (s *Service) finalizeStatement(txns *store.TransactionRepo, stmts *store.StatementRepo, stmtID int64, isNew bool, res *Result) error {
	owned, err := txns.ListByStatement(stmtID)
	if err != nil {
		return err
	}
	if isNew && len(owned) == 0 {
		if err := stmts.Delete(stmtID); err != nil {
			return err
		}
		res.StatementID = 0
		s.log.Info("discarded empty statement", logging.Field{Key: logging.FieldStatementID, Value: stmtID})
		return nil
	}
	return stmts.SetTransactionCount(stmtID, len(owned))
}

// sortOccurrenceKeys orders keys as base, base-1, base-2, ... by numeric
// suffix, so surplus deletion always peels from the highest suffix.
func sortOccurrenceKeys(keys []string, base string) {
	sort.Slice(keys, func(i, j int) bool {
		return suffixIndex(keys[i], base) < suffixIndex(keys[j], base)
	})
}

func suffixIndex(key, base string) int {
	if key == base {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, base+"-"))
	if err != nil {
		return 0
	}
	return n
}
