package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"mhagen/fintrack/internal/models"
)

const transactionColumns = "id, statement_id, date, description, address, amount, merchant, category"

// TransactionRepo persists and queries transactions. A repo bound to a *sql.DB
// runs each statement standalone; bind one to an open transaction with WithTx
// when several writes must land atomically.
type TransactionRepo struct {
	q querier
}

// NewTransactionRepo returns a repo backed by the given database handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{q: db}
}

// WithTx returns a repo running inside tx. The caller owns commit/rollback.
func (r *TransactionRepo) WithTx(tx *sql.Tx) *TransactionRepo {
	return &TransactionRepo{q: tx}
}

// Insert stores t, skipping silently when a row with the same id already
// exists. It reports whether a row was actually written.
func (r *TransactionRepo) Insert(t *models.Transaction) (bool, error) {
	res, err := r.q.Exec(
		`INSERT OR IGNORE INTO transactions (id, statement_id, date, description, address, amount, merchant, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.StatementID, t.Date, t.Description, t.Address, t.Amount.String(), t.Merchant, t.Category,
	)
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetByID fetches one transaction. It returns (nil, nil) when no row exists.
func (r *TransactionRepo) GetByID(id string) (*models.Transaction, error) {
	row := r.q.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// CountKeyOccurrences counts rows whose id is baseID or a suffixed variant of
// it (baseID-1, baseID-2, ...). This is the persisted occurrence count for
// one logical (date, merchant, amount) tuple.
func (r *TransactionRepo) CountKeyOccurrences(baseID string) (int, error) {
	var n int
	err := r.q.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE id = ? OR id LIKE ? || '-%'`,
		baseID, baseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count occurrences of %s: %w", baseID, err)
	}
	return n, nil
}

// ListKeyOccurrences returns the ids sharing the base key, base row first,
// then suffixed rows in insertion order.
func (r *TransactionRepo) ListKeyOccurrences(baseID string) ([]string, error) {
	rows, err := r.q.Query(
		`SELECT id FROM transactions WHERE id = ? OR id LIKE ? || '-%' ORDER BY id`,
		baseID, baseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list occurrences of %s: %w", baseID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DistinctMerchants returns every distinct merchant string currently stored.
func (r *TransactionRepo) DistinctMerchants() ([]string, error) {
	rows, err := r.q.Query(`SELECT DISTINCT merchant FROM transactions ORDER BY merchant`)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

// MerchantHistogram maps each merchant to its transaction count. The
// clusterer uses it to pick the canonical name with the most history.
func (r *TransactionRepo) MerchantHistogram() (map[string]int, error) {
	rows, err := r.q.Query(`SELECT merchant, COUNT(*) FROM transactions GROUP BY merchant`)
	if err != nil {
		return nil, fmt.Errorf("merchant histogram: %w", err)
	}
	defer rows.Close()

	hist := make(map[string]int)
	for rows.Next() {
		var m string
		var n int
		if err := rows.Scan(&m, &n); err != nil {
			return nil, err
		}
		hist[m] = n
	}
	return hist, rows.Err()
}

// ListByMerchant returns all transactions carrying the exact merchant string.
func (r *TransactionRepo) ListByMerchant(merchant string) ([]models.Transaction, error) {
	return r.list(`SELECT `+transactionColumns+` FROM transactions WHERE merchant = ? ORDER BY date, id`, merchant)
}

// ListAll returns every stored transaction ordered by date then id.
func (r *TransactionRepo) ListAll() ([]models.Transaction, error) {
	return r.list(`SELECT ` + transactionColumns + ` FROM transactions ORDER BY date, id`)
}

// ListByCategory returns transactions in one category.
func (r *TransactionRepo) ListByCategory(category string) ([]models.Transaction, error) {
	return r.list(`SELECT `+transactionColumns+` FROM transactions WHERE category = ? ORDER BY date, id`, category)
}

// ListByStatement returns the transactions attached to one statement.
func (r *TransactionRepo) ListByStatement(statementID int64) ([]models.Transaction, error) {
	return r.list(`SELECT `+transactionColumns+` FROM transactions WHERE statement_id = ? ORDER BY date, id`, statementID)
}

// Rekey replaces a transaction's primary key, optionally rewriting its
// merchant at the same time. Pass merchant == "" to keep the stored value.
// A UNIQUE violation surfaces as an error; the caller decides whether the
// collision means the row is now redundant.
func (r *TransactionRepo) Rekey(oldID, newID, merchant string) error {
	var err error
	if merchant == "" {
		_, err = r.q.Exec(`UPDATE transactions SET id = ? WHERE id = ?`, newID, oldID)
	} else {
		_, err = r.q.Exec(`UPDATE transactions SET id = ?, merchant = ? WHERE id = ?`, newID, merchant, oldID)
	}
	if err != nil {
		return fmt.Errorf("rekey %s -> %s: %w", oldID, newID, err)
	}
	return nil
}

// UpdateMerchant rewrites the merchant on a single row without touching its key.
func (r *TransactionRepo) UpdateMerchant(id, merchant string) error {
	if _, err := r.q.Exec(`UPDATE transactions SET merchant = ? WHERE id = ?`, merchant, id); err != nil {
		return fmt.Errorf("update merchant on %s: %w", id, err)
	}
	return nil
}

// Delete removes one transaction by id.
func (r *TransactionRepo) Delete(id string) error {
	if _, err := r.q.Exec(`DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *TransactionRepo) list(query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	return scanInto(row)
}

func scanTransactionRows(rows *sql.Rows) (*models.Transaction, error) {
	return scanInto(rows)
}

func scanInto(s rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var amount string
	if err := s.Scan(&t.ID, &t.StatementID, &t.Date, &t.Description, &t.Address, &amount, &t.Merchant, &t.Category); err != nil {
		return nil, err
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	t.Amount = dec
	return &t, nil
}
