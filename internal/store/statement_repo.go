package store

import (
	"database/sql"
	"fmt"

	"mhagen/fintrack/internal/models"
)

// StatementRepo persists uploaded statements and their revision counters.
type StatementRepo struct {
	q querier
}

// NewStatementRepo returns a repo backed by the given database handle.
func NewStatementRepo(db *sql.DB) *StatementRepo {
	return &StatementRepo{q: db}
}

// WithTx returns a repo running inside tx.
func (r *StatementRepo) WithTx(tx *sql.Tx) *StatementRepo {
	return &StatementRepo{q: tx}
}

// GetByInstitutionMonth fetches the statement for one (institution, month)
// pair, or (nil, nil) when none exists yet.
func (r *StatementRepo) GetByInstitutionMonth(institution, month string) (*models.Statement, error) {
	row := r.q.QueryRow(
		`SELECT id, institution, month, upload_date, transaction_count, revision_number
		 FROM statements WHERE institution = ? AND month = ?`,
		institution, month,
	)
	var s models.Statement
	err := row.Scan(&s.ID, &s.Institution, &s.Month, &s.UploadDate, &s.TransactionCount, &s.RevisionNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statement %s/%s: %w", institution, month, err)
	}
	return &s, nil
}

// Insert creates a fresh statement row at revision 0 and returns its id.
func (r *StatementRepo) Insert(institution, month, uploadDate string) (int64, error) {
	res, err := r.q.Exec(
		`INSERT INTO statements (institution, month, upload_date, transaction_count, revision_number)
		 VALUES (?, ?, ?, 0, 0)`,
		institution, month, uploadDate,
	)
	if err != nil {
		return 0, fmt.Errorf("insert statement %s/%s: %w", institution, month, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("statement insert id: %w", err)
	}
	return id, nil
}

// BumpRevision advances the revision counter and refreshes the upload date on
// a re-uploaded statement.
func (r *StatementRepo) BumpRevision(id int64, uploadDate string) error {
	_, err := r.q.Exec(
		`UPDATE statements SET revision_number = revision_number + 1, upload_date = ? WHERE id = ?`,
		uploadDate, id,
	)
	if err != nil {
		return fmt.Errorf("bump revision on statement %d: %w", id, err)
	}
	return nil
}

// SetTransactionCount records the live transaction count after ingestion.
func (r *StatementRepo) SetTransactionCount(id int64, count int) error {
	if _, err := r.q.Exec(`UPDATE statements SET transaction_count = ? WHERE id = ?`, count, id); err != nil {
		return fmt.Errorf("set count on statement %d: %w", id, err)
	}
	return nil
}

// Delete removes a statement row. Used when an upload produced no new
// transactions and the freshly created statement would otherwise sit empty.
func (r *StatementRepo) Delete(id int64) error {
	if _, err := r.q.Exec(`DELETE FROM statements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete statement %d: %w", id, err)
	}
	return nil
}

// CountTransactions returns the number of live transactions referencing a
// statement, regardless of the stored transaction_count.
func (r *StatementRepo) CountTransactions(id int64) (int, error) {
	var n int
	if err := r.q.QueryRow(`SELECT COUNT(*) FROM transactions WHERE statement_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions on statement %d: %w", id, err)
	}
	return n, nil
}

// List returns every statement, newest upload first.
func (r *StatementRepo) List() ([]models.Statement, error) {
	rows, err := r.q.Query(
		`SELECT id, institution, month, upload_date, transaction_count, revision_number
		 FROM statements ORDER BY upload_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var stmts []models.Statement
	for rows.Next() {
		var s models.Statement
		if err := rows.Scan(&s.ID, &s.Institution, &s.Month, &s.UploadDate, &s.TransactionCount, &s.RevisionNumber); err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, rows.Err()
}
