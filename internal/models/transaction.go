// Package models defines the persisted and transient data shapes shared by
// the ingestion pipeline, the deduplication engine, and the storage layer.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction is a persisted bank transaction. ID is derived
// deterministically from (date, normalized merchant, amount), so re-importing
// the same logical transaction is detectable as a primary-key collision.
type Transaction struct {
	ID          string          `json:"id" csv:"id"`
	StatementID *int64          `json:"statementId" csv:"statement_id"`
	Date        string          `json:"date" csv:"date"`
	Description string          `json:"description" csv:"description"`
	Address     *string         `json:"address" csv:"address"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Merchant    string          `json:"merchant" csv:"merchant"`
	Category    string          `json:"category" csv:"category"`
}

// Statement is one uploaded bank statement. TransactionCount tracks the live
// transactions referencing it; RevisionNumber increments on each re-upload of
// the same (institution, month).
type Statement struct {
	ID               int64  `json:"id"`
	Institution      string `json:"institution"`
	Month            string `json:"month"`
	UploadDate       string `json:"uploadDate"`
	TransactionCount int    `json:"transactionCount"`
	RevisionNumber   int    `json:"revisionNumber"`
}

// ParsedTransaction is the untrusted upstream input contract: one record
// produced by the external statement parser.
type ParsedTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Address     *string         `json:"address"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

// ParsedStatement is a full parsed statement as submitted for ingestion.
type ParsedStatement struct {
	Institution  string              `json:"institution"`
	Month        string              `json:"month"`
	Transactions []ParsedTransaction `json:"transactions"`
}

// Validate checks the upstream input contract. It reports the first problem
// found; ingestion rejects the record without partial work.
func (p ParsedTransaction) Validate() error {
	if p.Date == "" {
		return fmt.Errorf("transaction is missing a date")
	}
	if !dateRe.MatchString(p.Date) {
		return fmt.Errorf("date %q is not MM/DD/YYYY", p.Date)
	}
	if p.Description == "" {
		return fmt.Errorf("transaction is missing a description")
	}
	if p.Category == "" {
		return fmt.Errorf("transaction is missing a category")
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("amount %s must be positive", p.Amount)
	}
	return nil
}
