package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus tracks the match relationship of one statement
// line. Transitions: unmatched <-> suggested -> matched -> unmatched;
// ignored is reachable from unmatched/suggested and leaves via an
// explicit reopen back to unmatched.
type ReconciliationStatus string

const (
	ReconUnmatched ReconciliationStatus = "unmatched"
	ReconSuggested ReconciliationStatus = "suggested"
	ReconMatched   ReconciliationStatus = "matched"
	ReconIgnored   ReconciliationStatus = "ignored"
)

// MatchTargetType distinguishes the two kinds of business records a
// bank transaction can reconcile against.
type MatchTargetType string

const (
	TargetExpense MatchTargetType = "expense"
	TargetInvoice MatchTargetType = "invoice"
)

// MatchTarget is a tagged union: an expense id, an invoice id, or
// nothing (the zero value). It makes "exactly one or neither" a
// structural property instead of two nullable columns.
type MatchTarget struct {
	Type MatchTargetType `json:"type,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// IsZero reports whether no target is set.
func (t MatchTarget) IsZero() bool {
	return t.Type == "" && t.ID == ""
}

// BankTransaction is one parsed statement line. Date, description and
// amounts are immutable once created; the original statement row is the
// source of truth. Exactly one of Debit/Credit is set.
type BankTransaction struct {
	ID          string               `json:"id" db:"id"`
	ImportID    string               `json:"import_id" db:"import_id"`
	Ordinal     int                  `json:"ordinal" db:"ordinal"`
	Date        time.Time            `json:"date" db:"transaction_date"`
	Description string               `json:"description" db:"description"`
	Debit       *decimal.Decimal     `json:"debit,omitempty" db:"debit"`
	Credit      *decimal.Decimal     `json:"credit,omitempty" db:"credit"`
	Balance     *decimal.Decimal     `json:"balance,omitempty" db:"balance"`
	Reference   *string              `json:"reference,omitempty" db:"reference"`
	Status      ReconciliationStatus `json:"reconciliation_status" db:"reconciliation_status"`
	Match       MatchTarget          `json:"match,omitempty"`
	Confidence  *float64             `json:"confidence,omitempty" db:"confidence"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
}

// IsDebit reports whether the transaction is a money-out movement.
func (t *BankTransaction) IsDebit() bool {
	return t.Debit != nil
}

// Amount returns the populated side's magnitude.
func (t *BankTransaction) Amount() decimal.Decimal {
	if t.Debit != nil {
		return *t.Debit
	}
	if t.Credit != nil {
		return *t.Credit
	}
	return decimal.Zero
}

// Candidate is a read-only snapshot of an expense or invoice suitable
// for match scoring, supplied by the collaborating repositories.
type Candidate struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

// Suggestion is an ephemeral candidate match. Never persisted.
type Suggestion struct {
	Type       MatchTargetType `json:"type"`
	Candidate  Candidate       `json:"candidate"`
	Confidence float64         `json:"confidence"`
	Reasons    []string        `json:"reasons"`
}
