package repository

import (
	"database/sql"
	"time"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// CandidateRepository is the read-only view of expenses or invoices the
// matcher scores against. Candidates already matched to a bank
// transaction are excluded from FindCandidates at the query level.
type CandidateRepository interface {
	FindCandidates(businessID string, from, to time.Time) ([]domain.Candidate, error)
	GetByID(id string) (*domain.Candidate, error)
}

type expenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) CandidateRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindCandidates(businessID string, from, to time.Time) ([]domain.Candidate, error) {
	query := `
		SELECT e.id, e.business_id, e.expense_date, e.amount,
			   e.vendor_name, COALESCE(e.description, '')
		FROM expenses e
		WHERE e.business_id = $1
		  AND e.expense_date BETWEEN $2 AND $3
		  AND e.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM bank_transactions t
			WHERE t.match_type = 'expense'
			  AND t.match_id = e.id
			  AND t.reconciliation_status = 'matched'
		  )
		ORDER BY e.id
	`
	return r.queryCandidates(query, businessID, from, to)
}

func (r *expenseRepository) GetByID(id string) (*domain.Candidate, error) {
	query := `
		SELECT id, business_id, expense_date, amount, vendor_name, COALESCE(description, '')
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanCandidate(r.db.QueryRow(query, id))
}

func (r *expenseRepository) queryCandidates(query string, args ...interface{}) ([]domain.Candidate, error) {
	return queryCandidates(r.db, query, args...)
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) CandidateRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindCandidates(businessID string, from, to time.Time) ([]domain.Candidate, error) {
	query := `
		SELECT i.id, i.business_id, i.invoice_date, i.total_amount,
			   i.contact_name, COALESCE(i.notes, '')
		FROM invoices i
		WHERE i.business_id = $1
		  AND i.invoice_date BETWEEN $2 AND $3
		  AND i.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM bank_transactions t
			WHERE t.match_type = 'invoice'
			  AND t.match_id = i.id
			  AND t.reconciliation_status = 'matched'
		  )
		ORDER BY i.id
	`
	return queryCandidates(r.db, query, businessID, from, to)
}

func (r *invoiceRepository) GetByID(id string) (*domain.Candidate, error) {
	query := `
		SELECT id, business_id, invoice_date, total_amount, contact_name, COALESCE(notes, '')
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanCandidate(r.db.QueryRow(query, id))
}

func queryCandidates(db *sql.DB, query string, args ...interface{}) ([]domain.Candidate, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query candidates")
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.Date, &c.Amount, &c.Name, &c.Description); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan candidate")
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func scanCandidate(row *sql.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.BusinessID, &c.Date, &c.Amount, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCandidateNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get candidate")
		return nil, err
	}
	return &c, nil
}
