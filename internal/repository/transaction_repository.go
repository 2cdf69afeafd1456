package repository

import (
	"database/sql"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

type TransactionRepository interface {
	BulkCreate(transactions []domain.BankTransaction) error
	GetByID(id string) (*domain.BankTransaction, error)
	ListByImport(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error)
	// UpdateReconciliation writes status, match target and confidence.
	UpdateReconciliation(tx *domain.BankTransaction) error
	// ClaimMatch marks the transaction matched to the candidate iff no
	// other transaction already holds that candidate. The loser of a
	// concurrent race gets ErrAlreadyMatched.
	ClaimMatch(txID string, target domain.MatchTarget, confidence *float64) error
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) BulkCreate(transactions []domain.BankTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bank_transactions (
			id, import_id, ordinal, transaction_date, description,
			debit, credit, balance, reference, reconciliation_status, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for _, t := range transactions {
		_, err = stmt.Exec(
			t.ID,
			t.ImportID,
			t.Ordinal,
			t.Date,
			t.Description,
			t.Debit,
			t.Credit,
			t.Balance,
			t.Reference,
			t.Status,
			t.Confidence,
		)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("ordinal", t.Ordinal).Error("Failed to insert bank transaction")
			return err
		}
	}

	return tx.Commit()
}

const transactionColumns = `
	id, import_id, ordinal, transaction_date, description,
	debit, credit, balance, reference,
	reconciliation_status, match_type, match_id, confidence, created_at
`

func (r *transactionRepository) scanTransaction(row interface{ Scan(...interface{}) error }) (*domain.BankTransaction, error) {
	var t domain.BankTransaction
	var matchType, matchID sql.NullString

	err := row.Scan(
		&t.ID,
		&t.ImportID,
		&t.Ordinal,
		&t.Date,
		&t.Description,
		&t.Debit,
		&t.Credit,
		&t.Balance,
		&t.Reference,
		&t.Status,
		&matchType,
		&matchID,
		&t.Confidence,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if matchType.Valid && matchID.Valid {
		t.Match = domain.MatchTarget{
			Type: domain.MatchTargetType(matchType.String),
			ID:   matchID.String,
		}
	}

	return &t, nil
}

func (r *transactionRepository) GetByID(id string) (*domain.BankTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE id = $1`

	t, err := r.scanTransaction(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get bank transaction")
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) ListByImport(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE import_id = $1`
	args := []interface{}{importID}

	if status != nil {
		query += ` AND reconciliation_status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY ordinal`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list bank transactions")
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.BankTransaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan bank transaction")
			continue
		}
		transactions = append(transactions, *t)
	}

	return transactions, rows.Err()
}

func (r *transactionRepository) UpdateReconciliation(tx *domain.BankTransaction) error {
	var matchType, matchID interface{}
	if !tx.Match.IsZero() {
		matchType = string(tx.Match.Type)
		matchID = tx.Match.ID
	}

	result, err := r.db.Exec(`
		UPDATE bank_transactions
		SET reconciliation_status = $1, match_type = $2, match_id = $3, confidence = $4
		WHERE id = $5
	`, tx.Status, matchType, matchID, tx.Confidence, tx.ID)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update reconciliation state")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) ClaimMatch(txID string, target domain.MatchTarget, confidence *float64) error {
	// The NOT EXISTS guard and the partial unique index in the schema
	// together make this safe against concurrent claimers.
	result, err := r.db.Exec(`
		UPDATE bank_transactions
		SET reconciliation_status = $1, match_type = $2, match_id = $3, confidence = $4
		WHERE id = $5
		  AND NOT EXISTS (
			SELECT 1 FROM bank_transactions other
			WHERE other.match_type = $2
			  AND other.match_id = $3
			  AND other.reconciliation_status = $1
			  AND other.id <> $5
		  )
	`, domain.ReconMatched, string(target.Type), target.ID, confidence, txID)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to claim match")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a lost race from a missing transaction.
		if _, err := r.GetByID(txID); err != nil {
			return err
		}
		return domain.ErrAlreadyMatched
	}
	return nil
}
