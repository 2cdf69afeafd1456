package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

type ImportRepository interface {
	Create(imp *domain.BankImport, fileData []byte) error
	GetByID(id string) (*domain.BankImport, error)
	GetFileData(id string) ([]byte, error)
	UpdateMapping(id string, mapping domain.ColumnMapping, status domain.ImportStatus) error
	// TransitionStatus performs a compare-and-swap on the status column.
	// Returns false when the import was not in the expected state, which
	// is how a concurrent process call loses the race.
	TransitionStatus(id string, from, to domain.ImportStatus) (bool, error)
	Finalize(imp *domain.BankImport) error
}

type importRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) Create(imp *domain.BankImport, fileData []byte) error {
	mapping, err := json.Marshal(imp.Mapping)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bank_imports (
			id, business_id, file_name, file_type, source_bank, status,
			column_mapping, file_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING uploaded_at
	`

	err = r.db.QueryRow(
		query,
		imp.ID,
		imp.BusinessID,
		imp.FileName,
		imp.FileType,
		imp.SourceBank,
		imp.Status,
		mapping,
		fileData,
	).Scan(&imp.UploadedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create bank import")
		return err
	}

	return nil
}

func (r *importRepository) GetByID(id string) (*domain.BankImport, error) {
	query := `
		SELECT id, business_id, file_name, file_type, source_bank, status,
			   total_rows, processed_rows, matched_rows, unmatched_rows, error_rows,
			   column_mapping, row_errors, error_message, uploaded_at, processed_at
		FROM bank_imports
		WHERE id = $1
	`

	var imp domain.BankImport
	var mapping, rowErrors []byte

	err := r.db.QueryRow(query, id).Scan(
		&imp.ID,
		&imp.BusinessID,
		&imp.FileName,
		&imp.FileType,
		&imp.SourceBank,
		&imp.Status,
		&imp.TotalRows,
		&imp.ProcessedRows,
		&imp.MatchedRows,
		&imp.UnmatchedRows,
		&imp.ErrorRows,
		&mapping,
		&rowErrors,
		&imp.ErrorMessage,
		&imp.UploadedAt,
		&imp.ProcessedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrImportNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get bank import")
		return nil, err
	}

	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &imp.Mapping); err != nil {
			return nil, fmt.Errorf("decoding column mapping: %w", err)
		}
	}
	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &imp.RowErrors); err != nil {
			return nil, fmt.Errorf("decoding row errors: %w", err)
		}
	}

	return &imp, nil
}

func (r *importRepository) GetFileData(id string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT file_data FROM bank_imports WHERE id = $1`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrImportNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to read import file data")
		return nil, err
	}
	return data, nil
}

func (r *importRepository) UpdateMapping(id string, mapping domain.ColumnMapping, status domain.ImportStatus) error {
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE bank_imports SET column_mapping = $1, status = $2 WHERE id = $3`,
		encoded, status, id,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update column mapping")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrImportNotFound
	}
	return nil
}

func (r *importRepository) TransitionStatus(id string, from, to domain.ImportStatus) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE bank_imports SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to transition import status")
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *importRepository) Finalize(imp *domain.BankImport) error {
	rowErrors, err := json.Marshal(imp.RowErrors)
	if err != nil {
		return err
	}

	query := `
		UPDATE bank_imports
		SET status = $1, total_rows = $2, processed_rows = $3,
			matched_rows = $4, unmatched_rows = $5, error_rows = $6,
			row_errors = $7, error_message = $8, processed_at = $9
		WHERE id = $10
	`

	_, err = r.db.Exec(
		query,
		imp.Status,
		imp.TotalRows,
		imp.ProcessedRows,
		imp.MatchedRows,
		imp.UnmatchedRows,
		imp.ErrorRows,
		rowErrors,
		imp.ErrorMessage,
		imp.ProcessedAt,
		imp.ID,
	)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to finalize bank import")
		return err
	}

	return nil
}
