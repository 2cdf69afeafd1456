package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/mapper"
	"github.com/gerrardelliot83-create/bankrecon/internal/parser"
	"github.com/gerrardelliot83-create/bankrecon/internal/repository"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// maxStoredRowErrors caps the per-import error list kept for display.
const maxStoredRowErrors = 100

// ImportService owns the import lifecycle state machine:
// pending -> mapping -> processing -> completed|failed. Transitions are
// one-directional; a failed import is re-uploaded as a new one.
type ImportService interface {
	Create(businessID, fileName string, fileType domain.FileType, sourceBank domain.SourceBank, data []byte) (*domain.BankImport, error)
	Get(importID string) (*domain.BankImport, error)
	InferMapping(importID string) (*domain.BankImport, error)
	SetMapping(importID string, mapping domain.ColumnMapping) (*domain.BankImport, error)
	Process(importID string) (*domain.BankImport, error)
	ListTransactions(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error)
}

type importService struct {
	importRepo repository.ImportRepository
	txRepo     repository.TransactionRepository
	recon      ReconciliationService
	parser     *parser.Parser
	threshold  float64
}

func NewImportService(
	importRepo repository.ImportRepository,
	txRepo repository.TransactionRepository,
	recon ReconciliationService,
	autoSuggestThreshold float64,
) ImportService {
	return &importService{
		importRepo: importRepo,
		txRepo:     txRepo,
		recon:      recon,
		parser:     parser.New(),
		threshold:  autoSuggestThreshold,
	}
}

func (s *importService) Create(businessID, fileName string, fileType domain.FileType, sourceBank domain.SourceBank, data []byte) (*domain.BankImport, error) {
	if fileType == domain.FileTypeOther {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileType)
	}
	// PDFs are opaque unless convertible to rows; reject before any
	// state machine transition.
	if fileType == domain.FileTypePDF && !s.parser.CanExtractRows(data, fileType) {
		return nil, fmt.Errorf("%w: no tabular rows in PDF", domain.ErrUnsupportedFileType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrUnparsableFile)
	}

	imp := &domain.BankImport{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		FileName:   fileName,
		FileType:   fileType,
		SourceBank: sourceBank,
		Status:     domain.ImportPending,
	}

	if err := s.importRepo.Create(imp, data); err != nil {
		return nil, fmt.Errorf("creating import: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"import_id":   imp.ID,
		"business_id": businessID,
		"file_type":   fileType,
		"source_bank": sourceBank,
	}).Info("Bank import created")

	return imp, nil
}

func (s *importService) Get(importID string) (*domain.BankImport, error) {
	return s.importRepo.GetByID(importID)
}

func (s *importService) InferMapping(importID string) (*domain.BankImport, error) {
	imp, err := s.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}
	if imp.Status != domain.ImportPending && imp.Status != domain.ImportMapping {
		return nil, fmt.Errorf("%w: cannot remap a %s import", domain.ErrInvalidStateTransition, imp.Status)
	}

	data, err := s.importRepo.GetFileData(importID)
	if err != nil {
		return nil, err
	}

	headers, err := s.parser.Headers(data, imp.FileType)
	if err != nil {
		return nil, err
	}

	imp.Mapping = mapper.Infer(headers)
	imp.Status = domain.ImportMapping

	if err := s.importRepo.UpdateMapping(importID, imp.Mapping, imp.Status); err != nil {
		return nil, err
	}
	return imp, nil
}

func (s *importService) SetMapping(importID string, mapping domain.ColumnMapping) (*domain.BankImport, error) {
	imp, err := s.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}
	if imp.Status != domain.ImportPending && imp.Status != domain.ImportMapping {
		return nil, fmt.Errorf("%w: cannot remap a %s import", domain.ErrInvalidStateTransition, imp.Status)
	}

	if err := mapper.Validate(mapping); err != nil {
		return nil, err
	}

	imp.Mapping = mapping
	imp.Status = domain.ImportMapping

	if err := s.importRepo.UpdateMapping(importID, mapping, imp.Status); err != nil {
		return nil, err
	}
	return imp, nil
}

// Process runs the batch: parse rows in file order, persist drafts,
// aggregate counts, then pre-populate suggestions. Re-running on a
// completed import is a no-op returning the existing counts. A second
// caller during processing gets ErrImportInProgress.
func (s *importService) Process(importID string) (*domain.BankImport, error) {
	imp, err := s.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}

	switch imp.Status {
	case domain.ImportCompleted:
		return imp, nil
	case domain.ImportProcessing:
		return nil, domain.ErrImportInProgress
	case domain.ImportMapping:
	default:
		return nil, fmt.Errorf("%w: cannot process a %s import", domain.ErrInvalidStateTransition, imp.Status)
	}

	if err := mapper.Validate(imp.Mapping); err != nil {
		return nil, err
	}

	// Compare-and-swap into processing; the loser of a concurrent race
	// sees the state someone else put the import into.
	ok, err := s.importRepo.TransitionStatus(importID, domain.ImportMapping, domain.ImportProcessing)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.importRepo.GetByID(importID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.ImportCompleted {
			return current, nil
		}
		return nil, domain.ErrImportInProgress
	}

	data, err := s.importRepo.GetFileData(importID)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().WithField("import_id", importID).Info("Processing bank import")

	transactions, rowErrors, parseErr := s.parseAll(imp, data)

	imp.TotalRows = len(transactions) + len(rowErrors)
	imp.ProcessedRows = len(transactions)
	imp.ErrorRows = len(rowErrors)
	if len(rowErrors) > maxStoredRowErrors {
		rowErrors = rowErrors[:maxStoredRowErrors]
	}
	imp.RowErrors = rowErrors

	if parseErr != nil || len(transactions) == 0 {
		msg := "no valid rows"
		if parseErr != nil {
			msg = parseErr.Error()
		}
		return s.fail(imp, msg, parseErr)
	}

	if err := s.txRepo.BulkCreate(transactions); err != nil {
		return s.fail(imp, fmt.Sprintf("persisting transactions: %v", err), err)
	}

	suggested := s.bulkSuggest(imp, transactions)

	now := time.Now()
	imp.Status = domain.ImportCompleted
	imp.MatchedRows = 0
	imp.UnmatchedRows = imp.ProcessedRows - suggested
	imp.ProcessedAt = &now

	if err := s.importRepo.Finalize(imp); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"import_id": importID,
		"total":     imp.TotalRows,
		"processed": imp.ProcessedRows,
		"errors":    imp.ErrorRows,
		"suggested": suggested,
	}).Info("Bank import completed")

	return imp, nil
}

func (s *importService) parseAll(imp *domain.BankImport, data []byte) ([]domain.BankTransaction, []domain.RowError, error) {
	var transactions []domain.BankTransaction
	var rowErrors []domain.RowError

	err := s.parser.Parse(data, imp.FileType, imp.Mapping, func(row parser.ParsedRow) error {
		if row.Err != nil {
			rowErrors = append(rowErrors, *row.Err)
			return nil
		}
		tx := *row.Transaction
		tx.ID = uuid.New().String()
		tx.ImportID = imp.ID
		transactions = append(transactions, tx)
		return nil
	})

	return transactions, rowErrors, err
}

// bulkSuggest marks transactions whose top candidate clears the
// threshold as suggested. Confirmation stays a human or API action;
// nothing here sets matched.
func (s *importService) bulkSuggest(imp *domain.BankImport, transactions []domain.BankTransaction) int {
	suggested := 0
	for i := range transactions {
		tx := &transactions[i]
		suggestions, err := s.recon.SuggestFor(tx, imp.BusinessID)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("trx_id", tx.ID).Warn("Bulk suggest failed, leaving unmatched")
			continue
		}
		if len(suggestions) == 0 || suggestions[0].Confidence < s.threshold {
			continue
		}

		confidence := suggestions[0].Confidence
		tx.Status = domain.ReconSuggested
		tx.Confidence = &confidence
		if err := s.txRepo.UpdateReconciliation(tx); err != nil {
			logger.GetLogger().WithError(err).WithField("trx_id", tx.ID).Warn("Failed to persist suggestion")
			continue
		}
		suggested++
	}
	return suggested
}

func (s *importService) fail(imp *domain.BankImport, message string, cause error) (*domain.BankImport, error) {
	imp.Status = domain.ImportFailed
	imp.ErrorMessage = &message
	now := time.Now()
	imp.ProcessedAt = &now

	if err := s.importRepo.Finalize(imp); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to record import failure")
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"import_id": imp.ID,
		"reason":    message,
	}).Warn("Bank import failed")

	if cause == nil {
		cause = fmt.Errorf("%w: %s", domain.ErrUnparsableFile, message)
	}
	if !errors.Is(cause, domain.ErrUnparsableFile) && !errors.Is(cause, domain.ErrMissingRequiredField) {
		cause = fmt.Errorf("%w: %v", domain.ErrUnparsableFile, cause)
	}
	return imp, cause
}

func (s *importService) ListTransactions(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error) {
	if _, err := s.importRepo.GetByID(importID); err != nil {
		return nil, err
	}
	return s.txRepo.ListByImport(importID, status)
}
