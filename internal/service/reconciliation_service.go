package service

import (
	"fmt"
	"time"

	"github.com/gerrardelliot83-create/bankrecon/internal/config"
	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/matcher"
	"github.com/gerrardelliot83-create/bankrecon/internal/repository"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// ReconciliationService owns the match relationship between bank
// transactions and expense/invoice records. Every mutation re-reads the
// current status before acting; the store's guarantees provide the
// atomicity of individual updates.
type ReconciliationService interface {
	Suggest(trxID string) ([]domain.Suggestion, error)
	Match(trxID string, targetType domain.MatchTargetType, candidateID string) (*domain.BankTransaction, error)
	Unmatch(trxID string) (*domain.BankTransaction, error)
	Ignore(trxID string) (*domain.BankTransaction, error)
	Reopen(trxID string) (*domain.BankTransaction, error)
	// SuggestFor scores an already-loaded transaction; used by the
	// import bulk-suggest pass so it shares this scorer.
	SuggestFor(tx *domain.BankTransaction, businessID string) ([]domain.Suggestion, error)
}

type reconciliationService struct {
	importRepo  repository.ImportRepository
	txRepo      repository.TransactionRepository
	expenseRepo repository.CandidateRepository
	invoiceRepo repository.CandidateRepository
	engine      *matcher.Engine
	cfg         config.MatchingConfig
}

func NewReconciliationService(
	importRepo repository.ImportRepository,
	txRepo repository.TransactionRepository,
	expenseRepo repository.CandidateRepository,
	invoiceRepo repository.CandidateRepository,
	cfg config.MatchingConfig,
) ReconciliationService {
	return &reconciliationService{
		importRepo:  importRepo,
		txRepo:      txRepo,
		expenseRepo: expenseRepo,
		invoiceRepo: invoiceRepo,
		engine:      matcher.NewEngine(cfg),
		cfg:         cfg,
	}
}

func (s *reconciliationService) Suggest(trxID string) ([]domain.Suggestion, error) {
	tx, err := s.txRepo.GetByID(trxID)
	if err != nil {
		return nil, err
	}

	imp, err := s.importRepo.GetByID(tx.ImportID)
	if err != nil {
		return nil, err
	}

	return s.SuggestFor(tx, imp.BusinessID)
}

func (s *reconciliationService) SuggestFor(tx *domain.BankTransaction, businessID string) ([]domain.Suggestion, error) {
	targetType, repo := s.sideOf(tx)

	window := time.Duration(s.cfg.DateWindowDays) * 24 * time.Hour
	candidates, err := repo.FindCandidates(businessID, tx.Date.Add(-window), tx.Date.Add(window))
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	return s.engine.Rank(tx, targetType, candidates), nil
}

// sideOf applies sign compatibility: money out matches expenses, money
// in matches invoices.
func (s *reconciliationService) sideOf(tx *domain.BankTransaction) (domain.MatchTargetType, repository.CandidateRepository) {
	if tx.IsDebit() {
		return domain.TargetExpense, s.expenseRepo
	}
	return domain.TargetInvoice, s.invoiceRepo
}

func (s *reconciliationService) Match(trxID string, targetType domain.MatchTargetType, candidateID string) (*domain.BankTransaction, error) {
	tx, err := s.txRepo.GetByID(trxID)
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case domain.ReconUnmatched, domain.ReconSuggested:
	default:
		return nil, fmt.Errorf("%w: cannot match from %s", domain.ErrInvalidStateTransition, tx.Status)
	}

	var repo repository.CandidateRepository
	switch targetType {
	case domain.TargetExpense:
		repo = s.expenseRepo
	case domain.TargetInvoice:
		repo = s.invoiceRepo
	default:
		return nil, fmt.Errorf("%w: unknown match type %q", domain.ErrCandidateNotFound, targetType)
	}

	candidate, err := repo.GetByID(candidateID)
	if err != nil {
		return nil, err
	}

	imp, err := s.importRepo.GetByID(tx.ImportID)
	if err != nil {
		return nil, err
	}
	if candidate.BusinessID != imp.BusinessID {
		return nil, domain.ErrCrossBusiness
	}

	// Record confidence when the scorer has an opinion; a manual match
	// outside the window stays unscored.
	var confidence *float64
	if score, ok := s.engine.Score(tx, targetType, *candidate); ok {
		confidence = &score
	}

	target := domain.MatchTarget{Type: targetType, ID: candidateID}
	if err := s.txRepo.ClaimMatch(trxID, target, confidence); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"trx_id":       trxID,
		"match_type":   targetType,
		"candidate_id": candidateID,
	}).Info("Transaction matched")

	return s.txRepo.GetByID(trxID)
}

func (s *reconciliationService) Unmatch(trxID string) (*domain.BankTransaction, error) {
	tx, err := s.txRepo.GetByID(trxID)
	if err != nil {
		return nil, err
	}

	if tx.Status != domain.ReconMatched {
		return nil, domain.ErrNotMatched
	}

	tx.Status = domain.ReconUnmatched
	tx.Match = domain.MatchTarget{}
	tx.Confidence = nil

	if err := s.txRepo.UpdateReconciliation(tx); err != nil {
		return nil, err
	}

	logger.GetLogger().WithField("trx_id", trxID).Info("Transaction unmatched")
	return tx, nil
}

func (s *reconciliationService) Ignore(trxID string) (*domain.BankTransaction, error) {
	tx, err := s.txRepo.GetByID(trxID)
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case domain.ReconUnmatched, domain.ReconSuggested:
	default:
		return nil, fmt.Errorf("%w: cannot ignore from %s", domain.ErrInvalidStateTransition, tx.Status)
	}

	tx.Status = domain.ReconIgnored
	tx.Match = domain.MatchTarget{}
	tx.Confidence = nil

	if err := s.txRepo.UpdateReconciliation(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *reconciliationService) Reopen(trxID string) (*domain.BankTransaction, error) {
	tx, err := s.txRepo.GetByID(trxID)
	if err != nil {
		return nil, err
	}

	if tx.Status != domain.ReconIgnored {
		return nil, fmt.Errorf("%w: cannot reopen from %s", domain.ErrInvalidStateTransition, tx.Status)
	}

	tx.Status = domain.ReconUnmatched

	if err := s.txRepo.UpdateReconciliation(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
