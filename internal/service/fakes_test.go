package service

import (
	"sync"
	"time"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// In-memory stand-ins for the Postgres repositories. They mimic the
// store semantics the services rely on: CAS status transitions, the
// claim guard on matches, and exclusion of claimed candidates.

type fakeImportRepo struct {
	mu      sync.Mutex
	imports map[string]*domain.BankImport
	files   map[string][]byte
}

func newFakeImportRepo() *fakeImportRepo {
	return &fakeImportRepo{
		imports: make(map[string]*domain.BankImport),
		files:   make(map[string][]byte),
	}
}

func (r *fakeImportRepo) Create(imp *domain.BankImport, fileData []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp.UploadedAt = time.Now()
	clone := *imp
	r.imports[imp.ID] = &clone
	r.files[imp.ID] = fileData
	return nil
}

func (r *fakeImportRepo) GetByID(id string) (*domain.BankImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return nil, domain.ErrImportNotFound
	}
	clone := *imp
	return &clone, nil
}

func (r *fakeImportRepo) GetFileData(id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[id]
	if !ok {
		return nil, domain.ErrImportNotFound
	}
	return data, nil
}

func (r *fakeImportRepo) UpdateMapping(id string, mapping domain.ColumnMapping, status domain.ImportStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return domain.ErrImportNotFound
	}
	imp.Mapping = mapping
	imp.Status = status
	return nil
}

func (r *fakeImportRepo) TransitionStatus(id string, from, to domain.ImportStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok || imp.Status != from {
		return false, nil
	}
	imp.Status = to
	return true, nil
}

func (r *fakeImportRepo) Finalize(imp *domain.BankImport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *imp
	r.imports[imp.ID] = &clone
	return nil
}

func (r *fakeImportRepo) setStatus(id string, status domain.ImportStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[id].Status = status
}

type fakeTxRepo struct {
	mu  sync.Mutex
	txs map[string]*domain.BankTransaction
	ord []string
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make(map[string]*domain.BankTransaction)}
}

func (r *fakeTxRepo) BulkCreate(transactions []domain.BankTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transactions {
		clone := t
		clone.CreatedAt = time.Now()
		r.txs[t.ID] = &clone
		r.ord = append(r.ord, t.ID)
	}
	return nil
}

func (r *fakeTxRepo) GetByID(id string) (*domain.BankTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTxRepo) ListByImport(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BankTransaction
	for _, id := range r.ord {
		t := r.txs[id]
		if t.ImportID != importID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTxRepo) UpdateReconciliation(tx *domain.BankTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.txs[tx.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	stored.Status = tx.Status
	stored.Match = tx.Match
	stored.Confidence = tx.Confidence
	return nil
}

func (r *fakeTxRepo) ClaimMatch(txID string, target domain.MatchTarget, confidence *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[txID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	for id, other := range r.txs {
		if id != txID && other.Status == domain.ReconMatched && other.Match == target {
			return domain.ErrAlreadyMatched
		}
	}
	tx.Status = domain.ReconMatched
	tx.Match = target
	tx.Confidence = confidence
	return nil
}

func (r *fakeTxRepo) isClaimed(target domain.MatchTarget) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txs {
		if t.Status == domain.ReconMatched && t.Match == target {
			return true
		}
	}
	return false
}

type fakeCandidateRepo struct {
	candidates []domain.Candidate
	targetType domain.MatchTargetType
	txs        *fakeTxRepo
}

func (r *fakeCandidateRepo) FindCandidates(businessID string, from, to time.Time) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for _, c := range r.candidates {
		if c.BusinessID != businessID {
			continue
		}
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		if r.txs != nil && r.txs.isClaimed(domain.MatchTarget{Type: r.targetType, ID: c.ID}) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCandidateRepo) GetByID(id string) (*domain.Candidate, error) {
	for _, c := range r.candidates {
		if c.ID == id {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrCandidateNotFound
}
