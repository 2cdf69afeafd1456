package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

type stubImportService struct {
	lastMapping domain.ColumnMapping
}

func (s *stubImportService) Create(businessID, fileName string, fileType domain.FileType, sourceBank domain.SourceBank, data []byte) (*domain.BankImport, error) {
	return &domain.BankImport{ID: "imp-1", Status: domain.ImportPending}, nil
}

func (s *stubImportService) Get(importID string) (*domain.BankImport, error) {
	return &domain.BankImport{ID: importID}, nil
}

func (s *stubImportService) InferMapping(importID string) (*domain.BankImport, error) {
	return &domain.BankImport{ID: importID, Status: domain.ImportMapping}, nil
}

func (s *stubImportService) SetMapping(importID string, mapping domain.ColumnMapping) (*domain.BankImport, error) {
	s.lastMapping = mapping
	return &domain.BankImport{ID: importID, Status: domain.ImportMapping, Mapping: mapping}, nil
}

func (s *stubImportService) Process(importID string) (*domain.BankImport, error) {
	return &domain.BankImport{ID: importID, Status: domain.ImportCompleted}, nil
}

func (s *stubImportService) ListTransactions(importID string, status *domain.ReconciliationStatus) ([]domain.BankTransaction, error) {
	return nil, nil
}

func setMappingRequest(t *testing.T, svc *stubImportService, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewImportHandler(svc, 10<<20)
	router.PUT("/api/v1/imports/:import_id/mapping", h.SetMapping)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/imports/imp-1/mapping", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetMapping_AcceptsExplicitlyIgnoredColumn(t *testing.T) {
	svc := &stubImportService{}
	rec := setMappingRequest(t, svc, `{
		"assignments": [
			{"source_column": "Value Date", "target": "date"},
			{"source_column": "Narrative", "target": "description"},
			{"source_column": "Money Out", "target": "debit"},
			{"source_column": "Branch Code", "target": ""},
			{"source_column": "Teller ID"}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.lastMapping, 5)
	assert.Equal(t, domain.FieldDate, svc.lastMapping[0].Target)
	assert.Equal(t, domain.CanonicalField(""), svc.lastMapping[3].Target, "empty target means ignored")
	assert.Equal(t, domain.CanonicalField(""), svc.lastMapping[4].Target, "omitted target means ignored")
}

func TestSetMapping_RejectsMissingSourceColumn(t *testing.T) {
	svc := &stubImportService{}
	rec := setMappingRequest(t, svc, `{"assignments": [{"target": "date"}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Nil(t, svc.lastMapping)
}
