package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/service"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
	"github.com/gerrardelliot83-create/bankrecon/pkg/response"
)

type ImportHandler struct {
	service       service.ImportService
	maxUploadSize int64
}

func NewImportHandler(service service.ImportService, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{service: service, maxUploadSize: maxUploadSize}
}

type ColumnAssignmentRequest struct {
	SourceColumn string `json:"source_column" binding:"required"`
	// Target left empty or null means the column is ignored.
	Target string `json:"target"`
}

type SetMappingRequest struct {
	Assignments []ColumnAssignmentRequest `json:"assignments" binding:"required,min=1"`
}

// CreateImport godoc
// @Summary Upload a bank statement
// @Description Upload a statement file (CSV, OFX or PDF) and create a pending import
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Statement file"
// @Param business_id formData string true "Business ID"
// @Param file_type formData string false "File type (csv, ofx, pdf); inferred from the extension when omitted"
// @Param source_bank formData string false "Source bank (equity, kcb, coop, absa, ncba, stanchart, mpesa)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 415 {object} response.Response
// @Router /api/v1/imports [post]
func (h *ImportHandler) CreateImport(c *gin.Context) {
	businessID := c.PostForm("business_id")
	if businessID == "" {
		response.ValidationError(c, "business_id is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "file is required")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		response.BadRequest(c, "File too large", "statement exceeds the upload size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read uploaded file", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(c, "Failed to read uploaded file", err.Error())
		return
	}

	rawType := c.PostForm("file_type")
	if rawType == "" {
		rawType = strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	}
	fileType := domain.ParseFileType(strings.ToLower(rawType))
	sourceBank := domain.ParseSourceBank(strings.ToLower(c.PostForm("source_bank")))

	logger.GetLogger().WithFields(map[string]interface{}{
		"business_id": businessID,
		"file_name":   fileHeader.Filename,
		"file_type":   fileType,
		"source_bank": sourceBank,
		"size_bytes":  fileHeader.Size,
	}).Info("Statement upload received")

	imp, err := h.service.Create(businessID, fileHeader.Filename, fileType, sourceBank, data)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Import creation failed")
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Import created successfully", imp)
}

// GetImport godoc
// @Summary Get an import
// @Description Get an import with its status, counts and row errors
// @Tags imports
// @Produce json
// @Param import_id path string true "Import ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/imports/{import_id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	imp, err := h.service.Get(c.Param("import_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Import retrieved successfully", imp)
}

// InferMapping godoc
// @Summary Infer a column mapping
// @Description Propose a column mapping from the statement's header row
// @Tags imports
// @Produce json
// @Param import_id path string true "Import ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/imports/{import_id}/mapping/infer [post]
func (h *ImportHandler) InferMapping(c *gin.Context) {
	imp, err := h.service.InferMapping(c.Param("import_id"))
	if err != nil {
		logger.GetLogger().WithError(err).WithField("import_id", c.Param("import_id")).Error("Mapping inference failed")
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Mapping inferred successfully", imp)
}

// SetMapping godoc
// @Summary Set the column mapping
// @Description Confirm or override the column mapping for an import
// @Tags imports
// @Accept json
// @Produce json
// @Param import_id path string true "Import ID"
// @Param request body SetMappingRequest true "Column assignments"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/imports/{import_id}/mapping [put]
func (h *ImportHandler) SetMapping(c *gin.Context) {
	var req SetMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	mapping := make(domain.ColumnMapping, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		mapping = append(mapping, domain.ColumnAssignment{
			SourceColumn: a.SourceColumn,
			Target:       domain.CanonicalField(a.Target),
		})
	}

	imp, err := h.service.SetMapping(c.Param("import_id"), mapping)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Mapping updated successfully", imp)
}

// ProcessImport godoc
// @Summary Process an import
// @Description Parse the statement through the confirmed mapping and create draft transactions
// @Tags imports
// @Produce json
// @Param import_id path string true "Import ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/imports/{import_id}/process [post]
func (h *ImportHandler) ProcessImport(c *gin.Context) {
	importID := c.Param("import_id")

	logger.GetLogger().WithField("import_id", importID).Info("Starting import processing")

	imp, err := h.service.Process(importID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("import_id", importID).Error("Import processing failed")
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Import processed successfully", imp)
}

// ListTransactions godoc
// @Summary List an import's transactions
// @Description List the transactions of an import in file order, optionally filtered by reconciliation status
// @Tags imports
// @Produce json
// @Param import_id path string true "Import ID"
// @Param status query string false "Reconciliation status filter (unmatched, suggested, matched, ignored)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/imports/{import_id}/transactions [get]
func (h *ImportHandler) ListTransactions(c *gin.Context) {
	var status *domain.ReconciliationStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.ReconciliationStatus(raw)
		switch s {
		case domain.ReconUnmatched, domain.ReconSuggested, domain.ReconMatched, domain.ReconIgnored:
			status = &s
		default:
			response.BadRequest(c, "Invalid status filter", "use unmatched, suggested, matched or ignored")
			return
		}
	}

	transactions, err := h.service.ListTransactions(c.Param("import_id"), status)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transactions retrieved successfully", transactions)
}
