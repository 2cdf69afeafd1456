package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/service"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
	"github.com/gerrardelliot83-create/bankrecon/pkg/response"
)

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

type MatchRequest struct {
	Type        string `json:"type" binding:"required,oneof=expense invoice"`
	CandidateID string `json:"candidate_id" binding:"required"`
}

// GetSuggestions godoc
// @Summary Get match suggestions
// @Description Rank candidate expenses or invoices for a bank transaction by match confidence
// @Tags reconciliation
// @Produce json
// @Param trx_id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{trx_id}/suggestions [get]
func (h *ReconciliationHandler) GetSuggestions(c *gin.Context) {
	suggestions, err := h.service.Suggest(c.Param("trx_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Suggestions retrieved successfully", suggestions)
}

// Match godoc
// @Summary Match a transaction
// @Description Match a bank transaction to an expense or invoice
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param trx_id path string true "Transaction ID"
// @Param request body MatchRequest true "Match target"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{trx_id}/match [post]
func (h *ReconciliationHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	trxID := c.Param("trx_id")
	tx, err := h.service.Match(trxID, domain.MatchTargetType(req.Type), req.CandidateID)
	if err != nil {
		logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
			"trx_id":       trxID,
			"candidate_id": req.CandidateID,
		}).Error("Match failed")
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction matched successfully", tx)
}

// Unmatch godoc
// @Summary Unmatch a transaction
// @Description Release a matched transaction back to unmatched
// @Tags reconciliation
// @Produce json
// @Param trx_id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{trx_id}/unmatch [post]
func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	tx, err := h.service.Unmatch(c.Param("trx_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction unmatched successfully", tx)
}

// Ignore godoc
// @Summary Ignore a transaction
// @Description Exclude a transaction from reconciliation
// @Tags reconciliation
// @Produce json
// @Param trx_id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{trx_id}/ignore [post]
func (h *ReconciliationHandler) Ignore(c *gin.Context) {
	tx, err := h.service.Ignore(c.Param("trx_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction ignored successfully", tx)
}

// Reopen godoc
// @Summary Reopen an ignored transaction
// @Description Return an ignored transaction to the unmatched pool
// @Tags reconciliation
// @Produce json
// @Param trx_id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{trx_id}/reopen [post]
func (h *ReconciliationHandler) Reopen(c *gin.Context) {
	tx, err := h.service.Reopen(c.Param("trx_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction reopened successfully", tx)
}
