package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/pkg/response"
)

// writeDomainError maps domain sentinels onto HTTP responses. Every
// handler funnels service errors through here so the status codes stay
// consistent across the API.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrImportNotFound):
		response.NotFound(c, "Import not found")
	case errors.Is(err, domain.ErrTransactionNotFound):
		response.NotFound(c, "Transaction not found")
	case errors.Is(err, domain.ErrCandidateNotFound):
		response.NotFound(c, "Candidate not found")
	case errors.Is(err, domain.ErrUnsupportedFileType):
		response.UnsupportedMediaType(c, "Unsupported file type", err.Error())
	case errors.Is(err, domain.ErrImportInProgress):
		response.Conflict(c, "Import is already being processed", err.Error())
	case errors.Is(err, domain.ErrInvalidStateTransition):
		response.Conflict(c, "Operation not allowed in current state", err.Error())
	case errors.Is(err, domain.ErrAlreadyMatched):
		response.Conflict(c, "Record is already matched to another transaction", err.Error())
	case errors.Is(err, domain.ErrNotMatched):
		response.Conflict(c, "Transaction is not matched", err.Error())
	case errors.Is(err, domain.ErrCrossBusiness):
		response.Conflict(c, "Record belongs to a different business", err.Error())
	case errors.Is(err, domain.ErrDuplicateTarget),
		errors.Is(err, domain.ErrMissingRequiredField):
		response.ValidationError(c, err.Error())
	case errors.Is(err, domain.ErrUnparsableFile):
		response.ValidationError(c, err.Error())
	default:
		response.InternalError(c, "Internal server error", err.Error())
	}
}
