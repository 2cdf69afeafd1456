package domain

import (
	"errors"
	"fmt"
)

// Input errors: user-fixable, surfaced with enough context to fix and
// re-submit.
var (
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrUnparsableFile       = errors.New("file could not be parsed")
	ErrDuplicateTarget      = errors.New("duplicate mapping target")
	ErrMissingRequiredField = errors.New("required field not mapped")
	ErrAmbiguousAmount      = errors.New("both debit and credit present")
)

// State errors: recoverable by the caller choosing a different action.
var (
	ErrImportInProgress       = errors.New("import is already processing")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyMatched         = errors.New("candidate already matched to another transaction")
	ErrNotMatched             = errors.New("transaction is not matched")
	ErrCrossBusiness          = errors.New("candidate belongs to a different business")
)

// Not-found errors.
var (
	ErrImportNotFound      = errors.New("import not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCandidateNotFound   = errors.New("candidate not found")
)

// RowError describes a single statement line that could not be parsed.
// Row errors are aggregated on the import, never abort the batch.
type RowError struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}
