package domain

import (
	"time"
)

// FileType is the declared format of an uploaded statement file.
type FileType string

const (
	FileTypeCSV   FileType = "csv"
	FileTypeOFX   FileType = "ofx"
	FileTypePDF   FileType = "pdf"
	FileTypeOther FileType = "other"
)

// ParseFileType maps a raw string onto the closed FileType set.
// Anything unknown is FileTypeOther, which the upload boundary rejects.
func ParseFileType(s string) FileType {
	switch FileType(s) {
	case FileTypeCSV, FileTypeOFX, FileTypePDF:
		return FileType(s)
	}
	return FileTypeOther
}

// SourceBank identifies which bank produced the export.
type SourceBank string

const (
	BankEquity    SourceBank = "equity"
	BankKCB       SourceBank = "kcb"
	BankCoop      SourceBank = "coop"
	BankAbsa      SourceBank = "absa"
	BankNCBA      SourceBank = "ncba"
	BankStanchart SourceBank = "stanchart"
	BankMpesa     SourceBank = "mpesa"
	BankOther     SourceBank = "other"
)

// ParseSourceBank maps a raw string onto the known bank set, falling
// back to BankOther.
func ParseSourceBank(s string) SourceBank {
	switch SourceBank(s) {
	case BankEquity, BankKCB, BankCoop, BankAbsa, BankNCBA, BankStanchart, BankMpesa:
		return SourceBank(s)
	}
	return BankOther
}

// ImportStatus is the lifecycle state of one uploaded file. Transitions
// are one-directional: pending -> mapping -> processing -> completed|failed.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportMapping    ImportStatus = "mapping"
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// BankImport represents one uploaded statement file and its processing
// outcome. The engine never deletes imports; a failed import is
// re-uploaded as a new one.
type BankImport struct {
	ID            string        `json:"id" db:"id"`
	BusinessID    string        `json:"business_id" db:"business_id"`
	FileName      string        `json:"file_name" db:"file_name"`
	FileType      FileType      `json:"file_type" db:"file_type"`
	SourceBank    SourceBank    `json:"source_bank" db:"source_bank"`
	Status        ImportStatus  `json:"status" db:"status"`
	TotalRows     int           `json:"total_rows" db:"total_rows"`
	ProcessedRows int           `json:"processed_rows" db:"processed_rows"`
	MatchedRows   int           `json:"matched_rows" db:"matched_rows"`
	UnmatchedRows int           `json:"unmatched_rows" db:"unmatched_rows"`
	ErrorRows     int           `json:"error_rows" db:"error_rows"`
	Mapping       ColumnMapping `json:"column_mapping,omitempty" db:"column_mapping"`
	RowErrors     []RowError    `json:"row_errors,omitempty" db:"row_errors"`
	ErrorMessage  *string       `json:"error_message,omitempty" db:"error_message"`
	UploadedAt    time.Time     `json:"uploaded_at" db:"uploaded_at"`
	ProcessedAt   *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}

// CanonicalField is one of the six target fields every source column
// maps onto.
type CanonicalField string

const (
	FieldDate        CanonicalField = "date"
	FieldDescription CanonicalField = "description"
	FieldDebit       CanonicalField = "debit"
	FieldCredit      CanonicalField = "credit"
	FieldBalance     CanonicalField = "balance"
	FieldReference   CanonicalField = "reference"
)

// ColumnAssignment pairs a raw header with a canonical field. An empty
// Target means the column is ignored.
type ColumnAssignment struct {
	SourceColumn string         `json:"source_column"`
	Target       CanonicalField `json:"target,omitempty"`
}

// ColumnMapping is the ordered list of column assignments for one
// import. Order follows the source file's header order.
type ColumnMapping []ColumnAssignment

// IndexOf returns the position of the column mapped to field, or -1.
func (m ColumnMapping) IndexOf(field CanonicalField) int {
	for i, a := range m {
		if a.Target == field {
			return i
		}
	}
	return -1
}
