package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/mapper"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// ParsedRow is the outcome of parsing a single statement line: either a
// BankTransaction draft or a row error, never both. Index is the
// zero-based data row position in the source file.
type ParsedRow struct {
	Index       int
	Transaction *domain.BankTransaction
	Err         *domain.RowError
}

// Parser converts file bytes plus an active column mapping into
// BankTransaction drafts, row by row in file order. Parsing the same
// bytes is deterministic and side-effect-free.
type Parser struct {
	registry *Registry
}

// New returns a Parser over the built-in row sources.
func New() *Parser {
	return &Parser{registry: DefaultRegistry()}
}

// Headers reads just the header row, for mapping inference and preview.
func (p *Parser) Headers(data []byte, fileType domain.FileType) ([]string, error) {
	source := p.registry.Get(fileType)
	if source == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileType)
	}
	header, _, err := source.Rows(data)
	return header, err
}

// CanExtractRows reports whether the file yields at least one data row.
// Used at the upload boundary to reject opaque PDFs before any state
// machine transition.
func (p *Parser) CanExtractRows(data []byte, fileType domain.FileType) bool {
	source := p.registry.Get(fileType)
	if source == nil {
		return false
	}
	_, rows, err := source.Rows(data)
	return err == nil && len(rows) > 0
}

// Parse extracts rows and invokes fn once per row, in file order.
// Structural per-row failures are reported as ParsedRow.Err and parsing
// continues; a completely unreadable file (or a mapping whose required
// columns are missing from the header) fails the whole call.
func (p *Parser) Parse(data []byte, fileType domain.FileType, mapping domain.ColumnMapping, fn func(ParsedRow) error) error {
	source := p.registry.Get(fileType)
	if source == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileType)
	}

	header, rows, err := source.Rows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: no data rows", domain.ErrUnparsableFile)
	}

	cols, err := resolveColumns(header, mapping)
	if err != nil {
		return err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"file_type": fileType,
		"rows":      len(rows),
	}).Debug("Parsing statement rows")

	for i, record := range rows {
		if err := fn(p.parseRow(i, record, cols)); err != nil {
			return err
		}
	}

	return nil
}

// columnIndexes maps each mapped canonical field to its position in the
// header row.
type columnIndexes struct {
	date        int
	description int
	debit       int
	credit      int
	balance     int
	reference   int
	// signedAmount marks a lone amount column whose values carry the
	// direction in their sign.
	signedAmount bool
	names        map[domain.CanonicalField]string
}

func resolveColumns(header []string, mapping domain.ColumnMapping) (*columnIndexes, error) {
	cols := &columnIndexes{
		date: -1, description: -1, debit: -1, credit: -1, balance: -1, reference: -1,
		names: make(map[domain.CanonicalField]string),
	}

	position := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i
			}
		}
		return -1
	}

	for _, a := range mapping {
		if a.Target == "" {
			continue
		}
		idx := position(a.SourceColumn)
		if idx < 0 {
			continue
		}
		cols.names[a.Target] = a.SourceColumn
		switch a.Target {
		case domain.FieldDate:
			cols.date = idx
		case domain.FieldDescription:
			cols.description = idx
		case domain.FieldDebit:
			cols.debit = idx
		case domain.FieldCredit:
			cols.credit = idx
		case domain.FieldBalance:
			cols.balance = idx
		case domain.FieldReference:
			cols.reference = idx
		}
	}

	if cols.date < 0 {
		return nil, fmt.Errorf("%w: date", domain.ErrMissingRequiredField)
	}
	if cols.description < 0 {
		return nil, fmt.Errorf("%w: description", domain.ErrMissingRequiredField)
	}
	if cols.debit < 0 && cols.credit < 0 {
		return nil, fmt.Errorf("%w: at least one of debit/credit", domain.ErrMissingRequiredField)
	}

	// A lone column is split by sign only when its header names a
	// generic amount; a lone "Money Out" keeps every row a debit.
	if cols.debit < 0 || cols.credit < 0 {
		side := domain.FieldDebit
		if cols.debit < 0 {
			side = domain.FieldCredit
		}
		cols.signedAmount = mapper.IsSignedAmount(cols.names[side])
	}

	return cols, nil
}

func (p *Parser) parseRow(index int, record []string, cols *columnIndexes) ParsedRow {
	rowErr := func(field domain.CanonicalField, reason string) ParsedRow {
		return ParsedRow{Index: index, Err: &domain.RowError{
			Row:    index + 1,
			Column: cols.names[field],
			Reason: reason,
		}}
	}

	if record == nil {
		return ParsedRow{Index: index, Err: &domain.RowError{Row: index + 1, Reason: "malformed line"}}
	}

	cell := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(cell(cols.date))
	if err != nil {
		return rowErr(domain.FieldDate, fmt.Sprintf("unparseable date %q", cell(cols.date)))
	}

	description := cell(cols.description)
	if description == "" {
		return rowErr(domain.FieldDescription, "empty description")
	}

	debit, credit, rerr := parseAmounts(cell(cols.debit), cell(cols.credit), cols)
	if rerr != nil {
		rerr.Row = index + 1
		return ParsedRow{Index: index, Err: rerr}
	}

	tx := &domain.BankTransaction{
		Ordinal:     index,
		Date:        date,
		Description: description,
		Debit:       debit,
		Credit:      credit,
		Status:      domain.ReconUnmatched,
	}

	// Balance is display-only; an unreadable value is dropped, never an
	// error and never used to infer amounts.
	if raw := cell(cols.balance); raw != "" {
		if b, err := parseAmount(raw); err == nil {
			tx.Balance = &b
		}
	}

	if ref := cell(cols.reference); ref != "" {
		tx.Reference = &ref
	}

	return ParsedRow{Index: index, Transaction: tx}
}

// parseAmounts resolves the debit/credit cells into a single-sided
// movement. With both columns mapped, exactly one may carry a non-zero
// value. With a single mapped signed amount column, negative is money
// out (debit) and positive is money in (credit); a lone one-sided
// column keeps its magnitudes on that side.
func parseAmounts(debitRaw, creditRaw string, cols *columnIndexes) (*decimal.Decimal, *decimal.Decimal, *domain.RowError) {
	singleColumn := cols.debit < 0 || cols.credit < 0

	var debit, credit *decimal.Decimal

	if cols.debit >= 0 && debitRaw != "" {
		v, err := parseAmount(debitRaw)
		if err != nil {
			return nil, nil, &domain.RowError{Column: cols.names[domain.FieldDebit], Reason: fmt.Sprintf("unparseable amount %q", debitRaw)}
		}
		if !v.IsZero() {
			debit = &v
		}
	}
	if cols.credit >= 0 && creditRaw != "" {
		v, err := parseAmount(creditRaw)
		if err != nil {
			return nil, nil, &domain.RowError{Column: cols.names[domain.FieldCredit], Reason: fmt.Sprintf("unparseable amount %q", creditRaw)}
		}
		if !v.IsZero() {
			credit = &v
		}
	}

	if debit != nil && credit != nil {
		return nil, nil, &domain.RowError{Reason: domain.ErrAmbiguousAmount.Error()}
	}

	if singleColumn {
		signed := debit
		side := domain.FieldDebit
		if signed == nil {
			signed = credit
			side = domain.FieldCredit
		}
		if signed == nil {
			return nil, nil, &domain.RowError{Column: cols.names[side], Reason: "missing amount"}
		}
		abs := signed.Abs()
		if cols.signedAmount {
			if signed.IsNegative() {
				return &abs, nil, nil
			}
			return nil, &abs, nil
		}
		if side == domain.FieldDebit {
			return &abs, nil, nil
		}
		return nil, &abs, nil
	}

	if debit == nil && credit == nil {
		return nil, nil, &domain.RowError{Reason: "missing amount"}
	}

	// Magnitudes only; some exports carry the sign in the column itself.
	if debit != nil {
		abs := debit.Abs()
		return &abs, nil, nil
	}
	abs := credit.Abs()
	return nil, &abs, nil
}

// dateFormats is the ordered list of accepted date layouts. ISO 8601
// first, then day-first locale variants; first successful parse wins.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"20060102",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2006/01/02",
	"01/02/2006",
}

func parseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// currencyTokens are prefixes/suffixes stripped before numeric parsing.
var currencyTokens = []string{"KES", "KSH", "KSh", "Ksh", "SH", "USD", "$", "€", "£"}

// parseAmount normalizes a raw cell into a 2 d.p. decimal: currency
// tokens and thousands separators are stripped, parentheses and a DR
// suffix mean negative, and rounding is half-to-even.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "DR") {
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	} else if strings.HasSuffix(upper, "CR") {
		s = strings.TrimSpace(s[:len(s)-2])
	}

	for _, tok := range currencyTokens {
		s = strings.TrimSpace(strings.TrimPrefix(s, tok))
		s = strings.TrimSpace(strings.TrimSuffix(s, tok))
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d.RoundBank(2), nil
}
