package mapper

import (
	"fmt"
	"strings"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// synonyms maps normalized header names onto canonical fields. Matching
// is exact on the normalized form; normalization lowercases, trims and
// collapses punctuation, so "Txn. Date" and "txn date" are the same key.
var synonyms = map[string]domain.CanonicalField{
	"date":             domain.FieldDate,
	"txn date":         domain.FieldDate,
	"transaction date": domain.FieldDate,
	"value date":       domain.FieldDate,
	"posting date":     domain.FieldDate,
	"post date":        domain.FieldDate,
	"dtposted":         domain.FieldDate,

	"description":         domain.FieldDescription,
	"narrative":           domain.FieldDescription,
	"narration":           domain.FieldDescription,
	"details":             domain.FieldDescription,
	"transaction details": domain.FieldDescription,
	"particulars":         domain.FieldDescription,
	"memo":                domain.FieldDescription,
	"name":                domain.FieldDescription,

	"debit":       domain.FieldDebit,
	"debits":      domain.FieldDebit,
	"dr":          domain.FieldDebit,
	"withdrawal":  domain.FieldDebit,
	"withdrawals": domain.FieldDebit,
	"money out":   domain.FieldDebit,
	"paid out":    domain.FieldDebit,
	// A single signed amount column maps to debit; the parser splits
	// positive values onto the credit side.
	"amount":             domain.FieldDebit,
	"transaction amount": domain.FieldDebit,
	"trnamt":             domain.FieldDebit,

	"credit":   domain.FieldCredit,
	"credits":  domain.FieldCredit,
	"cr":       domain.FieldCredit,
	"deposit":  domain.FieldCredit,
	"deposits": domain.FieldCredit,
	"money in": domain.FieldCredit,
	"paid in":  domain.FieldCredit,

	"balance":         domain.FieldBalance,
	"running balance": domain.FieldBalance,
	"closing balance": domain.FieldBalance,
	"ledger balance":  domain.FieldBalance,

	"reference":        domain.FieldReference,
	"ref":              domain.FieldReference,
	"ref no":           domain.FieldReference,
	"reference no":     domain.FieldReference,
	"reference number": domain.FieldReference,
	"cheque no":        domain.FieldReference,
	"cheque number":    domain.FieldReference,
	"receipt no":       domain.FieldReference,
	"transaction id":   domain.FieldReference,
	"fitid":            domain.FieldReference,
}

// Infer builds a ColumnMapping from raw file headers. Deterministic:
// the same header list always yields the same mapping. Unrecognized
// headers are left unmapped; when two headers resolve to the same
// field, the first one wins and the rest stay unmapped.
func Infer(headers []string) domain.ColumnMapping {
	mapping := make(domain.ColumnMapping, 0, len(headers))
	taken := make(map[domain.CanonicalField]bool)

	for _, h := range headers {
		assignment := domain.ColumnAssignment{SourceColumn: h}
		if field, ok := synonyms[normalize(h)]; ok && !taken[field] {
			assignment.Target = field
			taken[field] = true
		}
		mapping = append(mapping, assignment)
	}

	return mapping
}

// Validate checks a mapping before parsing proceeds. Date and
// description are mandatory; at least one of debit/credit must be
// mapped; no canonical field may be targeted twice.
func Validate(mapping domain.ColumnMapping) error {
	seen := make(map[domain.CanonicalField]string)
	for _, a := range mapping {
		if a.Target == "" {
			continue
		}
		if prev, dup := seen[a.Target]; dup {
			return fmt.Errorf("%w: %q and %q both map to %s",
				domain.ErrDuplicateTarget, prev, a.SourceColumn, a.Target)
		}
		seen[a.Target] = a.SourceColumn
	}

	for _, required := range []domain.CanonicalField{domain.FieldDate, domain.FieldDescription} {
		if _, ok := seen[required]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrMissingRequiredField, required)
		}
	}

	if _, debit := seen[domain.FieldDebit]; !debit {
		if _, credit := seen[domain.FieldCredit]; !credit {
			return fmt.Errorf("%w: at least one of debit/credit", domain.ErrMissingRequiredField)
		}
	}

	return nil
}

// IsSignedAmount reports whether the header names a generic amount
// column carrying both directions as signed values, as opposed to a
// one-sided debit or credit column. Only signed columns get split by
// sign during parsing; a lone "Money Out" keeps every row a debit.
func IsSignedAmount(header string) bool {
	switch normalize(header) {
	case "amount", "transaction amount", "trnamt":
		return true
	}
	return false
}

func normalize(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '(', ')', '_', '-', '/':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
