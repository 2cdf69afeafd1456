package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

func TestInfer_KenyanBankHeaders(t *testing.T) {
	headers := []string{"Value Date", "Narrative", "Money Out", "Money In"}

	mapping := Infer(headers)

	assert.Equal(t, domain.ColumnMapping{
		{SourceColumn: "Value Date", Target: domain.FieldDate},
		{SourceColumn: "Narrative", Target: domain.FieldDescription},
		{SourceColumn: "Money Out", Target: domain.FieldDebit},
		{SourceColumn: "Money In", Target: domain.FieldCredit},
	}, mapping)

	assert.NoError(t, Validate(mapping))
}

func TestInfer_Deterministic(t *testing.T) {
	headers := []string{"Date", "Details", "Debit", "Credit", "Balance", "Ref No"}

	first := Infer(headers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Infer(headers))
	}
}

func TestInfer_UnknownHeadersStayUnmapped(t *testing.T) {
	mapping := Infer([]string{"Date", "Description", "Amount", "Branch Code", "Teller"})

	assert.Equal(t, domain.FieldDate, mapping[0].Target)
	assert.Equal(t, domain.FieldDescription, mapping[1].Target)
	assert.Equal(t, domain.FieldDebit, mapping[2].Target, "single amount column maps to debit")
	assert.Equal(t, domain.CanonicalField(""), mapping[3].Target)
	assert.Equal(t, domain.CanonicalField(""), mapping[4].Target)
}

func TestInfer_DuplicateSynonymsFirstWins(t *testing.T) {
	mapping := Infer([]string{"Date", "Txn Date", "Narrative"})

	assert.Equal(t, domain.FieldDate, mapping[0].Target)
	assert.Equal(t, domain.CanonicalField(""), mapping[1].Target)
}

func TestInfer_NeverFails(t *testing.T) {
	mapping := Infer([]string{"???", "col2", ""})

	for _, a := range mapping {
		assert.Equal(t, domain.CanonicalField(""), a.Target)
	}
	// All-null mapping is rejected at validation, not inference.
	assert.ErrorIs(t, Validate(mapping), domain.ErrMissingRequiredField)
}

func TestValidate_DuplicateTarget(t *testing.T) {
	mapping := domain.ColumnMapping{
		{SourceColumn: "Date", Target: domain.FieldDate},
		{SourceColumn: "Narrative", Target: domain.FieldDescription},
		{SourceColumn: "Debit", Target: domain.FieldDebit},
		{SourceColumn: "Withdrawal", Target: domain.FieldDebit},
	}

	assert.ErrorIs(t, Validate(mapping), domain.ErrDuplicateTarget)
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		mapping domain.ColumnMapping
	}{
		{
			name: "no date",
			mapping: domain.ColumnMapping{
				{SourceColumn: "Narrative", Target: domain.FieldDescription},
				{SourceColumn: "Debit", Target: domain.FieldDebit},
			},
		},
		{
			name: "no description",
			mapping: domain.ColumnMapping{
				{SourceColumn: "Date", Target: domain.FieldDate},
				{SourceColumn: "Credit", Target: domain.FieldCredit},
			},
		},
		{
			name: "no amount column",
			mapping: domain.ColumnMapping{
				{SourceColumn: "Date", Target: domain.FieldDate},
				{SourceColumn: "Narrative", Target: domain.FieldDescription},
				{SourceColumn: "Balance", Target: domain.FieldBalance},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.mapping), domain.ErrMissingRequiredField)
		})
	}
}

func TestIsSignedAmount(t *testing.T) {
	assert.True(t, IsSignedAmount("Amount"))
	assert.True(t, IsSignedAmount("Transaction Amount"))
	assert.True(t, IsSignedAmount("TRNAMT"))
	assert.False(t, IsSignedAmount("Money Out"))
	assert.False(t, IsSignedAmount("Debit"))
	assert.False(t, IsSignedAmount("Credits"))
}

func TestValidate_BalanceAndReferenceOptional(t *testing.T) {
	mapping := domain.ColumnMapping{
		{SourceColumn: "Date", Target: domain.FieldDate},
		{SourceColumn: "Narrative", Target: domain.FieldDescription},
		{SourceColumn: "Debit", Target: domain.FieldDebit},
		{SourceColumn: "Extra"},
	}

	assert.NoError(t, Validate(mapping))
}
