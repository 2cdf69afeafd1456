package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
	"github.com/gerrardelliot83-create/bankrecon/internal/mapper"
)

func collectRows(t *testing.T, data string, fileType domain.FileType, mapping domain.ColumnMapping) []ParsedRow {
	t.Helper()
	var rows []ParsedRow
	err := New().Parse([]byte(data), fileType, mapping, func(r ParsedRow) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	return rows
}

func kenyanMapping() domain.ColumnMapping {
	return domain.ColumnMapping{
		{SourceColumn: "Value Date", Target: domain.FieldDate},
		{SourceColumn: "Narrative", Target: domain.FieldDescription},
		{SourceColumn: "Money Out", Target: domain.FieldDebit},
		{SourceColumn: "Money In", Target: domain.FieldCredit},
	}
}

func TestParse_KenyanBankCSV(t *testing.T) {
	csvData := "Value Date,Narrative,Money Out,Money In\n" +
		"2025-03-10,JOHN KAMAU OFFICE SUPPLIES,\"KES 4,500.00\",\n" +
		"11/03/2025,CLIENT PAYMENT INV-204,,\"12,000.00\"\n" +
		"2025-03-12,MPESA TRANSFER,250.00,\n"

	rows := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	require.Len(t, rows, 3)

	first := rows[0]
	require.Nil(t, first.Err)
	assert.Equal(t, "JOHN KAMAU OFFICE SUPPLIES", first.Transaction.Description)
	require.NotNil(t, first.Transaction.Debit)
	assert.True(t, first.Transaction.Debit.Equal(decimal.RequireFromString("4500.00")))
	assert.Nil(t, first.Transaction.Credit)
	assert.Equal(t, "2025-03-10", first.Transaction.Date.Format("2006-01-02"))

	second := rows[1]
	require.Nil(t, second.Err)
	assert.Equal(t, "2025-03-11", second.Transaction.Date.Format("2006-01-02"), "day-first date variant")
	require.NotNil(t, second.Transaction.Credit)
	assert.True(t, second.Transaction.Credit.Equal(decimal.RequireFromString("12000.00")))
}

func TestParse_OneSidedAmountInvariant(t *testing.T) {
	csvData := "Value Date,Narrative,Money Out,Money In\n" +
		"2025-03-10,A,100.00,\n" +
		"2025-03-11,B,,200.00\n" +
		"2025-03-12,C,0.00,300.00\n"

	rows := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	for _, r := range rows {
		require.Nil(t, r.Err)
		bothSet := r.Transaction.Debit != nil && r.Transaction.Credit != nil
		assert.False(t, bothSet, "debit and credit must never both be set")
	}
}

func TestParse_AmbiguousAmountRow(t *testing.T) {
	csvData := "Value Date,Narrative,Money Out,Money In\n" +
		"2025-03-10,OK ROW,500.00,\n" +
		"2025-03-11,BAD ROW,500.00,500.00\n"

	rows := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	require.Len(t, rows, 2)

	assert.Nil(t, rows[0].Err)
	require.NotNil(t, rows[1].Err)
	assert.Nil(t, rows[1].Transaction, "ambiguous row must not produce a transaction")
	assert.Contains(t, rows[1].Err.Reason, "debit and credit")
	assert.Equal(t, 2, rows[1].Err.Row)
}

func TestParse_RowErrorsDoNotAbortBatch(t *testing.T) {
	csvData := "Value Date,Narrative,Money Out,Money In\n" +
		"not-a-date,A,100.00,\n" +
		"2025-03-11,,100.00,\n" +
		"2025-03-12,C,garbage,\n" +
		"2025-03-13,D,400.00,\n"

	rows := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	require.Len(t, rows, 4)

	assert.NotNil(t, rows[0].Err)
	assert.NotNil(t, rows[1].Err)
	assert.NotNil(t, rows[2].Err)
	assert.Nil(t, rows[3].Err, "parser continues after error rows")
}

func TestParse_SignedSingleAmountColumn(t *testing.T) {
	csvData := "Date,Description,Amount\n" +
		"2025-03-10,SUPPLIER PAYMENT,-4500.00\n" +
		"2025-03-11,CUSTOMER DEPOSIT,12000.00\n"

	mapping := mapper.Infer([]string{"Date", "Description", "Amount"})
	rows := collectRows(t, csvData, domain.FileTypeCSV, mapping)
	require.Len(t, rows, 2)

	require.Nil(t, rows[0].Err)
	require.NotNil(t, rows[0].Transaction.Debit, "negative signed amount is a debit")
	assert.True(t, rows[0].Transaction.Debit.Equal(decimal.RequireFromString("4500.00")))

	require.Nil(t, rows[1].Err)
	require.NotNil(t, rows[1].Transaction.Credit, "positive signed amount is a credit")
	assert.True(t, rows[1].Transaction.Credit.Equal(decimal.RequireFromString("12000.00")))
}

func TestParse_LoneOneSidedColumnKeepsItsSide(t *testing.T) {
	debitOnly := "Date,Narrative,Money Out\n" +
		"2025-03-10,RENT,30000.00\n" +
		"2025-03-11,MPESA TRANSFER,250.00\n"

	mapping := mapper.Infer([]string{"Date", "Narrative", "Money Out"})
	rows := collectRows(t, debitOnly, domain.FileTypeCSV, mapping)
	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Nil(t, r.Err)
		assert.NotNil(t, r.Transaction.Debit, "a lone debit column never flips to credit")
		assert.Nil(t, r.Transaction.Credit)
	}

	creditOnly := "Date,Narrative,Money In\n" +
		"2025-03-12,CLIENT PAYMENT,12000.00\n"

	mapping = mapper.Infer([]string{"Date", "Narrative", "Money In"})
	rows = collectRows(t, creditOnly, domain.FileTypeCSV, mapping)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].Err)
	assert.Nil(t, rows[0].Transaction.Debit)
	assert.NotNil(t, rows[0].Transaction.Credit)
}

func TestParse_BalanceAndReferencePassThrough(t *testing.T) {
	csvData := "Date,Narrative,Debit,Credit,Balance,Ref No\n" +
		"2025-03-10,RENT,30000.00,,\"120,500.55\",CHQ-0042\n"

	mapping := mapper.Infer([]string{"Date", "Narrative", "Debit", "Credit", "Balance", "Ref No"})
	rows := collectRows(t, csvData, domain.FileTypeCSV, mapping)
	require.Len(t, rows, 1)

	tx := rows[0].Transaction
	require.NotNil(t, tx)
	require.NotNil(t, tx.Balance)
	assert.True(t, tx.Balance.Equal(decimal.RequireFromString("120500.55")))
	require.NotNil(t, tx.Reference)
	assert.Equal(t, "CHQ-0042", *tx.Reference)
}

func TestParse_UnparsableFile(t *testing.T) {
	err := New().Parse([]byte{0xFF, 0xFE, 0x00, 0x01}, domain.FileTypeCSV, kenyanMapping(), func(ParsedRow) error {
		t.Fatal("callback must not run for unparsable file")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUnparsableFile)
}

func TestParse_HeaderOnlyFileIsUnparsable(t *testing.T) {
	err := New().Parse([]byte("Value Date,Narrative,Money Out,Money In\n"), domain.FileTypeCSV, kenyanMapping(), func(ParsedRow) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUnparsableFile)
}

func TestParse_UnsupportedFileType(t *testing.T) {
	err := New().Parse([]byte("whatever"), domain.FileTypeOther, kenyanMapping(), func(ParsedRow) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestParse_MappedColumnMissingFromHeader(t *testing.T) {
	csvData := "Narrative,Money Out\nRENT,100.00\n"

	err := New().Parse([]byte(csvData), domain.FileTypeCSV, kenyanMapping(), func(ParsedRow) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func TestParse_Restartable(t *testing.T) {
	csvData := "Value Date,Narrative,Money Out,Money In\n" +
		"2025-03-10,A,100.00,\n" +
		"2025-03-11,B,,200.00\n"

	first := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	second := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	assert.Equal(t, first, second)
}

func TestParse_SemicolonDelimited(t *testing.T) {
	csvData := "Value Date;Narrative;Money Out;Money In\n" +
		"2025-03-10;RENT;30000.00;\n"

	rows := collectRows(t, csvData, domain.FileTypeCSV, kenyanMapping())
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Err)
	assert.Equal(t, "RENT", rows[0].Transaction.Description)
}

func TestParse_OFX(t *testing.T) {
	ofxData := `OFXHEADER:100
DATA:OFXSGML

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250310120000
<TRNAMT>-4500.00
<FITID>FT25069XYZ
<NAME>JOHN KAMAU OFFICE SUPPLIES
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250311
<TRNAMT>12000.00
<FITID>FT25070ABC
<NAME>CLIENT PAYMENT
<MEMO>INV-204
</STMTTRN>
</BANKTRANLIST>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

	headers, err := New().Headers([]byte(ofxData), domain.FileTypeOFX)
	require.NoError(t, err)

	mapping := mapper.Infer(headers)
	require.NoError(t, mapper.Validate(mapping))

	rows := collectRows(t, ofxData, domain.FileTypeOFX, mapping)
	require.Len(t, rows, 2)

	require.Nil(t, rows[0].Err)
	assert.Equal(t, "2025-03-10", rows[0].Transaction.Date.Format("2006-01-02"))
	require.NotNil(t, rows[0].Transaction.Debit)
	assert.True(t, rows[0].Transaction.Debit.Equal(decimal.RequireFromString("4500.00")))
	require.NotNil(t, rows[0].Transaction.Reference)
	assert.Equal(t, "FT25069XYZ", *rows[0].Transaction.Reference)

	require.Nil(t, rows[1].Err)
	require.NotNil(t, rows[1].Transaction.Credit)
	assert.Equal(t, "CLIENT PAYMENT INV-204", rows[1].Transaction.Description)
}

func TestParse_PDFGarbageRejected(t *testing.T) {
	assert.False(t, New().CanExtractRows([]byte("%PDF-1.4 garbage"), domain.FileTypePDF))

	err := New().Parse([]byte("not a pdf at all"), domain.FileTypePDF, kenyanMapping(), func(ParsedRow) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUnparsableFile)
}

func TestParseAmount_Normalization(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"4,500.00", "4500.00"},
		{"KES 4,500.00", "4500.00"},
		{"Ksh 1,250", "1250.00"},
		{"(300.00)", "-300.00"},
		{"500.00 DR", "-500.00"},
		{"500.00 CR", "500.00"},
		{"1 234.50", "1234.50"},
		{"0.125", "0.12"}, // round half to even
		{"0.135", "0.14"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", got, tt.want)
		})
	}
}

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-03-10", "2025-03-10"},
		{"10/03/2025", "2025-03-10"},
		{"10-03-2025", "2025-03-10"},
		{"10 Mar 2025", "2025-03-10"},
		{"20250310", "2025-03-10"},
		{"2025/03/10", "2025-03-10"},
	}

	for _, tt := range tests {
		got, err := parseDate(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got.Format("2006-01-02"))
	}

	_, err := parseDate("yesterday")
	assert.Error(t, err)
}
