package statement_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Parse(t *testing.T) {
	type testCase struct {
		name    string
		csv     string
		wantLen int
		verify  func(t *testing.T, lines []statement.Line)
		wantErr error
		errMsg  string
	}

	tests := []testCase{
		{
			name: "SignedAmountWithReference",
			csv: `Account,Trust 0042
Opening balance,"52,000.00"
Date,Description,Reference,Amount
2025-09-08,EFT TRANSFER OUT,EFT#4054,"-2,260.00"
2025-09-09,DEPOSIT DEAL 203,,"15,000.00"
Closing balance,,,"64,740.00"
`,
			wantLen: 2,
			verify: func(t *testing.T, lines []statement.Line) {
				assert.Equal(t, date(2025, 9, 8), lines[0].Date)
				assert.Equal(t, "EFT#4054", lines[0].Reference)
				assert.Equal(t, "-2260", lines[0].Amount.String())
				assert.Equal(t, 4, lines[0].Row)

				assert.Equal(t, "15000", lines[1].Amount.String())
				assert.Empty(t, lines[1].Reference)
			},
		},
		{
			name: "SplitColumnsWithParentheses",
			csv: `Date,Description,Cheque Number,Withdrawals,Deposits
09/15/2025,CHEQUE,1042,(500.00),
09/16/2025,COUNTER DEPOSIT,,,$1200.50
`,
			wantLen: 2,
			verify: func(t *testing.T, lines []statement.Line) {
				assert.Equal(t, date(2025, 9, 15), lines[0].Date)
				assert.Equal(t, "1042", lines[0].Reference)
				assert.Equal(t, "-500", lines[0].Amount.String())
				assert.Equal(t, "1200.5", lines[1].Amount.String())
			},
		},
		{
			name: "EuropeanSemicolon",
			csv: `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Saldo contabilístico;1.000,00 EUR
Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;TRANSFERENCIA;-588,74;48.825,46
09-01-2026;09-01-2026;DEPOSITO;8.608,52;52.532,78
`,
			wantLen: 2,
			verify: func(t *testing.T, lines []statement.Line) {
				assert.Equal(t, "-588.74", lines[0].Amount.String())
				assert.Equal(t, "8608.52", lines[1].Amount.String())
				assert.Equal(t, date(2026, 1, 9), lines[1].Date)
			},
		},
		{
			name:    "HeaderOnly",
			csv:     "Date,Description,Amount\n",
			wantLen: 0,
		},
		{
			name:    "UnknownFormat",
			csv:     "foo,bar\n1,2\n",
			wantErr: statement.ErrUnknownFormat,
		},
		{
			name: "MissingDescription",
			csv: `Date,Description,Amount
2025-09-08,,10.00
`,
			errMsg: "row 2: missing description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := statement.NewParser().Parse(strings.NewReader(tt.csv))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Len(t, lines, tt.wantLen)

			if tt.verify != nil {
				tt.verify(t, lines)
			}
		})
	}
}

func TestParser_Parse_Windows1252(t *testing.T) {
	content := "Data mov.;Descrição;Montante\n08-09-2025;Comissão;-2.260,00\n"

	var buf bytes.Buffer

	w := charmap.Windows1252.NewEncoder().Writer(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)

	lines, err := statement.NewParser().Parse(&buf)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Comissão", lines[0].Description)
	assert.Equal(t, "-2260", lines[0].Amount.String())
}

func TestParser_Parse_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Description,Amount\n2025-09-08,Fee,-1.50\n")...)

	lines, err := statement.NewParser().Parse(bytes.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "-1.5", lines[0].Amount.String())
}

func TestParser_Parse_UTF8RuneAcrossPeekWindow(t *testing.T) {
	const window = 4096

	row := "2025-09-08,Fee,-1.50\n"
	prefix := "2025-09-08,"

	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")

	for b.Len()+len(row) <= window-1-len(prefix) {
		b.WriteString(row)
	}

	// The two bytes of "é" straddle the end of the detection window.
	b.WriteString(prefix + strings.Repeat("x", window-1-b.Len()-len(prefix)) + "é,-2.00\n")

	for range 5 {
		b.WriteString(row)
	}

	lines, err := statement.NewParser().Parse(strings.NewReader(b.String()))
	require.NoError(t, err)

	var found bool

	for _, l := range lines {
		if strings.HasSuffix(l.Description, "xé") {
			found = true
		}
	}

	assert.True(t, found, "UTF-8 input is not re-decoded as Windows-1252")
}
