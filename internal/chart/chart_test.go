package chart_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
	"github.com/MrJamesThe3rd/brokerledger/internal/chart"
)

func TestDefault(t *testing.T) {
	c, err := chart.Default()
	require.NoError(t, err)

	assert.Len(t, c.Accounts.List(), 9)

	cash, err := c.Accounts.Lookup("CASH-TRUST")
	require.NoError(t, err)
	assert.Equal(t, account.TypeAsset, cash.Type)

	require.Len(t, c.Series, 3)
	assert.Equal(t, "trust", c.Series[0].Name)
	assert.Equal(t, int64(1000), c.Series[0].Start)
	assert.Equal(t, "EFT#4054", c.Series[2].Reference(4054))

	limits := c.Limits()
	assert.Equal(t, 1, limits["trust_refund"])
	assert.Equal(t, 2, limits["agent_commission"])
	assert.Len(t, limits, 6)
}

func TestDefault_TemplatesBalance(t *testing.T) {
	c, err := chart.Default()
	require.NoError(t, err)

	amount := decimal.RequireFromString("2260.00")

	for _, tmpl := range c.Templates {
		debit, credit := decimal.Zero, decimal.Zero
		for _, l := range tmpl.Expand(amount) {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}

		assert.True(t, debit.Equal(credit), tmpl.Name)
		assert.True(t, debit.IsPositive(), tmpl.Name)
	}
}

const validHeader = `
accounts:
  - {number: CASH, name: Cash, type: asset}
  - {number: LIAB, name: Liability, type: liability}
series:
  - {name: general, start: 1, prefix: EFT}
`

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "UnknownField",
			yaml:    validHeader + "colour: blue\n",
			wantErr: "colour",
		},
		{
			name:    "BadAccountType",
			yaml:    "accounts:\n  - {number: CASH, type: money}\n",
			wantErr: `invalid type "money"`,
		},
		{
			name: "DuplicateSeries",
			yaml: validHeader + `
  - {name: general, start: 5, prefix: GEN}
`,
			wantErr: "series general: duplicate name",
		},
		{
			name:    "SeriesStart",
			yaml:    "series:\n  - {name: s, start: 0, prefix: S}\n",
			wantErr: "start must be at least 1",
		},
		{
			name: "ZeroLimit",
			yaml: validHeader + `
payment_types:
  - name: refund
    limit: 0
    legs: [{account: LIAB, side: debit}, {account: CASH, side: credit}]
`,
			wantErr: "limit must be at least 1",
		},
		{
			name: "UnknownAccount",
			yaml: validHeader + `
payment_types:
  - name: refund
    limit: 1
    legs: [{account: LIAB, side: debit}, {account: BANK, side: credit}]
`,
			wantErr: "account not found: BANK",
		},
		{
			name: "BadSide",
			yaml: validHeader + `
payment_types:
  - name: refund
    limit: 1
    legs: [{account: LIAB, side: left}, {account: CASH, side: credit}]
`,
			wantErr: `invalid side "left"`,
		},
		{
			name: "Unpaired",
			yaml: validHeader + `
payment_types:
  - name: refund
    limit: 1
    legs: [{account: LIAB, side: debit}, {account: LIAB, side: debit}, {account: CASH, side: credit}]
`,
			wantErr: "must pair up",
		},
		{
			name: "SingleLeg",
			yaml: validHeader + `
payment_types:
  - name: refund
    limit: 1
    legs: [{account: LIAB, side: debit}]
`,
			wantErr: "at least two legs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chart.Load(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, chart.ErrInvalidChart)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validHeader+`
payment_types:
  - name: refund
    limit: 3
    legs: [{account: LIAB, side: debit}, {account: CASH, side: credit}]
`), 0o600))

	c, err := chart.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"refund": 3}, c.Limits())

	_, err = chart.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
