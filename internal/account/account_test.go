package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name     string
		accounts []account.Account
		wantErr  string
	}{
		{
			name: "Valid",
			accounts: []account.Account{
				{Number: "CASH-TRUST", Name: "Trust bank account", Type: account.TypeAsset},
				{Number: "TRUST-LIABILITY", Name: "Deposits held in trust", Type: account.TypeLiability},
			},
		},
		{
			name:     "MissingNumber",
			accounts: []account.Account{{Name: "Nameless", Type: account.TypeAsset}},
			wantErr:  "account number is required",
		},
		{
			name:     "InvalidType",
			accounts: []account.Account{{Number: "X", Type: "cash"}},
			wantErr:  `invalid type "cash"`,
		},
		{
			name: "Duplicate",
			accounts: []account.Account{
				{Number: "X", Type: account.TypeAsset},
				{Number: "X", Type: account.TypeExpense},
			},
			wantErr: "duplicate number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := account.NewRegistry(tt.accounts)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := account.NewRegistry([]account.Account{
		{Number: "CASH-TRUST", Name: "Trust bank account", Type: account.TypeAsset},
	})
	require.NoError(t, err)

	got, err := reg.Lookup("CASH-TRUST")
	require.NoError(t, err)
	assert.Equal(t, account.TypeAsset, got.Type)

	_, err = reg.Lookup("CASH-NOWHERE")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestRegistry_ListIsOrderedCopy(t *testing.T) {
	reg, err := account.NewRegistry([]account.Account{
		{Number: "B", Type: account.TypeAsset},
		{Number: "A", Type: account.TypeIncome},
	})
	require.NoError(t, err)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Number)
	assert.Equal(t, "B", list[1].Number)

	list[0].Number = "mutated"
	assert.Equal(t, "A", reg.List()[0].Number)
}

func TestRegistry_Validate(t *testing.T) {
	reg, err := account.NewRegistry([]account.Account{
		{Number: "CASH-TRUST", Type: account.TypeAsset},
		{Number: "TRUST-LIABILITY", Type: account.TypeLiability},
	})
	require.NoError(t, err)

	assert.NoError(t, reg.Validate("CASH-TRUST", "TRUST-LIABILITY"))
	assert.NoError(t, reg.Validate())

	err = reg.Validate("CASH-TRUST", "CASH-NOWHERE")
	assert.ErrorIs(t, err, account.ErrNotFound)
	assert.ErrorContains(t, err, "CASH-NOWHERE")
}
