package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/reconciliation"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2025, time.September, d, 0, 0, 0, 0, time.UTC)
}

func september(t *testing.T) reconciliation.Period {
	t.Helper()

	p, err := reconciliation.NewPeriod(day(1), day(30))
	require.NoError(t, err)

	return p
}

func TestCompute_StatementMatchesBank(t *testing.T) {
	deposit := &ledger.Entry{ID: uuid.New(), Debit: dec("50000.00"), Credit: decimal.Zero}
	cheque := &ledger.Entry{ID: uuid.New(), Debit: decimal.Zero, Credit: dec("2000.00")}

	stmt := dec("50000.00")
	f := reconciliation.Compute(
		[]*ledger.Entry{deposit, cheque},
		map[uuid.UUID]bool{deposit.ID: true},
		decimal.Zero,
		&stmt,
	)

	assert.Equal(t, "48000", f.Book.String())
	assert.Equal(t, "2000", f.Open.String())
	assert.Equal(t, "50000", f.Bank.String())
	require.NotNil(t, f.Difference)
	assert.True(t, f.Difference.IsZero())
	assert.True(t, f.Reconciled())
}

func TestCompute_NoStatement(t *testing.T) {
	f := reconciliation.Compute(nil, nil, dec("12.50"), nil)

	assert.Nil(t, f.Difference)
	assert.False(t, f.Reconciled())
	assert.Equal(t, "-12.5", f.Bank.String())
}

func TestPeriod(t *testing.T) {
	p, err := reconciliation.ParsePeriodKey("2025-09-01..2025-09-30")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01..2025-09-30", p.Key())
	assert.True(t, p.Contains(time.Date(2025, time.September, 30, 23, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(day(1).AddDate(0, 0, -1)))

	for _, key := range []string{"2025-09-01", "2025-09-30..2025-09-01", "x..y"} {
		_, err := reconciliation.ParsePeriodKey(key)
		assert.ErrorIs(t, err, reconciliation.ErrInvalidPeriod, key)
	}
}

// fakeRecords keeps reconciliation state in memory behind the mock.
func fakeRecords(m *reconciliation.MockRepository) {
	rec := &reconciliation.Record{MiscAmount: decimal.Zero}
	cleared := map[uuid.UUID]bool{}

	m.EXPECT().GetRecord(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, reconciliation.Period) (*reconciliation.Record, error) {
			out := *rec
			out.Cleared = nil

			for id := range cleared {
				out.Cleared = append(out.Cleared, id)
			}

			return &out, nil
		}).AnyTimes()

	m.EXPECT().SetCleared(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ reconciliation.Period, ids []uuid.UUID, on bool) error {
			for _, id := range ids {
				if on {
					cleared[id] = true
				} else {
					delete(cleared, id)
				}
			}

			return nil
		}).AnyTimes()

	m.EXPECT().SetStatementAmount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ reconciliation.Period, amount *decimal.Decimal) error {
			rec.StatementAmount = amount
			return nil
		}).AnyTimes()
}

func TestService_ClearThenUnclearRestoresOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	period := september(t)
	entries := []*ledger.Entry{
		{ID: uuid.New(), AccountNumber: "CASH-TRUST", Debit: dec("50000.00"), Credit: decimal.Zero, OccurredOn: day(2)},
		{ID: uuid.New(), AccountNumber: "CASH-TRUST", Debit: decimal.Zero, Credit: dec("2000.00"), OccurredOn: day(8)},
	}

	repo := reconciliation.NewMockRepository(ctrl)
	fakeRecords(repo)

	ledgerEntries := reconciliation.NewMockEntries(ctrl)
	ledgerEntries.EXPECT().Query(gomock.Any(), "CASH-TRUST", period.From, period.To).Return(entries, nil).AnyTimes()

	svc := reconciliation.NewService(repo, ledgerEntries)
	ctx := context.Background()

	before, err := svc.Formula(ctx, "CASH-TRUST", period)
	require.NoError(t, err)
	assert.Equal(t, "-48000", before.Open.String())

	require.NoError(t, svc.SetCleared(ctx, "CASH-TRUST", period, entries[0].ID, true))
	require.NoError(t, svc.SetCleared(ctx, "CASH-TRUST", period, entries[0].ID, true))

	mid, err := svc.Formula(ctx, "CASH-TRUST", period)
	require.NoError(t, err)
	assert.Equal(t, "2000", mid.Open.String())

	require.NoError(t, svc.SetStatementAmount(ctx, "CASH-TRUST", period, new(dec("50000.00"))))

	st, err := svc.State(ctx, "CASH-TRUST", period)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{entries[0].ID}, st.ClearedEntryIDs)
	assert.Equal(t, []uuid.UUID{entries[1].ID}, st.OpenEntryIDs)
	assert.True(t, st.Formula.Reconciled())

	require.NoError(t, svc.SetCleared(ctx, "CASH-TRUST", period, entries[0].ID, false))

	after, err := svc.Formula(ctx, "CASH-TRUST", period)
	require.NoError(t, err)
	assert.True(t, before.Open.Equal(after.Open))
}

func TestService_SetCleared_UnknownEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	period := september(t)

	repo := reconciliation.NewMockRepository(ctrl)
	ledgerEntries := reconciliation.NewMockEntries(ctrl)
	ledgerEntries.EXPECT().Query(gomock.Any(), "CASH-TRUST", period.From, period.To).Return([]*ledger.Entry{
		{ID: uuid.New(), Debit: dec("1"), Credit: decimal.Zero},
	}, nil)

	svc := reconciliation.NewService(repo, ledgerEntries)

	err := svc.SetCleared(context.Background(), "CASH-TRUST", period, uuid.New(), true)
	assert.ErrorIs(t, err, reconciliation.ErrUnknownEntry)
}

func TestService_SetStatementAmount_RejectsFractionalCents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := reconciliation.NewService(reconciliation.NewMockRepository(ctrl), reconciliation.NewMockEntries(ctrl))

	err := svc.SetStatementAmount(context.Background(), "CASH-TRUST", september(t), new(dec("1.001")))
	assert.ErrorIs(t, err, reconciliation.ErrInvalidAmount)
}

func TestService_AutoClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	period := september(t)
	chequeA := &ledger.Entry{ID: uuid.New(), Seq: 1, Debit: decimal.Zero, Credit: dec("2260.00"), OccurredOn: day(8), Reference: new("EFT#4053")}
	chequeB := &ledger.Entry{ID: uuid.New(), Seq: 2, Debit: decimal.Zero, Credit: dec("2260.00"), OccurredOn: day(8), Reference: new("EFT#4054")}
	deposit := &ledger.Entry{ID: uuid.New(), Seq: 3, Debit: dec("15000.00"), Credit: decimal.Zero, OccurredOn: day(1)}

	repo := reconciliation.NewMockRepository(ctrl)
	fakeRecords(repo)

	ledgerEntries := reconciliation.NewMockEntries(ctrl)
	ledgerEntries.EXPECT().Query(gomock.Any(), "CASH-TRUST", period.From, period.To).
		Return([]*ledger.Entry{chequeA, chequeB, deposit}, nil).AnyTimes()

	svc := reconciliation.NewService(repo, ledgerEntries, reconciliation.WithMatchTolerance(2*24*time.Hour))

	result, err := svc.AutoClear(context.Background(), "CASH-TRUST", period, []statement.Line{
		{Date: day(9), Description: "EFT OUT", Reference: "4054", Amount: dec("-2260.00")},
		{Date: day(10), Description: "DEPOSIT", Amount: dec("15000.00")},
		{Date: day(20), Description: "BANK FEE", Amount: dec("-12.00")},
	})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, chequeB.ID, result.Matches[0].Entry.ID)
	require.Len(t, result.Unmatched, 2)
	assert.Equal(t, "DEPOSIT", result.Unmatched[0].Description)

	st, err := svc.State(context.Background(), "CASH-TRUST", period)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{chequeB.ID}, st.ClearedEntryIDs)
}

func TestMatchLines_EachEntryOnce(t *testing.T) {
	a := &ledger.Entry{ID: uuid.New(), Seq: 1, Debit: decimal.Zero, Credit: dec("100"), OccurredOn: day(5)}
	b := &ledger.Entry{ID: uuid.New(), Seq: 2, Debit: decimal.Zero, Credit: dec("100"), OccurredOn: day(6)}

	lines := []statement.Line{
		{Date: day(6), Amount: dec("-100")},
		{Date: day(6), Amount: dec("-100")},
		{Date: day(6), Amount: dec("-100")},
	}

	matches, unmatched := reconciliation.MatchLines(lines, []*ledger.Entry{a, b}, 24*time.Hour)

	require.Len(t, matches, 2)
	assert.Equal(t, b.ID, matches[0].Entry.ID, "closest date wins")
	assert.Equal(t, a.ID, matches[1].Entry.ID)
	assert.Len(t, unmatched, 1)
}
