package balance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

// Activity is the debit and credit movement of an account over a range.
// Net is DebitTotal - CreditTotal regardless of account type.
type Activity struct {
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	Net         decimal.Decimal `json:"net"`
}

type Row struct {
	AccountNumber string `json:"account"`
	Activity
}

type TrialBalance struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Rows        []Row           `json:"rows"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
}

// Balanced reports whether total debits equal total credits.
func (tb *TrialBalance) Balanced() bool {
	return tb.DebitTotal.Equal(tb.CreditTotal)
}

func Sum(entries []*ledger.Entry) Activity {
	a := Activity{DebitTotal: decimal.Zero, CreditTotal: decimal.Zero}
	for _, e := range entries {
		a.DebitTotal = a.DebitTotal.Add(e.Debit)
		a.CreditTotal = a.CreditTotal.Add(e.Credit)
	}

	a.Net = a.DebitTotal.Sub(a.CreditTotal)

	return a
}

// Trial groups entries by account, ordered by account number.
func Trial(from, to time.Time, entries []*ledger.Entry) *TrialBalance {
	byAccount := make(map[string][]*ledger.Entry)
	for _, e := range entries {
		byAccount[e.AccountNumber] = append(byAccount[e.AccountNumber], e)
	}

	tb := &TrialBalance{
		From:        from,
		To:          to,
		Rows:        make([]Row, 0, len(byAccount)),
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
	}

	for number, es := range byAccount {
		a := Sum(es)
		tb.Rows = append(tb.Rows, Row{AccountNumber: number, Activity: a})
		tb.DebitTotal = tb.DebitTotal.Add(a.DebitTotal)
		tb.CreditTotal = tb.CreditTotal.Add(a.CreditTotal)
	}

	sort.Slice(tb.Rows, func(i, j int) bool {
		return tb.Rows[i].AccountNumber < tb.Rows[j].AccountNumber
	})

	return tb
}
