package statement

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column ("Amount" holding "-10.00").
	amountSingle amountMode = iota
	// amountSplit means separate withdrawal and deposit columns.
	amountSplit
)

type decimalStyle int

const (
	decimalDot   decimalStyle = iota // 1,234.56
	decimalComma                     // 1.234,56
)

// Profile describes the column layout of one bank export format. Column
// names are matched case-insensitively.
type Profile struct {
	Name        string
	DateCol     string
	DateLayouts []string
	DescCol     string
	// RefCols are optional columns carrying a cheque or transfer reference.
	RefCols    []string
	AmountMode amountMode
	AmountCol  string // used when AmountMode == amountSingle
	OutCol     string // used when AmountMode == amountSplit
	InCol      string // used when AmountMode == amountSplit
	Decimal    decimalStyle
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.OutCol, p.InCol)
	}

	return cols
}

var (
	europeanDates = []string{"02-01-2006", "02/01/2006", "2006-01-02"}
	northAmDates  = []string{"2006-01-02", "01/02/2006", "1/2/2006", "Jan 2, 2006", "02-Jan-2006"}
	refCols       = []string{"Reference", "Ref", "Cheque Number", "Cheque #", "Check Number", "Transaction ID"}
)

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "cgd-card",
		DateCol:     "Data",
		DateLayouts: europeanDates,
		DescCol:     "Descrição",
		AmountMode:  amountSplit,
		OutCol:      "Débito",
		InCol:       "Crédito",
		Decimal:     decimalComma,
	},
	{
		Name:        "cgd-statement",
		DateCol:     "Data mov.",
		DateLayouts: europeanDates,
		DescCol:     "Descrição",
		RefCols:     []string{"Origem"},
		AmountMode:  amountSingle,
		AmountCol:   "Movimento",
		Decimal:     decimalComma,
	},
	{
		Name:        "cgd-account",
		DateCol:     "Data mov.",
		DateLayouts: europeanDates,
		DescCol:     "Descrição",
		AmountMode:  amountSingle,
		AmountCol:   "Montante",
		Decimal:     decimalComma,
	},
	{
		Name:        "split",
		DateCol:     "Date",
		DateLayouts: northAmDates,
		DescCol:     "Description",
		RefCols:     refCols,
		AmountMode:  amountSplit,
		OutCol:      "Withdrawals",
		InCol:       "Deposits",
		Decimal:     decimalDot,
	},
	{
		Name:        "debit-credit",
		DateCol:     "Date",
		DateLayouts: northAmDates,
		DescCol:     "Description",
		RefCols:     refCols,
		AmountMode:  amountSplit,
		OutCol:      "Debit",
		InCol:       "Credit",
		Decimal:     decimalDot,
	},
	{
		Name:        "signed",
		DateCol:     "Date",
		DateLayouts: northAmDates,
		DescCol:     "Description",
		RefCols:     refCols,
		AmountMode:  amountSingle,
		AmountCol:   "Amount",
		Decimal:     decimalDot,
	},
}
