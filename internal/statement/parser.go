package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parser reads bank CSV exports. The layout is detected by matching header
// rows against known profiles; the delimiter is sniffed from the content.
// Leading metadata rows before the header are skipped.
type Parser struct {
	profiles []Profile
}

func NewParser() *Parser {
	return &Parser{profiles: profiles}
}

func (p *Parser) Parse(r io.Reader) ([]Line, error) {
	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	profile, cols, headerIdx := p.detectProfile(rows)
	if profile == nil {
		return nil, ErrUnknownFormat
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
}

// sniffDelimiter picks the candidate that appears most often in the first
// lines. Semicolon wins ties since comma also shows up inside amounts.
func sniffDelimiter(data []byte) rune {
	lines := bytes.SplitN(data, []byte("\n"), 20)

	best, bestCount := ';', 0
	for _, c := range []rune{';', '\t', ','} {
		count := 0
		for _, l := range lines {
			count += bytes.Count(l, []byte(string(c)))
		}

		if count > bestCount {
			best, bestCount = c, count
		}
	}

	return best
}

// colIndex maps normalised column names to their index in the row.
type colIndex map[string]int

func normalise(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (ci colIndex) lookup(name string) (int, bool) {
	i, ok := ci[normalise(name)]
	return i, ok
}

func (p *Parser) detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := normalise(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range p.profiles {
			if matchesProfile(&p.profiles[i], cols) {
				return &p.profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols.lookup(name); !ok {
			return false
		}
	}

	return true
}

// parseRows skips rows without a parseable date or a non-zero amount
// (footers, balances carried forward). headerRowNum is 0-based.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]Line, error) {
	dateIdx, _ := cols.lookup(p.DateCol)
	descIdx, _ := cols.lookup(p.DescCol)

	refIdx := -1
	for _, name := range p.RefCols {
		if i, ok := cols.lookup(name); ok {
			refIdx = i
			break
		}
	}

	var lines []Line

	for i, row := range rows {
		rowNum := headerRowNum + i + 2

		date, ok := parseDate(p.DateLayouts, cellValue(row, dateIdx))
		if !ok {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("%w: row %d: missing description", ErrMalformed, rowNum)
		}

		amount, ok := rowAmount(p, cols, row)
		if !ok {
			continue
		}

		lines = append(lines, Line{
			Row:         rowNum,
			Date:        date,
			Description: desc,
			Reference:   strings.Trim(cellValue(row, refIdx), `="`),
			Amount:      amount,
		})
	}

	return lines, nil
}

func parseDate(layouts []string, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func rowAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, bool) {
	switch p.AmountMode {
	case amountSingle:
		idx, _ := cols.lookup(p.AmountCol)
		return nonZero(cellValue(row, idx), p.Decimal)
	case amountSplit:
		outIdx, _ := cols.lookup(p.OutCol)
		if d, ok := nonZero(cellValue(row, outIdx), p.Decimal); ok {
			return d.Abs().Neg(), true
		}

		inIdx, _ := cols.lookup(p.InCol)
		if d, ok := nonZero(cellValue(row, inIdx), p.Decimal); ok {
			return d.Abs(), true
		}
	}

	return decimal.Zero, false
}

func nonZero(s string, style decimalStyle) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseAmount(s, style)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
