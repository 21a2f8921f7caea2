package reconciliation

import (
	"sort"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

// Match pairs a statement line with the ledger entry it clears.
type Match struct {
	Line  statement.Line `json:"line"`
	Entry *ledger.Entry  `json:"-"`
}

// MatchLines pairs lines with open entries of equal signed amount dated
// within tolerance of the line. Candidates sharing the line's reference win,
// then the closest date, then the earliest entry. Each entry is used at most
// once; lines are taken in input order.
func MatchLines(lines []statement.Line, open []*ledger.Entry, tolerance time.Duration) ([]Match, []statement.Line) {
	used := make(map[int]bool, len(open))

	var (
		matches   []Match
		unmatched []statement.Line
	)

	for _, line := range lines {
		var candidates []int

		for i, e := range open {
			if used[i] || !e.Amount().Equal(line.Amount) {
				continue
			}

			if absDuration(dateOnly(e.OccurredOn).Sub(dateOnly(line.Date))) > tolerance {
				continue
			}

			candidates = append(candidates, i)
		}

		if len(candidates) == 0 {
			unmatched = append(unmatched, line)
			continue
		}

		sort.SliceStable(candidates, func(a, b int) bool {
			ea, eb := open[candidates[a]], open[candidates[b]]

			ra, rb := referenceMatches(line, ea), referenceMatches(line, eb)
			if ra != rb {
				return ra
			}

			da := absDuration(dateOnly(ea.OccurredOn).Sub(dateOnly(line.Date)))
			db := absDuration(dateOnly(eb.OccurredOn).Sub(dateOnly(line.Date)))
			if da != db {
				return da < db
			}

			return ea.Seq < eb.Seq
		})

		best := candidates[0]
		used[best] = true
		matches = append(matches, Match{Line: line, Entry: open[best]})
	}

	return matches, unmatched
}

func referenceMatches(line statement.Line, e *ledger.Entry) bool {
	if e.Reference == nil || *e.Reference == "" {
		return false
	}

	ref := strings.ToUpper(*e.Reference)
	if line.Reference != "" && strings.EqualFold(line.Reference, ref) {
		return true
	}

	// Banks often print only the number of a reference like "EFT#4054".
	if _, num, ok := strings.Cut(ref, "#"); ok && line.Reference == num {
		return true
	}

	return strings.Contains(strings.ToUpper(line.Description), ref)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}

	return d
}
