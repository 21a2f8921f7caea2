package account

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFound = errors.New("account not found")

// Type is the accounting classification of an account.
type Type string

const (
	TypeAsset     Type = "asset"
	TypeLiability Type = "liability"
	TypeEquity    Type = "equity"
	TypeIncome    Type = "income"
	TypeExpense   Type = "expense"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense:
		return true
	}

	return false
}

// Account is a chart-of-accounts entry. Accounts are reference data and
// never change while the process runs.
type Account struct {
	Number string
	Name   string
	Type   Type
}

// Registry is the read-only chart of accounts, keyed by account number.
type Registry struct {
	byNumber map[string]Account
	ordered  []Account
}

func NewRegistry(accounts []Account) (*Registry, error) {
	r := &Registry{
		byNumber: make(map[string]Account, len(accounts)),
		ordered:  make([]Account, 0, len(accounts)),
	}

	for _, a := range accounts {
		if a.Number == "" {
			return nil, errors.New("account number is required")
		}

		if !a.Type.Valid() {
			return nil, fmt.Errorf("account %s: invalid type %q", a.Number, a.Type)
		}

		if _, dup := r.byNumber[a.Number]; dup {
			return nil, fmt.Errorf("account %s: duplicate number", a.Number)
		}

		r.byNumber[a.Number] = a
		r.ordered = append(r.ordered, a)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Number < r.ordered[j].Number
	})

	return r, nil
}

func (r *Registry) Lookup(number string) (Account, error) {
	a, ok := r.byNumber[number]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, number)
	}

	return a, nil
}

// List returns all accounts ordered by number.
func (r *Registry) List() []Account {
	out := make([]Account, len(r.ordered))
	copy(out, r.ordered)

	return out
}

// Validate returns the first unknown account number, wrapped in ErrNotFound.
func (r *Registry) Validate(numbers ...string) error {
	for _, n := range numbers {
		if _, err := r.Lookup(n); err != nil {
			return err
		}
	}

	return nil
}
