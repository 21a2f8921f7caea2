// Package chart loads the brokerage's reference data: the chart of accounts,
// the payment reference series and the payment-type templates.
package chart

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
)

//go:embed default.yaml
var defaultChart []byte

var ErrInvalidChart = errors.New("invalid chart")

type file struct {
	Accounts     []accountDef     `yaml:"accounts"`
	Series       []seriesDef      `yaml:"series"`
	PaymentTypes []paymentTypeDef `yaml:"payment_types"`
}

type accountDef struct {
	Number string `yaml:"number"`
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
}

type seriesDef struct {
	Name   string `yaml:"name"`
	Start  int64  `yaml:"start"`
	Prefix string `yaml:"prefix"`
}

type paymentTypeDef struct {
	Name  string   `yaml:"name"`
	Limit int      `yaml:"limit"`
	Legs  []legDef `yaml:"legs"`
}

type legDef struct {
	Account string `yaml:"account"`
	Side    string `yaml:"side"`
}

type Chart struct {
	Accounts  *account.Registry
	Series    []sequence.Series
	Templates []payment.Template
}

// Limits maps each payment type to how many payments one deal may hold.
func (c *Chart) Limits() map[string]int {
	limits := make(map[string]int, len(c.Templates))
	for _, t := range c.Templates {
		limits[t.Name] = t.Limit
	}

	return limits
}

func Default() (*Chart, error) {
	return Load(bytes.NewReader(defaultChart))
}

func LoadFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func Load(r io.Reader) (*Chart, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}

	accounts := make([]account.Account, len(f.Accounts))
	for i, a := range f.Accounts {
		accounts[i] = account.Account{Number: a.Number, Name: a.Name, Type: account.Type(a.Type)}
	}

	reg, err := account.NewRegistry(accounts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}

	series, err := buildSeries(f.Series)
	if err != nil {
		return nil, err
	}

	templates, err := buildTemplates(reg, f.PaymentTypes)
	if err != nil {
		return nil, err
	}

	return &Chart{Accounts: reg, Series: series, Templates: templates}, nil
}

func buildSeries(defs []seriesDef) ([]sequence.Series, error) {
	seen := make(map[string]bool, len(defs))
	out := make([]sequence.Series, 0, len(defs))

	for _, d := range defs {
		switch {
		case d.Name == "":
			return nil, fmt.Errorf("%w: series name is required", ErrInvalidChart)
		case seen[d.Name]:
			return nil, fmt.Errorf("%w: series %s: duplicate name", ErrInvalidChart, d.Name)
		case d.Start < 1:
			return nil, fmt.Errorf("%w: series %s: start must be at least 1", ErrInvalidChart, d.Name)
		case d.Prefix == "":
			return nil, fmt.Errorf("%w: series %s: prefix is required", ErrInvalidChart, d.Name)
		}

		seen[d.Name] = true
		out = append(out, sequence.Series{Name: d.Name, Start: d.Start, Prefix: d.Prefix})
	}

	return out, nil
}

func buildTemplates(reg *account.Registry, defs []paymentTypeDef) ([]payment.Template, error) {
	seen := make(map[string]bool, len(defs))
	out := make([]payment.Template, 0, len(defs))

	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: payment type name is required", ErrInvalidChart)
		}

		if seen[d.Name] {
			return nil, fmt.Errorf("%w: payment type %s: duplicate name", ErrInvalidChart, d.Name)
		}

		if d.Limit < 1 {
			return nil, fmt.Errorf("%w: payment type %s: limit must be at least 1", ErrInvalidChart, d.Name)
		}

		if len(d.Legs) < 2 {
			return nil, fmt.Errorf("%w: payment type %s: needs at least two legs", ErrInvalidChart, d.Name)
		}

		tmpl := payment.Template{Name: d.Name, Limit: d.Limit, Legs: make([]payment.TemplateLeg, len(d.Legs))}
		debits := 0

		for i, l := range d.Legs {
			side := payment.Side(l.Side)
			if side != payment.SideDebit && side != payment.SideCredit {
				return nil, fmt.Errorf("%w: payment type %s: leg %d: invalid side %q", ErrInvalidChart, d.Name, i, l.Side)
			}

			if err := reg.Validate(l.Account); err != nil {
				return nil, fmt.Errorf("%w: payment type %s: leg %d: %w", ErrInvalidChart, d.Name, i, err)
			}

			if side == payment.SideDebit {
				debits++
			}

			tmpl.Legs[i] = payment.TemplateLeg{Account: l.Account, Side: side}
		}

		// Every leg carries the full amount, so the sides must pair up to balance.
		if debits*2 != len(d.Legs) {
			return nil, fmt.Errorf("%w: payment type %s: debit and credit legs must pair up", ErrInvalidChart, d.Name)
		}

		seen[d.Name] = true
		out = append(out, tmpl)
	}

	return out, nil
}
