package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	Append(ctx context.Context, entries []*Entry) error
	Query(ctx context.Context, accountNumber string, from, to time.Time) ([]*Entry, error)
	QueryAll(ctx context.Context, from, to time.Time) ([]*Entry, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Entry, error)
}

// Appender writes a validated batch inside a transaction owned by the caller.
type Appender interface {
	Append(ctx context.Context, entries []*Entry) error
}

type Accounts interface {
	Lookup(number string) (account.Account, error)
}

// Invalidator is notified after entries are committed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo        Repository
	accounts    Accounts
	invalidator Invalidator
	logger      *zap.Logger
}

type Option func(*Service)

func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, accounts Accounts, opts ...Option) *Service {
	s := &Service{repo: repo, accounts: accounts, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type PostParams struct {
	Description string
	OccurredOn  time.Time
	Legs        []Leg
	DealID      *int64
	Reference   *string
}

// Validate checks a posting without touching storage. Checks run in order:
// shape, amounts, accounts, balance.
func (s *Service) Validate(params PostParams) error {
	if strings.TrimSpace(params.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidPosting)
	}

	if params.OccurredOn.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidPosting)
	}

	if len(params.Legs) < 2 {
		return fmt.Errorf("%w: at least two legs are required, got %d", ErrInvalidPosting, len(params.Legs))
	}

	for i, leg := range params.Legs {
		if err := validateAmount(leg); err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
	}

	for i, leg := range params.Legs {
		if _, err := s.accounts.Lookup(leg.AccountNumber); err != nil {
			return fmt.Errorf("leg %d: %w: %w", i, ErrInvalidAccount, err)
		}
	}

	debit, credit := legTotals(params.Legs)
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedBatch, debit.StringFixed(2), credit.StringFixed(2))
	}

	return nil
}

func validateAmount(leg Leg) error {
	if leg.Debit.IsNegative() || leg.Credit.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}

	if leg.Debit.IsPositive() == leg.Credit.IsPositive() {
		return fmt.Errorf("%w: exactly one of debit or credit must be set", ErrInvalidAmount)
	}

	for _, d := range []decimal.Decimal{leg.Debit, leg.Credit} {
		if !d.Equal(d.Round(2)) {
			return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, d)
		}
	}

	return nil
}

func legTotals(legs []Leg) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range legs {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}

	return debit, credit
}

// Prepare validates params and builds the entries of one posting group.
func (s *Service) Prepare(params PostParams) ([]*Entry, uuid.UUID, error) {
	if err := s.Validate(params); err != nil {
		return nil, uuid.Nil, err
	}

	groupID := uuid.New()
	occurredOn := dateOnly(params.OccurredOn)

	entries := make([]*Entry, len(params.Legs))
	for i, leg := range params.Legs {
		entries[i] = &Entry{
			ID:            uuid.New(),
			GroupID:       groupID,
			AccountNumber: leg.AccountNumber,
			Debit:         leg.Debit,
			Credit:        leg.Credit,
			Description:   params.Description,
			OccurredOn:    occurredOn,
			Reference:     params.Reference,
			DealID:        params.DealID,
		}
	}

	return entries, groupID, nil
}

func (s *Service) Post(ctx context.Context, params PostParams) (uuid.UUID, error) {
	entries, groupID, err := s.Prepare(params)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.Append(ctx, entries); err != nil {
		return uuid.Nil, fmt.Errorf("appending entries: %w", err)
	}

	s.Committed(ctx)

	return groupID, nil
}

// PostWith writes the posting through app. The caller commits and then
// calls Committed.
func (s *Service) PostWith(ctx context.Context, app Appender, params PostParams) (uuid.UUID, []*Entry, error) {
	entries, groupID, err := s.Prepare(params)
	if err != nil {
		return uuid.Nil, nil, err
	}

	if err := app.Append(ctx, entries); err != nil {
		return uuid.Nil, nil, fmt.Errorf("appending entries: %w", err)
	}

	return groupID, entries, nil
}

// Committed notifies the invalidator that new entries are visible.
func (s *Service) Committed(ctx context.Context) {
	if s.invalidator == nil {
		return
	}

	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidating balance cache", zap.Error(err))
	}
}

func (s *Service) Query(ctx context.Context, accountNumber string, from, to time.Time) ([]*Entry, error) {
	if _, err := s.accounts.Lookup(accountNumber); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}

	if to.Before(from) {
		return nil, fmt.Errorf("%w: range ends before it starts", ErrInvalidPosting)
	}

	return s.repo.Query(ctx, accountNumber, dateOnly(from), dateOnly(to))
}

func (s *Service) QueryAll(ctx context.Context, from, to time.Time) ([]*Entry, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range ends before it starts", ErrInvalidPosting)
	}

	return s.repo.QueryAll(ctx, dateOnly(from), dateOnly(to))
}

func (s *Service) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Entry, error) {
	entries, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}

	return entries, nil
}

// Reverse posts a group that offsets groupID line for line. The original
// entries stay in place.
func (s *Service) Reverse(ctx context.Context, groupID uuid.UUID, occurredOn time.Time) (uuid.UUID, error) {
	entries, err := s.ListByGroup(ctx, groupID)
	if err != nil {
		return uuid.Nil, err
	}

	legs := make([]Leg, len(entries))
	for i, e := range entries {
		legs[i] = Leg{AccountNumber: e.AccountNumber, Debit: e.Credit, Credit: e.Debit}
	}

	first := entries[0]

	return s.Post(ctx, PostParams{
		Description: "Reversal of " + first.Description,
		OccurredOn:  occurredOn,
		Legs:        legs,
		DealID:      first.DealID,
		Reference:   first.Reference,
	})
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
