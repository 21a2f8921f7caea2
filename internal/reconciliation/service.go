package reconciliation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reconciliation
type Repository interface {
	// GetRecord returns an empty record for a period never touched.
	GetRecord(ctx context.Context, accountNumber string, period Period) (*Record, error)
	SetStatementAmount(ctx context.Context, accountNumber string, period Period, amount *decimal.Decimal) error
	SetMiscAmount(ctx context.Context, accountNumber string, period Period, amount decimal.Decimal) error
	// SetCleared marks or unmarks ids. Marking an id twice is a no-op.
	SetCleared(ctx context.Context, accountNumber string, period Period, ids []uuid.UUID, cleared bool) error
}

type Entries interface {
	Query(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.Entry, error)
}

type Service struct {
	repo      Repository
	entries   Entries
	tolerance time.Duration
	logger    *zap.Logger
}

type Option func(*Service)

// WithMatchTolerance sets how far apart a statement line and an entry may be
// dated and still auto-clear.
func WithMatchTolerance(d time.Duration) Option {
	return func(s *Service) { s.tolerance = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, entries Entries, opts ...Option) *Service {
	s := &Service{repo: repo, entries: entries, tolerance: 3 * 24 * time.Hour, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetStatementAmount records the bank statement closing balance. A nil
// amount unsets it.
func (s *Service) SetStatementAmount(ctx context.Context, accountNumber string, period Period, amount *decimal.Decimal) error {
	if amount != nil && !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, amount)
	}

	if err := s.checkAccount(ctx, accountNumber, period); err != nil {
		return err
	}

	if err := s.repo.SetStatementAmount(ctx, accountNumber, period, amount); err != nil {
		return fmt.Errorf("setting statement amount: %w", err)
	}

	return nil
}

func (s *Service) SetMiscAmount(ctx context.Context, accountNumber string, period Period, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, amount)
	}

	if err := s.checkAccount(ctx, accountNumber, period); err != nil {
		return err
	}

	if err := s.repo.SetMiscAmount(ctx, accountNumber, period, amount); err != nil {
		return fmt.Errorf("setting misc amount: %w", err)
	}

	return nil
}

// SetCleared toggles one entry between open and cleared.
func (s *Service) SetCleared(ctx context.Context, accountNumber string, period Period, entryID uuid.UUID, cleared bool) error {
	entries, err := s.query(ctx, accountNumber, period)
	if err != nil {
		return err
	}

	if !slices.ContainsFunc(entries, func(e *ledger.Entry) bool { return e.ID == entryID }) {
		return fmt.Errorf("%w: %s in %s %s", ErrUnknownEntry, entryID, accountNumber, period.Key())
	}

	if err := s.repo.SetCleared(ctx, accountNumber, period, []uuid.UUID{entryID}, cleared); err != nil {
		return fmt.Errorf("setting cleared: %w", err)
	}

	return nil
}

func (s *Service) Formula(ctx context.Context, accountNumber string, period Period) (Formula, error) {
	st, err := s.State(ctx, accountNumber, period)
	if err != nil {
		return Formula{}, err
	}

	return st.Formula, nil
}

func (s *Service) State(ctx context.Context, accountNumber string, period Period) (*State, error) {
	entries, rec, err := s.load(ctx, accountNumber, period)
	if err != nil {
		return nil, err
	}

	cleared := clearedSet(entries, rec.Cleared)

	st := &State{
		AccountNumber:   accountNumber,
		PeriodKey:       period.Key(),
		StatementAmount: rec.StatementAmount,
		MiscAmount:      rec.MiscAmount,
		ClearedEntryIDs: []uuid.UUID{},
		OpenEntryIDs:    []uuid.UUID{},
		Formula:         Compute(entries, cleared, rec.MiscAmount, rec.StatementAmount),
	}

	for _, e := range entries {
		if cleared[e.ID] {
			st.ClearedEntryIDs = append(st.ClearedEntryIDs, e.ID)
		} else {
			st.OpenEntryIDs = append(st.OpenEntryIDs, e.ID)
		}
	}

	return st, nil
}

type AutoClearResult struct {
	Matches   []Match          `json:"matches"`
	Unmatched []statement.Line `json:"unmatched"`
}

// AutoClear clears open entries that match imported statement lines.
func (s *Service) AutoClear(ctx context.Context, accountNumber string, period Period, lines []statement.Line) (*AutoClearResult, error) {
	entries, rec, err := s.load(ctx, accountNumber, period)
	if err != nil {
		return nil, err
	}

	cleared := clearedSet(entries, rec.Cleared)

	open := make([]*ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if !cleared[e.ID] {
			open = append(open, e)
		}
	}

	matches, unmatched := MatchLines(lines, open, s.tolerance)

	if len(matches) > 0 {
		ids := make([]uuid.UUID, len(matches))
		for i, m := range matches {
			ids[i] = m.Entry.ID
		}

		if err := s.repo.SetCleared(ctx, accountNumber, period, ids, true); err != nil {
			return nil, fmt.Errorf("clearing matched entries: %w", err)
		}
	}

	s.logger.Info("auto-cleared statement lines",
		zap.String("account", accountNumber),
		zap.String("period", period.Key()),
		zap.Int("lines", len(lines)),
		zap.Int("matched", len(matches)),
		zap.Int("unmatched", len(unmatched)),
	)

	return &AutoClearResult{Matches: matches, Unmatched: unmatched}, nil
}

func (s *Service) load(ctx context.Context, accountNumber string, period Period) ([]*ledger.Entry, *Record, error) {
	entries, err := s.query(ctx, accountNumber, period)
	if err != nil {
		return nil, nil, err
	}

	rec, err := s.repo.GetRecord(ctx, accountNumber, period)
	if err != nil {
		return nil, nil, fmt.Errorf("loading reconciliation: %w", err)
	}

	return entries, rec, nil
}

func (s *Service) query(ctx context.Context, accountNumber string, period Period) ([]*ledger.Entry, error) {
	entries, err := s.entries.Query(ctx, accountNumber, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", accountNumber, err)
	}

	return entries, nil
}

// checkAccount surfaces an unknown account before anything is stored.
func (s *Service) checkAccount(ctx context.Context, accountNumber string, period Period) error {
	_, err := s.query(ctx, accountNumber, period)
	return err
}

// clearedSet keeps only ids that belong to entries.
func clearedSet(entries []*ledger.Entry, ids []uuid.UUID) map[uuid.UUID]bool {
	stored := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		stored[id] = true
	}

	out := make(map[uuid.UUID]bool, len(ids))

	for _, e := range entries {
		if stored[e.ID] {
			out[e.ID] = true
		}
	}

	return out
}
