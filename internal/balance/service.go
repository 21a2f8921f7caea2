package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=reader_mock.go -package=balance
type Reader interface {
	Query(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.Entry, error)
	QueryAll(ctx context.Context, from, to time.Time) ([]*ledger.Entry, error)
}

// Cache stores computed reports under keys that include the current ledger
// generation. Invalidate moves every reader onto a fresh generation.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	reader Reader
	cache  Cache
	logger *zap.Logger
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(reader Reader, opts ...Option) *Service {
	s := &Service{reader: reader, cache: NopCache{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Invalidate lets the service act as the ledger's post-commit hook.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// ClosingBalance is the net of every entry dated on or before asOf.
func (s *Service) ClosingBalance(ctx context.Context, accountNumber string, asOf time.Time) (decimal.Decimal, error) {
	a, err := s.RangeActivity(ctx, accountNumber, ledger.Beginning, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	return a.Net, nil
}

func (s *Service) RangeActivity(ctx context.Context, accountNumber string, from, to time.Time) (Activity, error) {
	key := fmt.Sprintf("activity:%s:%s:%s", accountNumber, from.Format(time.DateOnly), to.Format(time.DateOnly))

	return cached(ctx, s, key, func() (Activity, error) {
		entries, err := s.reader.Query(ctx, accountNumber, from, to)
		if err != nil {
			return Activity{}, fmt.Errorf("querying %s: %w", accountNumber, err)
		}

		return Sum(entries), nil
	})
}

func (s *Service) TrialBalance(ctx context.Context, from, to time.Time) (*TrialBalance, error) {
	key := fmt.Sprintf("trial:%s:%s", from.Format(time.DateOnly), to.Format(time.DateOnly))

	return cached(ctx, s, key, func() (*TrialBalance, error) {
		entries, err := s.reader.QueryAll(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("querying ledger: %w", err)
		}

		return Trial(from, to, entries), nil
	})
}

// cached reads through the cache. The generation is read before loading, so
// a value computed while a posting commits is stored under the old
// generation and never served afterwards. Cache failures fall back to load.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("reading cache generation", zap.Error(err))
		return load()
	}

	key = fmt.Sprintf("%d:%s", gen, key)

	var v T

	hit, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		s.logger.Warn("reading cache", zap.String("key", key), zap.Error(err))
	}

	if hit {
		return v, nil
	}

	v, err = load()
	if err != nil {
		return v, err
	}

	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn("writing cache", zap.String("key", key), zap.Error(err))
	}

	return v, nil
}
