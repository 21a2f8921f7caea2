package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=guard
type Repository interface {
	// Reserve counts payments and live reservations for the pair under a
	// lock. Below limit it inserts and returns a reservation; otherwise it
	// returns a nil reservation and the payments already holding slots.
	Reserve(ctx context.Context, dealID int64, paymentType string, limit int, ttl time.Duration) (*Reservation, []Existing, error)
	Release(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   Repository
	limits map[string]int
	ttl    time.Duration
}

func NewService(repo Repository, limits map[string]int, ttl time.Duration) *Service {
	return &Service{repo: repo, limits: limits, ttl: ttl}
}

func (s *Service) Limit(paymentType string) (int, error) {
	limit, ok := s.limits[paymentType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPaymentType, paymentType)
	}

	return limit, nil
}

func (s *Service) CheckAndReserve(ctx context.Context, dealID int64, paymentType string) (*Reservation, error) {
	limit, err := s.Limit(paymentType)
	if err != nil {
		return nil, err
	}

	res, existing, err := s.repo.Reserve(ctx, dealID, paymentType, limit, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("reserving payment slot: %w", err)
	}

	if res == nil {
		return nil, &DuplicatePaymentError{
			DealID:      dealID,
			PaymentType: paymentType,
			Limit:       limit,
			Existing:    existing,
		}
	}

	return res, nil
}

// Release gives the slot back. Releasing a consumed or expired reservation
// is a no-op.
func (s *Service) Release(ctx context.Context, res *Reservation) error {
	if res == nil {
		return nil
	}

	if err := s.repo.Release(ctx, res.ID); err != nil {
		return fmt.Errorf("releasing reservation %s: %w", res.ID, err)
	}

	return nil
}
