package sequence

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownSeries = errors.New("unknown sequence series")
	// ErrUnavailable means the counter store could not be reached. No number
	// was issued.
	ErrUnavailable = errors.New("sequence unavailable")
)

// Series is a named space of payment reference numbers.
type Series struct {
	Name   string
	Start  int64
	Prefix string
}

// Reference formats a payment reference such as "EFT#4054".
func (s Series) Reference(number int64) string {
	return fmt.Sprintf("%s#%d", s.Prefix, number)
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=sequence
type Repository interface {
	// Next atomically increments the series counter and returns the new
	// value. An absent counter is created holding start.
	Next(ctx context.Context, series string, start int64) (int64, error)
	// Current returns the last issued value; ok is false if none was issued.
	Current(ctx context.Context, series string) (value int64, ok bool, err error)
}

type Service struct {
	repo   Repository
	series map[string]Series
}

func NewService(repo Repository, series []Series) *Service {
	byName := make(map[string]Series, len(series))
	for _, s := range series {
		byName[s.Name] = s
	}

	return &Service{repo: repo, series: byName}
}

func (s *Service) Series(name string) (Series, error) {
	ser, ok := s.series[name]
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrUnknownSeries, name)
	}

	return ser, nil
}

func (s *Service) Next(ctx context.Context, name string) (int64, error) {
	ser, err := s.Series(name)
	if err != nil {
		return 0, err
	}

	n, err := s.repo.Next(ctx, ser.Name, ser.Start)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrUnavailable, ser.Name, err)
	}

	return n, nil
}

// Current returns the last issued number, or start-1 for an untouched series.
func (s *Service) Current(ctx context.Context, name string) (int64, error) {
	ser, err := s.Series(name)
	if err != nil {
		return 0, err
	}

	n, ok, err := s.repo.Current(ctx, ser.Name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrUnavailable, ser.Name, err)
	}

	if !ok {
		return ser.Start - 1, nil
	}

	return n, nil
}
