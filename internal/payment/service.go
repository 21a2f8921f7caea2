package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	Begin(ctx context.Context) (Tx, error)
	Get(ctx context.Context, series string, number int64) (*Payment, error)
	ListByDeal(ctx context.Context, dealID int64) ([]*Payment, error)
	// Complete moves a pending payment to completed.
	Complete(ctx context.Context, series string, number int64) (*Payment, error)
}

// Tx is one storage transaction spanning numbering, posting, the guard slot
// and the payment row.
type Tx interface {
	NextNumber(ctx context.Context, series string, start int64) (int64, error)
	Append(ctx context.Context, entries []*ledger.Entry) error
	ConsumeReservation(ctx context.Context, res *guard.Reservation) error
	InsertPayment(ctx context.Context, p *Payment) error
	Commit() error
	Rollback() error
}

type Guard interface {
	CheckAndReserve(ctx context.Context, dealID int64, paymentType string) (*guard.Reservation, error)
	Release(ctx context.Context, res *guard.Reservation) error
}

type Poster interface {
	Validate(params ledger.PostParams) error
	PostWith(ctx context.Context, app ledger.Appender, params ledger.PostParams) (uuid.UUID, []*ledger.Entry, error)
	Committed(ctx context.Context)
}

type Numbering interface {
	Series(name string) (sequence.Series, error)
}

type Service struct {
	repo      Repository
	guard     Guard
	poster    Poster
	numbering Numbering
	templates map[string]Template
	logger    *zap.Logger
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, g Guard, poster Poster, numbering Numbering, templates []Template, opts ...Option) *Service {
	byName := make(map[string]Template, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
	}

	s := &Service{
		repo:      repo,
		guard:     g,
		poster:    poster,
		numbering: numbering,
		templates: byName,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	Series      string
	DealID      *int64
	PaymentType string
	Amount      decimal.Decimal
	Recipient   string
	ChequeDate  time.Time
	Description string
	// Reference defaults to the series prefix and number, e.g. "EFT#4054".
	Reference string
	Pending   bool
	// Legs override the payment type's template.
	Legs []ledger.Leg
}

type Result struct {
	Payment *Payment
	Entries []*ledger.Entry
}

func (s *Service) Template(name string) (Template, error) {
	t, ok := s.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", guard.ErrUnknownPaymentType, name)
	}

	return t, nil
}

// Create reserves a guard slot for the deal, then allocates the number,
// posts the legs and records the payment in one transaction. Any failure
// after the reservation releases it.
func (s *Service) Create(ctx context.Context, params CreateParams) (res *Result, err error) {
	ser, err := s.numbering.Series(params.Series)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.Template(params.PaymentType)
	if err != nil {
		return nil, err
	}

	legs, err := s.legs(tmpl, params)
	if err != nil {
		return nil, err
	}

	post := ledger.PostParams{
		Description: s.description(tmpl, params),
		OccurredOn:  params.ChequeDate,
		Legs:        legs,
		DealID:      params.DealID,
	}

	if err := s.poster.Validate(post); err != nil {
		return nil, err
	}

	logger := s.logger.With(
		zap.String("series", ser.Name),
		zap.String("payment_type", tmpl.Name),
		zap.String("amount", params.Amount.StringFixed(2)),
	)
	if params.DealID != nil {
		logger = logger.With(zap.Int64("deal_id", *params.DealID))
	}

	var reservation *guard.Reservation

	if params.DealID != nil {
		reservation, err = s.guard.CheckAndReserve(ctx, *params.DealID, tmpl.Name)
		if err != nil {
			if errors.Is(err, guard.ErrDuplicatePayment) {
				logger.Info("payment rejected by guard", zap.Error(err))
			}

			return nil, err
		}

		defer func() {
			if err == nil {
				return
			}

			// The request context may already be done; the release must still run.
			if relErr := s.guard.Release(context.WithoutCancel(ctx), reservation); relErr != nil {
				logger.Error("releasing reservation after failed payment",
					zap.String("reservation_id", reservation.ID.String()),
					zap.Error(relErr),
				)
			}
		}()
	}

	res, err = s.write(ctx, ser, tmpl, params, post, reservation)
	if err != nil {
		logger.Warn("payment failed", zap.Error(err))
		return nil, err
	}

	s.poster.Committed(ctx)

	logger.Info("payment created",
		zap.Int64("number", res.Payment.Number),
		zap.String("reference", res.Payment.Reference),
		zap.String("group_id", res.Payment.GroupID.String()),
	)

	return res, nil
}

func (s *Service) write(ctx context.Context, ser sequence.Series, tmpl Template, params CreateParams, post ledger.PostParams, reservation *guard.Reservation) (*Result, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning payment: %w", err)
	}
	defer tx.Rollback()

	number, err := tx.NextNumber(ctx, ser.Name, ser.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sequence.ErrUnavailable, ser.Name, err)
	}

	reference := params.Reference
	if reference == "" {
		reference = ser.Reference(number)
	}

	post.Reference = &reference

	groupID, entries, err := s.poster.PostWith(ctx, tx, post)
	if err != nil {
		return nil, fmt.Errorf("posting payment: %w", err)
	}

	if reservation != nil {
		if err := tx.ConsumeReservation(ctx, reservation); err != nil {
			return nil, fmt.Errorf("consuming reservation: %w", err)
		}
	}

	status := StatusCompleted
	if params.Pending {
		status = StatusPending
	}

	p := &Payment{
		Series:      ser.Name,
		Number:      number,
		DealID:      params.DealID,
		PaymentType: tmpl.Name,
		Amount:      params.Amount,
		Recipient:   params.Recipient,
		ChequeDate:  post.OccurredOn,
		Status:      status,
		GroupID:     groupID,
		Reference:   reference,
	}

	if err := tx.InsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("inserting payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	return &Result{Payment: p, Entries: entries}, nil
}

func (s *Service) legs(tmpl Template, params CreateParams) ([]ledger.Leg, error) {
	if !params.Amount.IsPositive() || !params.Amount.Equal(params.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount must be positive with at most two decimals", ErrInvalidPayment)
	}

	if strings.TrimSpace(params.Recipient) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidPayment)
	}

	if params.ChequeDate.IsZero() {
		return nil, fmt.Errorf("%w: cheque date is required", ErrInvalidPayment)
	}

	if len(params.Legs) == 0 {
		return tmpl.Expand(params.Amount), nil
	}

	want := params.Amount.Mul(decimal.NewFromInt(int64(max(tmpl.debitLegs(), 1))))

	got := decimal.Zero
	for _, l := range params.Legs {
		got = got.Add(l.Debit)
	}

	if !got.Equal(want) {
		return nil, fmt.Errorf("%w: debits %s, expected %s", ErrAmountMismatch, got.StringFixed(2), want.StringFixed(2))
	}

	return params.Legs, nil
}

func (s *Service) description(tmpl Template, params CreateParams) string {
	if d := strings.TrimSpace(params.Description); d != "" {
		return d
	}

	return strings.ReplaceAll(tmpl.Name, "_", " ") + " to " + params.Recipient
}

func (s *Service) Get(ctx context.Context, series string, number int64) (*Payment, error) {
	return s.repo.Get(ctx, series, number)
}

func (s *Service) ListByDeal(ctx context.Context, dealID int64) ([]*Payment, error) {
	return s.repo.ListByDeal(ctx, dealID)
}

func (s *Service) Complete(ctx context.Context, series string, number int64) (*Payment, error) {
	p, err := s.repo.Complete(ctx, series, number)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment completed", zap.String("series", series), zap.Int64("number", number))

	return p, nil
}
