package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
)

var limits = map[string]int{
	"trust_refund":     1,
	"agent_commission": 2,
}

// slotCounter mimics the store: each successful reservation occupies a slot.
func slotCounter(m *guard.MockRepository) {
	held := map[string][]guard.Existing{}

	m.EXPECT().Reserve(gomock.Any(), int64(47), gomock.Any(), gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, dealID int64, paymentType string, limit int, ttl time.Duration) (*guard.Reservation, []guard.Existing, error) {
			if len(held[paymentType]) >= limit {
				return nil, held[paymentType], nil
			}

			held[paymentType] = append(held[paymentType], guard.Existing{
				Series:     "trust",
				Number:     int64(1000 + len(held[paymentType])),
				ChequeDate: time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC),
				Status:     "completed",
			})

			return &guard.Reservation{ID: uuid.New(), DealID: dealID, PaymentType: paymentType, ExpiresAt: time.Now().Add(ttl)}, nil, nil
		}).AnyTimes()
}

func TestService_CheckAndReserve_Limits(t *testing.T) {
	tests := []struct {
		name        string
		paymentType string
		allowed     int
	}{
		{name: "LimitOne", paymentType: "trust_refund", allowed: 1},
		{name: "LimitTwo", paymentType: "agent_commission", allowed: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := guard.NewMockRepository(ctrl)
			slotCounter(repo)

			svc := guard.NewService(repo, limits, time.Minute)

			for i := range tt.allowed {
				res, err := svc.CheckAndReserve(context.Background(), 47, tt.paymentType)
				require.NoError(t, err, "attempt %d", i+1)
				assert.Equal(t, tt.paymentType, res.PaymentType)
			}

			res, err := svc.CheckAndReserve(context.Background(), 47, tt.paymentType)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, guard.ErrDuplicatePayment)

			var dup *guard.DuplicatePaymentError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.allowed, dup.Limit)
			assert.Len(t, dup.Existing, tt.allowed)
			assert.Equal(t, int64(1000), dup.Existing[0].Number)
		})
	}
}

func TestService_CheckAndReserve_UnknownType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := guard.NewService(guard.NewMockRepository(ctrl), limits, time.Minute)

	_, err := svc.CheckAndReserve(context.Background(), 47, "gift")
	assert.ErrorIs(t, err, guard.ErrUnknownPaymentType)
}

func TestService_CheckAndReserve_StorageUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := guard.NewMockRepository(ctrl)
	repo.EXPECT().Reserve(gomock.Any(), int64(47), "trust_refund", 1, time.Minute).
		Return(nil, nil, database.Wrap("reserving", context.DeadlineExceeded))

	svc := guard.NewService(repo, limits, time.Minute)

	_, err := svc.CheckAndReserve(context.Background(), 47, "trust_refund")
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	assert.False(t, errors.Is(err, guard.ErrDuplicatePayment))
}

func TestService_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := guard.NewMockRepository(ctrl)
	svc := guard.NewService(repo, limits, time.Minute)

	res := &guard.Reservation{ID: uuid.New()}
	repo.EXPECT().Release(gomock.Any(), res.ID).Return(nil)

	require.NoError(t, svc.Release(context.Background(), res))
	require.NoError(t, svc.Release(context.Background(), nil))
}

func TestDuplicatePaymentError_Message(t *testing.T) {
	err := &guard.DuplicatePaymentError{
		DealID:      203,
		PaymentType: "trust_refund",
		Limit:       1,
		Existing: []guard.Existing{
			{Series: "trust", Number: 1042, ChequeDate: time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC)},
		},
	}

	assert.Equal(t, "duplicate payment: deal 203 already has 1 of 1 trust_refund payments (trust/1042 on 2025-09-08)", err.Error())
}
