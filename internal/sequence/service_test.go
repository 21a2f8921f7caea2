package sequence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
)

var testSeries = []sequence.Series{
	{Name: "trust", Start: 1, Prefix: "TR"},
	{Name: "general", Start: 1000, Prefix: "EFT"},
}

func TestService_Next(t *testing.T) {
	type testCase struct {
		name      string
		series    string
		setupMock func(m *sequence.MockRepository)
		want      int64
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			series: "general",
			setupMock: func(m *sequence.MockRepository) {
				m.EXPECT().Next(gomock.Any(), "general", int64(1000)).Return(int64(2000), nil)
			},
			want: 2000,
		},
		{
			name:    "UnknownSeries",
			series:  "petty-cash",
			wantErr: sequence.ErrUnknownSeries,
		},
		{
			name:   "StoreDown",
			series: "trust",
			setupMock: func(m *sequence.MockRepository) {
				m.EXPECT().Next(gomock.Any(), "trust", int64(1)).Return(int64(0), errors.New("connection refused"))
			},
			wantErr: sequence.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := sequence.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := sequence.NewService(repo, testSeries)
			got, err := svc.Next(context.Background(), tt.series)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Current(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := sequence.NewMockRepository(ctrl)
	svc := sequence.NewService(repo, testSeries)

	repo.EXPECT().Current(gomock.Any(), "general").Return(int64(0), false, nil)

	got, err := svc.Current(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, int64(999), got)

	repo.EXPECT().Current(gomock.Any(), "trust").Return(int64(41), true, nil)

	got, err = svc.Current(context.Background(), "trust")
	require.NoError(t, err)
	assert.Equal(t, int64(41), got)
}

func TestSeries_Reference(t *testing.T) {
	s := sequence.Series{Name: "general", Prefix: "EFT"}
	assert.Equal(t, "EFT#4054", s.Reference(4054))
}
