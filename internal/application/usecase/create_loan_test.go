package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/application/usecase"
	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/domain/model"
)

func createRequest() dto.CreateLoanRequest {
	return dto.CreateLoanRequest{
		OwnerID:           "owner-001",
		Name:              "Mortgage",
		Principal:         decimal.NewFromInt(100000),
		AnnualRatePercent: decimal.NewFromInt(12),
		TermMonths:        12,
		StartDate:         testStart,
		Currency:          "USD",
	}
}

func TestCreateLoan_Execute(t *testing.T) {
	t.Run("successfully creates a loan", func(t *testing.T) {
		repo := &mockLoanRepository{}
		publisher := &mockEventPublisher{}
		metrics := &recordingMetrics{}

		uc := usecase.NewCreateLoanUseCase(repo, publisher, metrics)
		resp, err := uc.Execute(context.Background(), createRequest())

		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "8884.88", resp.MonthlyPayment.String())
		assert.True(t, resp.CurrentPrincipalBalance.Equal(decimal.NewFromInt(100000)))
		assert.True(t, resp.ProgressPercentage.IsZero())
		require.NotNil(t, resp.NextDueDate)
		assert.Equal(t, model.AddMonths(testStart, 1), *resp.NextDueDate)

		require.Len(t, repo.savedLoans, 1)
		assert.Equal(t, resp.ID, repo.savedLoans[0].ID())
		assert.Equal(t, []string{event.TypeLoanCreated}, publisher.types())
		assert.Equal(t, []string{"USD"}, metrics.created)
	})

	t.Run("rejects invalid terms", func(t *testing.T) {
		repo := &mockLoanRepository{}
		publisher := &mockEventPublisher{}

		req := createRequest()
		req.TermMonths = 0

		uc := usecase.NewCreateLoanUseCase(repo, publisher, nil)
		_, err := uc.Execute(context.Background(), req)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Empty(t, repo.savedLoans)
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("fails when save fails", func(t *testing.T) {
		repo := &mockLoanRepository{
			saveFunc: func(context.Context, model.Loan) error { return errors.New("db down") },
		}
		publisher := &mockEventPublisher{}

		uc := usecase.NewCreateLoanUseCase(repo, publisher, nil)
		_, err := uc.Execute(context.Background(), createRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "save loan")
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("fails when publish fails", func(t *testing.T) {
		publisher := &mockEventPublisher{
			publishFunc: func(context.Context, ...event.DomainEvent) error { return errors.New("broker unavailable") },
		}

		uc := usecase.NewCreateLoanUseCase(&mockLoanRepository{}, publisher, nil)
		_, err := uc.Execute(context.Background(), createRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish events")
	})
}
