package usecase_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/application/usecase"
	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/domain/model"
)

func TestRecordPayment_Execute(t *testing.T) {
	loan := storedLoan("loan-001", "100000", "12", 12, "8884.88", "USD")
	findLoan := func(_ context.Context, ownerID, id string) (model.Loan, error) {
		if ownerID != "owner-001" || id != "loan-001" {
			return model.Loan{}, model.ErrLoanNotFound
		}
		return loan, nil
	}

	t.Run("records a scheduled payment", func(t *testing.T) {
		payments := &mockPaymentRepository{}
		publisher := &mockEventPublisher{}
		metrics := &recordingMetrics{}

		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, payments, publisher, metrics)
		resp, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-001",
			Amount:      decimal.RequireFromString("8884.88"),
			PaymentDate: model.AddMonths(testStart, 1),
			Note:        "January",
		})

		require.NoError(t, err)
		assert.Equal(t, "January", resp.Payment.Note)
		assert.Equal(t, "92115.12", resp.Loan.CurrentPrincipalBalance.String())
		assert.Equal(t, "1000", resp.Loan.TotalInterestPaid.String())
		assert.False(t, resp.Loan.IsCompleted)

		require.Len(t, payments.savedPayments, 1)
		assert.Equal(t, []string{event.TypePaymentRecorded}, publisher.types())
		recorded := publisher.publishedEvents[0].(event.PaymentRecorded)
		assert.Equal(t, "92115.12", recorded.CurrentPrincipalBalance.String())
		assert.Equal(t, []string{"USD"}, metrics.payments)
		assert.Empty(t, metrics.paidOff)
	})

	t.Run("publishes paid off when the balance reaches zero", func(t *testing.T) {
		small := storedLoan("loan-002", "1000", "12", 1, "1010", "EUR")
		payments := &mockPaymentRepository{}
		publisher := &mockEventPublisher{}
		metrics := &recordingMetrics{}

		repo := &mockLoanRepository{
			findByIDFunc: func(context.Context, string, string) (model.Loan, error) { return small, nil },
		}
		uc := usecase.NewRecordPaymentUseCase(repo, payments, publisher, metrics)
		resp, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-002",
			Amount:      decimal.NewFromInt(1010),
			PaymentDate: model.AddMonths(testStart, 1),
		})

		require.NoError(t, err)
		assert.True(t, resp.Loan.IsCompleted)
		assert.Nil(t, resp.Loan.NextDueDate)
		assert.Equal(t, []string{event.TypePaymentRecorded, event.TypeLoanPaidOff}, publisher.types())
		assert.Equal(t, []string{"EUR"}, metrics.paidOff)
	})

	t.Run("does not publish paid off twice", func(t *testing.T) {
		small := storedLoan("loan-002", "1000", "0", 1, "1000", "EUR")
		payments := &mockPaymentRepository{
			listFunc: func(context.Context, string) ([]model.Payment, error) {
				return []model.Payment{storedPayment("p1", "loan-002", "1000", 1)}, nil
			},
		}
		publisher := &mockEventPublisher{}

		repo := &mockLoanRepository{
			findByIDFunc: func(context.Context, string, string) (model.Loan, error) { return small, nil },
		}
		uc := usecase.NewRecordPaymentUseCase(repo, payments, publisher, nil)
		resp, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-002",
			Amount:      decimal.NewFromInt(20),
			PaymentDate: model.AddMonths(testStart, 2),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.Loan.IgnoredPayments)
		assert.Equal(t, []string{event.TypePaymentRecorded}, publisher.types())
	})

	t.Run("retrying with a payment id stores once and republishes", func(t *testing.T) {
		const paymentID = "7d0b3c52-8f3e-4c1e-9a57-1f0c5b1b2a01"
		small := storedLoan("loan-002", "1000", "12", 1, "1010", "EUR")
		payments := &mockPaymentRepository{}
		payments.listFunc = func(context.Context, string) ([]model.Payment, error) {
			payments.mu.Lock()
			defer payments.mu.Unlock()
			return slices.Clone(payments.savedPayments), nil
		}
		publisher := &mockEventPublisher{}
		failures := 1
		publisher.publishFunc = func(_ context.Context, events ...event.DomainEvent) error {
			if failures > 0 {
				failures--
				return errors.New("broker unavailable")
			}
			publisher.publishedEvents = append(publisher.publishedEvents, events...)
			return nil
		}
		metrics := &recordingMetrics{}

		repo := &mockLoanRepository{
			findByIDFunc: func(context.Context, string, string) (model.Loan, error) { return small, nil },
		}
		uc := usecase.NewRecordPaymentUseCase(repo, payments, publisher, metrics)
		req := dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-002",
			Amount:      decimal.NewFromInt(1010),
			PaymentDate: model.AddMonths(testStart, 1),
			PaymentID:   paymentID,
		}

		_, err := uc.Execute(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish events")
		require.Len(t, payments.savedPayments, 1)

		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, payments.savedPayments, 1)
		assert.Equal(t, paymentID, resp.Payment.ID)
		assert.True(t, resp.Loan.IsCompleted)
		assert.Equal(t, []string{event.TypePaymentRecorded, event.TypeLoanPaidOff}, publisher.types())
		assert.Equal(t, paymentID, publisher.publishedEvents[0].(event.PaymentRecorded).PaymentID)
		assert.Equal(t, []string{"EUR"}, metrics.paidOff)
	})

	t.Run("rejects a reused payment id with different details", func(t *testing.T) {
		const paymentID = "0f8a1c7e-2b44-4d8e-8d3b-6a9e7c2f5d10"
		payments := &mockPaymentRepository{
			listFunc: func(context.Context, string) ([]model.Payment, error) {
				return []model.Payment{storedPayment(paymentID, "loan-001", "100", 1)}, nil
			},
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, payments, publisher, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-001",
			Amount:      decimal.NewFromInt(200),
			PaymentDate: model.AddMonths(testStart, 1),
			PaymentID:   paymentID,
		})

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Empty(t, payments.savedPayments)
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("rejects a malformed payment id", func(t *testing.T) {
		payments := &mockPaymentRepository{}
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, payments, &mockEventPublisher{}, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-001",
			Amount:      decimal.NewFromInt(10),
			PaymentDate: testStart,
			PaymentID:   "import-17",
		})

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Empty(t, payments.savedPayments)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		payments := &mockPaymentRepository{}
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, payments, &mockEventPublisher{}, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-001",
			Amount:      decimal.NewFromInt(-5),
			PaymentDate: testStart,
		})

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Empty(t, payments.savedPayments)
	})

	t.Run("fails when loan not found", func(t *testing.T) {
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, &mockPaymentRepository{}, &mockEventPublisher{}, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "someone-else",
			LoanID:      "loan-001",
			Amount:      decimal.NewFromInt(10),
			PaymentDate: testStart,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrLoanNotFound)
		assert.Contains(t, err.Error(), "find loan")
	})

	t.Run("fails when history cannot be loaded", func(t *testing.T) {
		payments := &mockPaymentRepository{
			listFunc: func(context.Context, string) ([]model.Payment, error) { return nil, errors.New("timeout") },
		}
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{findByIDFunc: findLoan}, payments, &mockEventPublisher{}, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{
			OwnerID:     "owner-001",
			LoanID:      "loan-001",
			Amount:      decimal.NewFromInt(10),
			PaymentDate: testStart,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "list payments")
		assert.Empty(t, payments.savedPayments)
	})

	t.Run("requires loan id", func(t *testing.T) {
		uc := usecase.NewRecordPaymentUseCase(&mockLoanRepository{}, &mockPaymentRepository{}, &mockEventPublisher{}, nil)

		_, err := uc.Execute(context.Background(), dto.RecordPaymentRequest{OwnerID: "owner-001"})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}
