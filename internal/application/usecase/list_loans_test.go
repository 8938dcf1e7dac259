package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/application/usecase"
	"github.com/bibbank/fintrack/internal/domain/model"
)

func TestListLoans_Execute(t *testing.T) {
	loans := []model.Loan{
		storedLoan("usd-1", "120000", "0", 12, "10000", "USD"),
		storedLoan("eur-1", "1000", "0", 1, "1000", "EUR"),
		storedLoan("usd-2", "100000", "12", 12, "8884.88", "USD"),
		storedLoan("usd-3", "5000", "0", 10, "500", "USD"),
	}
	repo := &mockLoanRepository{
		listByOwnerFunc: func(_ context.Context, ownerID string) ([]model.Loan, error) {
			assert.Equal(t, "owner-001", ownerID)
			return loans, nil
		},
	}

	t.Run("lists loans in order with per-currency totals", func(t *testing.T) {
		payments := &mockPaymentRepository{
			listFunc: func(_ context.Context, loanID string) ([]model.Payment, error) {
				switch loanID {
				case "eur-1":
					return []model.Payment{storedPayment("p1", loanID, "1000", 1)}, nil
				case "usd-3":
					return nil, errors.New("timeout")
				default:
					return nil, nil
				}
			},
		}

		uc := usecase.NewListLoansUseCase(repo, quietBuilder(payments))
		resp, err := uc.Execute(context.Background(), dto.ListLoansRequest{OwnerID: "owner-001"})

		require.NoError(t, err)
		require.Len(t, resp.Loans, 4)
		for i, l := range resp.Loans {
			assert.Equal(t, loans[i].ID(), l.ID)
		}
		assert.True(t, resp.Loans[1].IsCompleted)
		assert.True(t, resp.Loans[3].Degraded)

		require.Len(t, resp.Summary, 2)
		eur, usd := resp.Summary[0], resp.Summary[1]

		assert.Equal(t, "EUR", eur.Currency)
		assert.Equal(t, 1, eur.CompletedLoans)
		assert.Zero(t, eur.ActiveLoans)
		assert.True(t, eur.OutstandingBalance.IsZero())

		assert.Equal(t, "USD", usd.Currency)
		assert.Equal(t, 3, usd.ActiveLoans)
		assert.Equal(t, "225000", usd.OutstandingBalance.String())
		assert.Equal(t, "19384.88", usd.MonthlyObligations.String())
	})

	t.Run("fails when loans cannot be listed", func(t *testing.T) {
		failing := &mockLoanRepository{
			listByOwnerFunc: func(context.Context, string) ([]model.Loan, error) {
				return nil, errors.New("db down")
			},
		}

		uc := usecase.NewListLoansUseCase(failing, quietBuilder(&mockPaymentRepository{}))
		_, err := uc.Execute(context.Background(), dto.ListLoansRequest{OwnerID: "owner-001"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "list loans")
	})

	t.Run("requires owner", func(t *testing.T) {
		uc := usecase.NewListLoansUseCase(repo, quietBuilder(&mockPaymentRepository{}))
		_, err := uc.Execute(context.Background(), dto.ListLoansRequest{})

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}
