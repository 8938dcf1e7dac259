package usecase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/service"
	"github.com/bibbank/fintrack/pkg/money"
)

func toLoanResponse(agg service.LoanAggregate, withPayments bool) dto.LoanResponse {
	l := agg.Loan
	cur := l.Currency()

	resp := dto.LoanResponse{
		ID:                      l.ID(),
		OwnerID:                 l.OwnerID(),
		Name:                    l.Name(),
		Currency:                cur.Code(),
		Principal:               l.Principal(),
		AnnualRatePercent:       l.AnnualRatePercent(),
		TermMonths:              l.TermMonths(),
		StartDate:               l.StartDate(),
		MonthlyPayment:          l.MonthlyPayment(),
		CreatedAt:               l.CreatedAt(),
		TotalPaid:               cur.Round(agg.TotalPaid),
		CurrentPrincipalBalance: cur.Round(agg.CurrentPrincipalBalance),
		TotalInterestPaid:       cur.Round(agg.TotalInterestPaidActual),
		TotalPrincipalPaid:      cur.Round(agg.TotalPrincipalPaid),
		NextDueDate:             agg.NextDueDate,
		NextPaymentAmount:       cur.Round(agg.NextPaymentAmount),
		NextPaymentPrincipal:    cur.Round(agg.NextPaymentPrincipal),
		NextPaymentInterest:     cur.Round(agg.NextPaymentInterest),
		ProgressPercentage:      agg.ProgressPercentage.Round(2),
		IsCompleted:             agg.IsCompleted,
		IgnoredPayments:         agg.IgnoredPayments,
		Degraded:                agg.Degraded,
	}

	if withPayments && len(agg.Payments) > 0 {
		resp.Payments = make([]dto.PaymentResponse, 0, len(agg.Payments))
		for _, p := range agg.Payments {
			resp.Payments = append(resp.Payments, toPaymentResponse(p))
		}
	}

	return resp
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID(),
		LoanID:      p.LoanID(),
		Amount:      p.Amount(),
		PaymentDate: p.PaymentDate(),
		Note:        p.Note(),
		CreatedAt:   p.CreatedAt(),
	}
}

func toScheduleEntries(entries []model.AmortizationEntry, cur money.Currency) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ScheduleEntryResponse{
			PaymentNumber:         e.PaymentNumber,
			DueDate:               e.DueDate,
			MonthlyPayment:        cur.Round(e.MonthlyPayment),
			PrincipalPortion:      cur.Round(e.PrincipalPortion),
			InterestPortion:       cur.Round(e.InterestPortion),
			RemainingBalanceAfter: cur.Round(e.RemainingBalanceAfter),
		})
	}
	return out
}

// summarize totals aggregates per currency, ordered by currency code. Monthly
// obligations sum the contractual payment of loans that are not paid off.
func summarize(aggs []service.LoanAggregate) []dto.CurrencySummary {
	byCode := make(map[string]*dto.CurrencySummary)
	for _, agg := range aggs {
		cur := agg.Loan.Currency()
		s, ok := byCode[cur.Code()]
		if !ok {
			s = &dto.CurrencySummary{
				Currency:           cur.Code(),
				OutstandingBalance: decimal.Zero,
				MonthlyObligations: decimal.Zero,
			}
			byCode[cur.Code()] = s
		}

		if agg.IsCompleted {
			s.CompletedLoans++
			continue
		}
		s.ActiveLoans++
		s.OutstandingBalance = s.OutstandingBalance.Add(cur.Round(agg.CurrentPrincipalBalance))
		s.MonthlyObligations = s.MonthlyObligations.Add(agg.Loan.MonthlyPayment())
	}

	out := make([]dto.CurrencySummary, 0, len(byCode))
	for _, s := range byCode {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b dto.CurrencySummary) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return out
}

func requireOwnerAndLoan(ownerID, loanID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner ID is required", model.ErrInvalidArgument)
	}
	if loanID == "" {
		return fmt.Errorf("%w: loan ID is required", model.ErrInvalidArgument)
	}
	return nil
}
