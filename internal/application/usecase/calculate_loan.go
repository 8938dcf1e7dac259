package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/pkg/money"
)

// CalculateLoanUseCase quotes loan terms without storing anything.
type CalculateLoanUseCase struct{}

// NewCalculateLoanUseCase creates the use case.
func NewCalculateLoanUseCase() *CalculateLoanUseCase {
	return &CalculateLoanUseCase{}
}

// Execute computes the monthly payment and the totals over the full term.
// The currency defaults to USD and the start date to today.
func (uc *CalculateLoanUseCase) Execute(ctx context.Context, req dto.CalculateLoanRequest) (resp dto.CalculateLoanResponse, err error) {
	_, span := startSpan(ctx, "CalculateLoan", attribute.Int("loan.term_months", req.TermMonths))
	defer func() { endSpan(span, err) }()

	cur := money.USD
	if req.Currency != "" {
		if cur, err = money.NewCurrency(req.Currency); err != nil {
			return dto.CalculateLoanResponse{}, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
		}
	}

	payment, err := model.ComputeMonthlyPayment(req.Principal, req.AnnualRatePercent, req.TermMonths)
	if err != nil {
		return dto.CalculateLoanResponse{}, fmt.Errorf("compute payment: %w", err)
	}

	total := payment.Mul(decimal.NewFromInt(int64(req.TermMonths)))
	resp = dto.CalculateLoanResponse{
		Currency:       cur.Code(),
		MonthlyPayment: cur.Round(payment),
		TotalPayment:   cur.Round(total),
		TotalInterest:  cur.Round(total.Sub(req.Principal)),
	}

	if req.IncludeSchedule {
		start := req.StartDate
		if start.IsZero() {
			start = time.Now().UTC().Truncate(24 * time.Hour)
		}
		entries, err := model.BuildTheoreticalSchedule(req.Principal, req.AnnualRatePercent, req.TermMonths, start)
		if err != nil {
			return dto.CalculateLoanResponse{}, fmt.Errorf("build schedule: %w", err)
		}
		resp.Schedule = toScheduleEntries(entries, cur)
	}

	return resp, nil
}
