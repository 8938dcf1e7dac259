package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/port"
)

// DefaultBuildConcurrency bounds the number of loans reconciled in parallel.
const DefaultBuildConcurrency = 8

var hundred = decimal.NewFromInt(100)

// LoanAggregate combines a loan, its payment history and the reconciled
// state into a presentation-ready view.
type LoanAggregate struct {
	NextDueDate             *time.Time
	Loan                    model.Loan
	Payments                []model.Payment
	TotalPaid               decimal.Decimal
	CurrentPrincipalBalance decimal.Decimal
	TotalInterestPaidActual decimal.Decimal
	TotalPrincipalPaid      decimal.Decimal
	NextPaymentAmount       decimal.Decimal
	NextPaymentPrincipal    decimal.Decimal
	NextPaymentInterest     decimal.Decimal
	// ProgressPercentage is TotalPaid relative to principal and exceeds 100
	// on overpayment.
	ProgressPercentage decimal.Decimal
	IgnoredPayments    int
	IsCompleted        bool
	// Degraded is set when the payment history could not be loaded and the
	// state was derived as if no payments had been made.
	Degraded bool
}

// LoanAggregateBuilder loads payment history and reconciles loans.
type LoanAggregateBuilder struct {
	payments    port.PaymentSource
	metrics     port.Metrics
	logger      *slog.Logger
	concurrency int
}

// BuilderOption configures a LoanAggregateBuilder.
type BuilderOption func(*LoanAggregateBuilder)

// WithConcurrency sets the maximum number of loans built in parallel.
func WithConcurrency(n int) BuilderOption {
	return func(b *LoanAggregateBuilder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m port.Metrics) BuilderOption {
	return func(b *LoanAggregateBuilder) {
		if m != nil {
			b.metrics = m
		}
	}
}

func NewLoanAggregateBuilder(payments port.PaymentSource, logger *slog.Logger, opts ...BuilderOption) *LoanAggregateBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &LoanAggregateBuilder{
		payments:    payments,
		metrics:     port.NopMetrics{},
		logger:      logger,
		concurrency: DefaultBuildConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches the loan's payments and reconciles them. It never fails: if
// the payment query errors the loan is reconciled with no payments and the
// aggregate is marked Degraded.
func (b *LoanAggregateBuilder) Build(ctx context.Context, loan model.Loan) LoanAggregate {
	payments, err := b.payments.ListByLoanID(ctx, loan.ID())
	degraded := false
	if err != nil {
		b.logger.WarnContext(ctx, "payment history unavailable, reconciling without payments",
			"loan_id", loan.ID(),
			"error", err,
		)
		b.metrics.ReconciliationDegraded(ctx)
		payments = nil
		degraded = true
	}

	agg := Assemble(loan, payments)
	agg.Degraded = degraded

	if agg.IgnoredPayments > 0 {
		b.logger.WarnContext(ctx, "payments recorded after payoff were not applied",
			"loan_id", loan.ID(),
			"ignored_payments", agg.IgnoredPayments,
		)
		b.metrics.IgnoredPayments(ctx, agg.IgnoredPayments)
	}

	return agg
}

// BuildAll builds aggregates for all loans concurrently. The result has the
// same order as loans.
func (b *LoanAggregateBuilder) BuildAll(ctx context.Context, loans []model.Loan) []LoanAggregate {
	out := make([]LoanAggregate, len(loans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, loan := range loans {
		g.Go(func() error {
			out[i] = b.Build(gctx, loan)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Assemble reconciles an already loaded payment history.
func Assemble(loan model.Loan, payments []model.Payment) LoanAggregate {
	state := model.Reconcile(loan, payments)
	totalPaid := model.SumAmounts(payments)

	return LoanAggregate{
		Loan:                    loan,
		Payments:                payments,
		TotalPaid:               totalPaid,
		CurrentPrincipalBalance: state.CurrentPrincipalBalance,
		TotalInterestPaidActual: state.TotalInterestPaid,
		TotalPrincipalPaid:      state.TotalPrincipalPaid,
		NextDueDate:             state.NextDueDate,
		NextPaymentAmount:       state.NextPaymentAmount,
		NextPaymentPrincipal:    state.NextPaymentPrincipal,
		NextPaymentInterest:     state.NextPaymentInterest,
		IsCompleted:             state.IsPaidOff(),
		ProgressPercentage:      totalPaid.Mul(hundred).DivRound(loan.Principal(), 4),
		IgnoredPayments:         state.IgnoredPayments,
	}
}
