package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bibbank/fintrack/loans"

// OTelMetrics implements port.Metrics with OpenTelemetry counters.
type OTelMetrics struct {
	loansCreated     metric.Int64Counter
	paymentsRecorded metric.Int64Counter
	loansPaidOff     metric.Int64Counter
	degraded         metric.Int64Counter
	ignoredPayments  metric.Int64Counter
}

// NewOTelMetrics registers the loan service instruments on provider.
func NewOTelMetrics(provider metric.MeterProvider) (*OTelMetrics, error) {
	meter := provider.Meter(meterName)
	m := &OTelMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.loansCreated, "fintrack_loans_created_total", "Loans created."},
		{&m.paymentsRecorded, "fintrack_payments_recorded_total", "Loan payments recorded."},
		{&m.loansPaidOff, "fintrack_loans_paid_off_total", "Loans whose balance reached zero."},
		{&m.degraded, "fintrack_reconciliation_degraded_total", "Reconciliations done without payment history."},
		{&m.ignoredPayments, "fintrack_ignored_payments_total", "Payments recorded after payoff and not applied."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	return m, nil
}

func (m *OTelMetrics) LoanCreated(ctx context.Context, currency string) {
	m.loansCreated.Add(ctx, 1, withCurrency(currency))
}

func (m *OTelMetrics) PaymentRecorded(ctx context.Context, currency string) {
	m.paymentsRecorded.Add(ctx, 1, withCurrency(currency))
}

func (m *OTelMetrics) LoanPaidOff(ctx context.Context, currency string) {
	m.loansPaidOff.Add(ctx, 1, withCurrency(currency))
}

func (m *OTelMetrics) ReconciliationDegraded(ctx context.Context) {
	m.degraded.Add(ctx, 1)
}

func (m *OTelMetrics) IgnoredPayments(ctx context.Context, count int) {
	m.ignoredPayments.Add(ctx, int64(count))
}

func withCurrency(currency string) metric.AddOption {
	return metric.WithAttributes(attribute.String("currency", currency))
}
