package port

import (
	"context"

	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRepository persists and retrieves loans. Lookups are scoped to the
// owning user; FindByID returns model.ErrLoanNotFound for unknown or foreign
// loans.
type LoanRepository interface {
	Save(ctx context.Context, loan model.Loan) error
	FindByID(ctx context.Context, ownerID, id string) (model.Loan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error)
	// Delete removes the loan together with its payment history.
	Delete(ctx context.Context, ownerID, id string) error
}

// PaymentSource lists the recorded payments of a loan.
type PaymentSource interface {
	ListByLoanID(ctx context.Context, loanID string) ([]model.Payment, error)
}

// PaymentRepository persists and retrieves payments.
type PaymentRepository interface {
	PaymentSource
	Save(ctx context.Context, payment model.Payment) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Metrics port
// ---------------------------------------------------------------------------

// Metrics records service-level measurements.
type Metrics interface {
	LoanCreated(ctx context.Context, currency string)
	PaymentRecorded(ctx context.Context, currency string)
	LoanPaidOff(ctx context.Context, currency string)
	ReconciliationDegraded(ctx context.Context)
	IgnoredPayments(ctx context.Context, count int)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) LoanCreated(context.Context, string)     {}
func (NopMetrics) PaymentRecorded(context.Context, string) {}
func (NopMetrics) LoanPaidOff(context.Context, string)     {}
func (NopMetrics) ReconciliationDegraded(context.Context)  {}
func (NopMetrics) IgnoredPayments(context.Context, int)    {}
