package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/port"
	"github.com/bibbank/fintrack/pkg/money"
)

var testStart = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Loan repository
// ---------------------------------------------------------------------------

type mockLoanRepository struct {
	saveFunc        func(ctx context.Context, loan model.Loan) error
	findByIDFunc    func(ctx context.Context, ownerID, id string) (model.Loan, error)
	listByOwnerFunc func(ctx context.Context, ownerID string) ([]model.Loan, error)
	deleteFunc      func(ctx context.Context, ownerID, id string) error
	savedLoans      []model.Loan
	deletedIDs      []string
}

func (m *mockLoanRepository) Save(ctx context.Context, loan model.Loan) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, loan)
	}
	m.savedLoans = append(m.savedLoans, loan)
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, ownerID, id string) (model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, ownerID, id)
	}
	return model.Loan{}, model.ErrLoanNotFound
}

func (m *mockLoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockLoanRepository) Delete(ctx context.Context, ownerID, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, id)
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

// ---------------------------------------------------------------------------
// Payment repository
// ---------------------------------------------------------------------------

type mockPaymentRepository struct {
	mu            sync.Mutex
	saveFunc      func(ctx context.Context, p model.Payment) error
	listFunc      func(ctx context.Context, loanID string) ([]model.Payment, error)
	savedPayments []model.Payment
}

func (m *mockPaymentRepository) Save(ctx context.Context, p model.Payment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedPayments = append(m.savedPayments, p)
	return nil
}

func (m *mockPaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]model.Payment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, loanID)
	}
	return nil, nil
}

var _ port.PaymentRepository = (*mockPaymentRepository)(nil)

// ---------------------------------------------------------------------------
// Event publisher
// ---------------------------------------------------------------------------

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, events...)
	}
	m.publishedEvents = append(m.publishedEvents, events...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

type recordingMetrics struct {
	port.NopMetrics
	created  []string
	payments []string
	paidOff  []string
}

func (m *recordingMetrics) LoanCreated(_ context.Context, currency string) {
	m.created = append(m.created, currency)
}

func (m *recordingMetrics) PaymentRecorded(_ context.Context, currency string) {
	m.payments = append(m.payments, currency)
}

func (m *recordingMetrics) LoanPaidOff(_ context.Context, currency string) {
	m.paidOff = append(m.paidOff, currency)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func storedLoan(id, principal, rate string, term int, monthlyPayment, currency string) model.Loan {
	return model.ReconstructLoan(
		id, "owner-001", "Loan "+id,
		decimal.RequireFromString(principal),
		decimal.RequireFromString(rate),
		term, testStart,
		money.MustCurrency(currency),
		decimal.RequireFromString(monthlyPayment),
		testStart,
	)
}

func storedPayment(id, loanID, amount string, month int) model.Payment {
	return model.ReconstructPayment(
		id, loanID,
		decimal.RequireFromString(amount),
		model.AddMonths(testStart, month),
		"",
		testStart,
	)
}
