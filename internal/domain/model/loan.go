package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/pkg/events"
	"github.com/bibbank/fintrack/pkg/money"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an immutable aggregate. Its terms never change after creation; the
// live balance is always derived from the payment history (see Reconcile)
// and never stored on the loan.
type Loan struct {
	id                string
	ownerID           string
	name              string
	principal         decimal.Decimal
	annualRatePercent decimal.Decimal
	termMonths        int
	startDate         time.Time
	currency          money.Currency
	monthlyPayment    decimal.Decimal
	createdAt         time.Time
	events            events.EventCollector
}

// LoanTerms groups the user-supplied inputs of a new loan.
type LoanTerms struct {
	StartDate         time.Time
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	Name              string
	Currency          string
	TermMonths        int
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan validates the terms, computes the fixed monthly payment once
// (rounded to the currency's minor unit for storage) and records LoanCreated.
func NewLoan(ownerID string, terms LoanTerms, now time.Time) (Loan, error) {
	if ownerID == "" {
		return Loan{}, fmt.Errorf("%w: owner ID is required", ErrInvalidArgument)
	}
	name := strings.TrimSpace(terms.Name)
	if name == "" {
		return Loan{}, fmt.Errorf("%w: loan name is required", ErrInvalidArgument)
	}
	if terms.StartDate.IsZero() {
		return Loan{}, fmt.Errorf("%w: start date is required", ErrInvalidArgument)
	}
	currency, err := money.NewCurrency(terms.Currency)
	if err != nil {
		return Loan{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	payment, err := ComputeMonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermMonths)
	if err != nil {
		return Loan{}, err
	}

	loan := Loan{
		id:                uuid.New().String(),
		ownerID:           ownerID,
		name:              name,
		principal:         terms.Principal,
		annualRatePercent: terms.AnnualRatePercent,
		termMonths:        terms.TermMonths,
		startDate:         terms.StartDate,
		currency:          currency,
		monthlyPayment:    currency.Round(payment),
		createdAt:         now,
	}

	loan.events = loan.events.With(event.NewLoanCreated(
		loan.id, ownerID, name,
		loan.principal, loan.annualRatePercent,
		loan.termMonths, loan.startDate,
		currency.Code(), loan.monthlyPayment,
	))

	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(
	id, ownerID, name string,
	principal, annualRatePercent decimal.Decimal,
	termMonths int,
	startDate time.Time,
	currency money.Currency,
	monthlyPayment decimal.Decimal,
	createdAt time.Time,
) Loan {
	return Loan{
		id:                id,
		ownerID:           ownerID,
		name:              name,
		principal:         principal,
		annualRatePercent: annualRatePercent,
		termMonths:        termMonths,
		startDate:         startDate,
		currency:          currency,
		monthlyPayment:    monthlyPayment,
		createdAt:         createdAt,
	}
}

// ---------------------------------------------------------------------------
// Behaviour
// ---------------------------------------------------------------------------

// NewPayment creates a payment against this loan.
func (l Loan) NewPayment(amount decimal.Decimal, paymentDate time.Time, note string, now time.Time) (Payment, error) {
	return NewPayment(l.id, amount, paymentDate, note, now)
}

// NewPaymentWithID creates a payment against this loan with a caller-chosen id.
func (l Loan) NewPaymentWithID(id string, amount decimal.Decimal, paymentDate time.Time, note string, now time.Time) (Payment, error) {
	return NewPaymentWithID(id, l.id, amount, paymentDate, note, now)
}

// Delete returns a copy carrying the LoanDeleted event.
func (l Loan) Delete() Loan {
	next := l
	next.events = l.events.With(event.NewLoanDeleted(l.id, l.ownerID))
	return next
}

// Schedule returns the theoretical amortization schedule for the loan terms.
func (l Loan) Schedule() ([]AmortizationEntry, error) {
	return BuildTheoreticalSchedule(l.principal, l.annualRatePercent, l.termMonths, l.startDate)
}

// MonthlyRate returns the loan's fixed periodic rate.
func (l Loan) MonthlyRate() decimal.Decimal {
	return MonthlyRate(l.annualRatePercent)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                         { return l.id }
func (l Loan) OwnerID() string                    { return l.ownerID }
func (l Loan) Name() string                       { return l.name }
func (l Loan) Principal() decimal.Decimal         { return l.principal }
func (l Loan) AnnualRatePercent() decimal.Decimal { return l.annualRatePercent }
func (l Loan) TermMonths() int                    { return l.termMonths }
func (l Loan) StartDate() time.Time               { return l.startDate }
func (l Loan) Currency() money.Currency           { return l.currency }
func (l Loan) MonthlyPayment() decimal.Decimal    { return l.monthlyPayment }
func (l Loan) CreatedAt() time.Time               { return l.createdAt }
func (l Loan) DomainEvents() []event.DomainEvent  { return l.events.Events() }

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.events = events.EventCollector{}
	return next
}
