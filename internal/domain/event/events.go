package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	TypeLoanCreated     = "loans.loan.created"
	TypeLoanDeleted     = "loans.loan.deleted"
	TypeLoanPaidOff     = "loans.loan.paid_off"
	TypePaymentRecorded = "loans.payment.recorded"

	aggregateLoan = "Loan"
)

// LoanCreated is raised when a user records a new loan.
type LoanCreated struct {
	events.BaseEvent
	StartDate         time.Time       `json:"start_date"`
	Name              string          `json:"name"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	Currency          string          `json:"currency"`
	TermMonths        int             `json:"term_months"`
}

func NewLoanCreated(
	loanID, ownerID, name string,
	principal, annualRatePercent decimal.Decimal,
	termMonths int, startDate time.Time,
	currency string, monthlyPayment decimal.Decimal,
) LoanCreated {
	return LoanCreated{
		BaseEvent:         events.NewBaseEvent(TypeLoanCreated, loanID, aggregateLoan, ownerID),
		Name:              name,
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        termMonths,
		StartDate:         startDate,
		Currency:          currency,
		MonthlyPayment:    monthlyPayment,
	}
}

// PaymentRecorded is raised when a payment is added to a loan's history.
type PaymentRecorded struct {
	events.BaseEvent
	PaymentDate             time.Time       `json:"payment_date"`
	PaymentID               string          `json:"payment_id"`
	Amount                  decimal.Decimal `json:"amount"`
	Currency                string          `json:"currency"`
	CurrentPrincipalBalance decimal.Decimal `json:"current_principal_balance"`
}

func NewPaymentRecorded(
	loanID, ownerID, paymentID string,
	amount decimal.Decimal, currency string,
	paymentDate time.Time,
	currentPrincipalBalance decimal.Decimal,
) PaymentRecorded {
	return PaymentRecorded{
		BaseEvent:               events.NewBaseEvent(TypePaymentRecorded, loanID, aggregateLoan, ownerID),
		PaymentID:               paymentID,
		Amount:                  amount,
		Currency:                currency,
		PaymentDate:             paymentDate,
		CurrentPrincipalBalance: currentPrincipalBalance,
	}
}

// LoanPaidOff is raised when a recorded payment brings the balance to zero.
type LoanPaidOff struct {
	events.BaseEvent
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalInterestPaid decimal.Decimal `json:"total_interest_paid"`
}

func NewLoanPaidOff(loanID, ownerID string, totalPaid, totalInterestPaid decimal.Decimal) LoanPaidOff {
	return LoanPaidOff{
		BaseEvent:         events.NewBaseEvent(TypeLoanPaidOff, loanID, aggregateLoan, ownerID),
		TotalPaid:         totalPaid,
		TotalInterestPaid: totalInterestPaid,
	}
}

// LoanDeleted is raised when a loan and its payment history are removed.
type LoanDeleted struct {
	events.BaseEvent
}

func NewLoanDeleted(loanID, ownerID string) LoanDeleted {
	return LoanDeleted{
		BaseEvent: events.NewBaseEvent(TypeLoanDeleted, loanID, aggregateLoan, ownerID),
	}
}
