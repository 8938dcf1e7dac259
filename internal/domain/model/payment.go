package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an immutable record of money paid toward a loan. Payments need
// not match the scheduled amount or due date.
type Payment struct {
	id          string
	loanID      string
	amount      decimal.Decimal
	paymentDate time.Time
	note        string
	createdAt   time.Time
}

// NewPayment validates and creates a payment. Non-positive amounts are
// rejected here so reconciliation can assume valid input.
func NewPayment(loanID string, amount decimal.Decimal, paymentDate time.Time, note string, now time.Time) (Payment, error) {
	return NewPaymentWithID(uuid.New().String(), loanID, amount, paymentDate, note, now)
}

// NewPaymentWithID is NewPayment with a caller-chosen id, which must be a
// UUID. Callers that may submit the same payment more than once derive the
// id from the submission so repeats collapse onto one stored payment.
func NewPaymentWithID(id, loanID string, amount decimal.Decimal, paymentDate time.Time, note string, now time.Time) (Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Payment{}, fmt.Errorf("%w: payment ID %q is not a UUID", ErrInvalidArgument, id)
	}
	if loanID == "" {
		return Payment{}, fmt.Errorf("%w: loan ID is required", ErrInvalidArgument)
	}
	if err := ValidateAmount("payment amount", amount); err != nil {
		return Payment{}, err
	}
	if paymentDate.IsZero() {
		return Payment{}, fmt.Errorf("%w: payment date is required", ErrInvalidArgument)
	}

	return Payment{
		id:          id,
		loanID:      loanID,
		amount:      amount,
		paymentDate: paymentDate,
		note:        strings.TrimSpace(note),
		createdAt:   now,
	}, nil
}

// ReconstructPayment rebuilds a Payment from persistence.
func ReconstructPayment(id, loanID string, amount decimal.Decimal, paymentDate time.Time, note string, createdAt time.Time) Payment {
	return Payment{
		id:          id,
		loanID:      loanID,
		amount:      amount,
		paymentDate: paymentDate,
		note:        note,
		createdAt:   createdAt,
	}
}

func (p Payment) ID() string              { return p.id }
func (p Payment) LoanID() string          { return p.loanID }
func (p Payment) Amount() decimal.Decimal { return p.amount }
func (p Payment) PaymentDate() time.Time  { return p.paymentDate }
func (p Payment) Note() string            { return p.note }
func (p Payment) CreatedAt() time.Time    { return p.createdAt }

// SumAmounts totals the amounts of the given payments.
func SumAmounts(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.amount)
	}
	return total
}
