package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// LoanState is the actual position of a loan derived by replaying its payment
// history. It is never persisted.
type LoanState struct {
	// NextDueDate is nil once the loan is paid off.
	NextDueDate             *time.Time
	CurrentPrincipalBalance decimal.Decimal
	TotalInterestPaid       decimal.Decimal
	TotalPrincipalPaid      decimal.Decimal
	NextPaymentAmount       decimal.Decimal
	NextPaymentPrincipal    decimal.Decimal
	NextPaymentInterest     decimal.Decimal
	PaymentsApplied         int
	// IgnoredPayments counts payments dated after payoff. They are kept in
	// the history but do not affect the balance.
	IgnoredPayments int
}

// IsPaidOff reports whether the remaining balance is within Epsilon of zero.
func (s LoanState) IsPaidOff() bool {
	return s.CurrentPrincipalBalance.LessThanOrEqual(Epsilon)
}

// Reconcile replays payments in date order against the loan and returns the
// resulting state. Each payment first covers the interest accrued on the
// balance at the loan's fixed monthly rate; the remainder reduces principal.
// A payment smaller than the interest due counts entirely as interest.
// Replay stops once the balance drops to Epsilon.
//
// Reconcile does not modify payments and is deterministic for identical input.
func Reconcile(loan Loan, payments []Payment) LoanState {
	ordered := slices.Clone(payments)
	slices.SortStableFunc(ordered, func(a, b Payment) int {
		return a.paymentDate.Compare(b.paymentDate)
	})

	rate := loan.MonthlyRate()
	balance := loan.principal
	interestPaid := decimal.Zero
	applied := 0

	for _, p := range ordered {
		if balance.LessThanOrEqual(Epsilon) {
			break
		}

		interestDue := balance.Mul(rate).Round(calcPrecision)
		principalPart := p.amount.Sub(interestDue)

		if principalPart.IsNegative() {
			interestPaid = interestPaid.Add(p.amount)
		} else {
			interestPaid = interestPaid.Add(interestDue)
			balance = balance.Sub(principalPart)
		}
		applied++
	}

	if balance.IsNegative() {
		balance = decimal.Zero
	}

	state := LoanState{
		CurrentPrincipalBalance: balance,
		TotalInterestPaid:       interestPaid,
		TotalPrincipalPaid:      loan.principal.Sub(balance),
		NextPaymentAmount:       decimal.Zero,
		NextPaymentPrincipal:    decimal.Zero,
		NextPaymentInterest:     decimal.Zero,
		PaymentsApplied:         applied,
		IgnoredPayments:         len(ordered) - applied,
	}

	if state.IsPaidOff() {
		return state
	}

	due := AddMonths(loan.startDate, applied+1)
	state.NextDueDate = &due

	if rate.IsZero() {
		state.NextPaymentAmount = balance
		state.NextPaymentPrincipal = balance
		return state
	}

	interest := balance.Mul(rate).Round(calcPrecision)
	principalPart := loan.monthlyPayment.Sub(interest)
	if principalPart.GreaterThan(balance) {
		state.NextPaymentAmount = balance
		state.NextPaymentPrincipal = balance
		return state
	}

	state.NextPaymentAmount = loan.monthlyPayment
	state.NextPaymentPrincipal = principalPart
	state.NextPaymentInterest = interest
	return state
}
