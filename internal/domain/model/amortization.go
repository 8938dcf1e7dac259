package model

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// calcPrecision is the number of fractional digits kept by intermediate
// calculator and reconciliation arithmetic. It is far below any currency's
// minor unit; amounts are rounded to currency precision only at the storage
// and presentation boundaries.
const calcPrecision int32 = 20

var (
	one          = decimal.NewFromInt(1)
	monthsPerPct = decimal.NewFromInt(1200)

	// Epsilon is the balance at or below which a loan counts as paid off.
	Epsilon = decimal.New(1, -2)

	// MaxAmount bounds principals and payment amounts.
	MaxAmount = decimal.NewFromInt(1_000_000_000)
	// MaxAnnualRatePercent bounds the nominal annual rate.
	MaxAnnualRatePercent = decimal.NewFromInt(1000)
)

const (
	// MaxTermMonths bounds the term, and so the length of a schedule.
	MaxTermMonths = 600
	// MaxScale is the number of fractional digits amounts and rates may
	// carry; storage keeps exactly this many.
	MaxScale int32 = 4
)

// AmortizationEntry is an immutable value object representing one period in
// the theoretical amortization schedule.
type AmortizationEntry struct {
	DueDate               time.Time
	MonthlyPayment        decimal.Decimal
	PrincipalPortion      decimal.Decimal
	InterestPortion       decimal.Decimal
	RemainingBalanceAfter decimal.Decimal
	PaymentNumber         int
}

// MonthlyRate converts an annual percentage (5 means 5%) to the periodic rate
// applied each month: annualRatePercent / 100 / 12.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.DivRound(monthsPerPct, calcPrecision)
}

// ComputeMonthlyPayment returns the fixed payment that amortizes principal
// over termMonths at the given annual rate:
//
//	r       = annualRatePercent / 100 / 12
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate yields the straight-line payment principal / termMonths. The
// result is not rounded to currency precision.
func ComputeMonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if err := validateTerms(principal, annualRatePercent, termMonths); err != nil {
		return decimal.Decimal{}, err
	}

	r := MonthlyRate(annualRatePercent)
	if r.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(termMonths)), calcPrecision), nil
	}

	factor := compoundFactor(r, termMonths)
	return principal.Mul(r).Mul(factor).DivRound(factor.Sub(one), calcPrecision), nil
}

// BuildTheoreticalSchedule produces the contractual schedule for the loan
// terms: one entry per month, entry i due startDate + i months. Each period's
// interest accrues on the balance before the period and the remainder of the
// constant payment reduces principal. Remaining balances are clamped at zero.
func BuildTheoreticalSchedule(
	principal, annualRatePercent decimal.Decimal,
	termMonths int,
	startDate time.Time,
) ([]AmortizationEntry, error) {
	payment, err := ComputeMonthlyPayment(principal, annualRatePercent, termMonths)
	if err != nil {
		return nil, err
	}

	r := MonthlyRate(annualRatePercent)
	balance := principal
	schedule := make([]AmortizationEntry, 0, termMonths)

	for period := 1; period <= termMonths; period++ {
		interest := balance.Mul(r).Round(calcPrecision)
		principalPart := payment.Sub(interest)

		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		schedule = append(schedule, AmortizationEntry{
			PaymentNumber:         period,
			DueDate:               AddMonths(startDate, period),
			MonthlyPayment:        payment,
			PrincipalPortion:      principalPart,
			InterestPortion:       interest,
			RemainingBalanceAfter: balance,
		})
	}

	return schedule, nil
}

// DecimalFromFloat converts a float supplied at a boundary (flags, JSON
// numbers) into a decimal, rejecting NaN and infinities.
func DecimalFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v is not a finite number", ErrInvalidArgument, f)
	}
	return decimal.NewFromFloat(f), nil
}

// AddMonths returns t shifted by n calendar months. Day overflow normalizes
// the way time.AddDate does (Jan 31 + 1 month is Mar 2 or 3).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

func validateTerms(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if err := ValidateAmount("principal", principal); err != nil {
		return err
	}
	if annualRatePercent.IsNegative() {
		return fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidArgument, annualRatePercent)
	}
	if annualRatePercent.GreaterThan(MaxAnnualRatePercent) {
		return fmt.Errorf("%w: annual rate must not exceed %s%%, got %s", ErrInvalidArgument, MaxAnnualRatePercent, annualRatePercent)
	}
	if err := checkScale("annual rate", annualRatePercent); err != nil {
		return err
	}
	if termMonths <= 0 || termMonths > MaxTermMonths {
		return fmt.Errorf("%w: term must be between 1 and %d months, got %d", ErrInvalidArgument, MaxTermMonths, termMonths)
	}
	return nil
}

// ValidateAmount checks that a principal or payment amount is positive, at
// most MaxAmount and has no more than MaxScale fractional digits.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidArgument, field, amount)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s must not exceed %s, got %s", ErrInvalidArgument, field, MaxAmount, amount)
	}
	return checkScale(field, amount)
}

func checkScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MaxScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places: %s", ErrInvalidArgument, field, MaxScale, d)
	}
	return nil
}

// compoundFactor returns (1+r)^n, rounding each step to calcPrecision so the
// operand size stays bounded.
func compoundFactor(r decimal.Decimal, n int) decimal.Decimal {
	base := one.Add(r)
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(calcPrecision)
		}
		base = base.Mul(base).Round(calcPrecision)
		n >>= 1
	}
	return result
}
