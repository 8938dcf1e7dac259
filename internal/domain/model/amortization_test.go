package model_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/domain/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var startDate = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func TestComputeMonthlyPayment(t *testing.T) {
	t.Run("zero rate is straight line", func(t *testing.T) {
		payment, err := model.ComputeMonthlyPayment(dec("120000"), decimal.Zero, 12)
		require.NoError(t, err)
		assert.Equal(t, "10000", payment.String())
	})

	t.Run("zero rate keeps calculation precision on inexact division", func(t *testing.T) {
		payment, err := model.ComputeMonthlyPayment(dec("1000"), decimal.Zero, 3)
		require.NoError(t, err)
		assert.Equal(t, "333.33333333333333333333", payment.String())
	})

	t.Run("standard amortizing payment", func(t *testing.T) {
		payment, err := model.ComputeMonthlyPayment(dec("100000"), dec("12"), 12)
		require.NoError(t, err)
		assert.Equal(t, "8884.88", payment.StringFixed(2))
	})

	t.Run("thirty year mortgage", func(t *testing.T) {
		payment, err := model.ComputeMonthlyPayment(dec("200000"), dec("6.5"), 360)
		require.NoError(t, err)
		assert.Equal(t, "1264.14", payment.StringFixed(2))
	})

	t.Run("is not rounded to currency precision", func(t *testing.T) {
		payment, err := model.ComputeMonthlyPayment(dec("100000"), dec("12"), 12)
		require.NoError(t, err)
		assert.Greater(t, -payment.Exponent(), int32(2))
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := model.ComputeMonthlyPayment(dec("35250.75"), dec("7.25"), 84)
		require.NoError(t, err)
		b, err := model.ComputeMonthlyPayment(dec("35250.75"), dec("7.25"), 84)
		require.NoError(t, err)
		assert.Equal(t, a.String(), b.String())
	})
}

func TestComputeMonthlyPayment_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
	}{
		{"zero principal", decimal.Zero, dec("5"), 12},
		{"negative principal", dec("-100"), dec("5"), 12},
		{"zero term", dec("1000"), dec("5"), 0},
		{"negative term", dec("1000"), dec("5"), -3},
		{"negative rate", dec("1000"), dec("-0.5"), 12},
		{"term over cap", dec("1000"), dec("5"), model.MaxTermMonths + 1},
		{"huge term", dec("1000"), dec("5"), 2_000_000_000},
		{"principal over cap", dec("1000000000.0001"), dec("5"), 12},
		{"rate over cap", dec("1000"), dec("1000.0001"), 12},
		{"principal beyond four decimals", dec("1000.00001"), dec("5"), 12},
		{"rate beyond four decimals", dec("1000"), dec("5.00001"), 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.ComputeMonthlyPayment(tc.principal, tc.rate, tc.term)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)

			_, err = model.BuildTheoreticalSchedule(tc.principal, tc.rate, tc.term, startDate)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
		})
	}
}

func TestBuildTheoreticalSchedule(t *testing.T) {
	schedule, err := model.BuildTheoreticalSchedule(dec("100000"), dec("12"), 12, startDate)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	first := schedule[0]
	assert.Equal(t, 1, first.PaymentNumber)
	assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), first.DueDate)
	assert.Equal(t, "1000", first.InterestPortion.String())
	assert.Equal(t, "7884.88", first.PrincipalPortion.StringFixed(2))
	assert.Equal(t, "92115.12", first.RemainingBalanceAfter.StringFixed(2))

	last := schedule[11]
	assert.Equal(t, 12, last.PaymentNumber)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), last.DueDate)

	for i, entry := range schedule {
		assert.True(t, entry.MonthlyPayment.Equal(first.MonthlyPayment), "entry %d payment", i)
		assert.True(t, entry.PrincipalPortion.Add(entry.InterestPortion).Equal(entry.MonthlyPayment), "entry %d split", i)
		assert.False(t, entry.RemainingBalanceAfter.IsNegative(), "entry %d balance", i)
	}
}

func TestBuildTheoreticalSchedule_FinalBalanceNearZero(t *testing.T) {
	tests := []struct {
		principal string
		rate      string
		term      int
	}{
		{"1000", "0", 1},
		{"1000", "0", 7},
		{"120000", "0", 12},
		{"100000", "12", 12},
		{"250000", "6.75", 360},
		{"18999.99", "3.9", 60},
		{"500", "29.99", 18},
		{"1", "0.01", 3},
	}

	for _, tc := range tests {
		t.Run(tc.principal+"@"+tc.rate, func(t *testing.T) {
			schedule, err := model.BuildTheoreticalSchedule(dec(tc.principal), dec(tc.rate), tc.term, startDate)
			require.NoError(t, err)
			require.Len(t, schedule, tc.term)

			final := schedule[len(schedule)-1].RemainingBalanceAfter
			assert.True(t, final.LessThan(model.Epsilon), "final balance %s", final)
		})
	}
}

func TestDecimalFromFloat(t *testing.T) {
	d, err := model.DecimalFromFloat(1234.5)
	require.NoError(t, err)
	assert.Equal(t, "1234.5", d.String())

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := model.DecimalFromFloat(f)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	}
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t,
		time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
		model.AddMonths(startDate, 3),
	)
	// Day overflow normalizes into the following month.
	assert.Equal(t,
		time.Date(2023, time.March, 3, 0, 0, 0, 0, time.UTC),
		model.AddMonths(time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC), 1),
	)
}
