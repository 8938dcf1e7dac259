package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/service"
	"github.com/bibbank/fintrack/pkg/money"
)

// termFlags are the loan terms shared by schedule and reconcile.
type termFlags struct {
	principal string
	rate      string
	start     string
	currency  string
	term      int
}

func (f *termFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.principal, "principal", "", "Amount borrowed")
	cmd.Flags().StringVar(&f.rate, "rate", "0", "Nominal annual interest rate in percent")
	cmd.Flags().IntVar(&f.term, "term", 0, "Term in months")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.currency, "currency", "USD", "ISO 4217 currency code")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("term")
	_ = cmd.MarkFlagRequired("start")
}

func (f *termFlags) loan() (model.Loan, error) {
	principal, err := decimal.NewFromString(f.principal)
	if err != nil {
		return model.Loan{}, fmt.Errorf("invalid --principal %q", f.principal)
	}
	rate, err := decimal.NewFromString(f.rate)
	if err != nil {
		return model.Loan{}, fmt.Errorf("invalid --rate %q", f.rate)
	}
	start, err := time.Parse(time.DateOnly, f.start)
	if err != nil {
		return model.Loan{}, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", f.start)
	}

	return model.NewLoan(uuid.Nil.String(), model.LoanTerms{
		Name:              "cli",
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        f.term,
		StartDate:         start,
		Currency:          f.currency,
	}, time.Now().UTC())
}

func newScheduleCmd() *cobra.Command {
	var terms termFlags

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the theoretical amortization schedule of a loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loan, err := terms.loan()
			if err != nil {
				return err
			}
			entries, err := loan.Schedule()
			if err != nil {
				return err
			}
			return printSchedule(cmd.OutOrStdout(), loan, entries)
		},
	}
	terms.register(cmd)
	return cmd
}

func newReconcileCmd() *cobra.Command {
	var (
		terms    termFlags
		payments []string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Replay payments against a loan and print the resulting state",
		Example: "  fintrackctl reconcile --principal 1000 --rate 0 --term 10 --start 2024-01-15 \\\n" +
			"    --payment 2024-02-15:100 --payment 2024-03-15:100",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loan, err := terms.loan()
			if err != nil {
				return err
			}
			history, err := parsePayments(loan, payments)
			if err != nil {
				return err
			}
			return printAggregate(cmd.OutOrStdout(), service.Assemble(loan, history))
		},
	}
	terms.register(cmd)
	cmd.Flags().StringArrayVar(&payments, "payment", nil, "Payment as DATE:AMOUNT, repeatable")
	return cmd
}

// parsePayments turns DATE:AMOUNT pairs into payments on loan.
func parsePayments(loan model.Loan, raw []string) ([]model.Payment, error) {
	now := time.Now().UTC()
	out := make([]model.Payment, 0, len(raw))
	for _, r := range raw {
		date, amount, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --payment %q: expected DATE:AMOUNT", r)
		}
		paidOn, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("invalid --payment date %q: expected YYYY-MM-DD", date)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid --payment amount %q", amount)
		}
		p, err := loan.NewPayment(value, paidOn, "", now)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printSchedule(w io.Writer, loan model.Loan, entries []model.AmortizationEntry) error {
	cur := loan.Currency()
	fmt.Fprintf(w, "Monthly payment: %s\n\n", money.New(loan.MonthlyPayment(), cur))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDue\tPayment\tPrincipal\tInterest\tBalance\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			e.PaymentNumber,
			e.DueDate.Format(time.DateOnly),
			cur.Round(e.MonthlyPayment).StringFixed(cur.MinorUnits()),
			cur.Round(e.PrincipalPortion).StringFixed(cur.MinorUnits()),
			cur.Round(e.InterestPortion).StringFixed(cur.MinorUnits()),
			cur.Round(e.RemainingBalanceAfter).StringFixed(cur.MinorUnits()),
		)
	}
	return tw.Flush()
}

func printAggregate(w io.Writer, agg service.LoanAggregate) error {
	cur := agg.Loan.Currency()
	amount := func(d decimal.Decimal) string { return money.New(d, cur).String() }

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total paid:\t%s\n", amount(agg.TotalPaid))
	fmt.Fprintf(tw, "Principal balance:\t%s\n", amount(agg.CurrentPrincipalBalance))
	fmt.Fprintf(tw, "Interest paid:\t%s\n", amount(agg.TotalInterestPaidActual))
	fmt.Fprintf(tw, "Principal paid:\t%s\n", amount(agg.TotalPrincipalPaid))
	fmt.Fprintf(tw, "Progress:\t%s%%\n", agg.ProgressPercentage.StringFixed(2))
	if agg.IsCompleted {
		fmt.Fprintf(tw, "Status:\tpaid off\n")
	} else {
		fmt.Fprintf(tw, "Next due:\t%s\n", agg.NextDueDate.Format(time.DateOnly))
		fmt.Fprintf(tw, "Next payment:\t%s (principal %s, interest %s)\n",
			amount(agg.NextPaymentAmount),
			amount(agg.NextPaymentPrincipal),
			amount(agg.NextPaymentInterest),
		)
	}
	if agg.IgnoredPayments > 0 {
		fmt.Fprintf(tw, "Ignored after payoff:\t%d\n", agg.IgnoredPayments)
	}
	return tw.Flush()
}
