package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	loangrpc "github.com/bibbank/fintrack/internal/presentation/grpc"
	"github.com/bibbank/fintrack/pkg/tlsutil"
)

func newQuoteCmd() *cobra.Command {
	var (
		terms     termFlags
		addr      string
		caFile    string
		plaintext bool
		schedule  bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Ask a running fintrackd for a loan quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds := insecure.NewCredentials()
			if !plaintext {
				var err error
				if creds, err = tlsutil.ClientCredentials(caFile); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := requestQuote(ctx, addr, creds, &loangrpc.CalculateLoanRequest{
				Principal:         terms.principal,
				AnnualRatePercent: terms.rate,
				StartDate:         terms.start,
				Currency:          terms.currency,
				TermMonths:        terms.term,
				IncludeSchedule:   schedule,
			})
			if err != nil {
				return err
			}
			return printQuote(cmd.OutOrStdout(), resp)
		},
	}

	terms.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "fintrackd gRPC address")
	cmd.Flags().StringVar(&caFile, "ca", "", "CA certificate to trust; system roots when empty")
	cmd.Flags().BoolVar(&plaintext, "plaintext", false, "Connect without TLS")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "Include the amortization schedule")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

func requestQuote(
	ctx context.Context,
	addr string,
	creds credentials.TransportCredentials,
	req *loangrpc.CalculateLoanRequest,
) (*loangrpc.CalculateLoanResponse, error) {
	conn, err := grpclib.NewClient(addr, grpclib.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := loangrpc.NewClient(conn).CalculateLoan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calculate loan: %w", err)
	}
	return resp, nil
}

func printQuote(w io.Writer, q *loangrpc.CalculateLoanResponse) error {
	fmt.Fprintf(w, "Monthly payment: %s %s\n", q.MonthlyPayment.StringFixed(2), q.Currency)
	fmt.Fprintf(w, "Total payment:   %s %s\n", q.TotalPayment.StringFixed(2), q.Currency)
	fmt.Fprintf(w, "Total interest:  %s %s\n", q.TotalInterest.StringFixed(2), q.Currency)
	for _, e := range q.Schedule {
		fmt.Fprintf(w, "%3d  %s  %s\n", e.PaymentNumber, e.DueDate.Format(time.DateOnly), e.RemainingBalanceAfter.StringFixed(2))
	}
	return nil
}
