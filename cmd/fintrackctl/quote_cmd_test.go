package main

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/application/usecase"
	loangrpc "github.com/bibbank/fintrack/internal/presentation/grpc"
	"github.com/bibbank/fintrack/pkg/auth"
	"github.com/bibbank/fintrack/pkg/tlsutil"
)

// startQuoteServer serves CalculateLoan on a loopback port and returns its
// address. Stored-loan methods are left unwired.
func startQuoteServer(t *testing.T, cfg loangrpc.ServerConfig) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := loangrpc.NewLoanHandler(loangrpc.UseCases{
		CalculateLoan: usecase.NewCalculateLoanUseCase(),
	}, logger)
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "quote-test", Issuer: "fintrack"})
	require.NoError(t, err)

	srv, err := loangrpc.NewServer(cfg, handler, jwtService, logger)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)
	return lis.Addr().String()
}

func TestQuoteCmd_Plaintext(t *testing.T) {
	addr := startQuoteServer(t, loangrpc.ServerConfig{ServiceName: "fintrack"})

	out, err := execute(t, "quote", "--addr", addr, "--plaintext", "--schedule",
		"--principal", "1000", "--rate", "0", "--term", "10", "--start", "2024-01-15")
	require.NoError(t, err)

	assert.Contains(t, out, "Monthly payment: 100.00 USD")
	assert.Contains(t, out, "Total interest:  0.00 USD")
	assert.Contains(t, out, " 10  2024-11-15  0.00")
}

func TestQuoteCmd_TLS(t *testing.T) {
	bundle, err := tlsutil.IssueDevBundle(t.TempDir(), []string{"127.0.0.1"})
	require.NoError(t, err)

	addr := startQuoteServer(t, loangrpc.ServerConfig{
		ServiceName: "fintrack",
		TLSCertFile: bundle.CertFile(),
		TLSKeyFile:  bundle.KeyFile(),
	})

	out, err := execute(t, "quote", "--addr", addr, "--ca", bundle.CAFile(),
		"--principal", "1000", "--rate", "5", "--term", "12", "--start", "2024-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly payment: 85.61 USD")
}

func TestQuoteCmd_RejectedTerms(t *testing.T) {
	addr := startQuoteServer(t, loangrpc.ServerConfig{ServiceName: "fintrack"})

	_, err := execute(t, "quote", "--addr", addr, "--plaintext",
		"--principal=-5", "--term", "10", "--start", "2024-01-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidArgument")
}
