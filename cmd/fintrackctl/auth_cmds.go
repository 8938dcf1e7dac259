package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bibbank/fintrack/pkg/auth"
	"github.com/bibbank/fintrack/pkg/tlsutil"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		user   string
		issuer string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for calling the gRPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID := uuid.New()
			if user != "" {
				parsed, err := uuid.Parse(user)
				if err != nil {
					return fmt.Errorf("invalid --user %q: %w", user, err)
				}
				userID = parsed
			}

			svc, err := auth.NewJWTService(auth.JWTConfig{
				Secret:     secret,
				Issuer:     issuer,
				Expiration: ttl,
			})
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(userID, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret shared with fintrackd (JWT_SECRET)")
	cmd.Flags().StringVar(&user, "user", "", "User id to embed; a random one when empty")
	cmd.Flags().StringVar(&issuer, "issuer", "fintrack", "Token issuer (JWT_ISSUER)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func newCertsCmd() *cobra.Command {
	var (
		outDir string
		hosts  []string
	)

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Generate a development CA and server certificate for gRPC TLS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := tlsutil.IssueDevBundle(outDir, hosts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %s and %s\n", b.CAFile(), b.CertFile(), b.KeyFile())
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "certs", "Output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "Hostnames or IPs for the server certificate")
	return cmd
}
