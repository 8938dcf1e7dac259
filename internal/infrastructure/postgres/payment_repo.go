package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/domain/model"
)

// PaymentRepo implements port.PaymentRepository.
type PaymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a new PostgreSQL-backed payment repository.
func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Save inserts a payment. Saving an id that is already stored is a no-op.
func (r *PaymentRepo) Save(ctx context.Context, p model.Payment) error {
	query := `
		INSERT INTO loan_payments (id, loan_id, amount, payment_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID(), p.LoanID(), p.Amount(), p.PaymentDate(), p.Note(), p.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

// ListByLoanID returns the loan's payments in insertion order. Reconcile
// sorts by payment date itself; insertion order breaks ties.
func (r *PaymentRepo) ListByLoanID(ctx context.Context, loanID string) ([]model.Payment, error) {
	query := `
		SELECT id, loan_id, amount, payment_date, note, created_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Payment, error) {
		var (
			id, lid, note          string
			amount                 decimal.Decimal
			paymentDate, createdAt time.Time
		)
		if err := row.Scan(&id, &lid, &amount, &paymentDate, &note, &createdAt); err != nil {
			return model.Payment{}, err
		}
		return model.ReconstructPayment(id, lid, amount, paymentDate, note, createdAt), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}
	return payments, nil
}
