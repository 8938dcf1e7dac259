package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/pkg/money"
	pkgpostgres "github.com/bibbank/fintrack/pkg/postgres"
)

const loanColumns = `
	id, owner_id, name, principal, annual_rate_percent, term_months,
	start_date, currency, monthly_payment, created_at
`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save inserts a loan. Loan terms are immutable, so an existing row is left
// untouched.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		loan.ID(), loan.OwnerID(), loan.Name(),
		loan.Principal(), loan.AnnualRatePercent(), loan.TermMonths(),
		loan.StartDate(), loan.Currency().Code(), loan.MonthlyPayment(),
		loan.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	return nil
}

// FindByID retrieves an owner's loan by ID.
func (r *LoanRepo) FindByID(ctx context.Context, ownerID, id string) (model.Loan, error) {
	if uuid.Validate(id) != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrLoanNotFound)
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 AND id = $2`

	loan, err := scanLoanRow(r.pool.QueryRow(ctx, query, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrLoanNotFound)
	}
	return loan, err
}

// ListByOwner retrieves all loans of an owner, oldest first.
func (r *LoanRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		loan, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// Delete removes the loan and its payments in one transaction.
func (r *LoanRepo) Delete(ctx context.Context, ownerID, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("loan %s: %w", id, model.ErrLoanNotFound)
	}
	return pkgpostgres.RunInTx(ctx, r.pool, pkgpostgres.ReadCommitted, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM loan_payments p
			USING loans l
			WHERE p.loan_id = l.id AND l.owner_id = $1 AND l.id = $2
		`, ownerID, id); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM loans WHERE owner_id = $1 AND id = $2`, ownerID, id)
		if err != nil {
			return fmt.Errorf("delete loan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("loan %s: %w", id, model.ErrLoanNotFound)
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

func scanLoanRow(s pgx.Row) (model.Loan, error) {
	var (
		id, ownerID, name, currencyCode string
		principal, rate, payment        decimal.Decimal
		termMonths                      int
		startDate, createdAt            time.Time
	)

	err := s.Scan(
		&id, &ownerID, &name, &principal, &rate, &termMonths,
		&startDate, &currencyCode, &payment, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, err
		}
		return model.Loan{}, fmt.Errorf("scan loan: %w", err)
	}

	currency, err := money.NewCurrency(currencyCode)
	if err != nil {
		return model.Loan{}, fmt.Errorf("parse loan currency: %w", err)
	}

	return model.ReconstructLoan(
		id, ownerID, name,
		principal, rate, termMonths,
		startDate, currency, payment,
		createdAt,
	), nil
}
