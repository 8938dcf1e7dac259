package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreateLoanRequest carries the terms of a new loan.
type CreateLoanRequest struct {
	StartDate         time.Time       `json:"start_date"`
	OwnerID           string          `json:"owner_id"`
	Name              string          `json:"name"`
	Currency          string          `json:"currency"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
}

// RecordPaymentRequest carries a payment made toward a loan.
type RecordPaymentRequest struct {
	PaymentDate time.Time       `json:"payment_date"`
	OwnerID     string          `json:"owner_id"`
	LoanID      string          `json:"loan_id"`
	Note        string          `json:"note,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	// PaymentID is optional. When set, a request whose payment is already
	// stored republishes its events instead of storing it again.
	PaymentID string `json:"payment_id,omitempty"`
}

// GetLoanRequest identifies a loan to retrieve.
type GetLoanRequest struct {
	OwnerID string `json:"owner_id"`
	LoanID  string `json:"loan_id"`
}

// ListLoansRequest identifies the owner whose loans are listed.
type ListLoansRequest struct {
	OwnerID string `json:"owner_id"`
}

// GetScheduleRequest identifies a loan whose schedule is returned.
type GetScheduleRequest struct {
	OwnerID string `json:"owner_id"`
	LoanID  string `json:"loan_id"`
}

// DeleteLoanRequest identifies a loan to remove.
type DeleteLoanRequest struct {
	OwnerID string `json:"owner_id"`
	LoanID  string `json:"loan_id"`
}

// CalculateLoanRequest carries loan terms for a quote. Nothing is stored.
type CalculateLoanRequest struct {
	StartDate         time.Time       `json:"start_date"`
	Currency          string          `json:"currency,omitempty"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	IncludeSchedule   bool            `json:"include_schedule"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// LoanResponse is the external representation of a loan and its reconciled
// state. Amounts are rounded to the loan currency's minor unit.
type LoanResponse struct {
	StartDate               time.Time         `json:"start_date"`
	CreatedAt               time.Time         `json:"created_at"`
	NextDueDate             *time.Time        `json:"next_due_date"`
	ID                      string            `json:"id"`
	OwnerID                 string            `json:"owner_id"`
	Name                    string            `json:"name"`
	Currency                string            `json:"currency"`
	Principal               decimal.Decimal   `json:"principal"`
	AnnualRatePercent       decimal.Decimal   `json:"annual_rate_percent"`
	MonthlyPayment          decimal.Decimal   `json:"monthly_payment"`
	TotalPaid               decimal.Decimal   `json:"total_paid"`
	CurrentPrincipalBalance decimal.Decimal   `json:"current_principal_balance"`
	TotalInterestPaid       decimal.Decimal   `json:"total_interest_paid"`
	TotalPrincipalPaid      decimal.Decimal   `json:"total_principal_paid"`
	NextPaymentAmount       decimal.Decimal   `json:"next_payment_amount"`
	NextPaymentPrincipal    decimal.Decimal   `json:"next_payment_principal"`
	NextPaymentInterest     decimal.Decimal   `json:"next_payment_interest"`
	ProgressPercentage      decimal.Decimal   `json:"progress_percentage"`
	Payments                []PaymentResponse `json:"payments,omitempty"`
	TermMonths              int               `json:"term_months"`
	IgnoredPayments         int               `json:"ignored_payments"`
	IsCompleted             bool              `json:"is_completed"`
	Degraded                bool              `json:"degraded"`
}

// PaymentResponse is the external representation of a recorded payment.
type PaymentResponse struct {
	PaymentDate time.Time       `json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
	ID          string          `json:"id"`
	LoanID      string          `json:"loan_id"`
	Note        string          `json:"note,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// RecordPaymentResponse returns the payment and the loan state after it.
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Loan    LoanResponse    `json:"loan"`
}

// CurrencySummary totals the owner's loans in a single currency.
type CurrencySummary struct {
	Currency           string          `json:"currency"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	MonthlyObligations decimal.Decimal `json:"monthly_obligations"`
	ActiveLoans        int             `json:"active_loans"`
	CompletedLoans     int             `json:"completed_loans"`
}

// ListLoansResponse lists an owner's loans with per-currency totals.
type ListLoansResponse struct {
	Loans   []LoanResponse    `json:"loans"`
	Summary []CurrencySummary `json:"summary"`
}

// ScheduleEntryResponse is one period of a theoretical schedule.
type ScheduleEntryResponse struct {
	DueDate               time.Time       `json:"due_date"`
	MonthlyPayment        decimal.Decimal `json:"monthly_payment"`
	PrincipalPortion      decimal.Decimal `json:"principal_portion"`
	InterestPortion       decimal.Decimal `json:"interest_portion"`
	RemainingBalanceAfter decimal.Decimal `json:"remaining_balance_after"`
	PaymentNumber         int             `json:"payment_number"`
}

// ScheduleResponse is the theoretical schedule of a stored loan.
type ScheduleResponse struct {
	LoanID   string                  `json:"loan_id"`
	Currency string                  `json:"currency"`
	Entries  []ScheduleEntryResponse `json:"entries"`
}

// CalculateLoanResponse is a loan quote.
type CalculateLoanResponse struct {
	Currency       string                  `json:"currency"`
	MonthlyPayment decimal.Decimal         `json:"monthly_payment"`
	TotalPayment   decimal.Decimal         `json:"total_payment"`
	TotalInterest  decimal.Decimal         `json:"total_interest"`
	Schedule       []ScheduleEntryResponse `json:"schedule,omitempty"`
}

// DeleteLoanResponse confirms a deletion.
type DeleteLoanResponse struct {
	LoanID  string `json:"loan_id"`
	Deleted bool   `json:"deleted"`
}
