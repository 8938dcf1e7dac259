package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/application/usecase"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/pkg/auth"
)

// LoanHandler implements LoanServiceServer on top of the application use
// cases. The owner of every loan is the authenticated user.
type LoanHandler struct {
	UnimplementedLoanServiceServer

	createLoan    *usecase.CreateLoanUseCase
	recordPayment *usecase.RecordPaymentUseCase
	getLoan       *usecase.GetLoanUseCase
	listLoans     *usecase.ListLoansUseCase
	getSchedule   *usecase.GetScheduleUseCase
	deleteLoan    *usecase.DeleteLoanUseCase
	calculateLoan *usecase.CalculateLoanUseCase
	logger        *slog.Logger
}

// UseCases groups the use cases served by LoanHandler.
type UseCases struct {
	CreateLoan    *usecase.CreateLoanUseCase
	RecordPayment *usecase.RecordPaymentUseCase
	GetLoan       *usecase.GetLoanUseCase
	ListLoans     *usecase.ListLoansUseCase
	GetSchedule   *usecase.GetScheduleUseCase
	DeleteLoan    *usecase.DeleteLoanUseCase
	CalculateLoan *usecase.CalculateLoanUseCase
}

// NewLoanHandler creates a new handler with all use-case dependencies.
func NewLoanHandler(uc UseCases, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		createLoan:    uc.CreateLoan,
		recordPayment: uc.RecordPayment,
		getLoan:       uc.GetLoan,
		listLoans:     uc.ListLoans,
		getSchedule:   uc.GetSchedule,
		deleteLoan:    uc.DeleteLoan,
		calculateLoan: uc.CalculateLoan,
		logger:        logger,
	}
}

// CreateLoan handles the gRPC CreateLoan request.
func (h *LoanHandler) CreateLoan(ctx context.Context, req *CreateLoanRequest) (*LoanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	principal, err := parseDecimal("principal", req.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := parseDecimal("annual_rate_percent", req.AnnualRatePercent)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}

	resp, err := h.createLoan.Execute(ctx, dto.CreateLoanRequest{
		OwnerID:           ownerID,
		Name:              req.Name,
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        req.TermMonths,
		StartDate:         start,
		Currency:          req.Currency,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "CreateLoan", err)
	}
	return &LoanResponse{Loan: resp}, nil
}

// RecordPayment handles the gRPC RecordPayment request.
func (h *LoanHandler) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*RecordPaymentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}

	resp, err := h.recordPayment.Execute(ctx, dto.RecordPaymentRequest{
		OwnerID:     ownerID,
		LoanID:      req.LoanID,
		Amount:      amount,
		PaymentDate: date,
		Note:        req.Note,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "RecordPayment", err)
	}
	return &resp, nil
}

// GetLoan handles the gRPC GetLoan request.
func (h *LoanHandler) GetLoan(ctx context.Context, req *GetLoanRequest) (*LoanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.getLoan.Execute(ctx, dto.GetLoanRequest{OwnerID: ownerID, LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "GetLoan", err)
	}
	return &LoanResponse{Loan: resp}, nil
}

// ListLoans handles the gRPC ListLoans request.
func (h *LoanHandler) ListLoans(ctx context.Context, _ *ListLoansRequest) (*ListLoansResponse, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.listLoans.Execute(ctx, dto.ListLoansRequest{OwnerID: ownerID})
	if err != nil {
		return nil, h.toStatus(ctx, "ListLoans", err)
	}
	return &resp, nil
}

// GetSchedule handles the gRPC GetSchedule request.
func (h *LoanHandler) GetSchedule(ctx context.Context, req *GetScheduleRequest) (*GetScheduleResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.getSchedule.Execute(ctx, dto.GetScheduleRequest{OwnerID: ownerID, LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "GetSchedule", err)
	}
	return &resp, nil
}

// DeleteLoan handles the gRPC DeleteLoan request.
func (h *LoanHandler) DeleteLoan(ctx context.Context, req *DeleteLoanRequest) (*DeleteLoanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.deleteLoan.Execute(ctx, dto.DeleteLoanRequest{OwnerID: ownerID, LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "DeleteLoan", err)
	}
	return &resp, nil
}

// CalculateLoan handles the gRPC CalculateLoan request. It needs no stored
// state, only an authenticated caller.
func (h *LoanHandler) CalculateLoan(ctx context.Context, req *CalculateLoanRequest) (*CalculateLoanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	principal, err := parseDecimal("principal", req.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := parseDecimal("annual_rate_percent", req.AnnualRatePercent)
	if err != nil {
		return nil, err
	}
	var start time.Time
	if req.StartDate != "" {
		if start, err = parseDate("start_date", req.StartDate); err != nil {
			return nil, err
		}
	}

	resp, err := h.calculateLoan.Execute(ctx, dto.CalculateLoanRequest{
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        req.TermMonths,
		StartDate:         start,
		Currency:          req.Currency,
		IncludeSchedule:   req.IncludeSchedule,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "CalculateLoan", err)
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func ownerFromContext(ctx context.Context) (string, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "authenticated user required")
	}
	return userID.String(), nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: %q", field, s))
	}
	return d, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: expected YYYY-MM-DD, got %q", field, s))
	}
	return t, nil
}

// toStatus maps application errors to gRPC status codes. Internal errors are
// logged and their details withheld from the caller.
func (h *LoanHandler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrLoanNotFound):
		return status.Error(codes.NotFound, "loan not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.ErrorContext(ctx, "request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
