package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/port"
	"github.com/bibbank/fintrack/internal/domain/service"
)

// GetLoanUseCase retrieves a single loan with its reconciled state.
type GetLoanUseCase struct {
	loanRepo port.LoanRepository
	builder  *service.LoanAggregateBuilder
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(loanRepo port.LoanRepository, builder *service.LoanAggregateBuilder) *GetLoanUseCase {
	return &GetLoanUseCase{
		loanRepo: loanRepo,
		builder:  builder,
	}
}

// Execute retrieves the loan identified in the request.
func (uc *GetLoanUseCase) Execute(ctx context.Context, req dto.GetLoanRequest) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "GetLoan", attribute.String("loan.id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOwnerAndLoan(req.OwnerID, req.LoanID); err != nil {
		return dto.LoanResponse{}, err
	}

	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	agg := uc.builder.Build(ctx, loan)
	span.SetAttributes(attribute.Bool("loan.degraded", agg.Degraded))

	return toLoanResponse(agg, true), nil
}
