package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/port"
	"github.com/bibbank/fintrack/internal/domain/service"
)

// ListLoansUseCase lists an owner's loans with their reconciled state.
type ListLoansUseCase struct {
	loanRepo port.LoanRepository
	builder  *service.LoanAggregateBuilder
}

// NewListLoansUseCase wires dependencies.
func NewListLoansUseCase(loanRepo port.LoanRepository, builder *service.LoanAggregateBuilder) *ListLoansUseCase {
	return &ListLoansUseCase{
		loanRepo: loanRepo,
		builder:  builder,
	}
}

// Execute lists loans in repository order. A loan whose payment history
// cannot be loaded is returned degraded rather than failing the list.
func (uc *ListLoansUseCase) Execute(ctx context.Context, req dto.ListLoansRequest) (resp dto.ListLoansResponse, err error) {
	ctx, span := startSpan(ctx, "ListLoans", attribute.String("owner.id", req.OwnerID))
	defer func() { endSpan(span, err) }()

	if req.OwnerID == "" {
		return dto.ListLoansResponse{}, fmt.Errorf("%w: owner ID is required", model.ErrInvalidArgument)
	}

	loans, err := uc.loanRepo.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return dto.ListLoansResponse{}, fmt.Errorf("list loans: %w", err)
	}

	aggs := uc.builder.BuildAll(ctx, loans)
	span.SetAttributes(attribute.Int("loan.count", len(aggs)))

	resp.Loans = make([]dto.LoanResponse, 0, len(aggs))
	for _, agg := range aggs {
		resp.Loans = append(resp.Loans, toLoanResponse(agg, false))
	}
	resp.Summary = summarize(aggs)

	return resp, nil
}
