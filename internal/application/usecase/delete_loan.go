package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/port"
)

// DeleteLoanUseCase removes a loan and its payment history.
type DeleteLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
}

// NewDeleteLoanUseCase wires dependencies.
func NewDeleteLoanUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher) *DeleteLoanUseCase {
	return &DeleteLoanUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
	}
}

// Execute deletes the loan and publishes LoanDeleted.
func (uc *DeleteLoanUseCase) Execute(ctx context.Context, req dto.DeleteLoanRequest) (resp dto.DeleteLoanResponse, err error) {
	ctx, span := startSpan(ctx, "DeleteLoan", attribute.String("loan.id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOwnerAndLoan(req.OwnerID, req.LoanID); err != nil {
		return dto.DeleteLoanResponse{}, err
	}

	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.DeleteLoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	if err := uc.loanRepo.Delete(ctx, loan.OwnerID(), loan.ID()); err != nil {
		return dto.DeleteLoanResponse{}, fmt.Errorf("delete loan: %w", err)
	}

	if err := uc.publisher.Publish(ctx, loan.Delete().DomainEvents()...); err != nil {
		return dto.DeleteLoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return dto.DeleteLoanResponse{LoanID: loan.ID(), Deleted: true}, nil
}
