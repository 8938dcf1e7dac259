package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/port"
)

// GetScheduleUseCase returns the theoretical schedule of a stored loan.
type GetScheduleUseCase struct {
	loanRepo port.LoanRepository
}

// NewGetScheduleUseCase wires dependencies.
func NewGetScheduleUseCase(loanRepo port.LoanRepository) *GetScheduleUseCase {
	return &GetScheduleUseCase{loanRepo: loanRepo}
}

// Execute builds the schedule from the loan's stored terms.
func (uc *GetScheduleUseCase) Execute(ctx context.Context, req dto.GetScheduleRequest) (resp dto.ScheduleResponse, err error) {
	ctx, span := startSpan(ctx, "GetSchedule", attribute.String("loan.id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOwnerAndLoan(req.OwnerID, req.LoanID); err != nil {
		return dto.ScheduleResponse{}, err
	}

	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("find loan: %w", err)
	}

	entries, err := loan.Schedule()
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("build schedule: %w", err)
	}

	return dto.ScheduleResponse{
		LoanID:   loan.ID(),
		Currency: loan.Currency().Code(),
		Entries:  toScheduleEntries(entries, loan.Currency()),
	}, nil
}
