package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/port"
	"github.com/bibbank/fintrack/internal/domain/service"
)

// CreateLoanUseCase records a new loan for an owner.
type CreateLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	metrics   port.Metrics
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *CreateLoanUseCase {
	return &CreateLoanUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		metrics:   orNop(metrics),
	}
}

// Execute validates the terms, stores the loan and announces it.
func (uc *CreateLoanUseCase) Execute(ctx context.Context, req dto.CreateLoanRequest) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "CreateLoan",
		attribute.String("owner.id", req.OwnerID),
		attribute.String("loan.currency", req.Currency),
	)
	defer func() { endSpan(span, err) }()

	// 1. Build the aggregate; this computes the fixed monthly payment.
	loan, err := model.NewLoan(req.OwnerID, model.LoanTerms{
		Name:              req.Name,
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
		StartDate:         req.StartDate,
		Currency:          req.Currency,
	}, time.Now().UTC())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}

	// 2. Persist.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 3. Publish events.
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.LoanCreated(ctx, loan.Currency().Code())
	span.SetAttributes(attribute.String("loan.id", loan.ID()))

	return toLoanResponse(service.Assemble(loan.ClearEvents(), nil), false), nil
}

func orNop(m port.Metrics) port.Metrics {
	if m == nil {
		return port.NopMetrics{}
	}
	return m
}
