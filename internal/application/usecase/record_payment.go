package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/domain/model"
	"github.com/bibbank/fintrack/internal/domain/port"
	"github.com/bibbank/fintrack/internal/domain/service"
)

// RecordPaymentUseCase adds a payment to a loan's history.
type RecordPaymentUseCase struct {
	loanRepo    port.LoanRepository
	paymentRepo port.PaymentRepository
	publisher   port.EventPublisher
	metrics     port.Metrics
}

// NewRecordPaymentUseCase wires dependencies.
func NewRecordPaymentUseCase(
	loanRepo port.LoanRepository,
	paymentRepo port.PaymentRepository,
	publisher port.EventPublisher,
	metrics port.Metrics,
) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		metrics:     orNop(metrics),
	}
}

// Execute stores the payment and publishes PaymentRecorded. If the payment
// brings the balance to zero LoanPaidOff is published as well. Repeating a
// request with the same PaymentID stores nothing new and publishes the
// events again, so a caller may retry after a failed publish.
func (uc *RecordPaymentUseCase) Execute(ctx context.Context, req dto.RecordPaymentRequest) (resp dto.RecordPaymentResponse, err error) {
	ctx, span := startSpan(ctx, "RecordPayment",
		attribute.String("owner.id", req.OwnerID),
		attribute.String("loan.id", req.LoanID),
	)
	defer func() { endSpan(span, err) }()

	if err := requireOwnerAndLoan(req.OwnerID, req.LoanID); err != nil {
		return dto.RecordPaymentResponse{}, err
	}

	// 1. Retrieve the loan and its history.
	loan, err := uc.loanRepo.FindByID(ctx, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}
	history, err := uc.paymentRepo.ListByLoanID(ctx, loan.ID())
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("list payments: %w", err)
	}

	// 2. Validate the payment, or pick up the stored one when the request
	// repeats a payment ID that was already saved.
	payment, prior, replayed, err := resolvePayment(loan, history, req)
	if err != nil {
		return dto.RecordPaymentResponse{}, err
	}

	// 3. Persist.
	full := history
	if !replayed {
		if err := uc.paymentRepo.Save(ctx, payment); err != nil {
			return dto.RecordPaymentResponse{}, fmt.Errorf("save payment: %w", err)
		}
		full = append(history[:len(history):len(history)], payment)
	}

	// 4. Reconcile before and after to detect payoff.
	before := service.Assemble(loan, prior)
	after := service.Assemble(loan, full)

	cur := loan.Currency().Code()
	events := []event.DomainEvent{
		event.NewPaymentRecorded(
			loan.ID(), loan.OwnerID(), payment.ID(),
			payment.Amount(), cur, payment.PaymentDate(),
			after.CurrentPrincipalBalance,
		),
	}
	paidOff := after.IsCompleted && !before.IsCompleted
	if paidOff {
		events = append(events, event.NewLoanPaidOff(
			loan.ID(), loan.OwnerID(),
			after.TotalPaid, after.TotalInterestPaidActual,
		))
	}

	// 5. Publish events.
	if err := uc.publisher.Publish(ctx, events...); err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("publish events: %w", err)
	}

	uc.metrics.PaymentRecorded(ctx, cur)
	if paidOff {
		uc.metrics.LoanPaidOff(ctx, cur)
	}
	span.SetAttributes(
		attribute.Bool("loan.paid_off", after.IsCompleted),
		attribute.Bool("payment.replayed", replayed),
	)

	return dto.RecordPaymentResponse{
		Payment: toPaymentResponse(payment),
		Loan:    toLoanResponse(after, false),
	}, nil
}

// resolvePayment returns the payment to record and the history without it.
// A request whose PaymentID is already in history is a replay and must match
// the stored payment.
func resolvePayment(
	loan model.Loan,
	history []model.Payment,
	req dto.RecordPaymentRequest,
) (payment model.Payment, prior []model.Payment, replayed bool, err error) {
	if req.PaymentID == "" {
		payment, err = loan.NewPayment(req.Amount, req.PaymentDate, req.Note, time.Now().UTC())
		if err != nil {
			return model.Payment{}, nil, false, fmt.Errorf("create payment: %w", err)
		}
		return payment, history, false, nil
	}

	i := slices.IndexFunc(history, func(p model.Payment) bool { return p.ID() == req.PaymentID })
	if i < 0 {
		payment, err = loan.NewPaymentWithID(req.PaymentID, req.Amount, req.PaymentDate, req.Note, time.Now().UTC())
		if err != nil {
			return model.Payment{}, nil, false, fmt.Errorf("create payment: %w", err)
		}
		return payment, history, false, nil
	}

	stored := history[i]
	if !stored.Amount().Equal(req.Amount) || !stored.PaymentDate().Equal(req.PaymentDate) {
		return model.Payment{}, nil, false, fmt.Errorf(
			"%w: payment %s was already recorded with amount %s on %s",
			model.ErrInvalidArgument, stored.ID(), stored.Amount(), stored.PaymentDate().Format(time.DateOnly),
		)
	}
	prior = slices.Delete(slices.Clone(history), i, i+1)
	return stored, prior, true, nil
}
