package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/fintrack/internal/application/dto"
	"github.com/bibbank/fintrack/internal/domain/model"
	pkgkafka "github.com/bibbank/fintrack/pkg/kafka"
)

// PaymentImport is the wire format of an imported payment, for example one
// produced by a bank statement importer.
type PaymentImport struct {
	OwnerID     string          `json:"owner_id"`
	LoanID      string          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Note        string          `json:"note"`
	// ImportID identifies the payment at its source. Messages carrying the
	// same ImportID for an owner record one payment. Without it the message's
	// topic, partition and offset identify the payment.
	ImportID string `json:"import_id,omitempty"`
}

// importNamespace seeds the name-based UUIDs derived for imported payments.
var importNamespace = uuid.MustParse("b3f1c1de-6a0e-4b59-9d0c-2f4c8e7a5a31")

// ImportPaymentID returns the payment id an import is recorded under, or ""
// when the message carries neither an import id nor a position.
func ImportPaymentID(msg pkgkafka.Message, in PaymentImport) string {
	var name string
	switch {
	case in.ImportID != "":
		name = "import/" + in.OwnerID + "/" + in.ImportID
	case msg.Topic != "":
		name = fmt.Sprintf("offset/%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	default:
		return ""
	}
	return uuid.NewSHA1(importNamespace, []byte(name)).String()
}

// PaymentRecorder is satisfied by *usecase.RecordPaymentUseCase.
type PaymentRecorder interface {
	Execute(ctx context.Context, req dto.RecordPaymentRequest) (dto.RecordPaymentResponse, error)
}

// PaymentImportHandler turns imported payment messages into recorded
// payments.
type PaymentImportHandler struct {
	recorder PaymentRecorder
	logger   *slog.Logger
}

func NewPaymentImportHandler(recorder PaymentRecorder, logger *slog.Logger) *PaymentImportHandler {
	return &PaymentImportHandler{recorder: recorder, logger: logger}
}

// Handle records one imported payment. Malformed messages and payments for
// unknown loans are logged and dropped so they do not block the partition;
// any other failure is returned and the message is retried. Retries and
// redeliveries record the payment under the same id, so it is stored once.
func (h *PaymentImportHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	req, err := decodePaymentImport(msg)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping malformed payment import",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	resp, err := h.recorder.Execute(ctx, req)
	switch {
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, model.ErrLoanNotFound):
		h.logger.WarnContext(ctx, "rejected payment import",
			"loan_id", req.LoanID,
			"owner_id", req.OwnerID,
			"error", err,
		)
		return nil
	case err != nil:
		return fmt.Errorf("record imported payment: %w", err)
	}

	h.logger.InfoContext(ctx, "imported payment recorded",
		"loan_id", req.LoanID,
		"payment_id", resp.Payment.ID,
		"offset", msg.Offset,
		"balance", resp.Loan.CurrentPrincipalBalance.String(),
	)
	return nil
}

func decodePaymentImport(msg pkgkafka.Message) (dto.RecordPaymentRequest, error) {
	var in PaymentImport
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		return dto.RecordPaymentRequest{}, fmt.Errorf("decode payment import: %w", err)
	}
	if in.OwnerID == "" || in.LoanID == "" {
		return dto.RecordPaymentRequest{}, errors.New("owner_id and loan_id are required")
	}

	date, err := time.Parse(time.DateOnly, in.PaymentDate)
	if err != nil {
		return dto.RecordPaymentRequest{}, fmt.Errorf("parse payment_date: %w", err)
	}

	return dto.RecordPaymentRequest{
		OwnerID:     in.OwnerID,
		LoanID:      in.LoanID,
		Amount:      in.Amount,
		PaymentDate: date,
		Note:        in.Note,
		PaymentID:   ImportPaymentID(msg, in),
	}, nil
}
