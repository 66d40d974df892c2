package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crossbank/internal/domain"

	"github.com/shopspring/decimal"
)

type InternalTransferRequest struct {
	SourceAccountID      string
	DestinationAccountID string // unique id of the destination account
	Amount               decimal.Decimal
	Description          string
}

// InternalTransfer moves money between two accounts of the same bank as one
// debit/credit pair, both persisted or neither.
type InternalTransfer struct {
	Accounts AccountSource
	Ledger   Ledger
	Now      func() time.Time
}

func (uc *InternalTransfer) Execute(ctx context.Context, req InternalTransferRequest) error {
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrMalformedPayload)
	}

	source, err := uc.Accounts.GetByID(ctx, req.SourceAccountID)
	if err != nil {
		return fmt.Errorf("source account: %w", err)
	}
	if strings.EqualFold(source.UniqueID, req.DestinationAccountID) {
		return fmt.Errorf("%w: source and destination are the same account", domain.ErrMalformedPayload)
	}
	if source.Balance.LessThan(req.Amount) {
		return domain.ErrInsufficientFunds
	}

	destination, err := uc.Accounts.GetByUniqueID(ctx, req.DestinationAccountID)
	if err != nil {
		return fmt.Errorf("destination account: %w", err)
	}
	// Internal transfers move money between a customer's own accounts.
	if destination.UserFullName != source.UserFullName {
		return fmt.Errorf("destination account: %w", domain.ErrNotFound)
	}

	now := time.Now().UTC()
	if uc.Now != nil {
		now = uc.Now()
	}
	debit := domain.TransferLeg{
		AccountID:     source.ID,
		Amount:        req.Amount.Neg(),
		Source:        source.UniqueID,
		SenderName:    source.UserFullName,
		RecipientName: destination.UserFullName,
		Description:   req.Description,
		Timestamp:     now,
	}
	credit := domain.TransferLeg{
		AccountID:     destination.ID,
		Amount:        req.Amount,
		Source:        source.UniqueID,
		SenderName:    source.UserFullName,
		RecipientName: destination.UserFullName,
		Description:   req.Description,
		Timestamp:     now,
	}

	if err := uc.Ledger.ApplyPair(ctx, debit, credit); err != nil {
		return fmt.Errorf("apply transfer pair: %w", err)
	}
	return nil
}
