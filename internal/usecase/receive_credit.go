package usecase

import (
	"context"
	"fmt"
	"time"

	"crossbank/internal/domain"
)

// ReceiveCredit applies an inbound cross-bank transfer to the local
// destination account. The counterpart has already debited its side; the
// request reaching this point means it was authenticated as the authority.
type ReceiveCredit struct {
	Accounts AccountSource
	Ledger   Ledger
	Now      func() time.Time
}

func (uc *ReceiveCredit) Execute(ctx context.Context, order domain.TransferOrder) error {
	if err := validateOrder(order); err != nil {
		return err
	}

	account, err := uc.Accounts.GetByUniqueID(ctx, order.DestinationAccountID)
	if err != nil {
		return fmt.Errorf("destination account: %w", err)
	}

	now := time.Now().UTC()
	if uc.Now != nil {
		now = uc.Now()
	}
	credit := domain.TransferLeg{
		AccountID:     account.ID,
		Amount:        order.Amount,
		Source:        order.Source,
		SenderName:    order.SenderName,
		RecipientName: order.RecipientName,
		Description:   order.Description,
		Timestamp:     now,
	}
	if err := uc.Ledger.ApplySingle(ctx, credit); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
