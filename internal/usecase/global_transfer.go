package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"crossbank/internal/domain"
)

// GlobalTransferCoordinator drives a cross-bank transfer through its states:
// validate locally, await remote confirmation, commit the local debit leg.
// A result is terminal and reported exactly once per request.
type GlobalTransferCoordinator struct {
	Accounts AccountSource
	Ledger   Ledger
	Remote   RemoteAuthority
	Now      func() time.Time
}

func (uc *GlobalTransferCoordinator) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (uc *GlobalTransferCoordinator) Execute(ctx context.Context, req domain.GlobalTransferRequest) (domain.GlobalTransferResult, error) {
	// Validating: nothing remote is contacted until the local checks pass.
	if !req.Amount.IsPositive() {
		return domain.TransferFailed, fmt.Errorf("%w: amount must be positive", domain.ErrMalformedPayload)
	}
	account, err := uc.Accounts.GetByID(ctx, req.SourceAccountID)
	if err != nil {
		return domain.TransferFailed, fmt.Errorf("source account: %w", err)
	}
	if account.Balance.LessThan(req.Amount) {
		return domain.TransferInsufficientFunds, domain.ErrInsufficientFunds
	}

	order := domain.TransferOrder{
		Amount:                 req.Amount,
		Description:            req.Description,
		DestinationBankName:    req.DestinationBankName,
		DestinationBankCountry: req.DestinationBankCountry,
		DestinationBankCode:    req.DestinationBankCode,
		DestinationAccountID:   req.DestinationAccountID,
		SenderName:             account.UserFullName,
		RecipientName:          req.RecipientName,
		Source:                 account.UniqueID,
	}

	// AwaitingRemoteConfirmation.
	if err := uc.Remote.SendTransferOrder(ctx, order); err != nil {
		return domain.TransferFailed, fmt.Errorf("%w: %v", domain.ErrRemoteRejected, err)
	}

	// Committing: the ledger re-checks the balance under the account lock, so
	// a concurrent debit since validation cannot push the balance negative.
	debit := domain.TransferLeg{
		AccountID:     account.ID,
		Amount:        req.Amount.Neg(),
		Source:        account.UniqueID,
		SenderName:    account.UserFullName,
		RecipientName: req.RecipientName,
		Description:   req.Description,
		Timestamp:     uc.now(),
	}
	if err := uc.Ledger.ApplySingle(ctx, debit); err != nil {
		// The remote side has already committed its half. This must reach an
		// operator, not just the caller.
		log.Printf("RECONCILIATION GAP: remote leg committed, local debit failed: account=%s amount=%s dest=%s/%s err=%v",
			account.UniqueID, req.Amount.String(), req.DestinationBankCode, req.DestinationAccountID, err)
		return domain.TransferFailed, fmt.Errorf("%w: %v", domain.ErrReconciliationGap, err)
	}

	return domain.TransferSucceeded, nil
}
