package usecase

import (
	"context"
	"fmt"

	"crossbank/internal/domain"
)

// ReceiveTransaction is the clearing authority's half of a cross-bank
// transfer: the request has already been authenticated; this validates the
// order, consults the acceptance policy and routes the order to the
// destination bank.
type ReceiveTransaction struct {
	Banks   BankDirectory
	Policy  PolicyEngine // nil: accept every authenticated order
	Forward TransferForwarder
}

func (uc *ReceiveTransaction) Execute(ctx context.Context, from domain.SignerIdentity, order domain.TransferOrder) error {
	if err := validateOrder(order); err != nil {
		return err
	}

	if uc.Policy != nil {
		eval, err := uc.Policy.Evaluate(ctx, domain.PolicyInput{Bank: from, Order: order})
		if err != nil {
			return fmt.Errorf("policy evaluation: %w", err)
		}
		if !eval.Result.Allow {
			if len(eval.Result.Deny) > 0 {
				return fmt.Errorf("%w: %s", domain.ErrPolicyDenied, eval.Result.Deny[0].Code)
			}
			return domain.ErrPolicyDenied
		}
	}

	bank, err := uc.Banks.GetByIdentity(ctx, order.DestinationBankName, order.DestinationBankCode)
	if err != nil {
		return fmt.Errorf("destination bank: %w", err)
	}

	if err := uc.Forward.Forward(ctx, *bank, order); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteRejected, err)
	}
	return nil
}

func validateOrder(order domain.TransferOrder) error {
	if !order.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrMalformedPayload)
	}
	if order.DestinationBankName == "" || order.DestinationBankCode == "" {
		return fmt.Errorf("%w: destination bank is required", domain.ErrMalformedPayload)
	}
	if order.DestinationAccountID == "" {
		return fmt.Errorf("%w: destination account is required", domain.ErrMalformedPayload)
	}
	return nil
}
