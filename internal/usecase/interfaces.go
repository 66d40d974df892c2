package usecase

import (
	"context"

	"crossbank/internal/domain"
)

// Ledger applies transfer legs with the all-or-nothing guarantee. It does not
// provide idempotence; callers guard duplicate submission with the payment
// session or an equivalent single-use mechanism.
type Ledger interface {
	ApplySingle(ctx context.Context, leg domain.TransferLeg) error
	ApplyPair(ctx context.Context, legA, legB domain.TransferLeg) error
}

type AccountSource interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Account, error)
}

type BankDirectory interface {
	GetByIdentity(ctx context.Context, name, code string) (*domain.Bank, error)
}

// RemoteAuthority sends a signed transfer order to the clearing authority and
// reports only success or rejection.
type RemoteAuthority interface {
	SendTransferOrder(ctx context.Context, order domain.TransferOrder) error
}

// TransferForwarder delivers an order to a destination bank (authority role).
type TransferForwarder interface {
	Forward(ctx context.Context, bank domain.Bank, order domain.TransferOrder) error
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}

// SessionStore mirrors session.Store so usecases stay decoupled from the
// infra package.
type SessionStore interface {
	Create(ctx context.Context, payload []byte) (token string, hash string, err error)
	Peek(ctx context.Context, token string) (payload []byte, hash string, err error)
	Commit(ctx context.Context, token, claimedHash string) ([]byte, error)
}
