package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account on this node. Balance mutations must happen
// inside one atomic unit together with the balance check that allowed them.
type Account struct {
	ID           string
	UniqueID     string
	UserFullName string
	Balance      decimal.Decimal
	CreatedAt    time.Time
}

// TransferLeg is one signed-amount ledger entry. Negative amounts are debits,
// positive amounts credits. Two legs summing to zero form one internal
// transfer and must persist together or not at all.
type TransferLeg struct {
	ID            string
	AccountID     string
	Amount        decimal.Decimal
	Source        string
	SenderName    string
	RecipientName string
	Description   string
	Timestamp     time.Time
}

// TransferOrder is the wire payload of a cross-bank transfer request. The
// sender signs its canonical serialization; the receiver re-canonicalizes the
// parsed body before verifying.
type TransferOrder struct {
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
	DestinationBankName    string          `json:"destination_bank_name"`
	DestinationBankCountry string          `json:"destination_bank_country"`
	DestinationBankCode    string          `json:"destination_bank_code"`
	DestinationAccountID   string          `json:"destination_account_id"`
	SenderName             string          `json:"sender_name"`
	RecipientName          string          `json:"recipient_name"`
	Source                 string          `json:"source"`
}

type GlobalTransferRequest struct {
	SourceAccountID        string
	DestinationBankName    string
	DestinationBankCountry string
	DestinationBankCode    string
	DestinationAccountID   string
	RecipientName          string
	Amount                 decimal.Decimal
	Description            string
}

type GlobalTransferResult string

const (
	TransferSucceeded         GlobalTransferResult = "succeeded"
	TransferInsufficientFunds GlobalTransferResult = "insufficient_funds"
	TransferFailed            GlobalTransferResult = "failed"
)
