package usecase

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
)

// returnURLPlaceholder marks where the encoded payment result goes in the
// merchant's return URL template.
const returnURLPlaceholder = "{data}"

// TransferExecutor is the cross-bank transfer entry point the payment flow
// commits through.
type TransferExecutor interface {
	Execute(ctx context.Context, req domain.GlobalTransferRequest) (domain.GlobalTransferResult, error)
}

// PaymentFlow is the bank-side half of the payment hand-off: it accepts the
// authority-issued payment data from the customer redirect, parks it in a
// single-use session for the confirmation page, and on commit executes the
// transfer and countersigns the proof for the merchant.
type PaymentFlow struct {
	AuthorityPub *rsa.PublicKey
	BankKey      *rsa.PrivateKey
	Sessions     SessionStore
	Transfer     TransferExecutor
}

// PaymentView is what the confirmation page renders. Hash is the content hash
// the browser must present back on commit.
type PaymentView struct {
	Amount        string
	Description   string
	RecipientName string
	BankName      string
	BankCode      string
	Hash          string
}

// CommitOutcome is the terminal result of one payment session. RedirectURL is
// always populated; the merchant learns success or failure from the signed
// confirmation it carries.
type CommitOutcome struct {
	Succeeded   bool
	RedirectURL string
}

// Begin decodes and verifies the redirect payload and opens a session for it.
// Every verification failure collapses to ErrSignatureInvalid or
// ErrMalformedPayload; the customer-facing page shows neither detail.
func (uc *PaymentFlow) Begin(ctx context.Context, encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: payment data is not base64url", domain.ErrMalformedPayload)
	}
	data, _, err := uc.verifyData(raw)
	if err != nil {
		return "", err
	}
	if _, err := parsePaymentInfo(data.PaymentInfo); err != nil {
		return "", err
	}
	if !strings.Contains(data.ReturnURL, returnURLPlaceholder) {
		return "", fmt.Errorf("%w: return url lacks %s placeholder", domain.ErrMalformedPayload, returnURLPlaceholder)
	}

	token, _, err := uc.Sessions.Create(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("open payment session: %w", err)
	}
	return token, nil
}

// Show re-verifies the parked payload and builds the confirmation view. The
// session stays live; only Commit consumes it.
func (uc *PaymentFlow) Show(ctx context.Context, token string) (*PaymentView, error) {
	raw, hash, err := uc.Sessions.Peek(ctx, token)
	if err != nil {
		return nil, err
	}
	data, _, err := uc.verifyData(raw)
	if err != nil {
		return nil, err
	}
	info, err := parsePaymentInfo(data.PaymentInfo)
	if err != nil {
		return nil, err
	}
	return &PaymentView{
		Amount:        info.Amount.String(),
		Description:   info.Description,
		RecipientName: info.RecipientName,
		BankName:      info.DestinationBankName,
		BankCode:      info.DestinationBankCode,
		Hash:          hash,
	}, nil
}

// Commit consumes the session, runs the transfer and produces the signed
// result redirect. A replayed commit fails on the session, never on a second
// transfer.
func (uc *PaymentFlow) Commit(ctx context.Context, token, claimedHash, sourceAccountID string) (*CommitOutcome, error) {
	raw, err := uc.Sessions.Commit(ctx, token, claimedHash)
	if err != nil {
		return nil, err
	}
	data, _, err := uc.verifyData(raw)
	if err != nil {
		return nil, err
	}
	info, err := parsePaymentInfo(data.PaymentInfo)
	if err != nil {
		return nil, err
	}

	result, execErr := uc.Transfer.Execute(ctx, domain.GlobalTransferRequest{
		SourceAccountID:        sourceAccountID,
		Amount:                 info.Amount,
		Description:            info.Description,
		DestinationBankName:    info.DestinationBankName,
		DestinationBankCountry: info.DestinationBankCountry,
		DestinationBankCode:    info.DestinationBankCode,
		DestinationAccountID:   info.DestinationAccountID,
		RecipientName:          info.RecipientName,
	})
	succeeded := execErr == nil && result == domain.TransferSucceeded

	redirect, err := uc.buildRedirect(*data, succeeded)
	if err != nil {
		return nil, err
	}
	outcome := &CommitOutcome{Succeeded: succeeded, RedirectURL: redirect}
	if !succeeded {
		return outcome, execErr
	}
	return outcome, nil
}

func (uc *PaymentFlow) buildRedirect(data domain.PaymentData, succeeded bool) (string, error) {
	proofSig, err := crypto.SignBytes([]byte(data.PaymentProof), uc.BankKey)
	if err != nil {
		return "", fmt.Errorf("sign payment proof: %w", err)
	}
	confirmation := domain.PaymentConfirmation{
		Success:               succeeded,
		PaymentProofSignature: base64.StdEncoding.EncodeToString(proofSig),
	}
	confJSON, err := json.Marshal(confirmation)
	if err != nil {
		return "", fmt.Errorf("encode confirmation: %w", err)
	}
	confSig, err := crypto.SignBytes(confJSON, uc.BankKey)
	if err != nil {
		return "", fmt.Errorf("sign confirmation: %w", err)
	}

	result := domain.PaymentResult{
		PaymentInfo:                  data.PaymentInfo,
		PaymentInfoSignature:         data.PaymentInfoSignature,
		PaymentProof:                 data.PaymentProof,
		PaymentProofSignature:        data.PaymentProofSignature,
		PaymentConfirmation:          string(confJSON),
		PaymentConfirmationSignature: base64.StdEncoding.EncodeToString(confSig),
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode payment result: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(resultJSON)
	return strings.Replace(data.ReturnURL, returnURLPlaceholder, encoded, 1), nil
}

// verifyData checks both authority signatures and the proof's binding to the
// payment-info bytes. It returns the parsed envelope and the decoded proof.
func (uc *PaymentFlow) verifyData(raw []byte) (*domain.PaymentData, *domain.PaymentProof, error) {
	var data domain.PaymentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if data.PaymentInfo == "" || data.PaymentProof == "" || data.ReturnURL == "" {
		return nil, nil, fmt.Errorf("%w: incomplete payment data", domain.ErrMalformedPayload)
	}

	infoSig, err := base64.StdEncoding.DecodeString(data.PaymentInfoSignature)
	if err != nil {
		return nil, nil, domain.ErrSignatureInvalid
	}
	if !crypto.VerifyBytes([]byte(data.PaymentInfo), infoSig, uc.AuthorityPub) {
		return nil, nil, domain.ErrSignatureInvalid
	}
	proofSig, err := base64.StdEncoding.DecodeString(data.PaymentProofSignature)
	if err != nil {
		return nil, nil, domain.ErrSignatureInvalid
	}
	if !crypto.VerifyBytes([]byte(data.PaymentProof), proofSig, uc.AuthorityPub) {
		return nil, nil, domain.ErrSignatureInvalid
	}

	var proof domain.PaymentProof
	if err := json.Unmarshal([]byte(data.PaymentProof), &proof); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if proof.PaymentInfoHash != crypto.HashHex([]byte(data.PaymentInfo)) {
		return nil, nil, domain.ErrSignatureInvalid
	}
	return &data, &proof, nil
}

func parsePaymentInfo(raw string) (*domain.PaymentInfo, error) {
	var info domain.PaymentInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}
