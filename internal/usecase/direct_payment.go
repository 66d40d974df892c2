package usecase

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
)

// DirectPayment is the authority-side preparation of a merchant payment: it
// authenticates the merchant's payment-info block, wraps it in a signed proof
// and hands back the bank redirect the customer should follow.
type DirectPayment struct {
	SitePub      *rsa.PublicKey
	AuthorityKey *rsa.PrivateKey
	// PayURLTemplate is the bank payment page with a {data} placeholder,
	// e.g. https://bank.example/pay/{data}.
	PayURLTemplate string
	Now            func() time.Time
}

func (uc *DirectPayment) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

// Prepare validates the request, issues the proof and returns the redirect
// URL carrying the fully signed payment data.
func (uc *DirectPayment) Prepare(ctx context.Context, req domain.PaymentRequest) (string, error) {
	if req.PaymentInfo == "" || req.ReturnURL == "" {
		return "", fmt.Errorf("%w: payment info and return url are required", domain.ErrMalformedPayload)
	}
	if !strings.Contains(req.ReturnURL, returnURLPlaceholder) {
		return "", fmt.Errorf("%w: return url lacks %s placeholder", domain.ErrMalformedPayload, returnURLPlaceholder)
	}

	siteSig, err := base64.StdEncoding.DecodeString(req.PaymentInfoSignature)
	if err != nil {
		return "", domain.ErrSignatureInvalid
	}
	if !crypto.VerifyBytes([]byte(req.PaymentInfo), siteSig, uc.SitePub) {
		return "", domain.ErrSignatureInvalid
	}
	if _, err := parsePaymentInfo(req.PaymentInfo); err != nil {
		return "", err
	}

	infoHash := crypto.HashHex([]byte(req.PaymentInfo))
	sealed, err := crypto.Seal([]byte(infoHash), uc.SitePub)
	if err != nil {
		return "", fmt.Errorf("seal proof: %w", err)
	}
	proof := domain.PaymentProof{
		PaymentInfoHash: infoHash,
		Sealed:          base64.StdEncoding.EncodeToString(sealed),
		IssuedAt:        uc.now().Format(time.RFC3339),
	}
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("encode proof: %w", err)
	}

	infoSig, err := crypto.SignBytes([]byte(req.PaymentInfo), uc.AuthorityKey)
	if err != nil {
		return "", fmt.Errorf("sign payment info: %w", err)
	}
	proofSig, err := crypto.SignBytes(proofJSON, uc.AuthorityKey)
	if err != nil {
		return "", fmt.Errorf("sign proof: %w", err)
	}

	data := domain.PaymentData{
		PaymentInfo:           req.PaymentInfo,
		PaymentInfoSignature:  base64.StdEncoding.EncodeToString(infoSig),
		PaymentProof:          string(proofJSON),
		PaymentProofSignature: base64.StdEncoding.EncodeToString(proofSig),
		ReturnURL:             req.ReturnURL,
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode payment data: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(dataJSON)
	return strings.Replace(uc.PayURLTemplate, returnURLPlaceholder, encoded, 1), nil
}
