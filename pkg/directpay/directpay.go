// Package directpay is the merchant-side SDK for the direct payment flow:
// building the signed payment request for the clearing authority and
// verifying the signed result the customer brings back.
package directpay

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
)

// BuildRequest serializes info, signs the exact bytes with the site key and
// wraps both with the merchant's return URL. The URL must contain a {data}
// placeholder for the result the customer carries back.
func BuildRequest(info domain.PaymentInfo, siteKey *rsa.PrivateKey, returnURL string) (domain.PaymentRequest, error) {
	if err := info.Validate(); err != nil {
		return domain.PaymentRequest{}, err
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("encode payment info: %w", err)
	}
	sig, err := crypto.SignBytes(infoJSON, siteKey)
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("sign payment info: %w", err)
	}
	return domain.PaymentRequest{
		PaymentInfo:          string(infoJSON),
		PaymentInfoSignature: base64.StdEncoding.EncodeToString(sig),
		ReturnURL:            returnURL,
	}, nil
}

// VerifyOptions carries the counterpart keys a merchant holds: the authority
// key that vouched for the payment data and the bank key that confirmed the
// transfer. SiteKey opens the sealed proof the authority addressed to this
// site.
type VerifyOptions struct {
	AuthorityPub *rsa.PublicKey
	BankPub      *rsa.PublicKey
	SiteKey      *rsa.PrivateKey
}

// Result is a fully verified payment outcome.
type Result struct {
	Info    domain.PaymentInfo
	Success bool
}

// ParseResult decodes and verifies the result payload from the return URL.
// Every signature in the chain must hold: the authority's over the info and
// the proof, the bank's over the proof and the confirmation. A payment with
// Success false is a valid, verified outcome, not an error.
func ParseResult(encoded string, opts VerifyOptions) (Result, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Result{}, fmt.Errorf("%w: result is not base64url", domain.ErrMalformedPayload)
	}
	var res domain.PaymentResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if res.PaymentInfo == "" || res.PaymentProof == "" || res.PaymentConfirmation == "" {
		return Result{}, fmt.Errorf("%w: incomplete payment result", domain.ErrMalformedPayload)
	}

	if !verifyB64([]byte(res.PaymentInfo), res.PaymentInfoSignature, opts.AuthorityPub) {
		return Result{}, domain.ErrSignatureInvalid
	}
	if !verifyB64([]byte(res.PaymentProof), res.PaymentProofSignature, opts.AuthorityPub) {
		return Result{}, domain.ErrSignatureInvalid
	}
	if !verifyB64([]byte(res.PaymentConfirmation), res.PaymentConfirmationSignature, opts.BankPub) {
		return Result{}, domain.ErrSignatureInvalid
	}

	var confirmation domain.PaymentConfirmation
	if err := json.Unmarshal([]byte(res.PaymentConfirmation), &confirmation); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if !verifyB64([]byte(res.PaymentProof), confirmation.PaymentProofSignature, opts.BankPub) {
		return Result{}, domain.ErrSignatureInvalid
	}

	var proof domain.PaymentProof
	if err := json.Unmarshal([]byte(res.PaymentProof), &proof); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	infoHash := crypto.HashHex([]byte(res.PaymentInfo))
	if proof.PaymentInfoHash != infoHash {
		return Result{}, domain.ErrSignatureInvalid
	}

	if opts.SiteKey != nil {
		sealed, err := base64.StdEncoding.DecodeString(proof.Sealed)
		if err != nil {
			return Result{}, domain.ErrSignatureInvalid
		}
		opened, err := crypto.Open(sealed, opts.SiteKey)
		if err != nil || string(opened) != infoHash {
			return Result{}, domain.ErrSignatureInvalid
		}
	}

	var info domain.PaymentInfo
	if err := json.Unmarshal([]byte(res.PaymentInfo), &info); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return Result{Info: info, Success: confirmation.Success}, nil
}

func verifyB64(data []byte, sigB64 string, pub *rsa.PublicKey) bool {
	if pub == nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	return crypto.VerifyBytes(data, sig, pub)
}
