package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentInfo is the merchant-authored description of a one-off payment. It
// travels as an exact JSON string inside PaymentData and PaymentResult so the
// signatures over it stay verifiable byte for byte. Fields beyond the known
// set (for example an order identifier) are preserved in Custom and handed
// back to the merchant on completion.
type PaymentInfo struct {
	Amount                 decimal.Decimal
	Description            string
	DestinationBankName    string
	DestinationBankCountry string
	DestinationBankCode    string
	DestinationAccountID   string
	RecipientName          string

	Custom map[string]any
}

var paymentInfoKnownFields = map[string]bool{
	"amount":                   true,
	"description":              true,
	"destination_bank_name":    true,
	"destination_bank_country": true,
	"destination_bank_code":    true,
	"destination_account_id":   true,
	"recipient_name":           true,
}

func (p *PaymentInfo) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("payment info: %w", err)
	}

	stringField := func(key string) (string, error) {
		v, ok := raw[key]
		if !ok || v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("payment info: field %q is not a string", key)
		}
		return s, nil
	}

	var err error
	if p.Description, err = stringField("description"); err != nil {
		return err
	}
	if p.DestinationBankName, err = stringField("destination_bank_name"); err != nil {
		return err
	}
	if p.DestinationBankCountry, err = stringField("destination_bank_country"); err != nil {
		return err
	}
	if p.DestinationBankCode, err = stringField("destination_bank_code"); err != nil {
		return err
	}
	if p.DestinationAccountID, err = stringField("destination_account_id"); err != nil {
		return err
	}
	if p.RecipientName, err = stringField("recipient_name"); err != nil {
		return err
	}

	switch amount := raw["amount"].(type) {
	case string:
		p.Amount, err = decimal.NewFromString(amount)
	case json.Number:
		p.Amount, err = decimal.NewFromString(amount.String())
	case nil:
		err = fmt.Errorf("payment info: amount is required")
	default:
		err = fmt.Errorf("payment info: amount has unsupported type %T", amount)
	}
	if err != nil {
		return err
	}

	p.Custom = nil
	for key, value := range raw {
		if paymentInfoKnownFields[key] {
			continue
		}
		if p.Custom == nil {
			p.Custom = make(map[string]any)
		}
		p.Custom[key] = value
	}
	return nil
}

func (p PaymentInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(paymentInfoKnownFields)+len(p.Custom))
	for key, value := range p.Custom {
		if paymentInfoKnownFields[key] {
			continue
		}
		out[key] = value
	}
	out["amount"] = p.Amount.String()
	out["description"] = p.Description
	out["destination_bank_name"] = p.DestinationBankName
	out["destination_bank_country"] = p.DestinationBankCountry
	out["destination_bank_code"] = p.DestinationBankCode
	out["destination_account_id"] = p.DestinationAccountID
	out["recipient_name"] = p.RecipientName
	return json.Marshal(out)
}

// Validate enforces the required shape once, at the boundary.
func (p PaymentInfo) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrMalformedPayload)
	}
	if p.DestinationBankName == "" || p.DestinationBankCode == "" {
		return fmt.Errorf("%w: destination bank is required", ErrMalformedPayload)
	}
	if p.DestinationAccountID == "" {
		return fmt.Errorf("%w: destination account is required", ErrMalformedPayload)
	}
	return nil
}

// PaymentRequest is what a merchant site sends to the clearing authority:
// the payment-info JSON, the site's proof-of-origin signature over those
// exact bytes, and the template the confirmation will be substituted into.
type PaymentRequest struct {
	PaymentInfo          string `json:"payment_info"`
	PaymentInfoSignature string `json:"payment_info_signature"`
	ReturnURL            string `json:"return_url"`
}

// PaymentProof binds a payment hand-off to one payment-info block and one
// merchant: the hash ties it to the content, the sealed copy (encrypted under
// the site key) ties it to the site that may open it.
type PaymentProof struct {
	PaymentInfoHash string `json:"payment_info_hash"`
	Sealed          string `json:"sealed"`
	IssuedAt        string `json:"issued_at"`
}

// PaymentData is the envelope the clearing authority embeds in the bank
// redirect. Both signatures are the authority's.
type PaymentData struct {
	PaymentInfo           string `json:"payment_info"`
	PaymentInfoSignature  string `json:"payment_info_signature"`
	PaymentProof          string `json:"payment_proof"`
	PaymentProofSignature string `json:"payment_proof_signature"`
	ReturnURL             string `json:"return_url"`
}

// PaymentConfirmation is the bank-signed completion marker.
type PaymentConfirmation struct {
	Success               bool   `json:"success"`
	PaymentProofSignature string `json:"payment_proof_signature"`
}

// PaymentResult is the payload the customer carries back to the merchant.
// The info and proof blocks (and their authority signatures) pass through
// unchanged from PaymentData.
type PaymentResult struct {
	PaymentInfo                  string `json:"payment_info"`
	PaymentInfoSignature         string `json:"payment_info_signature"`
	PaymentProof                 string `json:"payment_proof"`
	PaymentProofSignature        string `json:"payment_proof_signature"`
	PaymentConfirmation          string `json:"payment_confirmation"`
	PaymentConfirmationSignature string `json:"payment_confirmation_signature"`
}
