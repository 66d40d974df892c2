package directpay

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
	"crossbank/internal/usecase"

	"github.com/shopspring/decimal"
)

var (
	keysOnce     sync.Once
	authorityKey *rsa.PrivateKey
	bankKey      *rsa.PrivateKey
	siteKey      *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		if authorityKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if bankKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if siteKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
	})
	return authorityKey, bankKey, siteKey
}

func sampleInfo() domain.PaymentInfo {
	return domain.PaymentInfo{
		Amount:               decimal.RequireFromString("19.99"),
		Description:          "order 55",
		DestinationBankName:  "Other Bank",
		DestinationBankCode:  "OB-01",
		DestinationAccountID: "ACC-900",
		RecipientName:        "Acme Shop",
		Custom:               map[string]any{"order_id": "55"},
	}
}

// completedResult runs the whole counterpart chain: the merchant request, the
// authority preparation and a bank confirmation, returning the encoded result
// the customer would carry back.
func completedResult(t *testing.T, success bool) string {
	t.Helper()
	auth, bank, site := testKeys(t)

	req, err := BuildRequest(sampleInfo(), site, "https://merchant.example/done?d={data}")
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	dp := &usecase.DirectPayment{
		SitePub:        &site.PublicKey,
		AuthorityKey:   auth,
		PayURLTemplate: "https://bank.example/pay/{data}",
	}
	redirect, err := dp.Prepare(context.Background(), req)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(redirect, "https://bank.example/pay/"))
	if err != nil {
		t.Fatalf("decode payment data: %v", err)
	}
	var data domain.PaymentData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal payment data: %v", err)
	}

	proofSig, err := crypto.SignBytes([]byte(data.PaymentProof), bank)
	if err != nil {
		t.Fatalf("sign proof: %v", err)
	}
	confirmation, err := json.Marshal(domain.PaymentConfirmation{
		Success:               success,
		PaymentProofSignature: base64.StdEncoding.EncodeToString(proofSig),
	})
	if err != nil {
		t.Fatalf("encode confirmation: %v", err)
	}
	confSig, err := crypto.SignBytes(confirmation, bank)
	if err != nil {
		t.Fatalf("sign confirmation: %v", err)
	}

	result, err := json.Marshal(domain.PaymentResult{
		PaymentInfo:                  data.PaymentInfo,
		PaymentInfoSignature:         data.PaymentInfoSignature,
		PaymentProof:                 data.PaymentProof,
		PaymentProofSignature:        data.PaymentProofSignature,
		PaymentConfirmation:          string(confirmation),
		PaymentConfirmationSignature: base64.StdEncoding.EncodeToString(confSig),
	})
	if err != nil {
		t.Fatalf("encode result: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(result)
}

func verifyOpts(t *testing.T) VerifyOptions {
	t.Helper()
	auth, bank, site := testKeys(t)
	return VerifyOptions{
		AuthorityPub: &auth.PublicKey,
		BankPub:      &bank.PublicKey,
		SiteKey:      site,
	}
}

func TestBuildRequestSignsExactBytes(t *testing.T) {
	_, _, site := testKeys(t)
	req, err := BuildRequest(sampleInfo(), site, "https://merchant.example/done?d={data}")
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	sig, err := base64.StdEncoding.DecodeString(req.PaymentInfoSignature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if !crypto.VerifyBytes([]byte(req.PaymentInfo), sig, &site.PublicKey) {
		t.Fatalf("signature does not cover the payment info bytes")
	}
}

func TestBuildRequestValidates(t *testing.T) {
	_, _, site := testKeys(t)
	info := sampleInfo()
	info.Amount = decimal.Zero
	if _, err := BuildRequest(info, site, "https://merchant.example/done?d={data}"); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestParseResultSuccess(t *testing.T) {
	encoded := completedResult(t, true)

	result, err := ParseResult(encoded, verifyOpts(t))
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success")
	}
	if !result.Info.Amount.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("amount = %s, want 19.99", result.Info.Amount)
	}
	if result.Info.Custom["order_id"] != "55" {
		t.Fatalf("custom fields lost: %+v", result.Info.Custom)
	}
}

func TestParseResultFailureOutcome(t *testing.T) {
	encoded := completedResult(t, false)

	result, err := ParseResult(encoded, verifyOpts(t))
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if result.Success {
		t.Fatalf("expected verified failure outcome")
	}
}

func TestParseResultRejectsTamperedInfo(t *testing.T) {
	encoded := completedResult(t, true)
	raw, _ := base64.RawURLEncoding.DecodeString(encoded)
	var res domain.PaymentResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	res.PaymentInfo = strings.Replace(res.PaymentInfo, "19.99", "1.00", 1)
	tampered, _ := json.Marshal(res)

	_, err := ParseResult(base64.RawURLEncoding.EncodeToString(tampered), verifyOpts(t))
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseResultRejectsForgedConfirmation(t *testing.T) {
	encoded := completedResult(t, false)
	raw, _ := base64.RawURLEncoding.DecodeString(encoded)
	var res domain.PaymentResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Flip the outcome without the bank key.
	res.PaymentConfirmation = strings.Replace(res.PaymentConfirmation, "false", "true", 1)
	tampered, _ := json.Marshal(res)

	_, err := ParseResult(base64.RawURLEncoding.EncodeToString(tampered), verifyOpts(t))
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseResultRejectsWrongAuthority(t *testing.T) {
	encoded := completedResult(t, true)
	opts := verifyOpts(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	opts.AuthorityPub = &other.PublicKey

	if _, err := ParseResult(encoded, opts); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseResultRejectsGarbage(t *testing.T) {
	if _, err := ParseResult("%%%", verifyOpts(t)); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(`{"payment_info":""}`))
	if _, err := ParseResult(encoded, verifyOpts(t)); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
