package usecase

import (
	"context"
	"errors"
	"testing"

	"crossbank/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeBankDirectory struct {
	banks map[string]domain.Bank
}

func (d *fakeBankDirectory) GetByIdentity(ctx context.Context, name, code string) (*domain.Bank, error) {
	bank, ok := d.banks[name+"/"+code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := bank
	return &out, nil
}

type fakeForwarder struct {
	calls int
	err   error
	last  domain.TransferOrder
}

func (f *fakeForwarder) Forward(ctx context.Context, bank domain.Bank, order domain.TransferOrder) error {
	f.calls++
	f.last = order
	return f.err
}

type stubPolicy struct {
	eval domain.PolicyEvaluation
	err  error
}

func (p *stubPolicy) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	return p.eval, p.err
}

func testOrder() domain.TransferOrder {
	return domain.TransferOrder{
		Amount:               decimal.RequireFromString("25"),
		DestinationBankName:  "Other Bank",
		DestinationBankCode:  "OB-01",
		DestinationAccountID: "ACC-900",
	}
}

func testDirectory() *fakeBankDirectory {
	return &fakeBankDirectory{banks: map[string]domain.Bank{
		"Other Bank/OB-01": {ID: "b1", Name: "Other Bank", Code: "OB-01", Endpoint: "https://other.example"},
	}}
}

func TestReceiveTransactionForwards(t *testing.T) {
	forward := &fakeForwarder{}
	uc := &ReceiveTransaction{Banks: testDirectory(), Forward: forward}

	from := domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}
	if err := uc.Execute(context.Background(), from, testOrder()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if forward.calls != 1 {
		t.Fatalf("forward calls = %d, want 1", forward.calls)
	}
	if forward.last.DestinationAccountID != "ACC-900" {
		t.Fatalf("forwarded wrong order: %+v", forward.last)
	}
}

func TestReceiveTransactionUnknownDestination(t *testing.T) {
	forward := &fakeForwarder{}
	uc := &ReceiveTransaction{Banks: testDirectory(), Forward: forward}

	order := testOrder()
	order.DestinationBankCode = "XX-99"
	err := uc.Execute(context.Background(), domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}, order)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if forward.calls != 0 {
		t.Fatalf("unknown destination must not be forwarded")
	}
}

func TestReceiveTransactionPolicyDeny(t *testing.T) {
	forward := &fakeForwarder{}
	policy := &stubPolicy{eval: domain.PolicyEvaluation{Result: domain.PolicyResult{
		Allow: false,
		Deny:  []domain.PolicyDenyReason{{Code: "AMOUNT_LIMIT", Message: "too large"}},
	}}}
	uc := &ReceiveTransaction{Banks: testDirectory(), Policy: policy, Forward: forward}

	err := uc.Execute(context.Background(), domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}, testOrder())
	if !errors.Is(err, domain.ErrPolicyDenied) {
		t.Fatalf("expected ErrPolicyDenied, got %v", err)
	}
	if forward.calls != 0 {
		t.Fatalf("denied order must not be forwarded")
	}
}

func TestReceiveTransactionPolicyError(t *testing.T) {
	policy := &stubPolicy{err: errors.New("bundle broken")}
	uc := &ReceiveTransaction{Banks: testDirectory(), Policy: policy, Forward: &fakeForwarder{}}

	err := uc.Execute(context.Background(), domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}, testOrder())
	if err == nil {
		t.Fatalf("expected policy evaluation error")
	}
}

func TestReceiveTransactionForwardFailure(t *testing.T) {
	forward := &fakeForwarder{err: errors.New("status 500")}
	uc := &ReceiveTransaction{Banks: testDirectory(), Forward: forward}

	err := uc.Execute(context.Background(), domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}, testOrder())
	if !errors.Is(err, domain.ErrRemoteRejected) {
		t.Fatalf("expected ErrRemoteRejected, got %v", err)
	}
}

func TestReceiveTransactionValidation(t *testing.T) {
	uc := &ReceiveTransaction{Banks: testDirectory(), Forward: &fakeForwarder{}}
	from := domain.SignerIdentity{Name: "First Bank", Code: "FB-01"}

	tests := []struct {
		name   string
		mutate func(*domain.TransferOrder)
	}{
		{"zero amount", func(o *domain.TransferOrder) { o.Amount = decimal.Zero }},
		{"negative amount", func(o *domain.TransferOrder) { o.Amount = decimal.RequireFromString("-1") }},
		{"missing bank", func(o *domain.TransferOrder) { o.DestinationBankCode = "" }},
		{"missing account", func(o *domain.TransferOrder) { o.DestinationAccountID = "" }},
	}
	for _, tt := range tests {
		order := testOrder()
		tt.mutate(&order)
		if err := uc.Execute(context.Background(), from, order); !errors.Is(err, domain.ErrMalformedPayload) {
			t.Fatalf("%s: expected ErrMalformedPayload, got %v", tt.name, err)
		}
	}
}

func TestReceiveCreditAppliesLeg(t *testing.T) {
	ledger := seedLedger(t, "10")
	uc := &ReceiveCredit{Accounts: ledger, Ledger: ledger}

	order := testOrder()
	order.DestinationAccountID = "ACC-001"
	order.SenderName = "John Doe"
	if err := uc.Execute(context.Background(), order); err != nil {
		t.Fatalf("execute: %v", err)
	}

	acct, _ := ledger.GetByID(context.Background(), "acct-1")
	if !acct.Balance.Equal(decimal.RequireFromString("35")) {
		t.Fatalf("balance = %s, want 35", acct.Balance)
	}
	legs := ledger.LegsByAccount(context.Background(), "acct-1")
	if len(legs) != 1 || legs[0].SenderName != "John Doe" {
		t.Fatalf("credit leg missing or wrong: %+v", legs)
	}
}

func TestReceiveCreditUnknownAccount(t *testing.T) {
	ledger := seedLedger(t, "10")
	uc := &ReceiveCredit{Accounts: ledger, Ledger: ledger}

	order := testOrder()
	order.DestinationAccountID = "ACC-404"
	if err := uc.Execute(context.Background(), order); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
